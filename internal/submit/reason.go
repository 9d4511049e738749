package submit

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

// Reason extracts a one-line human readable message from a failure.
// JSON-RPC errors yield their message, with the decoded revert reason when
// the node returned one.
func Reason(err error) string {
	if err == nil {
		return ""
	}

	var rpcErr rpc.Error
	if !errors.As(err, &rpcErr) {
		return err.Error()
	}

	message := rpcErr.Error()
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if data, ok := dataErr.ErrorData().(string); ok {
			if raw, decodeErr := hexutil.Decode(data); decodeErr == nil {
				if revert, unpackErr := abi.UnpackRevert(raw); unpackErr == nil {
					return fmt.Sprintf("%s: %s", message, revert)
				}
			}
		}
	}
	return message
}
