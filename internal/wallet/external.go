package wallet

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"

	"gmfeed/internal/model"
)

// External is a Backend that delegates signing to an EIP-1193 style signer
// reachable over JSON-RPC (for example Frame or a wallet bridge).
type External struct {
	client   *rpc.Client
	receipts ReceiptSource
	account  common.Address
}

type transactionArgs struct {
	From common.Address `json:"from"`
	To   common.Address `json:"to"`
	Data hexutil.Bytes  `json:"data"`
}

// DialExternal connects to the signer and requests its accounts.
func DialExternal(ctx context.Context, url string, receipts ReceiptSource) (*External, error) {
	client, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dial signer %s: %w: %v", url, model.ErrNetwork, err)
	}
	ext := NewExternal(client, receipts)
	if err := ext.Connect(ctx); err != nil {
		client.Close()
		return nil, err
	}
	return ext, nil
}

// NewExternal wraps an already dialed signer client.
func NewExternal(client *rpc.Client, receipts ReceiptSource) *External {
	return &External{client: client, receipts: receipts}
}

// Connect runs eth_requestAccounts and selects the first account.
func (e *External) Connect(ctx context.Context) error {
	var accounts []common.Address
	if err := e.client.CallContext(ctx, &accounts, "eth_requestAccounts"); err != nil {
		if isUserRejected(err) {
			return fmt.Errorf("request accounts: %w", model.ErrUserRejected)
		}
		return fmt.Errorf("request accounts: %w: %v", model.ErrNetwork, err)
	}
	if len(accounts) == 0 {
		return fmt.Errorf("signer returned no accounts")
	}
	e.account = accounts[0]
	return nil
}

// Close closes the signer connection.
func (e *External) Close() {
	if e.client != nil {
		e.client.Close()
	}
}

func (e *External) Account() common.Address {
	return e.account
}

func (e *External) SwitchChain(ctx context.Context, chainID string) error {
	return e.client.CallContext(ctx, nil, "wallet_switchEthereumChain", switchChainParams{ChainID: chainID})
}

func (e *External) AddChain(ctx context.Context, target TargetChain) error {
	return e.client.CallContext(ctx, nil, "wallet_addEthereumChain", target.addParams())
}

func (e *External) Send(ctx context.Context, to common.Address, data []byte) (common.Hash, error) {
	var hash common.Hash
	args := transactionArgs{From: e.account, To: to, Data: data}
	if err := e.client.CallContext(ctx, &hash, "eth_sendTransaction", args); err != nil {
		return common.Hash{}, err
	}
	return hash, nil
}

func (e *External) Receipts() ReceiptSource {
	return e.receipts
}
