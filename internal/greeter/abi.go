package greeter

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const (
	// EventName is the greeting event emitted by the contract.
	EventName = "GMSent"
	// SendMethod is the rate-limited greeting method.
	SendMethod = "sendGM"
)

const gmSenderABIJSON = `[
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "sender", "type": "address"},
      {"indexed": false, "internalType": "string", "name": "message", "type": "string"},
      {"indexed": false, "internalType": "uint256", "name": "timestamp", "type": "uint256"}
    ],
    "name": "GMSent",
    "type": "event"
  },
  {
    "inputs": [
      {"internalType": "string", "name": "message", "type": "string"}
    ],
    "name": "sendGM",
    "outputs": [],
    "stateMutability": "nonpayable",
    "type": "function"
  }
]`

var (
	gmSenderABI     abi.ABI
	gmSenderABIOnce sync.Once
	gmSenderABIErr  error
)

// ContractABI returns the parsed GMSender ABI.
func ContractABI() (abi.ABI, error) {
	gmSenderABIOnce.Do(func() {
		gmSenderABI, gmSenderABIErr = abi.JSON(strings.NewReader(gmSenderABIJSON))
	})
	return gmSenderABI, gmSenderABIErr
}

// PackSend encodes a sendGM call.
func PackSend(message string) ([]byte, error) {
	contractABI, err := ContractABI()
	if err != nil {
		return nil, err
	}
	return contractABI.Pack(SendMethod, message)
}
