package greeter

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"gmfeed/internal/model"
)

// Decoder turns GMSent logs into greeting events.
type Decoder struct {
	event abi.Event
}

// NewDecoder builds a decoder from the contract ABI.
func NewDecoder() (*Decoder, error) {
	contractABI, err := ContractABI()
	if err != nil {
		return nil, fmt.Errorf("parse contract abi: %w", err)
	}
	event, ok := contractABI.Events[EventName]
	if !ok {
		return nil, fmt.Errorf("abi has no %s event", EventName)
	}
	return &Decoder{event: event}, nil
}

// Topic returns the event signature hash used as topic0.
func (d *Decoder) Topic() common.Hash {
	return d.event.ID
}

// CanDecode checks if the log carries the GMSent signature.
func (d *Decoder) CanDecode(log types.Log) bool {
	return len(log.Topics) > 0 && log.Topics[0] == d.event.ID
}

// Decode converts a raw log into a GreetingEvent.
func (d *Decoder) Decode(log types.Log) (model.GreetingEvent, error) {
	if !d.CanDecode(log) {
		return model.GreetingEvent{}, fmt.Errorf("unsupported topic0")
	}

	indexed := indexedArguments(d.event.Inputs)
	if len(log.Topics) != len(indexed)+1 {
		return model.GreetingEvent{}, fmt.Errorf("expected %d topics, got %d", len(indexed)+1, len(log.Topics))
	}

	values := make(map[string]interface{}, len(d.event.Inputs))
	if err := abi.ParseTopicsIntoMap(values, indexed, log.Topics[1:]); err != nil {
		return model.GreetingEvent{}, fmt.Errorf("parse topics: %w", err)
	}
	if err := d.event.Inputs.NonIndexed().UnpackIntoMap(values, log.Data); err != nil {
		return model.GreetingEvent{}, fmt.Errorf("unpack %s: %w", d.event.Name, err)
	}

	sender, ok := values["sender"].(common.Address)
	if !ok {
		return model.GreetingEvent{}, fmt.Errorf("sender: unexpected type %T", values["sender"])
	}
	message, ok := values["message"].(string)
	if !ok {
		return model.GreetingEvent{}, fmt.Errorf("message: unexpected type %T", values["message"])
	}
	timestamp, ok := values["timestamp"].(*big.Int)
	if !ok || timestamp == nil {
		return model.GreetingEvent{}, fmt.Errorf("timestamp: unexpected type %T", values["timestamp"])
	}
	if !timestamp.IsUint64() {
		return model.GreetingEvent{}, fmt.Errorf("timestamp out of range: %s", timestamp)
	}

	return model.GreetingEvent{
		Sender:      sender.Hex(),
		Message:     message,
		Timestamp:   timestamp.Uint64(),
		TxHash:      log.TxHash.Hex(),
		BlockNumber: log.BlockNumber,
		LogIndex:    uint64(log.Index),
	}, nil
}

func indexedArguments(args abi.Arguments) abi.Arguments {
	indexed := make(abi.Arguments, 0, len(args))
	for _, arg := range args {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return indexed
}
