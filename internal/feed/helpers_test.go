package feed

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"gmfeed/internal/greeter"
	"gmfeed/internal/model"
)

var testContract = common.HexToAddress("0x8001C883738a3AC21b53A219e5C087e8f9b2a80f")

type fakeSource struct {
	mu        sync.Mutex
	head      uint64
	logs      []types.Log
	headErr   error
	filterErr error
	calls     []BlockRange
}

func (f *fakeSource) LatestBlockNumber(ctx context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.headErr != nil {
		return 0, f.headErr
	}
	return f.head, nil
}

func (f *fakeSource) FilterLogs(ctx context.Context, fromBlock, toBlock uint64, addresses []common.Address, topic0 []common.Hash) ([]types.Log, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, BlockRange{From: fromBlock, To: toBlock})
	if f.filterErr != nil {
		return nil, f.filterErr
	}
	out := make([]types.Log, 0)
	for _, log := range f.logs {
		if log.BlockNumber >= fromBlock && log.BlockNumber <= toBlock {
			out = append(out, log)
		}
	}
	return out, nil
}

func (f *fakeSource) add(head uint64, logs ...types.Log) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.head = head
	f.logs = append(f.logs, logs...)
}

func newTestDecoder(t *testing.T) *greeter.Decoder {
	t.Helper()
	decoder, err := greeter.NewDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}
	return decoder
}

func greetingLog(t *testing.T, block uint64, index uint, sender common.Address, message string, timestamp int64) types.Log {
	t.Helper()
	contractABI, err := greeter.ContractABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	event := contractABI.Events[greeter.EventName]
	data, err := event.Inputs.NonIndexed().Pack(message, big.NewInt(timestamp))
	if err != nil {
		t.Fatalf("pack event: %v", err)
	}
	return types.Log{
		Address:     testContract,
		Topics:      []common.Hash{event.ID, common.BytesToHash(sender.Bytes())},
		Data:        data,
		BlockNumber: block,
		TxHash:      common.BigToHash(big.NewInt(int64(block*1000) + int64(index))),
		Index:       index,
	}
}

func makeEvents(n int) []model.GreetingEvent {
	events := make([]model.GreetingEvent, n)
	for i := range events {
		events[i] = model.GreetingEvent{
			Sender:    "0x1111111111111111111111111111111111111111",
			Timestamp: uint64(1700000000 + i),
			TxHash:    fmt.Sprintf("0x%064x", i),
		}
	}
	return events
}
