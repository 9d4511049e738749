package chain

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestBuildQuery(t *testing.T) {
	contract := common.HexToAddress("0x8001C883738a3AC21b53A219e5C087e8f9b2a80f")
	topic := common.HexToHash("0x01")

	query := buildQuery(100, 200, []common.Address{contract}, []common.Hash{topic})

	if query.FromBlock.Uint64() != 100 || query.ToBlock.Uint64() != 200 {
		t.Fatalf("range mismatch: %s-%s", query.FromBlock, query.ToBlock)
	}
	if len(query.Addresses) != 1 || query.Addresses[0] != contract {
		t.Fatalf("address mismatch: %v", query.Addresses)
	}
	if len(query.Topics) != 1 || len(query.Topics[0]) != 1 || query.Topics[0][0] != topic {
		t.Fatalf("topics mismatch: %v", query.Topics)
	}
}

func TestBuildQueryWithoutTopics(t *testing.T) {
	query := buildQuery(5, 5, nil, nil)
	if query.Topics != nil {
		t.Fatalf("expected no topic filter")
	}
	if query.FromBlock.Uint64() != 5 || query.ToBlock.Uint64() != 5 {
		t.Fatalf("range mismatch: %s-%s", query.FromBlock, query.ToBlock)
	}
}
