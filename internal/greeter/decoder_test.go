package greeter

import (
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

func TestDecoderGMSent(t *testing.T) {
	contractABI, err := ContractABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}

	decoder, err := NewDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	sender := common.HexToAddress("0x2222222222222222222222222222222222222222")
	data, err := contractABI.Events[EventName].Inputs.NonIndexed().Pack("gm frens", big.NewInt(1700000000))
	if err != nil {
		t.Fatalf("pack event: %v", err)
	}

	log := buildLog(decoder.Topic(), data, topicFromAddress(sender))
	event, err := decoder.Decode(log)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if event.Sender != sender.Hex() {
		t.Fatalf("sender mismatch: %s", event.Sender)
	}
	if event.Message != "gm frens" {
		t.Fatalf("message mismatch: %q", event.Message)
	}
	if event.Timestamp != 1700000000 {
		t.Fatalf("timestamp mismatch: %d", event.Timestamp)
	}
	if event.TxHash != log.TxHash.Hex() || event.BlockNumber != 12345 || event.LogIndex != 1 {
		t.Fatalf("log position mismatch: %+v", event)
	}
}

func TestDecoderEmptyMessage(t *testing.T) {
	contractABI, err := ContractABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	decoder, err := NewDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	data, err := contractABI.Events[EventName].Inputs.NonIndexed().Pack("", big.NewInt(42))
	if err != nil {
		t.Fatalf("pack event: %v", err)
	}
	event, err := decoder.Decode(buildLog(decoder.Topic(), data, topicFromAddress(common.HexToAddress("0x01"))))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if event.Message != "" || event.Timestamp != 42 {
		t.Fatalf("unexpected event: %+v", event)
	}
}

func TestDecoderRejectsForeignLogs(t *testing.T) {
	decoder, err := NewDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	foreign := buildLog(common.HexToHash("0xdead"), nil)
	if decoder.CanDecode(foreign) {
		t.Fatalf("foreign topic should not be decodable")
	}
	if _, err := decoder.Decode(foreign); err == nil {
		t.Fatalf("expected error for foreign topic")
	}

	missingSender := buildLog(decoder.Topic(), nil)
	if _, err := decoder.Decode(missingSender); err == nil {
		t.Fatalf("expected error for missing indexed sender")
	}
}

func TestPackSend(t *testing.T) {
	contractABI, err := ContractABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}

	data, err := PackSend("")
	if err != nil {
		t.Fatalf("pack send: %v", err)
	}
	method := contractABI.Methods[SendMethod]
	if !strings.EqualFold(common.Bytes2Hex(data[:4]), common.Bytes2Hex(method.ID)) {
		t.Fatalf("selector mismatch")
	}

	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		t.Fatalf("unpack args: %v", err)
	}
	if len(args) != 1 || args[0].(string) != "" {
		t.Fatalf("args mismatch: %v", args)
	}
}

func buildLog(topic0 common.Hash, data []byte, indexed ...common.Hash) types.Log {
	topics := append([]common.Hash{topic0}, indexed...)
	return types.Log{
		Address:     common.HexToAddress("0x8001C883738a3AC21b53A219e5C087e8f9b2a80f"),
		Topics:      topics,
		Data:        data,
		BlockNumber: 12345,
		TxHash:      common.HexToHash("0xdef"),
		Index:       1,
	}
}

func topicFromAddress(addr common.Address) common.Hash {
	return common.BytesToHash(addr.Bytes())
}
