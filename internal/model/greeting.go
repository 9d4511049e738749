package model

import "strings"

// GreetingEvent is a decoded GMSent log.
type GreetingEvent struct {
	Sender      string `json:"sender"`
	Message     string `json:"message"`
	Timestamp   uint64 `json:"timestamp"`
	TxHash      string `json:"tx_hash"`
	BlockNumber uint64 `json:"block_number"`
	LogIndex    uint64 `json:"log_index"`
}

// SentBy reports whether the event was sent by account, ignoring case.
func (e GreetingEvent) SentBy(account string) bool {
	key := AccountKey(account)
	return key != "" && AccountKey(e.Sender) == key
}

// AccountKey normalizes an address for comparisons and map keys.
func AccountKey(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// TxKey normalizes a transaction hash for comparisons.
func TxKey(hash string) string {
	return strings.ToLower(strings.TrimSpace(hash))
}
