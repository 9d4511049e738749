// Package display renders session views for a terminal or as JSON lines.
package display

import (
	"strings"
	"time"

	"gmfeed/internal/session"
)

const (
	emptyMessage = "GM"
	timeLayout   = "2006-01-02 15:04:05"
)

// Renderer is a display surface for session output.
type Renderer interface {
	Render(view session.View) error
	Notice(notice session.Notice) error
	Close() error
}

// ShortAddress abbreviates an address as 0x1234...abcd.
func ShortAddress(address string) string {
	if len(address) <= 10 {
		return address
	}
	return address[:6] + "..." + address[len(address)-4:]
}

// MessageText shows an empty greeting as "GM".
func MessageText(message string) string {
	if strings.TrimSpace(message) == "" {
		return emptyMessage
	}
	return message
}

// TxURL links a transaction on the block explorer.
func TxURL(explorer, txHash string) string {
	if explorer == "" || txHash == "" {
		return ""
	}
	return strings.TrimRight(explorer, "/") + "/tx/" + txHash
}

// LocalTime formats a unix timestamp in the local zone.
func LocalTime(timestamp uint64) string {
	return time.Unix(int64(timestamp), 0).Local().Format(timeLayout)
}
