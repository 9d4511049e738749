package model

// UserStats is derived from the event log for a single account.
type UserStats struct {
	Count         int     `json:"count"`
	LastTimestamp *uint64 `json:"last_timestamp,omitempty"`
}

// Last returns the last timestamp and whether it is present.
func (s UserStats) Last() (uint64, bool) {
	if s.LastTimestamp == nil {
		return 0, false
	}
	return *s.LastTimestamp, true
}
