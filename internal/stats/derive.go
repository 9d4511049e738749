// Package stats derives the global count and per-account statistics from the
// greeting log.
//
// Locally confirmed submissions are tracked as pending effects until the
// matching event shows up in the log, so the local account's count never lags
// behind a confirmation and is never counted twice.
package stats

import "gmfeed/internal/model"

// Effect is an optimistic local submission not yet seen in the log.
type Effect struct {
	TxHash    string `json:"tx_hash"`
	Timestamp uint64 `json:"timestamp"`
}

// Result is the derived state for one (log, account, effects) input.
type Result struct {
	GlobalCount int             `json:"global_count"`
	User        model.UserStats `json:"user"`
	Pending     []Effect        `json:"pending,omitempty"`
}

// Derive rescans events (newest first) for account. Effects whose tx hash is
// present in events are dropped; the rest count towards the user stats.
func Derive(events []model.GreetingEvent, account string, pending []Effect) Result {
	result := Result{GlobalCount: len(events)}

	key := model.AccountKey(account)
	if key == "" {
		return result
	}

	var count int
	var last uint64
	var hasLast bool
	seen := make(map[string]struct{}, len(pending))
	for _, event := range events {
		if !event.SentBy(key) {
			continue
		}
		count++
		if !hasLast || event.Timestamp > last {
			last = event.Timestamp
			hasLast = true
		}
		if len(pending) > 0 {
			seen[model.TxKey(event.TxHash)] = struct{}{}
		}
	}

	for _, effect := range pending {
		if _, ok := seen[model.TxKey(effect.TxHash)]; ok {
			continue
		}
		result.Pending = append(result.Pending, effect)
		count++
		if !hasLast || effect.Timestamp > last {
			last = effect.Timestamp
			hasLast = true
		}
	}

	result.User.Count = count
	if hasLast {
		result.User.LastTimestamp = &last
	}
	return result
}
