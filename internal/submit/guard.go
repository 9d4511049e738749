package submit

import (
	"errors"
	"time"

	"gmfeed/internal/cooldown"
	"gmfeed/internal/model"
)

var (
	ErrNotConnected = errors.New("connect wallet first")
	ErrCoolingDown  = errors.New("you are on cooldown")
	ErrBusy         = errors.New("a submission is already in progress")
)

// Check evaluates the submit preconditions. negotiating is true while a
// chain negotiation for an earlier request is still in flight.
func Check(w Wallet, state model.SubmissionState, negotiating bool, stats model.UserStats, now time.Time) error {
	if w == nil || w.Account() == "" {
		return ErrNotConnected
	}
	if !cooldown.Ready(stats.LastTimestamp, now) {
		return ErrCoolingDown
	}
	if state.Stage != model.StageIdle || negotiating {
		return ErrBusy
	}
	return nil
}
