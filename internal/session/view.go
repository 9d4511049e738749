package session

import (
	"errors"
	"fmt"

	"gmfeed/internal/cooldown"
	"gmfeed/internal/model"
	"gmfeed/internal/submit"
)

const (
	LabelDisconnected = "Connect wallet to GM"
	LabelReady        = "YOU CAN GM NOW!"
	labelNextPrefix   = "NEXT GM IN "
)

// View is an immutable snapshot of the session for the display surface.
type View struct {
	Loaded           bool                  `json:"loaded"`
	GlobalCount      int                   `json:"global_count"`
	Account          string                `json:"account,omitempty"`
	Stats            model.UserStats       `json:"stats"`
	SecondsRemaining uint64                `json:"seconds_remaining"`
	Countdown        string                `json:"countdown"`
	Label            string                `json:"label"`
	Submission       model.SubmissionState `json:"submission"`
	Negotiating      bool                  `json:"negotiating,omitempty"`
	Recent           []model.GreetingEvent `json:"recent"`
}

func (s *Session) view() View {
	remaining := s.clock.Remaining()
	userStats := s.derived.User
	if last, ok := userStats.Last(); ok {
		userStats.LastTimestamp = &last
	}

	return View{
		Loaded:           s.loaded,
		GlobalCount:      s.derived.GlobalCount,
		Account:          s.account,
		Stats:            userStats,
		SecondsRemaining: remaining,
		Countdown:        cooldown.Format(remaining),
		Label:            label(s.account, remaining),
		Submission:       s.machine.State(),
		Negotiating:      s.negotiating,
		Recent:           s.log.Newest(s.cfg.RecentLimit),
	}
}

func label(account string, remaining uint64) string {
	switch {
	case account == "":
		return LabelDisconnected
	case remaining > 0:
		return labelNextPrefix + cooldown.Format(remaining)
	default:
		return LabelReady
	}
}

// NoticeKind classifies user-visible alerts.
type NoticeKind int

const (
	// NoticeRejected: a submit request failed its guards.
	NoticeRejected NoticeKind = iota
	// NoticeChain: chain negotiation failed, nothing was sent.
	NoticeChain
	// NoticeFailed: the transaction failed during dispatch or finality.
	NoticeFailed
	// NoticeHistory: the history fetch failed; the log is unchanged.
	NoticeHistory
	// NoticeLive: live delivery stopped.
	NoticeLive
)

func (k NoticeKind) String() string {
	switch k {
	case NoticeRejected:
		return "rejected"
	case NoticeChain:
		return "chain"
	case NoticeFailed:
		return "failed"
	case NoticeHistory:
		return "history"
	case NoticeLive:
		return "live"
	default:
		return "unknown"
	}
}

// Notice is a one-line alert for the user.
type Notice struct {
	Kind    NoticeKind
	Message string
	Err     error
}

func rejectionMessage(err error) string {
	switch {
	case errors.Is(err, submit.ErrNotConnected):
		return "Connect wallet first."
	case errors.Is(err, submit.ErrCoolingDown):
		return "You are on cooldown."
	case errors.Is(err, submit.ErrBusy):
		return "A GM is already in progress."
	case errors.Is(err, ErrHistoryLoading):
		return "Greetings are still loading."
	default:
		return err.Error()
	}
}

func chainMessage(err error) string {
	switch {
	case errors.Is(err, model.ErrUserRejected):
		return "Network switch rejected in wallet."
	case errors.Is(err, model.ErrChainMismatch):
		return fmt.Sprintf("Could not switch the wallet to the target network: %s", submit.Reason(err))
	default:
		return submit.Reason(err)
	}
}
