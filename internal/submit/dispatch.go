package submit

import (
	"context"
	"errors"
	"fmt"

	"gmfeed/internal/model"
)

// UpdateKind enumerates dispatch pipeline progress reports.
type UpdateKind int

const (
	// UpdateChainRejected: negotiation failed, nothing was sent.
	UpdateChainRejected UpdateKind = iota
	// UpdateChainReady: the wallet is on the target chain, sending starts.
	UpdateChainReady
	UpdateDispatched
	UpdateConfirmed
	UpdateFailed
)

func (k UpdateKind) String() string {
	switch k {
	case UpdateChainRejected:
		return "chain_rejected"
	case UpdateChainReady:
		return "chain_ready"
	case UpdateDispatched:
		return "dispatched"
	case UpdateConfirmed:
		return "confirmed"
	case UpdateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Update is one progress report from Dispatch.
type Update struct {
	Kind   UpdateKind
	TxHash string
	Err    error
}

// Dispatch negotiates the chain, sends the greeting and waits for finality,
// reporting each step in order. It is meant to run off the owner's loop.
func Dispatch(ctx context.Context, w Wallet, message string, report func(Update)) {
	if err := w.EnsureTargetChain(ctx); err != nil {
		report(Update{Kind: UpdateChainRejected, Err: err})
		return
	}
	report(Update{Kind: UpdateChainReady})

	handle, err := w.SendGreeting(ctx, message)
	if err != nil {
		report(Update{Kind: UpdateFailed, Err: classify("send greeting", err)})
		return
	}
	hash := handle.Hash()
	report(Update{Kind: UpdateDispatched, TxHash: hash})

	if err := handle.Wait(ctx); err != nil {
		report(Update{Kind: UpdateFailed, TxHash: hash, Err: classify("wait for "+hash, err)})
		return
	}
	report(Update{Kind: UpdateConfirmed, TxHash: hash})
}

func classify(op string, err error) error {
	switch {
	case errors.Is(err, model.ErrUserRejected),
		errors.Is(err, model.ErrNetwork),
		errors.Is(err, model.ErrTransactionFailed),
		errors.Is(err, context.Canceled):
		return fmt.Errorf("%s: %w", op, err)
	default:
		return fmt.Errorf("%s: %w: %w", op, model.ErrTransactionFailed, err)
	}
}
