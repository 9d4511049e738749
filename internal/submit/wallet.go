package submit

import "context"

// Wallet is the write-capable connection used by the controller.
type Wallet interface {
	// Account returns the connected address, empty when none.
	Account() string
	// EnsureTargetChain switches the wallet to the target chain, adding the
	// chain definition when the wallet does not know it.
	EnsureTargetChain(ctx context.Context) error
	// SendGreeting dispatches a sendGM transaction.
	SendGreeting(ctx context.Context, message string) (Handle, error)
}

// Handle tracks a dispatched transaction.
type Handle interface {
	Hash() string
	// Wait blocks until the transaction is final, returning an error when it
	// was not included successfully.
	Wait(ctx context.Context) error
}
