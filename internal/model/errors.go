package model

import "errors"

var (
	// ErrNetwork marks a read or write connection that could not be reached.
	ErrNetwork = errors.New("network unavailable")
	// ErrChainMismatch marks a wallet that is not on the target chain.
	ErrChainMismatch = errors.New("wallet is not on the target chain")
	// ErrUserRejected marks an explicit denial in the wallet.
	ErrUserRejected = errors.New("user rejected the request")
	// ErrTransactionFailed marks a dispatch or finality failure.
	ErrTransactionFailed = errors.New("transaction failed")
)
