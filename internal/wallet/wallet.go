// Package wallet is the write side of the network connector: it negotiates
// the target chain and dispatches sendGM transactions through a signer
// backend.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"gmfeed/internal/greeter"
	"gmfeed/internal/model"
	"gmfeed/internal/submit"
)

// ReceiptSource looks up receipts of mined transactions.
type ReceiptSource interface {
	TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

// Backend signs and broadcasts transactions for one account.
type Backend interface {
	Switcher
	Account() common.Address
	Send(ctx context.Context, to common.Address, data []byte) (common.Hash, error)
	Receipts() ReceiptSource
}

// Config holds the wallet's fixed targets.
type Config struct {
	Target       TargetChain
	Contract     common.Address
	PollInterval time.Duration
}

// Wallet implements submit.Wallet on top of a Backend.
type Wallet struct {
	cfg     Config
	backend Backend
	logger  *zap.Logger
}

// New builds a Wallet.
func New(cfg Config, backend Backend, logger *zap.Logger) *Wallet {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	return &Wallet{cfg: cfg, backend: backend, logger: logger}
}

// Account returns the checksummed address of the connected account.
func (w *Wallet) Account() string {
	if w == nil || w.backend == nil {
		return ""
	}
	account := w.backend.Account()
	if account == (common.Address{}) {
		return ""
	}
	return account.Hex()
}

// EnsureTargetChain runs chain negotiation against the backend.
func (w *Wallet) EnsureTargetChain(ctx context.Context) error {
	return Negotiate(ctx, w.backend, w.cfg.Target, w.logger)
}

// SendGreeting dispatches sendGM(message) to the contract.
func (w *Wallet) SendGreeting(ctx context.Context, message string) (submit.Handle, error) {
	data, err := greeter.PackSend(message)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", greeter.SendMethod, err)
	}

	hash, err := w.backend.Send(ctx, w.cfg.Contract, data)
	if err != nil {
		if isUserRejected(err) {
			return nil, fmt.Errorf("%w: %v", model.ErrUserRejected, err)
		}
		return nil, err
	}

	w.logger.Info("greeting dispatched", zap.String("tx", hash.Hex()), zap.String("account", w.Account()))
	return &txHandle{hash: hash, receipts: w.backend.Receipts(), interval: w.cfg.PollInterval, logger: w.logger}, nil
}

type txHandle struct {
	hash     common.Hash
	receipts ReceiptSource
	interval time.Duration
	logger   *zap.Logger
}

func (h *txHandle) Hash() string {
	return h.hash.Hex()
}

// Wait polls for the receipt until the transaction is mined and checks its
// status.
func (h *txHandle) Wait(ctx context.Context) error {
	if h.receipts == nil {
		return fmt.Errorf("%w: no receipt source", model.ErrNetwork)
	}

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		receipt, err := h.receipts.TransactionReceipt(ctx, h.hash)
		switch {
		case err == nil && receipt != nil:
			if receipt.Status != types.ReceiptStatusSuccessful {
				return fmt.Errorf("%w: %s reverted in block %s", model.ErrTransactionFailed, h.hash.Hex(), receipt.BlockNumber)
			}
			h.logger.Info("greeting mined", zap.String("tx", h.hash.Hex()), zap.Uint64("gas_used", receipt.GasUsed))
			return nil
		case err != nil && !errors.Is(err, ethereum.NotFound):
			h.logger.Debug("receipt lookup failed", zap.String("tx", h.hash.Hex()), zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
