package wallet

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"

	"gmfeed/internal/model"
)

// EIP-1193 / EIP-3326 provider error codes.
const (
	codeUserRejected      = 4001
	codeUnrecognizedChain = 4902
)

// Switcher is the chain-management side of a wallet.
type Switcher interface {
	SwitchChain(ctx context.Context, chainID string) error
	AddChain(ctx context.Context, target TargetChain) error
}

// Negotiate puts the wallet on the target chain. An unrecognized chain is
// added and switched to again; a user denial returns model.ErrUserRejected;
// anything else returns model.ErrChainMismatch.
func Negotiate(ctx context.Context, s Switcher, target TargetChain, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	err := s.SwitchChain(ctx, target.HexID())
	switch {
	case err == nil:
		return nil
	case isUnrecognizedChain(err):
		logger.Info("chain unknown to wallet, adding", zap.Uint64("chain_id", target.ID), zap.String("name", target.Name))
		if err := s.AddChain(ctx, target); err != nil {
			return addFailed(target, err, logger)
		}
		if err := s.SwitchChain(ctx, target.HexID()); err != nil {
			return addFailed(target, err, logger)
		}
		return nil
	case isUserRejected(err):
		return fmt.Errorf("switch to %s: %w", target.Name, model.ErrUserRejected)
	default:
		logger.Error("switch chain failed", zap.Uint64("chain_id", target.ID), zap.Error(err))
		return fmt.Errorf("switch to %s: %w: %v", target.Name, model.ErrChainMismatch, err)
	}
}

func addFailed(target TargetChain, err error, logger *zap.Logger) error {
	if isUserRejected(err) {
		return fmt.Errorf("add network %s: %w", target.Name, model.ErrUserRejected)
	}
	logger.Error("add network failed", zap.Uint64("chain_id", target.ID), zap.Error(err))
	return fmt.Errorf("add network %s (rpc %s, chain id %d): %w: %v", target.Name, target.PrimaryRPC(), target.ID, model.ErrChainMismatch, err)
}

func errorCode(err error) (int, bool) {
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return rpcErr.ErrorCode(), true
	}
	return 0, false
}

func isUnrecognizedChain(err error) bool {
	if code, ok := errorCode(err); ok && code == codeUnrecognizedChain {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "unrecognized chain")
}

func isUserRejected(err error) bool {
	if errors.Is(err, model.ErrUserRejected) {
		return true
	}
	code, ok := errorCode(err)
	return ok && code == codeUserRejected
}

// providerError is a coded error raised by local wallet backends.
type providerError struct {
	code    int
	message string
}

func (e *providerError) Error() string  { return e.message }
func (e *providerError) ErrorCode() int { return e.code }
