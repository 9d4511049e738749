package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func runEnsureChain(cmd *cobra.Command, _ []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.connect(ctx); err != nil {
		return err
	}
	w, err := a.openWallet(ctx)
	if err != nil {
		return err
	}
	if w == nil {
		return fmt.Errorf("ensure-chain needs a wallet (--wallet keystore or external)")
	}

	target := a.target()
	if err := w.EnsureTargetChain(ctx); err != nil {
		return err
	}
	a.logger.Info("wallet on target chain", zap.Uint64("chain_id", target.ID), zap.String("name", target.Name))
	fmt.Fprintf(os.Stdout, "Wallet %s is on %s (chain id %d)\n", w.Account(), target.Name, target.ID)
	return nil
}
