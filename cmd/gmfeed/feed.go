package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func runFeed(cmd *cobra.Command, _ []string) error {
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

	s, err := a.newSession(nil)
	if err != nil {
		return err
	}
	renderer, err := a.openRenderer()
	if err != nil {
		return err
	}
	defer renderer.Close()
	a.attach(s, renderer, nil, nil)

	a.logger.Info("feed start",
		zap.String("contract", a.cfg.Contract),
		zap.String("account", a.cfg.Account),
		zap.Uint64("from", a.cfg.FromBlock),
		zap.Int("max_events", a.cfg.MaxEvents),
	)
	return ignoreCanceled(s.Run(ctx))
}
