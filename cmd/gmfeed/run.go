package main

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"gmfeed/internal/session"
)

var errQuit = errors.New("quit")

func runInteractive(cmd *cobra.Command, _ []string) error {
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

	s, err := a.newSession(w)
	if err != nil {
		return err
	}
	renderer, err := a.openRenderer()
	if err != nil {
		return err
	}
	defer renderer.Close()
	a.attach(s, renderer, nil, nil)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.Run(gctx)
	})
	g.Go(func() error {
		return readCommands(gctx, os.Stdin, s, a.logger)
	})

	err = g.Wait()
	if errors.Is(err, errQuit) {
		return nil
	}
	return ignoreCanceled(err)
}

// readCommands turns stdin lines into session requests: q quits, r reloads
// history, anything else sends a GM. EOF stops reading but keeps the feed
// running.
func readCommands(ctx context.Context, in io.Reader, s *session.Session, logger *zap.Logger) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			switch strings.ToLower(strings.TrimSpace(line)) {
			case "q", "quit", "exit":
				return errQuit
			case "r", "reload":
				if err := s.Reload(ctx); err != nil {
					return ignoreCanceled(err)
				}
			default:
				if err := s.Submit(ctx); err != nil {
					logger.Debug("submit not accepted", zap.Error(err))
					if errors.Is(err, session.ErrClosed) {
						return nil
					}
				}
			}
		}
	}
}
