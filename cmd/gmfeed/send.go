package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"gmfeed/internal/model"
	"gmfeed/internal/session"
)

func runSend(cmd *cobra.Command, _ []string) error {
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
		return fmt.Errorf("send needs a wallet (--wallet keystore or external)")
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

	tracker := newSendTracker()
	a.attach(s, renderer, tracker.view, tracker.notice)

	g, gctx := errgroup.WithContext(ctx)
	runCtx, cancelRun := context.WithCancel(gctx)
	defer cancelRun()

	g.Go(func() error {
		return ignoreCanceled(s.Run(runCtx))
	})
	g.Go(func() error {
		defer cancelRun()
		select {
		case <-tracker.loaded:
		case err := <-tracker.done:
			return err
		case <-gctx.Done():
			return nil
		}
		if err := s.Submit(gctx); err != nil {
			return ignoreCanceled(err)
		}
		select {
		case err := <-tracker.done:
			return err
		case <-gctx.Done():
			return nil
		}
	})
	return g.Wait()
}

// sendTracker follows one submission through the session hooks. Hooks run
// on the session loop; results leave through channels.
type sendTracker struct {
	loaded     chan struct{}
	loadedOnce sync.Once
	done       chan error

	active  bool
	failure string
}

func newSendTracker() *sendTracker {
	return &sendTracker{loaded: make(chan struct{}), done: make(chan error, 1)}
}

func (t *sendTracker) finish(err error) {
	select {
	case t.done <- err:
	default:
	}
}

func (t *sendTracker) view(view session.View) {
	if view.Loaded {
		t.loadedOnce.Do(func() { close(t.loaded) })
	}

	switch view.Submission.Stage {
	case model.StageIdle:
		if !t.active {
			return
		}
		if t.failure != "" {
			t.finish(fmt.Errorf("%w: %s", model.ErrTransactionFailed, t.failure))
			return
		}
		t.finish(nil)
	case model.StageFailed:
		t.active = true
		t.failure = view.Submission.Reason
	default:
		t.active = true
	}
}

func (t *sendTracker) notice(notice session.Notice) {
	switch notice.Kind {
	case session.NoticeChain:
		t.finish(fmt.Errorf("%s: %w", notice.Message, notice.Err))
	case session.NoticeHistory:
		t.finish(fmt.Errorf("%s: %w", notice.Message, notice.Err))
	}
}
