// Package session owns the client state and serializes every change to it on
// a single event loop.
//
// Blocking work (history fetch, live delivery, chain negotiation, dispatch,
// finality) runs in goroutines that report back as messages. Messages are
// handled in arrival order and results from superseded work are dropped by
// generation tags.
package session

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"gmfeed/internal/cooldown"
	"gmfeed/internal/feed"
	"gmfeed/internal/model"
	"gmfeed/internal/stats"
	"gmfeed/internal/submit"
)

var (
	// ErrClosed is returned by requests made after the loop stopped.
	ErrClosed = errors.New("session closed")
	// ErrHistoryLoading rejects submits until the first history load settles.
	ErrHistoryLoading = errors.New("greetings are still loading")
)

const (
	DefaultConfirmedDisplay = 6 * time.Second
	DefaultFailedDisplay    = 8 * time.Second
	DefaultResyncDelay      = 2 * time.Second
	RecentLimit             = 12
)

// greetingPayload is the message every submission sends.
const greetingPayload = ""

// HistoryLoader fetches the historical greeting log.
type HistoryLoader interface {
	Load(ctx context.Context) (feed.History, error)
}

// LiveWatcher delivers greetings mined after fromBlock until ctx ends.
type LiveWatcher interface {
	Watch(ctx context.Context, fromBlock uint64, emit func(model.GreetingEvent)) error
}

// Config holds session settings.
type Config struct {
	// Account is used for stats when no wallet is connected.
	Account          string
	MaxEvents        int
	RecentLimit      int
	ConfirmedDisplay time.Duration
	FailedDisplay    time.Duration
	Resync           bool
	ResyncDelay      time.Duration
	TickInterval     time.Duration
	Now              func() time.Time
}

// Session is the single owned client context.
type Session struct {
	cfg     Config
	loader  HistoryLoader
	watcher LiveWatcher
	wallet  submit.Wallet
	account string
	logger  *zap.Logger

	onView   func(View)
	onNotice func(Notice)

	msgs chan message
	done chan struct{}

	// Owned by the loop goroutine.
	runCtx         context.Context
	log            *feed.Log
	pending        []stats.Effect
	derived        stats.Result
	clock          *cooldown.Clock
	machine        submit.Machine
	loaded         bool
	settled        bool
	negotiating    bool
	historyGen     uint64
	historyCancel  context.CancelFunc
	watchCancel    context.CancelFunc
	dispatchSeq    uint64
	dispatchCancel context.CancelFunc
	revertTimer    *time.Timer
	resyncTimer    *time.Timer
}

// New builds a Session. wallet may be nil for a read-only feed.
func New(cfg Config, loader HistoryLoader, watcher LiveWatcher, wallet submit.Wallet, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ConfirmedDisplay <= 0 {
		cfg.ConfirmedDisplay = DefaultConfirmedDisplay
	}
	if cfg.FailedDisplay <= 0 {
		cfg.FailedDisplay = DefaultFailedDisplay
	}
	if cfg.ResyncDelay <= 0 {
		cfg.ResyncDelay = DefaultResyncDelay
	}
	if cfg.RecentLimit <= 0 {
		cfg.RecentLimit = RecentLimit
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	account := cfg.Account
	if wallet != nil {
		account = wallet.Account()
	}

	return &Session{
		cfg:     cfg,
		loader:  loader,
		watcher: watcher,
		wallet:  wallet,
		account: account,
		logger:  logger,
		msgs:    make(chan message),
		done:    make(chan struct{}),
		log:     feed.NewLog(cfg.MaxEvents),
		clock:   cooldown.NewClock(cfg.TickInterval, cfg.Now),
	}
}

// OnView registers the view observer. It runs on the loop goroutine after
// each state change and clock tick, so it must not call back into the
// session. Set it before Run.
func (s *Session) OnView(fn func(View)) {
	s.onView = fn
}

// OnNotice registers the observer for user-visible alerts. Same rules as
// OnView.
func (s *Session) OnNotice(fn func(Notice)) {
	s.onNotice = fn
}

// Run loads history, starts live delivery and processes messages until ctx
// is canceled. It must be called once.
func (s *Session) Run(ctx context.Context) error {
	if s.loader == nil {
		close(s.done)
		return errors.New("history loader is nil")
	}

	s.runCtx = ctx
	defer close(s.done)
	defer s.teardown()

	s.rederive()
	s.startHistory()
	s.emitView()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.clock.C():
			s.clock.Tick()
			s.emitView()
		case msg := <-s.msgs:
			s.handle(msg)
		}
	}
}

// Submit requests a greeting submission. A nil error means the request
// passed the guards and chain negotiation has started; the outcome is
// reported through views and notices.
func (s *Session) Submit(ctx context.Context) error {
	reply := make(chan error, 1)
	if err := s.send(ctx, submitRequest{reply: reply}); err != nil {
		return err
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrClosed
	}
}

// Reload re-runs the history fetch and restarts live delivery.
func (s *Session) Reload(ctx context.Context) error {
	return s.send(ctx, reloadRequest{})
}

// Snapshot returns the current view.
func (s *Session) Snapshot(ctx context.Context) (View, error) {
	reply := make(chan View, 1)
	if err := s.send(ctx, snapshotRequest{reply: reply}); err != nil {
		return View{}, err
	}
	select {
	case view := <-reply:
		return view, nil
	case <-ctx.Done():
		return View{}, ctx.Err()
	case <-s.done:
		return View{}, ErrClosed
	}
}

// Done is closed once Run has returned.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) send(ctx context.Context, msg message) error {
	select {
	case s.msgs <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrClosed
	}
}

// post delivers a message from a worker goroutine; it gives up once the
// loop is gone.
func (s *Session) post(msg message) {
	select {
	case s.msgs <- msg:
	case <-s.done:
	}
}

func (s *Session) teardown() {
	s.historyGen++
	if s.historyCancel != nil {
		s.historyCancel()
	}
	if s.watchCancel != nil {
		s.watchCancel()
	}
	if s.dispatchCancel != nil {
		s.dispatchCancel()
	}
	if s.revertTimer != nil {
		s.revertTimer.Stop()
	}
	if s.resyncTimer != nil {
		s.resyncTimer.Stop()
	}
	s.clock.Stop()
	s.logger.Debug("session torn down")
}
