package feed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"

	"gmfeed/internal/greeter"
	"gmfeed/internal/model"
)

// ErrSubscriptionClosed is returned when the server ends a log subscription.
var ErrSubscriptionClosed = errors.New("log subscription closed")

// WatcherConfig holds settings for live event delivery.
type WatcherConfig struct {
	Contract     common.Address
	PollInterval time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
}

// Watcher delivers GMSent events mined after the historical fetch.
type Watcher struct {
	cfg        WatcherConfig
	source     Source
	subscriber Subscriber
	decoder    *greeter.Decoder
	logger     *zap.Logger
}

// NewWatcher builds a Watcher. subscriber may be nil to force polling.
func NewWatcher(cfg WatcherConfig, source Source, subscriber Subscriber, decoder *greeter.Decoder, logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 3 * time.Second
	}
	return &Watcher{cfg: cfg, source: source, subscriber: subscriber, decoder: decoder, logger: logger}
}

// Watch emits live events from fromBlock in chain order until ctx is
// canceled or the connection drops. Events missed after a drop are not
// replayed; callers reload history after an error.
func (w *Watcher) Watch(ctx context.Context, fromBlock uint64, emit func(model.GreetingEvent)) error {
	if w.decoder == nil {
		return fmt.Errorf("decoder is nil")
	}

	if w.subscriber != nil {
		err := w.subscribe(ctx, fromBlock, emit)
		if !errors.Is(err, rpc.ErrNotificationsUnsupported) {
			return err
		}
		w.logger.Info("subscriptions unsupported, polling", zap.Duration("interval", w.cfg.PollInterval))
	}
	return w.poll(ctx, fromBlock, emit)
}

func (w *Watcher) subscribe(ctx context.Context, fromBlock uint64, emit func(model.GreetingEvent)) error {
	logs := make(chan types.Log, 64)
	sub, err := w.subscriber.SubscribeLogs(ctx, []common.Address{w.cfg.Contract}, []common.Hash{w.decoder.Topic()}, logs)
	if err != nil {
		if errors.Is(err, rpc.ErrNotificationsUnsupported) {
			return err
		}
		return networkError(ctx, "subscribe logs", err)
	}
	defer sub.Unsubscribe()

	w.logger.Info("live subscription started", zap.Uint64("from", fromBlock))

	// Blocks mined between the history head and the subscription are only
	// reachable through a range query.
	next, err := w.backfill(ctx, fromBlock, emit)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err, ok := <-sub.Err():
			if !ok || err == nil {
				return ErrSubscriptionClosed
			}
			return networkError(ctx, "subscription dropped", err)
		case log := <-logs:
			if log.BlockNumber < next {
				continue
			}
			for _, event := range decodeLogs(w.decoder, []types.Log{log}, w.logger) {
				emit(event)
			}
		}
	}
}

// backfill emits events from fromBlock to the current head and returns the
// first block not covered.
func (w *Watcher) backfill(ctx context.Context, fromBlock uint64, emit func(model.GreetingEvent)) (uint64, error) {
	if w.source == nil {
		return fromBlock, nil
	}
	head, err := w.head(ctx)
	if err != nil {
		return 0, err
	}
	if head < fromBlock {
		return fromBlock, nil
	}
	if err := w.fetch(ctx, fromBlock, head, emit); err != nil {
		return 0, err
	}
	w.logger.Debug("live backfill done", zap.Uint64("from", fromBlock), zap.Uint64("to", head))
	return head + 1, nil
}

func (w *Watcher) poll(ctx context.Context, fromBlock uint64, emit func(model.GreetingEvent)) error {
	if w.source == nil {
		return fmt.Errorf("source is nil")
	}

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	next := fromBlock
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		head, err := w.head(ctx)
		if err != nil {
			return err
		}
		if head < next {
			continue
		}
		if err := w.fetch(ctx, next, head, emit); err != nil {
			return err
		}
		next = head + 1
	}
}

func (w *Watcher) head(ctx context.Context) (uint64, error) {
	var head uint64
	err := withRetry(ctx, w.cfg.MaxRetries, w.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		head, err = w.source.LatestBlockNumber(ctx)
		return err
	})
	if err != nil {
		return 0, networkError(ctx, "poll head", err)
	}
	return head, nil
}

func (w *Watcher) fetch(ctx context.Context, from, to uint64, emit func(model.GreetingEvent)) error {
	var logs []types.Log
	err := withRetry(ctx, w.cfg.MaxRetries, w.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		logs, err = w.source.FilterLogs(ctx, from, to, []common.Address{w.cfg.Contract}, []common.Hash{w.decoder.Topic()})
		if err != nil {
			w.logger.Warn("poll logs failed", zap.Error(err), zap.Uint64("from", from), zap.Uint64("to", to))
		}
		return err
	})
	if err != nil {
		return networkError(ctx, fmt.Sprintf("poll logs %d-%d", from, to), err)
	}

	for _, event := range decodeLogs(w.decoder, logs, w.logger) {
		emit(event)
	}
	return nil
}
