package feed

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"gmfeed/internal/greeter"
	"gmfeed/internal/model"
)

// LoaderConfig holds settings for the historical fetch.
type LoaderConfig struct {
	Contract     common.Address
	FromBlock    uint64
	BatchSize    uint64
	MaxRetries   int
	RetryBackoff time.Duration
}

// History is the result of a historical fetch: events oldest first and the
// head block the range query stopped at.
type History struct {
	Events []model.GreetingEvent
	Head   uint64
}

// Loader fetches every GMSent event from the configured start block to head.
type Loader struct {
	cfg     LoaderConfig
	source  Source
	decoder *greeter.Decoder
	logger  *zap.Logger
}

// NewLoader builds a Loader with its dependencies.
func NewLoader(cfg LoaderConfig, source Source, decoder *greeter.Decoder, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{cfg: cfg, source: source, decoder: decoder, logger: logger}
}

// Load runs the range query. Connection failures wrap model.ErrNetwork.
func (l *Loader) Load(ctx context.Context) (History, error) {
	if l.source == nil {
		return History{}, fmt.Errorf("source is nil")
	}
	if l.decoder == nil {
		return History{}, fmt.Errorf("decoder is nil")
	}

	var head uint64
	err := withRetry(ctx, l.cfg.MaxRetries, l.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		head, err = l.source.LatestBlockNumber(ctx)
		if err != nil {
			l.logger.Warn("head fetch failed", zap.Error(err))
		}
		return err
	})
	if err != nil {
		return History{}, networkError(ctx, "get latest block", err)
	}

	if l.cfg.FromBlock > head {
		l.logger.Info("history empty", zap.Uint64("from", l.cfg.FromBlock), zap.Uint64("head", head))
		return History{Events: []model.GreetingEvent{}, Head: head}, nil
	}

	ranges, err := SplitRange(l.cfg.FromBlock, head, l.cfg.BatchSize)
	if err != nil {
		return History{}, err
	}

	events := make([]model.GreetingEvent, 0)
	for _, blockRange := range ranges {
		l.logger.Debug("fetch history", zap.Uint64("from", blockRange.From), zap.Uint64("to", blockRange.To))

		logs, err := l.filterLogsWithRetry(ctx, blockRange.From, blockRange.To)
		if err != nil {
			return History{}, networkError(ctx, fmt.Sprintf("filter logs %d-%d", blockRange.From, blockRange.To), err)
		}
		events = append(events, decodeLogs(l.decoder, logs, l.logger)...)
	}

	l.logger.Info("history loaded", zap.Int("events", len(events)), zap.Uint64("head", head), zap.Int("batches", len(ranges)))
	return History{Events: events, Head: head}, nil
}

func (l *Loader) filterLogsWithRetry(ctx context.Context, fromBlock, toBlock uint64) ([]types.Log, error) {
	var logs []types.Log
	err := withRetry(ctx, l.cfg.MaxRetries, l.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		logs, err = l.source.FilterLogs(ctx, fromBlock, toBlock, []common.Address{l.cfg.Contract}, []common.Hash{l.decoder.Topic()})
		if err != nil {
			l.logger.Warn("filter logs failed", zap.Error(err), zap.Uint64("from", fromBlock), zap.Uint64("to", toBlock))
		}
		return err
	})
	return logs, err
}

// decodeLogs decodes logs in chain order, skipping removed and undecodable ones.
func decodeLogs(decoder *greeter.Decoder, logs []types.Log, logger *zap.Logger) []model.GreetingEvent {
	sort.SliceStable(logs, func(i, j int) bool {
		if logs[i].BlockNumber != logs[j].BlockNumber {
			return logs[i].BlockNumber < logs[j].BlockNumber
		}
		return logs[i].Index < logs[j].Index
	})

	events := make([]model.GreetingEvent, 0, len(logs))
	for _, log := range logs {
		if log.Removed || !decoder.CanDecode(log) {
			continue
		}
		event, err := decoder.Decode(log)
		if err != nil {
			logger.Warn("decode greeting", zap.Error(err), zap.String("tx", log.TxHash.Hex()), zap.Uint("log_index", log.Index))
			continue
		}
		events = append(events, event)
	}
	return events
}

func networkError(ctx context.Context, op string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return fmt.Errorf("%s: %w: %w", op, model.ErrNetwork, err)
}
