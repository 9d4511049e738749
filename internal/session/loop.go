package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"gmfeed/internal/model"
	"gmfeed/internal/stats"
	"gmfeed/internal/submit"
)

func (s *Session) handle(msg message) {
	switch m := msg.(type) {
	case historyLoaded:
		s.handleHistory(m)
	case liveEvent:
		s.handleLiveEvent(m)
	case liveStopped:
		s.handleLiveStopped(m)
	case submitRequest:
		m.reply <- s.handleSubmit()
	case dispatchUpdate:
		s.handleDispatch(m)
	case revertDue:
		s.handleRevert(m)
	case reloadRequest:
		s.startHistory()
		s.emitView()
	case snapshotRequest:
		m.reply <- s.view()
	default:
		s.logger.Warn("unknown session message", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

// startHistory supersedes any running fetch and live delivery.
func (s *Session) startHistory() {
	s.historyGen++
	gen := s.historyGen
	if s.historyCancel != nil {
		s.historyCancel()
	}
	if s.watchCancel != nil {
		s.watchCancel()
		s.watchCancel = nil
	}
	if s.resyncTimer != nil {
		s.resyncTimer.Stop()
		s.resyncTimer = nil
	}

	ctx, cancel := context.WithCancel(s.runCtx)
	s.historyCancel = cancel
	s.logger.Info("loading history", zap.Uint64("generation", gen))
	go func() {
		history, err := s.loader.Load(ctx)
		s.post(historyLoaded{gen: gen, history: history, err: err})
	}()
}

func (s *Session) handleHistory(m historyLoaded) {
	if m.gen != s.historyGen {
		s.logger.Debug("stale history result dropped", zap.Uint64("generation", m.gen))
		return
	}
	if s.historyCancel != nil {
		s.historyCancel()
		s.historyCancel = nil
	}

	if m.err != nil {
		if errors.Is(m.err, context.Canceled) {
			return
		}
		s.settled = true
		s.logger.Error("history load failed", zap.Error(m.err))
		s.notify(Notice{Kind: NoticeHistory, Message: "Failed to load greetings.", Err: m.err})
		s.emitView()
		return
	}

	s.log.Replace(m.history.Events)
	s.loaded = true
	s.settled = true
	s.rederive()
	s.logger.Info("history applied", zap.Int("events", s.log.Len()), zap.Uint64("head", m.history.Head))
	s.startWatcher(m.history.Head + 1)
	s.emitView()
}

func (s *Session) startWatcher(fromBlock uint64) {
	if s.watcher == nil {
		return
	}
	gen := s.historyGen
	ctx, cancel := context.WithCancel(s.runCtx)
	s.watchCancel = cancel
	go func() {
		err := s.watcher.Watch(ctx, fromBlock, func(event model.GreetingEvent) {
			s.post(liveEvent{gen: gen, event: event})
		})
		s.post(liveStopped{gen: gen, err: err})
	}()
}

func (s *Session) handleLiveEvent(m liveEvent) {
	if m.gen != s.historyGen {
		return
	}
	s.log.Prepend(m.event)
	s.rederive()
	s.emitView()
}

func (s *Session) handleLiveStopped(m liveStopped) {
	if m.gen != s.historyGen || errors.Is(m.err, context.Canceled) {
		return
	}
	s.watchCancel = nil
	s.logger.Warn("live feed stopped", zap.Error(m.err), zap.Bool("resync", s.cfg.Resync))
	s.notify(Notice{Kind: NoticeLive, Message: "Live feed disconnected.", Err: m.err})
	if !s.cfg.Resync {
		return
	}
	s.resyncTimer = time.AfterFunc(s.cfg.ResyncDelay, func() {
		s.post(reloadRequest{})
	})
}

func (s *Session) handleSubmit() error {
	err := submit.Check(s.wallet, s.machine.State(), s.negotiating, s.derived.User, s.cfg.Now())
	if err == nil && !s.settled {
		err = ErrHistoryLoading
	}
	if err != nil {
		s.logger.Info("submit rejected", zap.Error(err))
		s.notify(Notice{Kind: NoticeRejected, Message: rejectionMessage(err), Err: err})
		return err
	}

	s.negotiating = true
	s.dispatchSeq++
	seq := s.dispatchSeq
	ctx, cancel := context.WithCancel(s.runCtx)
	s.dispatchCancel = cancel
	go submit.Dispatch(ctx, s.wallet, greetingPayload, func(update submit.Update) {
		s.post(dispatchUpdate{seq: seq, update: update})
	})
	s.emitView()
	return nil
}

func (s *Session) handleDispatch(m dispatchUpdate) {
	if m.seq != s.dispatchSeq {
		return
	}
	update := m.update
	if update.Err != nil && errors.Is(update.Err, context.Canceled) {
		return
	}

	var err error
	switch update.Kind {
	case submit.UpdateChainRejected:
		s.negotiating = false
		s.finishDispatch()
		s.logger.Warn("chain negotiation failed", zap.Error(update.Err))
		s.notify(Notice{Kind: NoticeChain, Message: chainMessage(update.Err), Err: update.Err})
	case submit.UpdateChainReady:
		s.negotiating = false
		err = s.machine.Begin()
	case submit.UpdateDispatched:
		err = s.machine.Dispatched(update.TxHash)
	case submit.UpdateConfirmed:
		if err = s.machine.Confirm(); err == nil {
			s.finishDispatch()
			s.pending = append(s.pending, stats.Effect{TxHash: update.TxHash, Timestamp: uint64(s.cfg.Now().Unix())})
			s.rederive()
			s.scheduleRevert(s.cfg.ConfirmedDisplay)
			s.logger.Info("greeting confirmed", zap.String("tx", update.TxHash))
		}
	case submit.UpdateFailed:
		reason := submit.Reason(update.Err)
		if err = s.machine.Fail(reason); err == nil {
			s.finishDispatch()
			s.scheduleRevert(s.cfg.FailedDisplay)
			s.logger.Warn("greeting failed", zap.String("tx", update.TxHash), zap.Error(update.Err))
			s.notify(Notice{Kind: NoticeFailed, Message: reason, Err: update.Err})
		}
	}
	if err != nil {
		s.logger.Error("dispatch update out of order", zap.Stringer("update", update.Kind), zap.Error(err))
	}
	s.emitView()
}

func (s *Session) finishDispatch() {
	if s.dispatchCancel != nil {
		s.dispatchCancel()
		s.dispatchCancel = nil
	}
}

func (s *Session) scheduleRevert(after time.Duration) {
	if s.revertTimer != nil {
		s.revertTimer.Stop()
	}
	attempt := s.machine.Attempt()
	s.revertTimer = time.AfterFunc(after, func() {
		s.post(revertDue{attempt: attempt})
	})
}

func (s *Session) handleRevert(m revertDue) {
	if m.attempt != s.machine.Attempt() {
		return
	}
	if err := s.machine.Revert(); err != nil {
		s.logger.Debug("revert skipped", zap.Error(err))
		return
	}
	s.revertTimer = nil
	s.emitView()
}

// rederive rescans the log and rekeys the cooldown clock.
func (s *Session) rederive() {
	s.derived = stats.Derive(s.log.Events(), s.account, s.pending)
	s.pending = s.derived.Pending
	s.clock.Reset(s.derived.User.LastTimestamp)
}

func (s *Session) emitView() {
	if s.onView != nil {
		s.onView(s.view())
	}
}

func (s *Session) notify(n Notice) {
	if s.onNotice != nil {
		s.onNotice(n)
	}
}
