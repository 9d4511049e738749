package main

import (
	"errors"
	"testing"

	"gmfeed/internal/model"
	"gmfeed/internal/session"
)

func drain(t *testing.T, tracker *sendTracker) (bool, error) {
	t.Helper()
	select {
	case err := <-tracker.done:
		return true, err
	default:
		return false, nil
	}
}

func TestSendTrackerConfirmed(t *testing.T) {
	tracker := newSendTracker()

	tracker.view(session.View{Loaded: true})
	select {
	case <-tracker.loaded:
	default:
		t.Fatalf("loaded not signaled")
	}
	tracker.view(session.View{Loaded: true, Negotiating: true})
	if ok, _ := drain(t, tracker); ok {
		t.Fatalf("idle before submission must not finish")
	}

	for _, stage := range []model.SubmissionStage{model.StageSending, model.StagePending, model.StageConfirmed} {
		tracker.view(session.View{Loaded: true, Submission: model.SubmissionState{Stage: stage}})
	}
	if ok, _ := drain(t, tracker); ok {
		t.Fatalf("finished before revert")
	}

	tracker.view(session.View{Loaded: true})
	ok, err := drain(t, tracker)
	if !ok || err != nil {
		t.Fatalf("expected clean finish, got %v %v", ok, err)
	}
}

func TestSendTrackerFailed(t *testing.T) {
	tracker := newSendTracker()
	tracker.view(session.View{Loaded: true, Submission: model.SubmissionState{Stage: model.StageSending}})
	tracker.view(session.View{Loaded: true, Submission: model.SubmissionState{Stage: model.StageFailed, Reason: "execution reverted"}})
	tracker.view(session.View{Loaded: true})

	ok, err := drain(t, tracker)
	if !ok || !errors.Is(err, model.ErrTransactionFailed) {
		t.Fatalf("expected transaction failure, got %v", err)
	}
}

func TestSendTrackerChainNotice(t *testing.T) {
	tracker := newSendTracker()
	tracker.notice(session.Notice{Kind: session.NoticeLive, Message: "Live feed disconnected."})
	if ok, _ := drain(t, tracker); ok {
		t.Fatalf("live notice must not finish")
	}

	tracker.notice(session.Notice{Kind: session.NoticeChain, Message: "Network switch rejected in wallet.", Err: model.ErrUserRejected})
	ok, err := drain(t, tracker)
	if !ok || !errors.Is(err, model.ErrUserRejected) {
		t.Fatalf("expected rejection, got %v", err)
	}
}
