package submit

import (
	"errors"
	"fmt"

	"gmfeed/internal/model"
)

// ErrInvalidTransition is returned for transitions the lifecycle forbids.
var ErrInvalidTransition = errors.New("invalid submission transition")

// Machine holds the submission lifecycle:
// Idle -> Sending -> Pending -> Confirmed | Failed -> Idle.
type Machine struct {
	state   model.SubmissionState
	attempt uint64
}

// State returns the current state.
func (m *Machine) State() model.SubmissionState {
	return m.state
}

// Attempt identifies the current submission; it changes on every Begin.
func (m *Machine) Attempt() uint64 {
	return m.attempt
}

// Begin moves Idle to Sending.
func (m *Machine) Begin() error {
	if err := m.expect("sending", model.StageIdle); err != nil {
		return err
	}
	m.attempt++
	m.state = model.SubmissionState{Stage: model.StageSending}
	return nil
}

// Dispatched moves Sending to Pending.
func (m *Machine) Dispatched(txHash string) error {
	if err := m.expect("pending", model.StageSending); err != nil {
		return err
	}
	m.state = model.SubmissionState{Stage: model.StagePending, TxHash: txHash}
	return nil
}

// Confirm moves Pending to Confirmed.
func (m *Machine) Confirm() error {
	if err := m.expect("confirmed", model.StagePending); err != nil {
		return err
	}
	m.state = model.SubmissionState{Stage: model.StageConfirmed, TxHash: m.state.TxHash}
	return nil
}

// Fail moves Sending or Pending to Failed.
func (m *Machine) Fail(reason string) error {
	if err := m.expect("failed", model.StageSending, model.StagePending); err != nil {
		return err
	}
	m.state = model.SubmissionState{Stage: model.StageFailed, TxHash: m.state.TxHash, Reason: reason}
	return nil
}

// Revert moves Confirmed or Failed back to Idle.
func (m *Machine) Revert() error {
	if err := m.expect("idle", model.StageConfirmed, model.StageFailed); err != nil {
		return err
	}
	m.state = model.SubmissionState{Stage: model.StageIdle}
	return nil
}

func (m *Machine) expect(to string, from ...model.SubmissionStage) error {
	for _, stage := range from {
		if m.state.Stage == stage {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.state.Stage, to)
}
