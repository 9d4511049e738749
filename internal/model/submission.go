package model

// SubmissionStage enumerates the send-greeting lifecycle.
type SubmissionStage int

const (
	StageIdle SubmissionStage = iota
	StageSending
	StagePending
	StageConfirmed
	StageFailed
)

func (s SubmissionStage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageSending:
		return "sending"
	case StagePending:
		return "pending"
	case StageConfirmed:
		return "confirmed"
	case StageFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText encodes the stage by name.
func (s SubmissionStage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// SubmissionState is the current stage plus its payload.
// TxHash is set for Pending and Confirmed, Reason for Failed.
type SubmissionState struct {
	Stage  SubmissionStage `json:"stage"`
	TxHash string          `json:"tx_hash,omitempty"`
	Reason string          `json:"reason,omitempty"`
}
