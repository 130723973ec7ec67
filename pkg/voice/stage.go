package voice

import (
	"errors"
	"fmt"
	"time"
)

// ErrMissingStage is returned by NewPipeline when a stage is nil.
var ErrMissingStage = errors.New("voice: transcriber, responder and speaker are required")

// Stage is the position of a turn in the pipeline.
type Stage int

const (
	StageCaptured Stage = iota
	StageTranscribed
	StageResponded
	StageSpoken
	StageDone
)

var stageNames = [...]string{
	StageCaptured:    "CAPTURED",
	StageTranscribed: "TRANSCRIBED",
	StageResponded:   "RESPONDED",
	StageSpoken:      "SPOKEN",
	StageDone:        "DONE",
}

// String implements fmt.Stringer.
func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "UNKNOWN"
	}
	return stageNames[s]
}

// MarshalText encodes the stage by name.
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a stage name.
func (s *Stage) UnmarshalText(text []byte) error {
	for i, name := range stageNames {
		if name == string(text) {
			*s = Stage(i)
			return nil
		}
	}
	return fmt.Errorf("voice: unknown stage %q", text)
}

// Event reports a stage transition.
type Event struct {
	TurnID string    `json:"turn_id"`
	Stage  Stage     `json:"stage"`
	Detail string    `json:"detail,omitempty"`
	Text   string    `json:"text,omitempty"`
	At     time.Time `json:"at"`
}
