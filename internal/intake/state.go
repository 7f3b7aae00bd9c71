// Package intake owns the per-conversation aggregate: everything learned so
// far, which questions were asked, readiness of downstream artifacts, and
// the serialized form persisted after every turn.
package intake

import (
	"encoding/json"
	"fmt"
	"time"

	"requify/internal/question"
	"requify/internal/readiness"
	"requify/internal/snapshot"
	"requify/internal/validation"
)

// State is the aggregate root for one conversation. Owned exclusively by
// that conversation: created at conversation start, mutated turn by turn,
// serialized to storage after every mutation. Not goroutine-safe; callers
// serialize turns per conversation.
type State struct {
	ProjectID     string           `json:"projectId"`
	ProjectName   string           `json:"projectName,omitempty"`
	ProjectVision string           `json:"projectVision,omitempty"`
	Tracker       question.Tracker `json:"tracker"`

	PhaseProgress map[question.Phase]question.Progress `json:"phaseProgress,omitempty"`

	ExtractedData     snapshot.Snapshot                          `json:"extractedData"`
	ValidationStatus  *validation.Report                         `json:"validationStatus,omitempty"`
	ArtifactReadiness map[readiness.ArtifactType]readiness.Status `json:"artifactReadiness,omitempty"`

	UserRequestedStop bool      `json:"userRequestedStop,omitempty"`
	StopReason        string    `json:"stopReason,omitempty"`
	MessageCount      int       `json:"messageCount"`
	LastUpdatedAt     time.Time `json:"lastUpdatedAt"`
}

// New creates a fresh state for a project.
func New(projectID, name, vision string) *State {
	tracker := question.NewTracker()
	return &State{
		ProjectID:         projectID,
		ProjectName:       name,
		ProjectVision:     vision,
		Tracker:           tracker,
		PhaseProgress:     tracker.PhaseProgress(),
		ArtifactReadiness: readiness.Evaluate(snapshot.Snapshot{}),
	}
}

// Serialize round-trips the full state through plain JSON; every field
// survives byte-for-byte equivalent in value.
func (s *State) Serialize() ([]byte, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("intake: serialize state: %w", err)
	}
	return b, nil
}

// Deserialize restores a previously serialized state.
func Deserialize(data []byte) (*State, error) {
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("intake: deserialize state: %w", err)
	}
	if question.PhaseIndex(s.Tracker.CurrentPhase) < 0 {
		s.Tracker.CurrentPhase = question.Phases()[0]
	}
	return &s, nil
}
