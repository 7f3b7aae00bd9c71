package intake

import (
	"context"
	"fmt"
	"time"

	"requify/internal/question"
	"requify/internal/readiness"
	"requify/internal/snapshot"
	"requify/internal/validation"
)

// Manager exposes the per-turn operations the conversational loop calls.
// Every mutating operation stamps LastUpdatedAt. RunValidation propagates
// validator errors; all other operations are error-free and purely
// in-memory.
type Manager struct {
	state     *State
	validator validation.Validator
	now       func() time.Time
}

// NewManager wraps an existing state. validator may be nil if RunValidation
// is never called.
func NewManager(state *State, validator validation.Validator) *Manager {
	return &Manager{state: state, validator: validator, now: time.Now}
}

// SetClock overrides the time source; tests use a fixed clock.
func (m *Manager) SetClock(now func() time.Time) { m.now = now }

// State returns the managed aggregate.
func (m *Manager) State() *State { return m.state }

func (m *Manager) touch() {
	m.state.LastUpdatedAt = m.now()
}

// MarkQuestionAsked records that a question was put to the user and refreshes
// the derived phase progress.
func (m *Manager) MarkQuestionAsked(id string) {
	m.state.Tracker.MarkAsked(id, m.now())
	m.state.PhaseProgress = m.state.Tracker.PhaseProgress()
	m.state.MessageCount++
	m.touch()
}

// MarkLastQuestionAnswered flips the pending question to answered.
func (m *Manager) MarkLastQuestionAnswered() {
	m.state.Tracker.MarkLastAnswered()
	m.state.MessageCount++
	m.touch()
}

// UpdateExtractedData merges a partial extraction into the running snapshot
// and recomputes artifact readiness from the merged result.
func (m *Manager) UpdateExtractedData(partial snapshot.Snapshot) {
	m.state.ExtractedData = snapshot.Merge(m.state.ExtractedData, partial)
	m.UpdateArtifactReadiness()
}

// Completeness returns the weighted completeness score of the current data.
func (m *Manager) Completeness() int {
	return snapshot.Score(m.state.ExtractedData)
}

// UnansweredQuestions lists the questions currently eligible to ask.
func (m *Manager) UnansweredQuestions() []question.Question {
	return m.state.Tracker.Unanswered(m.state.ExtractedData)
}

// PhaseQuestions lists the catalog questions of one phase.
func (m *Manager) PhaseQuestions(p question.Phase) []question.Question {
	return question.ForPhase(p)
}

// CurrentPhase returns the tracker's phase.
func (m *Manager) CurrentPhase() question.Phase {
	return m.state.Tracker.CurrentPhase
}

// RunValidation calls the external validator, writes the report into the
// state, and recomputes artifact readiness. Validator errors propagate; the
// state is untouched on failure.
func (m *Manager) RunValidation(ctx context.Context) (validation.Report, error) {
	if m.validator == nil {
		return validation.Report{}, fmt.Errorf("intake: no validator configured")
	}
	report, err := m.validator.Validate(ctx, validation.ProjectRecord{
		Name:     m.state.ProjectName,
		Vision:   m.state.ProjectVision,
		Snapshot: m.state.ExtractedData,
	})
	if err != nil {
		return validation.Report{}, fmt.Errorf("intake: validation: %w", err)
	}
	m.state.ValidationStatus = &report
	m.UpdateArtifactReadiness()
	return report, nil
}

// UpdateArtifactReadiness recomputes the gates from current data, carrying
// over only the Generated flags from the previous run.
func (m *Manager) UpdateArtifactReadiness() {
	fresh := readiness.Evaluate(m.state.ExtractedData)
	for t, prev := range m.state.ArtifactReadiness {
		if prev.Generated {
			st := fresh[t]
			st.Generated = true
			fresh[t] = st
		}
	}
	m.state.ArtifactReadiness = fresh
	m.touch()
}

// MarkArtifactGenerated records that an artifact was rendered.
func (m *Manager) MarkArtifactGenerated(t readiness.ArtifactType) {
	st := m.state.ArtifactReadiness[t]
	st.Generated = true
	m.state.ArtifactReadiness[t] = st
	m.touch()
}

// SetUserStop records that the user asked to end the discovery conversation.
func (m *Manager) SetUserStop(reason string) {
	m.state.UserRequestedStop = true
	m.state.StopReason = reason
	m.touch()
}
