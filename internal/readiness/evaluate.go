// Package readiness computes, per downstream artifact type, whether the
// minimum-data gate for generating it is met, and which snapshot fields
// still block it.
package readiness

import "requify/internal/snapshot"

// ArtifactType identifies one generatable artifact.
type ArtifactType string

const (
	ContextDiagram    ArtifactType = "context_diagram"
	UseCaseDiagram    ArtifactType = "use_case_diagram"
	ScopeTree         ArtifactType = "scope_tree"
	BehaviorDocument  ArtifactType = "behavior_document"
	RequirementsTable ArtifactType = "requirements_table"
	ConstantsTable    ArtifactType = "constants_table"
	ActivityDiagram   ArtifactType = "activity_diagram"
)

// Types lists every artifact type in stable order.
func Types() []ArtifactType {
	return []ArtifactType{
		ContextDiagram,
		UseCaseDiagram,
		ScopeTree,
		BehaviorDocument,
		RequirementsTable,
		ConstantsTable,
		ActivityDiagram,
	}
}

// Status is the readiness verdict for one artifact type. Generated is owned
// by the caller; Evaluate never sets it.
type Status struct {
	Ready     bool     `json:"ready"`
	Generated bool     `json:"generated"`
	BlockedBy []string `json:"blockedBy,omitempty"`
}

type requirement struct {
	path string
	min  int
}

// gates holds the minimum-data predicate for each artifact type as a
// conjunction of field-path count requirements.
var gates = map[ArtifactType][]requirement{
	ContextDiagram: {
		{snapshot.PathActors, 1},
		{snapshot.PathBoundariesExternal, 1},
	},
	UseCaseDiagram: {
		{snapshot.PathActors, 2},
		{snapshot.PathUseCases, 3},
	},
	ScopeTree: {
		{snapshot.PathInScope, 1},
		{snapshot.PathOutOfScope, 1},
	},
	BehaviorDocument: {
		{snapshot.PathUseCaseConditions, 1},
	},
	RequirementsTable: {
		{snapshot.PathUseCases, 5},
	},
	ConstantsTable: {
		{snapshot.PathConstraints, 1},
	},
	ActivityDiagram: {
		{snapshot.PathUseCases, 3},
	},
}

// Evaluate recomputes readiness for every artifact type from the current
// snapshot. It is a pure function: no prior readiness is consulted, so the
// gates can never drift from the data. BlockedBy lists the unmet field paths
// so the caller can phrase a targeted follow-up question.
func Evaluate(s snapshot.Snapshot) map[ArtifactType]Status {
	out := make(map[ArtifactType]Status, len(gates))
	for _, t := range Types() {
		out[t] = evaluateOne(t, s)
	}
	return out
}

// EvaluateOne computes readiness for a single artifact type.
func EvaluateOne(t ArtifactType, s snapshot.Snapshot) Status {
	return evaluateOne(t, s)
}

func evaluateOne(t ArtifactType, s snapshot.Snapshot) Status {
	var blocked []string
	for _, req := range gates[t] {
		if s.CountAt(req.path) < req.min {
			blocked = append(blocked, req.path)
		}
	}
	return Status{
		Ready:     len(blocked) == 0,
		BlockedBy: blocked,
	}
}
