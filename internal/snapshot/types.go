// Package snapshot holds the accumulated structured knowledge extracted from
// a conversation or batch analysis, and the pure functions that merge and
// score it.
package snapshot

import "strings"

// Actor is a person, system, or external party interacting with the product.
type Actor struct {
	Name           string   `json:"name"`
	Role           string   `json:"role,omitempty"`
	Classification string   `json:"classification,omitempty"` // human | system | external
	Goals          []string `json:"goals,omitempty"`
	PainPoints     []string `json:"painPoints,omitempty"`
}

// UseCase describes one interaction an actor has with the system.
type UseCase struct {
	ID             string   `json:"id"`
	Actor          string   `json:"actor,omitempty"`
	Trigger        string   `json:"trigger,omitempty"`
	Outcome        string   `json:"outcome,omitempty"`
	Preconditions  []string `json:"preconditions,omitempty"`
	Postconditions []string `json:"postconditions,omitempty"`
	Priority       string   `json:"priority,omitempty"`
}

// Boundaries splits the world into what the system owns and what it talks to,
// plus the explicit in/out scope lines.
type Boundaries struct {
	Internal   []string `json:"internal,omitempty"`
	External   []string `json:"external,omitempty"`
	InScope    []string `json:"inScope,omitempty"`
	OutOfScope []string `json:"outOfScope,omitempty"`
}

// DataEntity is a domain entity with its attributes and relationships.
type DataEntity struct {
	Name          string   `json:"name"`
	Attributes    []string `json:"attributes,omitempty"`
	Relationships []string `json:"relationships,omitempty"`
}

// ProblemStatement summarizes why the product should exist.
type ProblemStatement struct {
	Summary string   `json:"summary,omitempty"`
	Context string   `json:"context,omitempty"`
	Impact  string   `json:"impact,omitempty"`
	Goals   []string `json:"goals,omitempty"`
}

// GoalMetric pairs a goal with how it will be measured.
type GoalMetric struct {
	Goal   string `json:"goal"`
	Metric string `json:"metric,omitempty"`
	Target string `json:"target,omitempty"`
}

// NonFunctionalRequirement is a quality attribute requirement.
type NonFunctionalRequirement struct {
	Category    string `json:"category"`
	Requirement string `json:"requirement"`
	Metric      string `json:"metric,omitempty"`
	Target      string `json:"target,omitempty"`
	Priority    string `json:"priority,omitempty"`
}

// Constraint is a recorded technical or business limitation.
type Constraint struct {
	Kind        string `json:"kind,omitempty"` // technical | business
	Description string `json:"description"`
}

// Snapshot is the accumulated structured extraction for one project at a
// point in time. Keyed collections (actors by name, use cases by id, entities
// by name, constraints by description) merge monotonically; the optional
// scalar aggregates follow newer-non-null-wins.
type Snapshot struct {
	Actors           []Actor                    `json:"actors,omitempty"`
	UseCases         []UseCase                  `json:"useCases,omitempty"`
	Boundaries       Boundaries                 `json:"systemBoundaries,omitempty"`
	DataEntities     []DataEntity               `json:"dataEntities,omitempty"`
	ProblemStatement *ProblemStatement          `json:"problemStatement,omitempty"`
	GoalsMetrics     []GoalMetric               `json:"goalsMetrics,omitempty"`
	NFRs             []NonFunctionalRequirement `json:"nonFunctionalRequirements,omitempty"`
	Constraints      []Constraint               `json:"constraints,omitempty"`
}

// Empty reports whether the snapshot carries no data at all.
func (s Snapshot) Empty() bool {
	return len(s.Actors) == 0 &&
		len(s.UseCases) == 0 &&
		len(s.Boundaries.Internal) == 0 &&
		len(s.Boundaries.External) == 0 &&
		len(s.Boundaries.InScope) == 0 &&
		len(s.Boundaries.OutOfScope) == 0 &&
		len(s.DataEntities) == 0 &&
		s.ProblemStatement == nil &&
		len(s.GoalsMetrics) == 0 &&
		len(s.NFRs) == 0 &&
		len(s.Constraints) == 0
}

// Field paths used by readiness gates, question prerequisites, and skip
// conditions. Paths name the JSON shape of the snapshot.
const (
	PathActors             = "actors"
	PathUseCases           = "useCases"
	PathUseCaseConditions  = "useCases.conditions"
	PathBoundariesInternal = "systemBoundaries.internal"
	PathBoundariesExternal = "systemBoundaries.external"
	PathInScope            = "systemBoundaries.inScope"
	PathOutOfScope         = "systemBoundaries.outOfScope"
	PathDataEntities       = "dataEntities"
	PathProblemStatement   = "problemStatement"
	PathGoalsMetrics       = "goalsMetrics"
	PathNFRs               = "nonFunctionalRequirements"
	PathConstraints        = "constraints"
)

// CountAt resolves a field path to the number of entries recorded there.
// Unknown paths resolve to 0; callers treat that as "data missing".
func (s Snapshot) CountAt(path string) int {
	switch strings.TrimSpace(path) {
	case PathActors:
		return len(s.Actors)
	case PathUseCases:
		return len(s.UseCases)
	case PathUseCaseConditions:
		n := 0
		for _, uc := range s.UseCases {
			if len(uc.Preconditions) > 0 || len(uc.Postconditions) > 0 {
				n++
			}
		}
		return n
	case PathBoundariesInternal:
		return len(s.Boundaries.Internal)
	case PathBoundariesExternal:
		return len(s.Boundaries.External)
	case PathInScope:
		return len(s.Boundaries.InScope)
	case PathOutOfScope:
		return len(s.Boundaries.OutOfScope)
	case PathDataEntities:
		return len(s.DataEntities)
	case PathProblemStatement:
		if s.ProblemStatement != nil && strings.TrimSpace(s.ProblemStatement.Summary) != "" {
			return 1
		}
		return 0
	case PathGoalsMetrics:
		return len(s.GoalsMetrics)
	case PathNFRs:
		return len(s.NFRs)
	case PathConstraints:
		return len(s.Constraints)
	}
	return 0
}

// HasAt reports whether any data exists at the given field path.
func (s Snapshot) HasAt(path string) bool {
	return s.CountAt(path) > 0
}
