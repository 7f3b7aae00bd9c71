// Package question tracks the phased discovery questions of an intake
// conversation: which have been asked and answered, which are eligible next,
// and when the running data makes a question unnecessary.
package question

import "requify/internal/snapshot"

// Phase is one ordered stage of conversational discovery.
type Phase string

const (
	PhaseVision     Phase = "vision"
	PhaseProblem    Phase = "problem"
	PhaseActors     Phase = "actors"
	PhaseUseCases   Phase = "use_cases"
	PhaseBoundaries Phase = "boundaries"
	PhaseData       Phase = "data"
	PhaseGoals      Phase = "goals"
	PhaseNFR        Phase = "nfr"
	PhaseReview     Phase = "review"
)

// Phases returns the fixed phase ordering.
func Phases() []Phase {
	return []Phase{
		PhaseVision,
		PhaseProblem,
		PhaseActors,
		PhaseUseCases,
		PhaseBoundaries,
		PhaseData,
		PhaseGoals,
		PhaseNFR,
		PhaseReview,
	}
}

// PhaseIndex returns the position of p in the fixed ordering, or -1.
func PhaseIndex(p Phase) int {
	for i, candidate := range Phases() {
		if candidate == p {
			return i
		}
	}
	return -1
}

// Question is one discovery question definition. Requires lists question ids
// that must be answered first; NeedsData lists snapshot paths that must be
// non-empty before the question makes sense; SkipWhen withholds the question
// once the data it would collect is already present.
type Question struct {
	ID        string
	Phase     Phase
	Prompt    string
	Requires  []string
	NeedsData []string
	SkipWhen  Condition
}

// Catalog returns the default question set in ask order.
func Catalog() []Question {
	return []Question{
		{
			ID:     "project_vision",
			Phase:  PhaseVision,
			Prompt: "In one or two sentences, what are you building and for whom?",
		},
		{
			ID:       "problem_summary",
			Phase:    PhaseProblem,
			Prompt:   "What problem does this solve today, and what happens if it stays unsolved?",
			Requires: []string{"project_vision"},
			SkipWhen: FieldLengthAtLeast{Path: snapshot.PathProblemStatement, N: 1},
		},
		{
			ID:       "primary_actors",
			Phase:    PhaseActors,
			Prompt:   "Who uses or interacts with the system? Include people, internal systems, and external services.",
			Requires: []string{"project_vision"},
			SkipWhen: FieldLengthAtLeast{Path: snapshot.PathActors, N: 2},
		},
		{
			ID:        "actor_goals",
			Phase:     PhaseActors,
			Prompt:    "For each actor, what are they trying to achieve, and what frustrates them today?",
			Requires:  []string{"primary_actors"},
			NeedsData: []string{snapshot.PathActors},
			SkipWhen: anyOf{
				AllMatch{Path: snapshot.PathActors, Predicate: PredActorHasGoals},
			},
		},
		{
			ID:        "actor_pain_points",
			Phase:     PhaseActors,
			Prompt:    "What pain points should the product remove for these actors?",
			Requires:  []string{"primary_actors"},
			NeedsData: []string{snapshot.PathActors},
			SkipWhen:  AllMatch{Path: snapshot.PathActors, Predicate: PredActorHasPainPoints},
		},
		{
			ID:        "core_use_cases",
			Phase:     PhaseUseCases,
			Prompt:    "Walk me through the main things an actor does with the system, start to finish.",
			Requires:  []string{"primary_actors"},
			NeedsData: []string{snapshot.PathActors},
			SkipWhen:  FieldLengthAtLeast{Path: snapshot.PathUseCases, N: 5},
		},
		{
			ID:        "use_case_details",
			Phase:     PhaseUseCases,
			Prompt:    "For the key use cases, what triggers them and what must be true before and after?",
			Requires:  []string{"core_use_cases"},
			NeedsData: []string{snapshot.PathUseCases},
			SkipWhen:  AllMatch{Path: snapshot.PathUseCases, Predicate: PredUseCaseHasOutcome},
		},
		{
			ID:        "use_case_priorities",
			Phase:     PhaseUseCases,
			Prompt:    "Which of these use cases are must-have for the first release?",
			Requires:  []string{"core_use_cases"},
			NeedsData: []string{snapshot.PathUseCases},
			SkipWhen:  AllMatch{Path: snapshot.PathUseCases, Predicate: PredUseCaseHasPriority},
		},
		{
			ID:       "system_boundaries",
			Phase:    PhaseBoundaries,
			Prompt:   "What will this system own, and what existing systems will it talk to?",
			Requires: []string{"core_use_cases"},
			SkipWhen: anyOf{
				FieldLengthAtLeast{Path: snapshot.PathBoundariesInternal, N: 3},
			},
		},
		{
			ID:       "scope_lines",
			Phase:    PhaseBoundaries,
			Prompt:   "What is explicitly in scope for now, and what is explicitly out?",
			Requires: []string{"system_boundaries"},
		},
		{
			ID:        "data_entities",
			Phase:     PhaseData,
			Prompt:    "What are the main things the system stores or manages?",
			Requires:  []string{"core_use_cases"},
			NeedsData: []string{snapshot.PathUseCases},
			SkipWhen:  FieldLengthAtLeast{Path: snapshot.PathDataEntities, N: 3},
		},
		{
			ID:        "entity_details",
			Phase:     PhaseData,
			Prompt:    "For each entity, what attributes matter and how do entities relate?",
			Requires:  []string{"data_entities"},
			NeedsData: []string{snapshot.PathDataEntities},
			SkipWhen:  AllMatch{Path: snapshot.PathDataEntities, Predicate: PredEntityHasAttrs},
		},
		{
			ID:       "success_metrics",
			Phase:    PhaseGoals,
			Prompt:   "How will you know this is working? Name goals with a measurable metric each.",
			Requires: []string{"problem_summary"},
			SkipWhen: FieldLengthAtLeast{Path: snapshot.PathGoalsMetrics, N: 3},
		},
		{
			ID:       "nfr_expectations",
			Phase:    PhaseNFR,
			Prompt:   "Any expectations around performance, security, reliability, or compliance?",
			Requires: []string{"core_use_cases"},
			SkipWhen: FieldLengthAtLeast{Path: snapshot.PathNFRs, N: 3},
		},
		{
			ID:       "constraints",
			Phase:    PhaseNFR,
			Prompt:   "Are there technical or business constraints the design must respect?",
			Requires: []string{"core_use_cases"},
			SkipWhen: FieldLengthAtLeast{Path: snapshot.PathConstraints, N: 1},
		},
		{
			ID:        "final_review",
			Phase:     PhaseReview,
			Prompt:    "Anything important we have not covered before I draft the document?",
			Requires:  []string{"core_use_cases", "system_boundaries"},
			NeedsData: []string{snapshot.PathActors, snapshot.PathUseCases},
		},
	}
}

// Lookup finds a question by id in the default catalog.
func Lookup(id string) (Question, bool) {
	for _, q := range Catalog() {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}
