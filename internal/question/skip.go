package question

import "requify/internal/snapshot"

// Condition is a declarative skip rule evaluated against the snapshot.
// A question whose condition evaluates true is withheld because the data it
// would ask for is already present.
type Condition interface {
	Evaluate(snapshot.Snapshot) bool
}

// FieldLengthAtLeast skips when the collection at Path has at least N entries.
// An unknown path resolves to length 0 and therefore never skips.
type FieldLengthAtLeast struct {
	Path string
	N    int
}

func (c FieldLengthAtLeast) Evaluate(s snapshot.Snapshot) bool {
	if c.N <= 0 {
		return false
	}
	return s.CountAt(c.Path) >= c.N
}

// AllMatch skips when every element at Path satisfies the named predicate.
// Vacuously true on an empty collection; prerequisite-data gating keeps a
// question with no data from being skipped for that reason alone. Unknown
// paths or predicates never skip.
type AllMatch struct {
	Path      string
	Predicate string
}

// Predicate identifiers known to AllMatch.
const (
	PredActorHasGoals      = "actorHasGoals"
	PredActorHasPainPoints = "actorHasPainPoints"
	PredUseCaseHasOutcome  = "useCaseHasOutcome"
	PredUseCaseHasPriority = "useCaseHasPriority"
	PredUseCaseHasActor    = "useCaseHasActor"
	PredEntityHasAttrs     = "entityHasAttributes"
)

func (c AllMatch) Evaluate(s snapshot.Snapshot) bool {
	switch c.Path {
	case snapshot.PathActors:
		pred := actorPredicate(c.Predicate)
		if pred == nil {
			return false
		}
		for _, a := range s.Actors {
			if !pred(a) {
				return false
			}
		}
		return true
	case snapshot.PathUseCases:
		pred := useCasePredicate(c.Predicate)
		if pred == nil {
			return false
		}
		for _, u := range s.UseCases {
			if !pred(u) {
				return false
			}
		}
		return true
	case snapshot.PathDataEntities:
		pred := entityPredicate(c.Predicate)
		if pred == nil {
			return false
		}
		for _, e := range s.DataEntities {
			if !pred(e) {
				return false
			}
		}
		return true
	}
	return false
}

func actorPredicate(id string) func(snapshot.Actor) bool {
	switch id {
	case PredActorHasGoals:
		return func(a snapshot.Actor) bool { return len(a.Goals) > 0 }
	case PredActorHasPainPoints:
		return func(a snapshot.Actor) bool { return len(a.PainPoints) > 0 }
	}
	return nil
}

func useCasePredicate(id string) func(snapshot.UseCase) bool {
	switch id {
	case PredUseCaseHasOutcome:
		return func(u snapshot.UseCase) bool { return u.Outcome != "" }
	case PredUseCaseHasPriority:
		return func(u snapshot.UseCase) bool { return u.Priority != "" }
	case PredUseCaseHasActor:
		return func(u snapshot.UseCase) bool { return u.Actor != "" }
	}
	return nil
}

func entityPredicate(id string) func(snapshot.DataEntity) bool {
	switch id {
	case PredEntityHasAttrs:
		return func(e snapshot.DataEntity) bool { return len(e.Attributes) > 0 }
	}
	return nil
}

// anyOf combines conditions; true when any member is true.
type anyOf []Condition

func (c anyOf) Evaluate(s snapshot.Snapshot) bool {
	for _, cond := range c {
		if cond != nil && cond.Evaluate(s) {
			return true
		}
	}
	return false
}
