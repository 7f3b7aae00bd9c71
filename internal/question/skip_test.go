package question

import (
	"testing"

	"requify/internal/snapshot"
)

func TestFieldLengthAtLeast(t *testing.T) {
	s := snapshot.Snapshot{Actors: []snapshot.Actor{{Name: "A"}, {Name: "B"}}}

	if !(FieldLengthAtLeast{Path: snapshot.PathActors, N: 2}).Evaluate(s) {
		t.Fatal("two actors should satisfy N=2")
	}
	if (FieldLengthAtLeast{Path: snapshot.PathActors, N: 3}).Evaluate(s) {
		t.Fatal("two actors must not satisfy N=3")
	}
	// Unknown paths resolve to zero and never skip.
	if (FieldLengthAtLeast{Path: "no.such.path", N: 1}).Evaluate(s) {
		t.Fatal("unknown path must not skip")
	}
	if (FieldLengthAtLeast{Path: snapshot.PathActors, N: 0}).Evaluate(s) {
		t.Fatal("non-positive N must not skip")
	}
}

func TestAllMatchPredicates(t *testing.T) {
	s := snapshot.Snapshot{
		Actors: []snapshot.Actor{
			{Name: "A", Goals: []string{"g"}},
			{Name: "B", Goals: []string{"g"}, PainPoints: []string{"p"}},
		},
	}
	if !(AllMatch{Path: snapshot.PathActors, Predicate: PredActorHasGoals}).Evaluate(s) {
		t.Fatal("every actor has goals")
	}
	if (AllMatch{Path: snapshot.PathActors, Predicate: PredActorHasPainPoints}).Evaluate(s) {
		t.Fatal("actor A lacks pain points")
	}
}

func TestAllMatchUnknownNeverSkips(t *testing.T) {
	s := snapshot.Snapshot{Actors: []snapshot.Actor{{Name: "A"}}}
	if (AllMatch{Path: snapshot.PathActors, Predicate: "noSuchPredicate"}).Evaluate(s) {
		t.Fatal("unknown predicate must evaluate false")
	}
	if (AllMatch{Path: "bogus", Predicate: PredActorHasGoals}).Evaluate(s) {
		t.Fatal("unknown path must evaluate false")
	}
}

func TestAllMatchVacuousOnEmptyCollection(t *testing.T) {
	// All-of over an empty set is vacuously true; the NeedsData gate is what
	// keeps a data-less question from being dropped via its skip condition.
	empty := snapshot.Snapshot{}
	if !(AllMatch{Path: snapshot.PathActors, Predicate: PredActorHasGoals}).Evaluate(empty) {
		t.Fatal("AllMatch over an empty collection is vacuously true")
	}
}
