package readiness

import (
	"reflect"
	"testing"

	"requify/internal/snapshot"
)

func TestEvaluateEmptySnapshotAllBlocked(t *testing.T) {
	got := Evaluate(snapshot.Snapshot{})
	if len(got) != len(Types()) {
		t.Fatalf("expected a verdict for all %d artifact types, got %d", len(Types()), len(got))
	}
	for _, at := range Types() {
		st := got[at]
		if st.Ready {
			t.Fatalf("%s: empty snapshot must not be ready", at)
		}
		if len(st.BlockedBy) == 0 {
			t.Fatalf("%s: blockedBy must be non-empty for an empty snapshot", at)
		}
	}
}

func TestEvaluateContextDiagramGate(t *testing.T) {
	s := snapshot.Snapshot{
		Actors:     []snapshot.Actor{{Name: "Shopper"}},
		Boundaries: snapshot.Boundaries{External: []string{"payment gateway"}},
	}
	got := Evaluate(s)

	if !got[ContextDiagram].Ready {
		t.Fatalf("context diagram should be ready with 1 actor + 1 external boundary: %+v", got[ContextDiagram])
	}

	uc := got[UseCaseDiagram]
	if uc.Ready {
		t.Fatalf("use case diagram should not be ready: %+v", uc)
	}
	wantBlocked := []string{snapshot.PathActors, snapshot.PathUseCases}
	if !reflect.DeepEqual(uc.BlockedBy, wantBlocked) {
		t.Fatalf("use case diagram blockedBy = %v, want %v", uc.BlockedBy, wantBlocked)
	}
}

func TestEvaluateBehaviorDocumentNeedsConditions(t *testing.T) {
	s := snapshot.Snapshot{UseCases: []snapshot.UseCase{{ID: "uc-1"}}}
	if Evaluate(s)[BehaviorDocument].Ready {
		t.Fatal("behavior document requires a use case with pre- or post-conditions")
	}
	s.UseCases[0].Postconditions = []string{"order persisted"}
	if !Evaluate(s)[BehaviorDocument].Ready {
		t.Fatal("behavior document should be ready once a use case carries conditions")
	}
}

func TestEvaluateThresholds(t *testing.T) {
	s := snapshot.Snapshot{
		UseCases: []snapshot.UseCase{{ID: "1"}, {ID: "2"}, {ID: "3"}, {ID: "4"}},
	}
	got := Evaluate(s)
	if !got[ActivityDiagram].Ready {
		t.Fatal("activity diagram needs 3 use cases, have 4")
	}
	if got[RequirementsTable].Ready {
		t.Fatal("requirements table needs 5 use cases, have 4")
	}

	s.Constraints = []snapshot.Constraint{{Kind: "business", Description: "launch before Q3"}}
	if !Evaluate(s)[ConstantsTable].Ready {
		t.Fatal("constants table should be ready with a recorded constraint")
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	s := snapshot.Snapshot{
		Actors:   []snapshot.Actor{{Name: "A"}, {Name: "B"}},
		UseCases: []snapshot.UseCase{{ID: "1"}, {ID: "2"}, {ID: "3"}},
		Boundaries: snapshot.Boundaries{
			InScope: []string{"x"}, OutOfScope: []string{"y"}, External: []string{"z"},
		},
	}
	first := Evaluate(s)
	second := Evaluate(s)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("Evaluate is not deterministic:\nfirst  %+v\nsecond %+v", first, second)
	}
}
