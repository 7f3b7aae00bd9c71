package question

import (
	"testing"
	"time"

	"requify/internal/snapshot"
)

func TestMarkAskedCreatesRecordOnce(t *testing.T) {
	tr := NewTracker()
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	tr.MarkAsked("project_vision", now)
	if len(tr.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(tr.Records))
	}
	if tr.Records[0].ClarificationCount != 0 || tr.Records[0].AnswerReceived {
		t.Fatalf("fresh record should be unanswered with zero clarifications: %+v", tr.Records[0])
	}

	// Re-asking increments the clarification counter, no duplicate record.
	tr.MarkAsked("project_vision", now.Add(time.Minute))
	if len(tr.Records) != 1 {
		t.Fatalf("re-ask must not duplicate the record, got %d", len(tr.Records))
	}
	if tr.Records[0].ClarificationCount != 1 {
		t.Fatalf("clarificationCount = %d, want 1", tr.Records[0].ClarificationCount)
	}
}

func TestMarkLastAnswered(t *testing.T) {
	tr := NewTracker()
	now := time.Now()
	tr.MarkAsked("project_vision", now)
	tr.MarkLastAnswered()
	if !tr.Answered("project_vision") {
		t.Fatal("project_vision should be answered")
	}

	tr.MarkAsked("problem_summary", now)
	tr.MarkAsked("primary_actors", now)
	tr.MarkLastAnswered()
	if !tr.Answered("primary_actors") {
		t.Fatal("the most recently asked pending question should be answered first")
	}
	if tr.Answered("problem_summary") {
		t.Fatal("problem_summary has not been answered yet")
	}
}

func TestPhaseAdvancesMonotonically(t *testing.T) {
	tr := NewTracker()
	now := time.Now()
	if tr.CurrentPhase != PhaseVision {
		t.Fatalf("fresh tracker should start at vision, got %s", tr.CurrentPhase)
	}

	tr.MarkAsked("core_use_cases", now)
	if tr.CurrentPhase != PhaseUseCases {
		t.Fatalf("asking a later-phase question should advance the phase, got %s", tr.CurrentPhase)
	}

	// Asking an earlier-phase question never regresses the phase.
	tr.MarkAsked("project_vision", now)
	if tr.CurrentPhase != PhaseUseCases {
		t.Fatalf("phase regressed to %s", tr.CurrentPhase)
	}
}

func TestUnansweredHonorsPrerequisites(t *testing.T) {
	tr := NewTracker()
	empty := snapshot.Snapshot{}

	eligible := tr.Unanswered(empty)
	if len(eligible) != 1 || eligible[0].ID != "project_vision" {
		t.Fatalf("only project_vision should be eligible at the start, got %+v", ids(eligible))
	}

	now := time.Now()
	tr.MarkAsked("project_vision", now)
	tr.MarkLastAnswered()

	// actor_goals declares requiresData on actors; with no actors recorded it
	// must never appear regardless of answered prerequisites.
	tr.MarkAsked("primary_actors", now)
	tr.MarkLastAnswered()
	for _, q := range tr.Unanswered(empty) {
		if q.ID == "actor_goals" {
			t.Fatal("actor_goals must not be eligible while the actors path is empty")
		}
	}

	withActors := snapshot.Snapshot{Actors: []snapshot.Actor{{Name: "Shopper"}}}
	if !containsID(tr.Unanswered(withActors), "actor_goals") {
		t.Fatal("actor_goals should become eligible once actors exist")
	}
}

func TestUnansweredHonorsSkipConditions(t *testing.T) {
	tr := NewTracker()
	now := time.Now()
	for _, id := range []string{"project_vision", "primary_actors", "core_use_cases"} {
		tr.MarkAsked(id, now)
		tr.MarkLastAnswered()
	}

	s := snapshot.Snapshot{
		Actors: []snapshot.Actor{{Name: "A", Goals: []string{"g"}}, {Name: "B", Goals: []string{"g"}}},
		UseCases: []snapshot.UseCase{
			{ID: "1", Outcome: "done", Priority: "high"},
			{ID: "2", Outcome: "done", Priority: "low"},
		},
	}
	eligible := tr.Unanswered(s)
	if containsID(eligible, "actor_goals") {
		t.Fatal("actor_goals should be skipped when every actor has goals")
	}
	if containsID(eligible, "use_case_details") {
		t.Fatal("use_case_details should be skipped when every use case has an outcome")
	}
	// Pain points are still missing, so that question stays eligible.
	if !containsID(eligible, "actor_pain_points") {
		t.Fatal("actor_pain_points should remain eligible")
	}
}

func TestPhaseProgressDerived(t *testing.T) {
	tr := NewTracker()
	now := time.Now()
	tr.MarkAsked("primary_actors", now)

	progress := tr.PhaseProgress()
	actors := progress[PhaseActors]
	if !actors.Started || actors.Completed {
		t.Fatalf("actors phase should be started but not completed: %+v", actors)
	}
	if actors.QuestionsAsked != 1 || actors.QuestionsRemaining != 2 {
		t.Fatalf("actors phase counts wrong: %+v", actors)
	}
	if progress[PhaseVision].Started {
		t.Fatal("vision phase has no asked questions")
	}
}

func ids(qs []Question) []string {
	out := make([]string, 0, len(qs))
	for _, q := range qs {
		out = append(out, q.ID)
	}
	return out
}

func containsID(qs []Question, id string) bool {
	for _, q := range qs {
		if q.ID == id {
			return true
		}
	}
	return false
}
