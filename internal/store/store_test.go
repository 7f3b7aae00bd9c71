package store

import (
	"context"
	"path/filepath"
	"testing"

	"requify/internal/agents"
	"requify/internal/artifacts"
	"requify/internal/intake"
	"requify/internal/pipeline"
	"requify/internal/snapshot"
)

func exerciseStore(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()

	snap := snapshot.Snapshot{}
	snap.Actors = []snapshot.Actor{{Name: "Shopper", Classification: "primary"}}

	first, err := s.UpsertProject(ctx, ProjectRecord{ProjectID: "p1", Name: "Shop", Vision: "sell things", Snapshot: snap})
	if err != nil {
		t.Fatalf("UpsertProject() error = %v", err)
	}
	if first.Revision != 1 {
		t.Fatalf("first revision = %d, want 1", first.Revision)
	}
	second, err := s.UpsertProject(ctx, ProjectRecord{ProjectID: "p1", Name: "Shop v2", Snapshot: snap})
	if err != nil {
		t.Fatalf("UpsertProject() error = %v", err)
	}
	if second.Revision != 2 {
		t.Fatalf("second revision = %d, want 2", second.Revision)
	}

	got, ok, err := s.GetProject(ctx, "p1")
	if err != nil || !ok {
		t.Fatalf("GetProject() = ok=%v err=%v", ok, err)
	}
	if got.Name != "Shop v2" || got.Revision != 2 {
		t.Fatalf("GetProject() = %+v", got)
	}
	if len(got.Snapshot.Actors) != 1 || got.Snapshot.Actors[0].Name != "Shopper" {
		t.Fatalf("snapshot did not survive: %+v", got.Snapshot)
	}
	if _, ok, _ := s.GetProject(ctx, "missing"); ok {
		t.Fatalf("GetProject(missing) should not find anything")
	}

	state := []byte(`{"projectId":"p1","messageCount":3}`)
	if err := s.SaveIntakeState(ctx, "p1", state); err != nil {
		t.Fatalf("SaveIntakeState() error = %v", err)
	}
	loaded, ok, err := s.LoadIntakeState(ctx, "p1")
	if err != nil || !ok {
		t.Fatalf("LoadIntakeState() = ok=%v err=%v", ok, err)
	}
	if string(loaded) != string(state) {
		t.Fatalf("intake state = %s, want %s", loaded, state)
	}

	for _, kind := range []string{"context_diagram", "scope_tree"} {
		if err := s.AddArtifact(ctx, ArtifactRecord{
			ProjectID: "p1", RunID: "r1", Kind: kind, Title: kind, Format: "mermaid", Content: "flowchart LR",
		}); err != nil {
			t.Fatalf("AddArtifact(%s) error = %v", kind, err)
		}
	}
	arts, err := s.ListArtifacts(ctx, "p1")
	if err != nil {
		t.Fatalf("ListArtifacts() error = %v", err)
	}
	if len(arts) != 2 {
		t.Fatalf("ListArtifacts() = %d records, want 2", len(arts))
	}
	if arts[0].Kind != "scope_tree" {
		t.Fatalf("artifacts not newest first: %+v", arts)
	}

	stories := []agents.UserStory{{ID: "ST-1", Actor: "Shopper", Want: "checkout fast", Benefit: "save time"}}
	if err := s.ReplaceStories(ctx, "p1", stories); err != nil {
		t.Fatalf("ReplaceStories() error = %v", err)
	}
	if err := s.ReplaceStories(ctx, "p1", stories); err != nil {
		t.Fatalf("ReplaceStories() second call error = %v", err)
	}
	gotStories, err := s.ListStories(ctx, "p1")
	if err != nil {
		t.Fatalf("ListStories() error = %v", err)
	}
	if len(gotStories) != 1 || gotStories[0].ID != "ST-1" {
		t.Fatalf("ListStories() = %+v", gotStories)
	}

	for _, c := range []ConversationRecord{
		{ProjectID: "p1", Role: "user", Content: "we sell shoes"},
		{ProjectID: "p1", Role: "assistant", Content: "Who are the main actors?"},
	} {
		if err := s.AddConversation(ctx, c); err != nil {
			t.Fatalf("AddConversation() error = %v", err)
		}
	}
	conv, err := s.ListConversation(ctx, "p1")
	if err != nil {
		t.Fatalf("ListConversation() error = %v", err)
	}
	if len(conv) != 2 || conv[0].Role != "user" || conv[1].Role != "assistant" {
		t.Fatalf("ListConversation() = %+v, want ordered pair", conv)
	}
}

func TestFileStore(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "projects.json"))
	exerciseStore(t, s)
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("NewSQLite() error = %v", err)
	}
	defer s.Close()
	exerciseStore(t, s)
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "projects.json")
	ctx := context.Background()

	s := New(path)
	if _, err := s.UpsertProject(ctx, ProjectRecord{ProjectID: "p1", Name: "Shop"}); err != nil {
		t.Fatalf("UpsertProject() error = %v", err)
	}

	reopened := New(path)
	got, ok, err := reopened.GetProject(ctx, "p1")
	if err != nil || !ok {
		t.Fatalf("GetProject() after reopen = ok=%v err=%v", ok, err)
	}
	if got.Name != "Shop" {
		t.Fatalf("reopened record = %+v", got)
	}
}

func TestSaveExpansionPersistsEverything(t *testing.T) {
	s, err := NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("NewSQLite() error = %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	snap := snapshot.Snapshot{}
	snap.Actors = []snapshot.Actor{{Name: "Shopper"}}
	res := &pipeline.Result{
		ProjectID:   "p1",
		ProjectName: "Shop",
		Sentence:    "an online shop",
		Vision:      "sell things",
		Snapshot:    snap,
		Score:       42,
		Stories:     []agents.UserStory{{ID: "ST-1", Actor: "Shopper", Want: "buy", Benefit: "own"}},
		Artifacts: []artifacts.Artifact{
			{Type: "context_diagram", Title: "Shop - Context Diagram", Format: "mermaid", Content: "flowchart LR"},
		},
	}
	if err := s.SaveExpansion(ctx, res); err != nil {
		t.Fatalf("SaveExpansion() error = %v", err)
	}

	rec, ok, err := s.GetProject(ctx, "p1")
	if err != nil || !ok {
		t.Fatalf("GetProject() = ok=%v err=%v", ok, err)
	}
	if rec.Score != 42 {
		t.Fatalf("score = %d, want 42", rec.Score)
	}
	arts, err := s.ListArtifacts(ctx, "p1")
	if err != nil || len(arts) != 1 {
		t.Fatalf("ListArtifacts() = %d, err=%v, want 1", len(arts), err)
	}
	if arts[0].RunID == "" {
		t.Fatalf("artifact missing run id: %+v", arts[0])
	}
	stories, err := s.ListStories(ctx, "p1")
	if err != nil || len(stories) != 1 {
		t.Fatalf("ListStories() = %d, err=%v, want 1", len(stories), err)
	}
	raw, ok, err := s.LoadIntakeState(ctx, "p1")
	if err != nil || !ok {
		t.Fatalf("LoadIntakeState() = ok=%v err=%v, want conversation record", ok, err)
	}
	st, err := intake.Deserialize(raw)
	if err != nil {
		t.Fatalf("Deserialize() error = %v", err)
	}
	if len(st.ExtractedData.Actors) != 1 || st.ProjectName != "Shop" {
		t.Fatalf("conversation record = %+v, want merged snapshot and name", st)
	}
	conv, err := s.ListConversation(ctx, "p1")
	if err != nil || len(conv) != 2 {
		t.Fatalf("ListConversation() = %d, err=%v, want 2", len(conv), err)
	}
	if conv[0].Role != "user" || conv[0].Content != "an online shop" {
		t.Fatalf("first entry = %+v, want the expanded sentence", conv[0])
	}
	if conv[1].Role != "assistant" {
		t.Fatalf("second entry role = %q, want assistant", conv[1].Role)
	}
}

func TestRebindPlaceholders(t *testing.T) {
	sqlite := &Store{driver: "sqlite"}
	if got := sqlite.rebind(`SELECT a FROM t WHERE x = $1 AND y = $12`); got != `SELECT a FROM t WHERE x = ? AND y = ?` {
		t.Fatalf("rebind sqlite = %q", got)
	}
	pg := &Store{driver: "pgx"}
	if got := pg.rebind(`SELECT a FROM t WHERE x = $1`); got != `SELECT a FROM t WHERE x = $1` {
		t.Fatalf("rebind pgx = %q", got)
	}
}
