package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"requify/internal/agents"
	"requify/internal/gateway/run"
	"requify/internal/llm"
	"requify/internal/snapshot"
	"requify/internal/store"
	"requify/internal/validation"
)

func newTestRouter(t *testing.T, fake *llm.FakeClient) (*chi.Mux, *store.Store) {
	t.Helper()
	st := store.New(filepath.Join(t.TempDir(), "projects.json"))
	h := &Handler{
		Store:     st,
		Client:    fake,
		Validator: validation.RuleValidator{},
		Broker:    run.NewEventBroker(),
	}
	r := chi.NewRouter()
	r.Post("/v1/expand", h.HandleExpand)
	r.Get("/v1/projects/{projectID}", h.HandleGetProject)
	r.Post("/v1/projects/{projectID}/turns", h.HandleTurn)
	return r, st
}

func postJSON(t *testing.T, r http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestTurnStartsConversation(t *testing.T) {
	router, _ := newTestRouter(t, llm.NewFakeClient())

	w := postJSON(t, router, "/v1/projects/p1/turns", turnRequest{
		ProjectName:   "Shop",
		ProjectVision: "frictionless buying",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}
	var resp turnResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.NextQuestion == nil {
		t.Fatalf("first turn should ask a question: %s", w.Body)
	}
	if resp.NextQuestion.ID != "project_vision" {
		t.Fatalf("first question = %q, want project_vision", resp.NextQuestion.ID)
	}
	if resp.Done {
		t.Fatalf("conversation should not be done after one question")
	}
}

func TestTurnMergesExtractedAnswer(t *testing.T) {
	fake := llm.NewFakeClient()
	extracted := snapshot.Snapshot{}
	extracted.Actors = []snapshot.Actor{{Name: "Shopper", Classification: "primary"}}
	fake.Script(agents.TaskTurnExtraction, extracted)

	router, st := newTestRouter(t, fake)

	// First turn asks the opening question.
	if w := postJSON(t, router, "/v1/projects/p1/turns", turnRequest{ProjectName: "Shop"}); w.Code != http.StatusOK {
		t.Fatalf("first turn status = %d", w.Code)
	}
	// Second turn answers it.
	w := postJSON(t, router, "/v1/projects/p1/turns", turnRequest{Message: "shoppers buy things"})
	if w.Code != http.StatusOK {
		t.Fatalf("second turn status = %d, body = %s", w.Code, w.Body)
	}
	var resp turnResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ExtractionFailed {
		t.Fatalf("extraction should have succeeded")
	}
	if resp.Completeness == 0 {
		t.Fatalf("completeness should move after an extracted actor")
	}

	raw, ok, err := st.LoadIntakeState(context.Background(), "p1")
	if err != nil || !ok {
		t.Fatalf("intake state not persisted: ok=%v err=%v", ok, err)
	}
	var persisted struct {
		ExtractedData snapshot.Snapshot `json:"extractedData"`
	}
	if err := json.Unmarshal(raw, &persisted); err != nil {
		t.Fatalf("decode persisted state: %v", err)
	}
	if len(persisted.ExtractedData.Actors) != 1 {
		t.Fatalf("persisted actors = %d, want 1", len(persisted.ExtractedData.Actors))
	}
}

func TestTurnToleratesExtractionFailure(t *testing.T) {
	fake := llm.NewFakeClient()
	fake.Fail(agents.TaskTurnExtraction, errors.New("model unavailable"))
	router, _ := newTestRouter(t, fake)

	if w := postJSON(t, router, "/v1/projects/p1/turns", turnRequest{ProjectName: "Shop"}); w.Code != http.StatusOK {
		t.Fatalf("first turn status = %d", w.Code)
	}
	w := postJSON(t, router, "/v1/projects/p1/turns", turnRequest{Message: "shoppers buy things"})
	if w.Code != http.StatusOK {
		t.Fatalf("turn with failing extraction = %d, want 200", w.Code)
	}
	var resp turnResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.ExtractionFailed {
		t.Fatalf("response should flag the failed extraction")
	}
	if resp.NextQuestion == nil {
		t.Fatalf("conversation should continue past a failed extraction")
	}
}

func TestTurnStopEndsConversation(t *testing.T) {
	router, _ := newTestRouter(t, llm.NewFakeClient())

	if w := postJSON(t, router, "/v1/projects/p1/turns", turnRequest{ProjectName: "Shop"}); w.Code != http.StatusOK {
		t.Fatalf("first turn status = %d", w.Code)
	}
	w := postJSON(t, router, "/v1/projects/p1/turns", turnRequest{Stop: true, StopReason: "enough for now"})
	if w.Code != http.StatusOK {
		t.Fatalf("stop turn status = %d", w.Code)
	}
	var resp turnResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Done {
		t.Fatalf("stop should end the conversation")
	}
	if resp.NextQuestion != nil {
		t.Fatalf("stopped conversation must not ask another question")
	}
}

func TestExpandRunsInBackground(t *testing.T) {
	fake := llm.NewFakeClient()
	fake.Script(agents.TaskSynthesis, agents.SynthesisOut{
		ProjectName: "Shop",
		Vision:      "sell things",
		Analysis:    snapshot.Snapshot{},
	})
	router, st := newTestRouter(t, fake)

	w := postJSON(t, router, "/v1/expand", expandRequest{ProjectID: "p9", Sentence: "an online shop"})
	if w.Code != http.StatusAccepted {
		t.Fatalf("expand status = %d, body = %s", w.Code, w.Body)
	}
	var resp expandResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.RunID == "" || resp.ProjectID != "p9" {
		t.Fatalf("expand response = %+v", resp)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, ok, _ := st.GetProject(context.Background(), "p9"); ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expansion did not persist the project in time")
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestExpandRejectsEmptySentence(t *testing.T) {
	router, _ := newTestRouter(t, llm.NewFakeClient())
	w := postJSON(t, router, "/v1/expand", expandRequest{Sentence: "   "})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestGetProjectNotFound(t *testing.T) {
	router, _ := newTestRouter(t, llm.NewFakeClient())
	req := httptest.NewRequest(http.MethodGet, "/v1/projects/missing", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}
