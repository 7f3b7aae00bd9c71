package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"requify/internal/agents"
	"requify/internal/intake"
	"requify/internal/question"
	"requify/internal/readiness"
	"requify/internal/snapshot"
	"requify/internal/store"
)

type turnRequest struct {
	Message       string `json:"message"`
	ProjectName   string `json:"projectName,omitempty"`
	ProjectVision string `json:"projectVision,omitempty"`
	Stop          bool   `json:"stop,omitempty"`
	StopReason    string `json:"stopReason,omitempty"`
}

type nextQuestion struct {
	ID     string         `json:"id"`
	Prompt string         `json:"prompt"`
	Phase  question.Phase `json:"phase"`
}

type turnResponse struct {
	ProjectID         string                                      `json:"projectId"`
	Completeness      int                                         `json:"completeness"`
	Phase             question.Phase                              `json:"phase"`
	PhaseProgress     map[question.Phase]question.Progress        `json:"phaseProgress,omitempty"`
	ArtifactReadiness map[readiness.ArtifactType]readiness.Status `json:"artifactReadiness,omitempty"`
	NextQuestion      *nextQuestion                               `json:"nextQuestion,omitempty"`
	Remaining         int                                         `json:"remaining"`
	Done              bool                                        `json:"done"`
	ExtractionFailed  bool                                        `json:"extractionFailed,omitempty"`
}

// HandleTurn advances one intake conversation by a single exchange: fold the
// user's answer into the snapshot, then pick the next eligible question. The
// updated state is persisted before responding; extraction failures degrade
// the turn, persistence failures fail it.
func (h *Handler) HandleTurn(w http.ResponseWriter, r *http.Request) {
	projectID := strings.TrimSpace(chi.URLParam(r, "projectID"))
	if projectID == "" {
		writeError(w, http.StatusBadRequest, "project id is required")
		return
	}
	var req turnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx := r.Context()
	state, err := h.loadOrCreateState(ctx, projectID, req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	mgr := intake.NewManager(state, h.Validator)

	if req.Stop {
		mgr.SetUserStop(req.StopReason)
		h.persistAndRespond(w, r, mgr, turnResponse{ExtractionFailed: false})
		return
	}

	if msg := strings.TrimSpace(req.Message); msg != "" {
		if err := h.Store.AddConversation(ctx, store.ConversationRecord{ProjectID: projectID, Role: "user", Content: msg}); err != nil {
			log.Printf("gateway: conversation log for %s failed: %v", projectID, err)
		}
	}

	extractionFailed := false
	if pendingID, ok := state.Tracker.Pending(); ok && strings.TrimSpace(req.Message) != "" {
		mgr.MarkLastQuestionAnswered()
		partial, err := h.extractTurn(r, pendingID, req.Message, state.ExtractedData)
		if err != nil {
			log.Printf("gateway: turn extraction for %s failed: %v", projectID, err)
			extractionFailed = true
		} else {
			mgr.UpdateExtractedData(partial)
		}
	}

	h.persistAndRespond(w, r, mgr, turnResponse{ExtractionFailed: extractionFailed})
}

func (h *Handler) loadOrCreateState(ctx context.Context, projectID string, req turnRequest) (*intake.State, error) {
	raw, ok, err := h.Store.LoadIntakeState(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("load conversation state: %w", err)
	}
	if !ok {
		return intake.New(projectID, req.ProjectName, req.ProjectVision), nil
	}
	state, err := intake.Deserialize(raw)
	if err != nil {
		return nil, fmt.Errorf("decode conversation state: %w", err)
	}
	if req.ProjectName != "" {
		state.ProjectName = req.ProjectName
	}
	if req.ProjectVision != "" {
		state.ProjectVision = req.ProjectVision
	}
	return state, nil
}

func (h *Handler) extractTurn(r *http.Request, questionID, answer string, known snapshot.Snapshot) (snapshot.Snapshot, error) {
	promptText := questionID
	if q, ok := question.Lookup(questionID); ok {
		promptText = q.Prompt
	}
	return agents.TurnExtraction{Client: h.Client}.Run(r.Context(), agents.TurnIn{
		Question: promptText,
		Answer:   answer,
		Known:    known,
	})
}

func (h *Handler) persistAndRespond(w http.ResponseWriter, r *http.Request, mgr *intake.Manager, resp turnResponse) {
	state := mgr.State()

	var next *nextQuestion
	remaining := mgr.UnansweredQuestions()
	if !state.UserRequestedStop && len(remaining) > 0 {
		q := remaining[0]
		mgr.MarkQuestionAsked(q.ID)
		next = &nextQuestion{ID: q.ID, Prompt: q.Prompt, Phase: q.Phase}
		remaining = remaining[1:]
	}

	data, err := state.Serialize()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := h.Store.SaveIntakeState(r.Context(), state.ProjectID, data); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to persist conversation state")
		return
	}
	if next != nil {
		if err := h.Store.AddConversation(r.Context(), store.ConversationRecord{ProjectID: state.ProjectID, Role: "assistant", Content: next.Prompt}); err != nil {
			log.Printf("gateway: conversation log for %s failed: %v", state.ProjectID, err)
		}
	}

	resp.ProjectID = state.ProjectID
	resp.Completeness = mgr.Completeness()
	resp.Phase = mgr.CurrentPhase()
	resp.PhaseProgress = state.PhaseProgress
	resp.ArtifactReadiness = state.ArtifactReadiness
	resp.NextQuestion = next
	resp.Remaining = len(remaining)
	resp.Done = state.UserRequestedStop || next == nil
	writeJSON(w, http.StatusOK, resp)
}
