package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"requify/internal/gateway/run"
	"requify/internal/pipeline"
)

const expandRunTimeout = 10 * time.Minute

type expandRequest struct {
	ProjectID string `json:"projectId,omitempty"`
	Sentence  string `json:"sentence"`
}

type expandResponse struct {
	RunID     string `json:"runId"`
	ProjectID string `json:"projectId"`
}

// HandleExpand kicks off a batch expansion run and returns immediately. The
// caller follows progress over the websocket endpoint using the run id.
func (h *Handler) HandleExpand(w http.ResponseWriter, r *http.Request) {
	var req expandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Sentence) == "" {
		writeError(w, http.StatusBadRequest, "sentence is required")
		return
	}
	projectID := strings.TrimSpace(req.ProjectID)
	if projectID == "" {
		projectID = uuid.NewString()
	}
	runID := uuid.NewString()
	h.Broker.Allocate(runID, 64)

	orch := pipeline.NewOrchestrator(h.Client, h.Validator, h.Store,
		pipeline.WithProgress(func(step pipeline.Step, status pipeline.StepStatus, detail string) {
			h.Broker.Publish(run.Event{
				RunID:     runID,
				ProjectID: projectID,
				Step:      step,
				Status:    status,
				Detail:    detail,
			})
		}))

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), expandRunTimeout)
		defer cancel()
		defer h.Broker.ScheduleCleanup(runID)

		final := run.Event{RunID: runID, ProjectID: projectID, Final: true}
		if _, err := orch.Run(ctx, projectID, req.Sentence); err != nil {
			log.Printf("gateway: expansion run %s failed: %v", runID, err)
			final.Err = err.Error()
		}
		h.Broker.Publish(final)
	}()

	writeJSON(w, http.StatusAccepted, expandResponse{RunID: runID, ProjectID: projectID})
}
