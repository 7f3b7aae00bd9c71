package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"requify/internal/agents"
	"requify/internal/readiness"
	"requify/internal/store"
)

type projectResponse struct {
	Project      store.ProjectRecord                         `json:"project"`
	Readiness    map[readiness.ArtifactType]readiness.Status `json:"artifactReadiness"`
	Artifacts    []store.ArtifactRecord                      `json:"artifacts,omitempty"`
	Stories      []agents.UserStory                          `json:"stories,omitempty"`
	Conversation []store.ConversationRecord                  `json:"conversation,omitempty"`
}

// HandleGetProject returns the stored project with its readiness, artifacts
// and stories.
func (h *Handler) HandleGetProject(w http.ResponseWriter, r *http.Request) {
	projectID := strings.TrimSpace(chi.URLParam(r, "projectID"))
	if projectID == "" {
		writeError(w, http.StatusBadRequest, "project id is required")
		return
	}
	ctx := r.Context()
	rec, ok, err := h.Store.GetProject(ctx, projectID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}
	arts, err := h.Store.ListArtifacts(ctx, projectID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	stories, err := h.Store.ListStories(ctx, projectID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	conv, err := h.Store.ListConversation(ctx, projectID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, projectResponse{
		Project:      rec,
		Readiness:    readiness.Evaluate(rec.Snapshot),
		Artifacts:    arts,
		Stories:      stories,
		Conversation: conv,
	})
}

// HandleListProjects returns every stored project, newest first.
func (h *Handler) HandleListProjects(w http.ResponseWriter, r *http.Request) {
	recs, err := h.Store.ListProjects(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"projects": recs})
}
