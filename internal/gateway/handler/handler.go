// Package handler implements the gateway's HTTP endpoints.
package handler

import (
	"encoding/json"
	"net/http"

	"requify/internal/gateway/run"
	"requify/internal/llm"
	"requify/internal/store"
	"requify/internal/validation"
)

// Handler carries shared dependencies for all endpoints.
type Handler struct {
	Store     *store.Store
	Client    llm.Client
	Validator validation.Validator
	Broker    *run.EventBroker
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
