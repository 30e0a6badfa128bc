// Package statehttp exposes the engine's replica over a local, read-only
// HTTP surface so the presentation layer can consume it from another
// process. It never mutates the engine.
package statehttp

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"github.com/doodleduel/client/internal/engine"
)

// SnapshotProvider is the read side of the engine.
type SnapshotProvider interface {
	Snapshot(ctx context.Context) (engine.Replica, error)
}

// Handler serves the state endpoints.
type Handler struct {
	provider SnapshotProvider
}

func NewHandler(provider SnapshotProvider) *Handler {
	return &Handler{provider: provider}
}

// Routes builds the CORS-wrapped route set: GET /state and GET /health.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /state", h.handleState)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	return cors.AllowAll().Handler(mux)
}

func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	snap, err := h.provider.Snapshot(r.Context())
	if err != nil {
		log.Warn().Err(err).Msg("state snapshot failed")
		http.Error(w, "engine unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		log.Warn().Err(err).Msg("failed to encode state response")
	}
}
