// Package handlers exposes the HTTP API.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/DeinAlptraum/usdb-syncer/internal/logger"
	"github.com/DeinAlptraum/usdb-syncer/internal/store"
	"github.com/DeinAlptraum/usdb-syncer/internal/syncer"
	"github.com/DeinAlptraum/usdb-syncer/internal/worker"
)

type Handler struct {
	DB     *store.DB
	Syncer *syncer.Syncer
	Pool   *worker.Pool
	Log    *logger.Logger
}

func NewHandler(db *store.DB, s *syncer.Syncer, pool *worker.Pool, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Default()
	}
	return &Handler{
		DB:     db,
		Syncer: s,
		Pool:   pool,
		Log:    log.WithComponent("http"),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/health", h.Health)
	r.Get("/api/songs", h.SearchSongs)
	r.Get("/api/filters", h.Filters)
	r.Get("/api/songs/{id}", h.GetSong)
	r.Post("/api/songs/{id}/sync", h.SyncSong)
	r.Post("/api/songs/sync", h.SyncSongs)
	r.Post("/api/catalog/refresh", h.RefreshCatalog)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Log.Error("Failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}
