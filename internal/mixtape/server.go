package mixtape

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"mixtape-service/internal/provider"
)

type Server struct {
	engine *Engine
	tracks provider.Client
	rdb    *redis.Client
}

func NewServer(db DB, tracks provider.Client, rdb *redis.Client) *Server {
	return &Server{
		engine: NewEngine(db),
		tracks: tracks,
		rdb:    rdb,
	}
}

func (s *Server) Router(middlewares ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	for _, mw := range middlewares {
		r.Use(mw)
	}

	r.Get("/health", s.handleHealth)

	r.Get("/tracks/search", s.handleSearchTracks)

	r.Post("/mixtapes", s.handleCreateMixtape)
	r.Get("/mixtapes", s.handleListMyMixtapes)
	r.Get("/mixtapes/{publicId}", s.handleGetMixtape)
	r.Put("/mixtapes/{publicId}", s.handleUpdateMixtape)

	r.Post("/mixtapes/{publicId}/claim", s.handleClaimMixtape)
	r.Post("/mixtapes/{publicId}/undo", s.handleUndoMixtape)
	r.Post("/mixtapes/{publicId}/redo", s.handleRedoMixtape)
	r.Post("/mixtapes/{publicId}/export", s.handleExportMixtape)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "mixtape-service",
	})
}
