package mixtape

import (
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleClaimMixtape(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	publicID := chi.URLParam(r, "publicId")

	caller := callerID(r)
	if caller == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	m, err := s.engine.Claim(ctx, publicID, *caller)
	if err != nil {
		writeEngineError(w, "claim mixtape", err)
		return
	}

	s.publishEvent(ctx, "mixtape.claimed", map[string]any{
		"publicId": publicID,
		"ownerId":  *caller,
		"version":  m.Version,
	})
	writeJSON(w, http.StatusOK, versionOf(m))
}

func (s *Server) handleUndoMixtape(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	publicID := chi.URLParam(r, "publicId")

	current, err := s.engine.Get(ctx, publicID)
	if err != nil {
		writeEngineError(w, "undo fetch mixtape", err)
		return
	}
	if !s.mayEdit(w, r, current) {
		return
	}

	m, err := s.engine.Undo(ctx, publicID)
	if errors.Is(err, ErrInvalidState) {
		writeError(w, http.StatusConflict, "nothing to undo")
		return
	}
	if err != nil {
		writeEngineError(w, "undo mixtape", err)
		return
	}

	s.publishEvent(ctx, "mixtape.updated", map[string]any{
		"publicId": publicID,
		"version":  m.Version,
	})
	writeJSON(w, http.StatusOK, versionOf(m))
}

func (s *Server) handleRedoMixtape(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	publicID := chi.URLParam(r, "publicId")

	current, err := s.engine.Get(ctx, publicID)
	if err != nil {
		writeEngineError(w, "redo fetch mixtape", err)
		return
	}
	if !s.mayEdit(w, r, current) {
		return
	}

	m, err := s.engine.Redo(ctx, publicID)
	if errors.Is(err, ErrInvalidState) {
		writeError(w, http.StatusConflict, "nothing to redo")
		return
	}
	if err != nil {
		writeEngineError(w, "redo mixtape", err)
		return
	}

	s.publishEvent(ctx, "mixtape.updated", map[string]any{
		"publicId": publicID,
		"version":  m.Version,
	})
	writeJSON(w, http.StatusOK, versionOf(m))
}

// handleExportMixtape creates or refreshes the provider-side playlist for a
// mixtape and persists its URI as a new version when it changed.
func (s *Server) handleExportMixtape(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	publicID := chi.URLParam(r, "publicId")

	m, err := s.engine.Get(ctx, publicID)
	if err != nil {
		writeEngineError(w, "export fetch mixtape", err)
		return
	}
	if !s.mayEdit(w, r, m) {
		return
	}

	description := exportDescription(m)
	tracks := append([]Track(nil), m.Tracks...)
	sort.Slice(tracks, func(i, j int) bool { return tracks[i].Position < tracks[j].Position })
	uris := make([]string, 0, len(tracks))
	for _, t := range tracks {
		uris = append(uris, t.SpotifyURI)
	}

	if m.SpotifyPlaylistURI != nil {
		if err := s.tracks.UpdatePlaylist(ctx, *m.SpotifyPlaylistURI, m.Name, description, uris); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"spotifyPlaylistUri": *m.SpotifyPlaylistURI,
			"version":            m.Version,
		})
		return
	}

	playlistURI, err := s.tracks.CreatePlaylist(ctx, m.Name, description, uris)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	updated, err := s.engine.SetPlaylistURI(ctx, publicID, playlistURI)
	if err != nil {
		writeEngineError(w, "export persist playlist uri", err)
		return
	}

	s.publishEvent(ctx, "mixtape.exported", map[string]any{
		"publicId":           publicID,
		"spotifyPlaylistUri": playlistURI,
		"version":            updated.Version,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"spotifyPlaylistUri": playlistURI,
		"version":            updated.Version,
	})
}

func exportDescription(m *Mixtape) string {
	parts := []string{}
	for _, p := range []*string{m.Subtitle1, m.Subtitle2, m.Subtitle3, m.IntroText} {
		if p != nil && *p != "" {
			parts = append(parts, *p)
		}
	}
	return strings.Join(parts, " | ")
}
