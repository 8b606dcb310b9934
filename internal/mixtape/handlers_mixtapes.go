package mixtape

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"mixtape-service/internal/provider"
)

type trackRequest struct {
	Position   int     `json:"position"`
	Text       *string `json:"text,omitempty"`
	SpotifyURI string  `json:"spotifyUri"`
}

type mixtapeRequest struct {
	PublicID  string         `json:"publicId,omitempty"`
	Name      string         `json:"name"`
	IntroText *string        `json:"introText,omitempty"`
	Subtitle1 *string        `json:"subtitle1,omitempty"`
	Subtitle2 *string        `json:"subtitle2,omitempty"`
	Subtitle3 *string        `json:"subtitle3,omitempty"`
	IsPublic  bool           `json:"isPublic"`
	Tracks    []trackRequest `json:"tracks"`
}

type trackResponse struct {
	Position int                    `json:"position"`
	Text     *string                `json:"text,omitempty"`
	Track    *provider.TrackDetails `json:"track"`
}

type mixtapeResponse struct {
	PublicID           string          `json:"publicId"`
	OwnerID            *string         `json:"ownerId,omitempty"`
	Name               string          `json:"name"`
	IntroText          *string         `json:"introText,omitempty"`
	Subtitle1          *string         `json:"subtitle1,omitempty"`
	Subtitle2          *string         `json:"subtitle2,omitempty"`
	Subtitle3          *string         `json:"subtitle3,omitempty"`
	IsPublic           bool            `json:"isPublic"`
	SpotifyPlaylistURI *string         `json:"spotifyPlaylistUri,omitempty"`
	Version            int             `json:"version"`
	CanUndo            bool            `json:"canUndo"`
	CanRedo            bool            `json:"canRedo"`
	CreateTime         time.Time       `json:"createTime"`
	LastModifiedTime   time.Time       `json:"lastModifiedTime"`
	Tracks             []trackResponse `json:"tracks"`
}

type versionResponse struct {
	Version int  `json:"version"`
	CanUndo bool `json:"canUndo"`
	CanRedo bool `json:"canRedo"`
}

func versionOf(m *Mixtape) versionResponse {
	return versionResponse{
		Version: m.Version,
		CanUndo: m.CanUndo(),
		CanRedo: m.CanRedo(),
	}
}

func (r mixtapeRequest) content() Content {
	tracks := make([]Track, 0, len(r.Tracks))
	for _, t := range r.Tracks {
		tracks = append(tracks, Track{
			Position:   t.Position,
			Text:       t.Text,
			SpotifyURI: strings.TrimSpace(t.SpotifyURI),
		})
	}
	return Content{
		Name:      strings.TrimSpace(r.Name),
		IntroText: r.IntroText,
		Subtitle1: r.Subtitle1,
		Subtitle2: r.Subtitle2,
		Subtitle3: r.Subtitle3,
		IsPublic:  r.IsPublic,
		Tracks:    tracks,
	}
}

// verifyTracks confirms every referenced track exists at the provider. The
// engine trusts this check; position uniqueness is the engine's own rule.
func (s *Server) verifyTracks(ctx context.Context, tracks []Track) error {
	for _, t := range tracks {
		if _, err := s.tracks.GetTrack(ctx, provider.TrackIDFromURI(t.SpotifyURI)); err != nil {
			return fmt.Errorf("invalid spotify uri or failed lookup: %s", t.SpotifyURI)
		}
	}
	return nil
}

func (s *Server) handleSearchTracks(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	limit := 10
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v >= 1 && v <= 25 {
		limit = v
	}

	results, err := s.tracks.SearchTracks(r.Context(), query, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to search tracks")
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleCreateMixtape(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := callerID(r)

	var body mixtapeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if caller == nil && !body.IsPublic {
		writeError(w, http.StatusBadRequest, "anonymous mixtapes must be public")
		return
	}

	content := body.content()
	if err := s.verifyTracks(ctx, content.Tracks); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	publicID, err := s.engine.Create(ctx, caller, strings.TrimSpace(body.PublicID), content)
	if err != nil {
		writeEngineError(w, "create mixtape", err)
		return
	}

	s.publishEvent(ctx, "mixtape.created", map[string]any{
		"publicId": publicID,
	})
	writeJSON(w, http.StatusCreated, map[string]string{"publicId": publicID})
}

func (s *Server) handleGetMixtape(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	publicID := chi.URLParam(r, "publicId")

	m, err := s.engine.Get(ctx, publicID)
	if err != nil {
		writeEngineError(w, "get mixtape", err)
		return
	}
	if !m.IsPublic && !isOwner(r, m) {
		writeError(w, http.StatusUnauthorized, "not authorized to view this mixtape")
		return
	}

	resp, err := s.mixtapeResponse(ctx, m)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateMixtape(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	publicID := chi.URLParam(r, "publicId")

	var body mixtapeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	current, err := s.engine.Get(ctx, publicID)
	if err != nil {
		writeEngineError(w, "update fetch mixtape", err)
		return
	}
	if !s.mayEdit(w, r, current) {
		return
	}
	// Anonymous mixtapes stay world-readable; nobody owns them yet.
	if current.OwnerID == nil && !body.IsPublic {
		writeError(w, http.StatusBadRequest, "anonymous mixtapes must remain public")
		return
	}

	content := body.content()
	if err := s.verifyTracks(ctx, content.Tracks); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	m, err := s.engine.Update(ctx, publicID, content)
	if err != nil {
		writeEngineError(w, "update mixtape", err)
		return
	}

	s.publishEvent(ctx, "mixtape.updated", map[string]any{
		"publicId": publicID,
		"version":  m.Version,
	})
	writeJSON(w, http.StatusOK, versionOf(m))
}

func (s *Server) handleListMyMixtapes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := callerID(r)
	if caller == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	q := strings.TrimSpace(r.URL.Query().Get("q"))
	limit := 20
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v >= 1 && v <= 100 {
		limit = v
	}
	offset := 0
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v >= 0 {
		offset = v
	}

	overviews, err := s.engine.ListForUser(ctx, *caller, q, limit, offset)
	if err != nil {
		writeEngineError(w, "list mixtapes", err)
		return
	}
	writeJSON(w, http.StatusOK, overviews)
}

// mayEdit applies the original ownership rules: owned mixtapes are editable
// by the owner only; unclaimed ones by anyone.
func (s *Server) mayEdit(w http.ResponseWriter, r *http.Request, m *Mixtape) bool {
	if m.OwnerID == nil {
		return true
	}
	caller := callerID(r)
	if caller == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return false
	}
	if *caller != *m.OwnerID {
		writeError(w, http.StatusUnauthorized, "not authorized to edit this mixtape")
		return false
	}
	return true
}

func isOwner(r *http.Request, m *Mixtape) bool {
	caller := callerID(r)
	return caller != nil && m.OwnerID != nil && *caller == *m.OwnerID
}

func (s *Server) mixtapeResponse(ctx context.Context, m *Mixtape) (*mixtapeResponse, error) {
	tracks := make([]trackResponse, 0, len(m.Tracks))
	for _, t := range m.Tracks {
		details, err := s.tracks.GetTrack(ctx, provider.TrackIDFromURI(t.SpotifyURI))
		if err != nil {
			return nil, fmt.Errorf("failed to fetch track details for %s", t.SpotifyURI)
		}
		tracks = append(tracks, trackResponse{
			Position: t.Position,
			Text:     t.Text,
			Track:    details,
		})
	}
	return &mixtapeResponse{
		PublicID:           m.PublicID,
		OwnerID:            m.OwnerID,
		Name:               m.Name,
		IntroText:          m.IntroText,
		Subtitle1:          m.Subtitle1,
		Subtitle2:          m.Subtitle2,
		Subtitle3:          m.Subtitle3,
		IsPublic:           m.IsPublic,
		SpotifyPlaylistURI: m.SpotifyPlaylistURI,
		Version:            m.Version,
		CanUndo:            m.CanUndo(),
		CanRedo:            m.CanRedo(),
		CreateTime:         m.CreateTime,
		LastModifiedTime:   m.LastModifiedTime,
		Tracks:             tracks,
	}, nil
}
