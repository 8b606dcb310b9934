package mixtape

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": msg,
	})
}

// writeEngineError maps engine error kinds onto HTTP statuses. Anything not
// in the taxonomy is an internal error; the detail stays in the server log.
func writeEngineError(w http.ResponseWriter, op string, err error) {
	switch {
	case IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "mixtape not found")
	case errors.Is(err, ErrConflict):
		writeError(w, http.StatusConflict, "public id already exists")
	case errors.Is(err, ErrAlreadyClaimed):
		writeError(w, http.StatusConflict, "mixtape is already claimed")
	case errors.Is(err, ErrInvalidState):
		writeError(w, http.StatusConflict, err.Error())
	default:
		log.Printf("mixtape-service: %s: %v", op, err)
		writeError(w, http.StatusInternalServerError, "database error")
	}
}

func (s *Server) publishEvent(ctx context.Context, eventType string, payload any) {
	if s.rdb == nil {
		return
	}
	data, err := json.Marshal(map[string]any{
		"type":    eventType,
		"payload": payload,
	})
	if err != nil {
		log.Printf("mixtape-service: marshal event: %v", err)
		return
	}
	if err := s.rdb.Publish(ctx, "broadcast", string(data)).Err(); err != nil {
		log.Printf("mixtape-service: publish event: %v", err)
	}
}
