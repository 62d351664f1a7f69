package server

import (
	"encoding/json"
	"net/http"

	"Trackshelf/config"
	"Trackshelf/core/auth"
	"Trackshelf/core/session"
	"Trackshelf/logger"
	"Trackshelf/repository"
	"Trackshelf/storage"
)

// maxJSONBody bounds JSON request bodies.
const maxJSONBody = 1 << 20

// APIHandler serves the JSON API.
type APIHandler struct {
	trackRepo  repository.TrackRepository
	audioStore storage.AudioStore
	sessions   *session.Manager
	admin      *auth.AdminCredential
	events     *EventHub
	cfg        *config.Config
}

// NewAPIHandler creates an APIHandler.
func NewAPIHandler(
	trackRepo repository.TrackRepository,
	audioStore storage.AudioStore,
	sessions *session.Manager,
	admin *auth.AdminCredential,
	events *EventHub,
	cfg *config.Config,
) *APIHandler {
	return &APIHandler{
		trackRepo:  trackRepo,
		audioStore: audioStore,
		sessions:   sessions,
		admin:      admin,
		events:     events,
		cfg:        cfg,
	}
}

// errorResponse is the JSON body of every API error.
type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("[API] failed to encode response", logger.ErrorField(err))
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	return json.NewDecoder(r.Body).Decode(v)
}
