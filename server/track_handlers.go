package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"Trackshelf/logger"
	"Trackshelf/model"
	"Trackshelf/repository"
	"Trackshelf/storage"

	"github.com/gorilla/mux"
)

// maxUploadMemory is how much of a multipart upload is buffered in memory.
const maxUploadMemory = 32 << 20

// GetTracksHandler lists the catalog, optionally filtered by ?q=.
func (h *APIHandler) GetTracksHandler(w http.ResponseWriter, r *http.Request) {
	tracks, err := h.trackRepo.ListTracks(r.URL.Query().Get("q"))
	if err != nil {
		logger.Error("[Tracks] failed to list tracks", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to load tracks")
		return
	}
	writeJSON(w, http.StatusOK, tracks)
}

type trackResponse struct {
	Track *model.Track `json:"track"`
}

// CreateTrackHandler adds a track described by a JSON body. createdAt is
// always assigned by the server.
func (h *APIHandler) CreateTrackHandler(w http.ResponseWriter, r *http.Request) {
	var track model.Track
	if err := decodeJSON(w, r, &track); err != nil {
		logger.Warn("[Tracks] invalid track body", logger.ErrorField(err))
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	track.CreatedAt = time.Time{}

	h.createTrack(w, &track)
}

// createTrack persists track and writes the response. It reports whether the
// track was created.
func (h *APIHandler) createTrack(w http.ResponseWriter, track *model.Track) bool {
	created, err := h.trackRepo.CreateTrack(track)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrInvalidTrack):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, repository.ErrDuplicateTrack):
			writeError(w, http.StatusConflict, err.Error())
		default:
			logger.Error("[Tracks] failed to save track", logger.ErrorField(err))
			writeError(w, http.StatusInternalServerError, "Error saving track data")
		}
		return false
	}

	h.events.Publish(EventTrackCreated, created)
	writeJSON(w, http.StatusOK, trackResponse{Track: created})
	return true
}

// DeleteTrackHandler removes the first track matching both slugs.
func (h *APIHandler) DeleteTrackHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	artistSlug, songSlug := vars["artistSlug"], vars["songSlug"]
	logger.Info("[Tracks] delete request",
		logger.String("artist", artistSlug),
		logger.String("song", songSlug))

	removed, err := h.trackRepo.DeleteTrack(artistSlug, songSlug)
	if err != nil {
		if errors.Is(err, repository.ErrTrackNotFound) {
			writeError(w, http.StatusNotFound, "Track not found")
			return
		}
		logger.Error("[Tracks] failed to delete track", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to delete track")
		return
	}

	h.events.Publish(EventTrackDeleted, removed)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// UploadSongHandler stores an uploaded audio file and creates its track.
func (h *APIHandler) UploadSongHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		logger.Warn("[Upload] invalid multipart body", logger.ErrorField(err))
		http.Error(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	title := strings.TrimSpace(r.FormValue("title"))
	artist := strings.TrimSpace(r.FormValue("artist"))
	file, header, fileErr := r.FormFile("audioFile")
	if title == "" || artist == "" || fileErr != nil {
		if fileErr == nil {
			file.Close()
		}
		http.Error(w, "Missing required fields or audio file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	albumNumber, err := model.ParseAlbumNumber(r.FormValue("albumNumber"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	createdAt, err := parseReleaseDate(r.FormValue("releaseDate"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	category := r.FormValue("category")
	track := &model.Track{
		Title:       title,
		Artist:      artist,
		Album:       r.FormValue("album"),
		Cover:       r.FormValue("cover"),
		IsNew:       category == "isNew",
		IsPopular:   category == "isPopular",
		IsClean:     category == "isClean",
		AlbumNumber: albumNumber,
		CreatedAt:   createdAt,
	}

	if h.hasIdentity(track) {
		writeError(w, http.StatusConflict, repository.ErrDuplicateTrack.Error())
		return
	}

	key, err := h.audioStore.Save(r.Context(), header.Filename, file, header.Size)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidName) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		logger.Error("[Upload] failed to store audio", logger.ErrorField(err))
		http.Error(w, "Error saving audio file", http.StatusInternalServerError)
		return
	}
	track.File = storage.URL(key)
	logger.Info("[Upload] audio stored",
		logger.String("key", key),
		logger.String("size", storage.FormatSize(header.Size)))

	if !h.createTrack(w, track) {
		// nothing references the audio now
		if err := h.audioStore.Delete(r.Context(), key); err != nil {
			logger.Warn("[Upload] failed to remove orphaned audio",
				logger.String("key", key), logger.ErrorField(err))
		}
	}
}

// hasIdentity is a pre-check so a doomed upload does not store audio. The
// repository still enforces uniqueness on insert.
func (h *APIHandler) hasIdentity(track *model.Track) bool {
	existing, err := h.trackRepo.ListTracks("")
	if err != nil {
		return false
	}
	for _, t := range existing {
		if model.SameTrack(t, track) {
			return true
		}
	}
	return false
}

// parseReleaseDate accepts a date (2006-01-02) or an RFC 3339 timestamp.
// Empty input yields the zero time, which the repository replaces with now.
func parseReleaseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid release date %q", s)
	}
	return t.UTC(), nil
}
