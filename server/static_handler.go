package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"Trackshelf/logger"
	"Trackshelf/storage"
)

// AudioHandler serves stored audio with range support.
type AudioHandler struct {
	store storage.AudioStore
}

// NewAudioHandler creates an AudioHandler.
func NewAudioHandler(store storage.AudioStore) *AudioHandler {
	return &AudioHandler{store: store}
}

// ServeHTTP implements http.Handler.
func (h *AudioHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, storage.URLPrefix)

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	object, err := h.store.Open(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) || errors.Is(err, storage.ErrInvalidName) {
			http.Error(w, "File not found", http.StatusNotFound)
			return
		}
		logger.Error("[Audio] failed to open object", logger.String("key", key), logger.ErrorField(err))
		http.Error(w, "Failed to open file", http.StatusInternalServerError)
		return
	}
	defer object.Close()

	info := object.Info()
	if info.ContentType != "" {
		w.Header().Set("Content-Type", info.ContentType)
	}
	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeContent(w, r, info.Key, info.LastModified, object)
}

// SPAHandler serves files from the client bundle and falls back to
// index.html so client-side routes survive a reload.
type SPAHandler struct {
	dir string
}

// NewSPAHandler creates an SPAHandler.
func NewSPAHandler(dir string) *SPAHandler {
	return &SPAHandler{dir: dir}
}

func (h *SPAHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	clean := path.Clean("/" + r.URL.Path)
	p := filepath.Join(h.dir, filepath.FromSlash(clean))
	if st, err := os.Stat(p); err == nil && !st.IsDir() {
		http.ServeFile(w, r, p)
		return
	}
	http.ServeFile(w, r, filepath.Join(h.dir, "index.html"))
}
