package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"Trackshelf/logger"
	"Trackshelf/model"

	"github.com/fsnotify/fsnotify"
)

var (
	// ErrTrackNotFound is returned when no track matches an identity.
	ErrTrackNotFound = errors.New("track not found")
	// ErrDuplicateTrack is returned when a new track collides with an existing identity.
	ErrDuplicateTrack = errors.New("a track with this artist and title already exists")
	// ErrInvalidTrack is returned for tracks missing a title or artist.
	ErrInvalidTrack = errors.New("track requires a title and an artist")
)

// TrackRepository defines the interface for track data operations.
type TrackRepository interface {
	// ListTracks returns all tracks, newest first. A non-empty query keeps
	// tracks whose title or artist contains it, case-insensitively.
	ListTracks(query string) ([]*model.Track, error)
	// CreateTrack prepends a track and persists the catalog.
	CreateTrack(track *model.Track) (*model.Track, error)
	// DeleteTrack removes the first track matching both slugs.
	DeleteTrack(artistSlug, songSlug string) (*model.Track, error)
}

// JSONTrackRepository keeps the whole catalog in memory and rewrites a
// single JSON array file on every mutation.
type JSONTrackRepository struct {
	mu     sync.RWMutex
	path   string
	tracks []*model.Track
	now    func() time.Time

	// written holds the file bytes as last loaded or persisted.
	written []byte
}

// NewJSONTrackRepository loads the catalog file. A missing file is treated as
// an empty catalog and created on the first write.
func NewJSONTrackRepository(path string) (*JSONTrackRepository, error) {
	r := &JSONTrackRepository{path: path, now: time.Now, tracks: []*model.Track{}}
	if _, err := r.reload(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *JSONTrackRepository) readFile() ([]byte, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", r.path, err)
	}
	return data, nil
}

func (r *JSONTrackRepository) parse(data []byte) ([]*model.Track, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return []*model.Track{}, nil
	}
	var tracks []*model.Track
	if err := json.Unmarshal(data, &tracks); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", r.path, err)
	}
	return tracks, nil
}

// reload replaces the catalog with the file contents. The write lock is held
// across the read so a reload cannot overwrite a newer persist. It reports
// false when the file still holds what was last loaded or persisted.
func (r *JSONTrackRepository) reload() (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := r.readFile()
	if err != nil {
		return false, err
	}
	if r.written != nil && bytes.Equal(data, r.written) {
		return false, nil
	}
	tracks, err := r.parse(data)
	if err != nil {
		return false, err
	}
	r.tracks = tracks
	r.written = append([]byte{}, data...)
	return true, nil
}

// persist writes the catalog through a temp file and rename so readers never
// observe a half-written file. Callers hold the write lock.
func (r *JSONTrackRepository) persist(tracks []*model.Track) error {
	data, err := json.MarshalIndent(tracks, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode tracks: %w", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".tracks-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write tracks: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", r.path, err)
	}
	r.written = data
	return nil
}

func (r *JSONTrackRepository) ListTracks(query string) ([]*model.Track, error) {
	q := strings.ToLower(strings.TrimSpace(query))

	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.Track, 0, len(r.tracks))
	for _, t := range r.tracks {
		if q == "" ||
			strings.Contains(strings.ToLower(t.Title), q) ||
			strings.Contains(strings.ToLower(t.Artist), q) {
			copied := *t
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (r *JSONTrackRepository) CreateTrack(track *model.Track) (*model.Track, error) {
	if strings.TrimSpace(track.Title) == "" || strings.TrimSpace(track.Artist) == "" {
		return nil, ErrInvalidTrack
	}

	created := *track
	if created.CreatedAt.IsZero() {
		created.CreatedAt = r.now().UTC()
	}
	id := created.Identity()

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range r.tracks {
		if t.Identity() == id {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTrack, id)
		}
	}

	next := make([]*model.Track, 0, len(r.tracks)+1)
	next = append(next, &created)
	next = append(next, r.tracks...)
	if err := r.persist(next); err != nil {
		return nil, err
	}
	r.tracks = next

	logger.Info("[Tracks] track created",
		logger.String("artist", created.Artist),
		logger.String("title", created.Title))
	result := created
	return &result, nil
}

func (r *JSONTrackRepository) DeleteTrack(artistSlug, songSlug string) (*model.Track, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	index := -1
	for i, t := range r.tracks {
		id := t.Identity()
		if id.Artist == artistSlug && id.Title == songSlug {
			index = i
			break
		}
	}
	if index == -1 {
		return nil, ErrTrackNotFound
	}

	removed := r.tracks[index]
	next := make([]*model.Track, 0, len(r.tracks)-1)
	next = append(next, r.tracks[:index]...)
	next = append(next, r.tracks[index+1:]...)
	if err := r.persist(next); err != nil {
		return nil, err
	}
	r.tracks = next

	logger.Info("[Tracks] track deleted",
		logger.String("artist", artistSlug),
		logger.String("title", songSlug))
	copied := *removed
	return &copied, nil
}

// Count returns the number of tracks currently loaded.
func (r *JSONTrackRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tracks)
}

// Watch reloads the catalog whenever the file is changed outside the
// process, until ctx is cancelled. onReload, if set, receives the new count.
// Events caused by our own writes find the bytes unchanged and are skipped.
// The directory is watched rather than the file because editors and our own
// persist replace the file by rename.
func (r *JSONTrackRepository) Watch(ctx context.Context, onReload func(count int)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	target := filepath.Clean(r.path)
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				changed, err := r.reload()
				if err != nil {
					logger.Warn("[Tracks] reload failed, keeping previous catalog", logger.ErrorField(err))
					continue
				}
				if !changed {
					continue
				}
				count := r.Count()
				logger.Debug("[Tracks] catalog reloaded", logger.Int("count", count))
				if onReload != nil {
					onReload(count)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Error("[Tracks] watcher error", logger.ErrorField(err))
			}
		}
	}()
	return nil
}
