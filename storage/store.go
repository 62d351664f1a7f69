// Package storage holds uploaded audio files, either on local disk or in a
// MinIO bucket, and serves them back under /audio/.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"Trackshelf/config"

	"github.com/google/uuid"
)

// ErrObjectNotFound is returned when an audio object does not exist.
var ErrObjectNotFound = errors.New("audio object not found")

// ErrInvalidName is returned for object names that would escape the store.
var ErrInvalidName = errors.New("invalid audio file name")

// URLPrefix is where stored audio is served from.
const URLPrefix = "/audio/"

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
	ContentType  string
}

// Object is an open audio object. It can be seeked, so it can back
// http.ServeContent range requests.
type Object interface {
	io.ReadSeekCloser
	Info() ObjectInfo
}

// AudioStore persists uploaded audio.
type AudioStore interface {
	// Save stores r under name. If name is taken a unique prefix is added;
	// the key actually used is returned.
	Save(ctx context.Context, name string, r io.Reader, size int64) (string, error)
	Open(ctx context.Context, key string) (Object, error)
	Exists(ctx context.Context, key string) (bool, error)
	List(ctx context.Context) ([]ObjectInfo, error)
	// Delete removes key. A missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// New builds the store selected by AUDIO_STORE.
func New(ctx context.Context, cfg *config.Config) (AudioStore, error) {
	switch cfg.AudioStore {
	case "", "local":
		return NewLocalStore(cfg.AudioDir)
	case "minio":
		return NewMinioStore(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown audio store %q", cfg.AudioStore)
	}
}

// URL returns the public path of a stored key.
func URL(key string) string {
	return URLPrefix + key
}

// CleanName reduces an uploaded file name to a safe object key.
func CleanName(name string) (string, error) {
	name = strings.ReplaceAll(name, "\\", "/")
	base := path.Base(path.Clean("/" + name))
	if base == "/" || base == "." || base == ".." || strings.HasPrefix(base, ".") {
		return "", ErrInvalidName
	}
	return base, nil
}

// uniqueName keeps the original name unless it is taken.
func uniqueName(ctx context.Context, store AudioStore, name string) (string, error) {
	exists, err := store.Exists(ctx, name)
	if err != nil {
		return "", err
	}
	if !exists {
		return name, nil
	}
	return uuid.NewString()[:8] + "-" + name, nil
}

// ContentType infers an audio MIME type from the file extension.
func ContentType(key string) string {
	ext := strings.ToLower(filepath.Ext(key))
	switch ext {
	case ".mp3":
		return "audio/mpeg"
	case ".m4a":
		return "audio/mp4"
	case ".flac":
		return "audio/flac"
	case ".wav":
		return "audio/wav"
	case ".ogg":
		return "audio/ogg"
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}

// FormatSize renders a byte count with a binary unit.
func FormatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}

func sortByKey(objects []ObjectInfo) {
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
}
