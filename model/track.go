package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"Trackshelf/core/slug"
)

// MissingAlbumNumber is the sort key used for tracks without a usable album position.
const MissingAlbumNumber = 9999

// Track represents an audio track in the catalog.
type Track struct {
	Title       string       `json:"title"`
	Artist      string       `json:"artist"`
	Album       string       `json:"album"`
	Cover       string       `json:"cover"`
	File        string       `json:"file"` // URL of the audio resource, e.g. /audio/song.mp3
	IsNew       bool         `json:"isNew"`
	IsPopular   bool         `json:"isPopular"`
	IsClean     bool         `json:"isClean,omitempty"`
	AlbumNumber *AlbumNumber `json:"albumNumber"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// Identity returns the (artist slug, title slug) lookup key.
func (t *Track) Identity() slug.Identity {
	return slug.Of(t.Artist, t.Title)
}

// AlbumSlug returns the slug of the album the track belongs to.
func (t *Track) AlbumSlug() string {
	return slug.Slugify(t.Album)
}

// SortKey returns the position used to order album tracks. Zero and missing
// numbers sort last.
func (t *Track) SortKey() int {
	if t.AlbumNumber == nil || *t.AlbumNumber == 0 {
		return MissingAlbumNumber
	}
	return int(*t.AlbumNumber)
}

// SameTrack reports whether two tracks share an identity.
func SameTrack(a, b *Track) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Identity() == b.Identity()
}

// AlbumNumber is a track position inside its album. Older catalog files and
// multipart forms store it as a string, so decoding accepts both forms.
type AlbumNumber int

// NewAlbumNumber returns a pointer suitable for Track.AlbumNumber.
func NewAlbumNumber(n int) *AlbumNumber {
	v := AlbumNumber(n)
	return &v
}

// ParseAlbumNumber parses a form value. Empty input yields nil.
func ParseAlbumNumber(s string) (*AlbumNumber, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("invalid album number %q: %w", s, err)
	}
	return NewAlbumNumber(n), nil
}

// UnmarshalJSON accepts a number, a numeric string, "" or null.
func (n *AlbumNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := ParseAlbumNumber(s)
		if err != nil {
			return err
		}
		if parsed == nil {
			*n = 0
			return nil
		}
		*n = *parsed
		return nil
	}
	var v int
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("invalid album number %s: %w", data, err)
	}
	*n = AlbumNumber(v)
	return nil
}
