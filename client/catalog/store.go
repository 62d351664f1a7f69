// Package catalog is the client-side copy of the track list. It is owned by
// the event loop and is not safe for concurrent use.
package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"Trackshelf/core/slug"
	"Trackshelf/model"
)

// UnknownAlbum groups tracks that have no album name.
const UnknownAlbum = "Unknown Album"

// Fetcher is the part of the API client the store needs.
type Fetcher interface {
	ListTracks(ctx context.Context) ([]*model.Track, error)
	Search(ctx context.Context, q string) ([]*model.Track, error)
}

// Store holds the full track list, newest first.
type Store struct {
	fetcher Fetcher
	tracks  []*model.Track
	now     func() time.Time
}

// New creates an empty store.
func New(fetcher Fetcher) *Store {
	return &Store{fetcher: fetcher, now: time.Now}
}

// Load replaces the list with the server's. On error the list is left as it was.
func (s *Store) Load(ctx context.Context) error {
	tracks, err := s.fetcher.ListTracks(ctx)
	if err != nil {
		return fmt.Errorf("failed to load tracks: %w", err)
	}
	now := s.now().UTC()
	for _, t := range tracks {
		if t.CreatedAt.IsZero() {
			t.CreatedAt = now
		}
	}
	s.tracks = tracks
	return nil
}

// Replace sets the list directly, e.g. from a cached snapshot.
func (s *Store) Replace(tracks []*model.Track) {
	s.tracks = append([]*model.Track(nil), tracks...)
}

// Tracks returns the list in store order.
func (s *Store) Tracks() []*model.Track {
	return append([]*model.Track(nil), s.tracks...)
}

// Len returns the number of tracks.
func (s *Store) Len() int {
	return len(s.tracks)
}

// Prepend adds a freshly uploaded track at the front.
func (s *Store) Prepend(t *model.Track) {
	s.tracks = append([]*model.Track{t}, s.tracks...)
}

// RemoveByIdentity drops the first track with the identity and reports
// whether one was found.
func (s *Store) RemoveByIdentity(id slug.Identity) bool {
	for i, t := range s.tracks {
		if t.Identity() == id {
			s.tracks = append(s.tracks[:i:i], s.tracks[i+1:]...)
			return true
		}
	}
	return false
}

// Filter keeps tracks whose title or artist contains q, ignoring case.
// An empty query keeps everything. Order is preserved.
func (s *Store) Filter(q string) []*model.Track {
	return Filter(s.tracks, q)
}

// Filter is the pure form of Store.Filter.
func Filter(tracks []*model.Track, q string) []*model.Track {
	q = strings.ToLower(strings.TrimSpace(q))
	out := make([]*model.Track, 0, len(tracks))
	for _, t := range tracks {
		if q == "" ||
			strings.Contains(strings.ToLower(t.Title), q) ||
			strings.Contains(strings.ToLower(t.Artist), q) {
			out = append(out, t)
		}
	}
	return out
}

// Search asks the server. The stored list is not touched.
func (s *Store) Search(ctx context.Context, q string) ([]*model.Track, error) {
	tracks, err := s.fetcher.Search(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	return tracks, nil
}

func (s *Store) where(keep func(*model.Track) bool) []*model.Track {
	var out []*model.Track
	for _, t := range s.tracks {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

// NewReleases returns tracks flagged isNew.
func (s *Store) NewReleases() []*model.Track {
	return s.where(func(t *model.Track) bool { return t.IsNew })
}

// Popular returns tracks flagged isPopular.
func (s *Store) Popular() []*model.Track {
	return s.where(func(t *model.Track) bool { return t.IsPopular })
}

// ByArtist returns the tracks whose artist slug matches.
func (s *Store) ByArtist(artistSlug string) []*model.Track {
	return s.where(func(t *model.Track) bool { return slug.Slugify(t.Artist) == artistSlug })
}

// HasArtist reports whether any track belongs to the artist.
func (s *Store) HasArtist(artistSlug string) bool {
	for _, t := range s.tracks {
		if slug.Slugify(t.Artist) == artistSlug {
			return true
		}
	}
	return false
}

// ByAlbum returns the album's tracks in play order.
func (s *Store) ByAlbum(albumSlug string) []*model.Track {
	return SortAlbum(s.where(func(t *model.Track) bool { return t.AlbumSlug() == albumSlug }))
}

// FindSong returns the first track with the identity, or nil.
func (s *Store) FindSong(artistSlug, songSlug string) *model.Track {
	want := slug.Identity{Artist: artistSlug, Title: songSlug}
	for _, t := range s.tracks {
		if t.Identity() == want {
			return t
		}
	}
	return nil
}

// SortAlbum orders tracks by album number. Missing or zero numbers go last
// and ties keep their input order. The input is not modified.
func SortAlbum(tracks []*model.Track) []*model.Track {
	out := append([]*model.Track(nil), tracks...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SortKey() < out[j].SortKey()
	})
	return out
}

// Album is the derived view of tracks sharing an album slug.
type Album struct {
	Slug   string
	Title  string
	Cover  string
	Tracks []*model.Track
}

// Album builds the album for a slug. Title and cover come from the first
// track in play order.
func (s *Store) Album(albumSlug string) (*Album, bool) {
	tracks := s.ByAlbum(albumSlug)
	if len(tracks) == 0 {
		return nil, false
	}
	return &Album{
		Slug:   albumSlug,
		Title:  tracks[0].Album,
		Cover:  tracks[0].Cover,
		Tracks: tracks,
	}, true
}

// ArtistCount is one line of an album's contributor summary.
type ArtistCount struct {
	Artist string
	Count  int
}

// ArtistSummary counts tracks per artist, most tracks first. Ties keep the
// order in which artists first appear.
func ArtistSummary(tracks []*model.Track) []ArtistCount {
	index := make(map[string]int)
	var out []ArtistCount
	for _, t := range tracks {
		if i, ok := index[t.Artist]; ok {
			out[i].Count++
			continue
		}
		index[t.Artist] = len(out)
		out = append(out, ArtistCount{Artist: t.Artist, Count: 1})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// AlbumKey is the slug an artist page groups albums by.
func AlbumKey(t *model.Track) string {
	name := t.Album
	if name == "" {
		name = UnknownAlbum
	}
	return slug.Slugify(name)
}

// AlbumsFeaturing keeps the first track of every distinct album.
func AlbumsFeaturing(tracks []*model.Track) []*model.Track {
	seen := make(map[string]bool)
	var out []*model.Track
	for _, t := range tracks {
		key := AlbumKey(t)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}
