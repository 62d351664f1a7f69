// Package slug normalizes display strings into URL-safe identifiers.
package slug

import (
	"regexp"
	"strings"
)

var nonWord = regexp.MustCompile(`[^\w]+`)

// Slugify lower-cases s, drops apostrophes, collapses every run of non-word
// characters into a single dash and trims dashes from both ends.
//
// The mapping is lossy: distinct strings may share a slug.
func Slugify(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "'", "")
	s = nonWord.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Identity is the lookup key of a track: its artist and title slugs.
type Identity struct {
	Artist string
	Title  string
}

// Of builds the identity for an artist/title pair.
func Of(artist, title string) Identity {
	return Identity{Artist: Slugify(artist), Title: Slugify(title)}
}

// Path returns the song route for the identity, e.g. "/xaev/take-me-away".
func (id Identity) Path() string {
	return "/" + id.Artist + "/" + id.Title
}

func (id Identity) String() string {
	return id.Artist + "/" + id.Title
}
