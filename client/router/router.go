// Package router maps client locations to views.
package router

import (
	"net/url"
	"strings"
)

// Kind identifies which view renders a location.
type Kind int

const (
	NotFound Kind = iota
	Home
	Login
	Upload
	Artist
	Album
	Song
)

func (k Kind) String() string {
	switch k {
	case Home:
		return "home"
	case Login:
		return "login"
	case Upload:
		return "upload"
	case Artist:
		return "artist"
	case Album:
		return "album"
	case Song:
		return "song"
	default:
		return "not-found"
	}
}

// Route is the result of resolving a path.
type Route struct {
	Kind   Kind
	Path   string
	Artist string // Artist and Song routes
	Album  string // Album route
	Song   string // Song route
	Query  string // ?q= on the home route
}

// RequiresAdmin reports whether the route is gated on an admin session.
func (r Route) RequiresAdmin() bool {
	return r.Kind == Upload
}

// Resolve applies the routing rules in order; the first match wins.
func Resolve(raw string) Route {
	path, query := raw, ""
	if i := strings.IndexByte(path, '#'); i >= 0 {
		path = path[:i]
	}
	if i := strings.IndexByte(path, '?'); i >= 0 {
		if values, err := url.ParseQuery(path[i+1:]); err == nil {
			query = values.Get("q")
		}
		path = path[:i]
	}
	if path == "" {
		path = "/"
	}
	route := Route{Path: path}

	if path == "/upload" {
		route.Kind = Upload
		return route
	}
	if path == "/" {
		route.Kind = Home
		route.Query = query
		return route
	}
	if path == "/login" {
		route.Kind = Login
		return route
	}

	segments := split(path)
	switch {
	case len(segments) == 1:
		route.Kind = Artist
		route.Artist = segments[0]
	case len(segments) == 2 && segments[0] == "album":
		route.Kind = Album
		route.Album = segments[1]
	case len(segments) == 2:
		route.Kind = Song
		route.Artist = segments[0]
		route.Song = segments[1]
	default:
		route.Kind = NotFound
	}
	return route
}

// split drops empty segments, so "//a///b/" has two segments.
func split(path string) []string {
	var out []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ArtistPath returns the location of an artist page.
func ArtistPath(artistSlug string) string {
	return "/" + artistSlug
}

// AlbumPath returns the location of an album page.
func AlbumPath(albumSlug string) string {
	return "/album/" + albumSlug
}
