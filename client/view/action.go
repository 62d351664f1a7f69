package view

import (
	"strconv"

	"golang.org/x/net/html"
)

// ActionKind names what a control does.
type ActionKind string

const (
	ActNavigate       ActionKind = "navigate"
	ActSearch         ActionKind = "search"
	ActLogin          ActionKind = "login"
	ActLogout         ActionKind = "logout"
	ActUpload         ActionKind = "upload"
	ActDelete         ActionKind = "delete"
	ActPlayAlbum      ActionKind = "play-album"
	ActPlayAlbumTrack ActionKind = "play-album-track"
	ActTheme          ActionKind = "theme"

	// persistent bar
	ActTogglePlay   ActionKind = "toggle-play"
	ActNext         ActionKind = "next"
	ActPrev         ActionKind = "prev"
	ActCycleLoop    ActionKind = "cycle-loop"
	ActSeek         ActionKind = "seek"
	ActVolume       ActionKind = "volume"
	ActToggleVolume ActionKind = "toggle-volume"
	ActHoverVolume  ActionKind = "hover-volume"
	ActDismissCover ActionKind = "dismiss-cover"

	// song view surface
	ActSongToggle       ActionKind = "song-toggle"
	ActSongLoop         ActionKind = "song-loop"
	ActSongSeek         ActionKind = "song-seek"
	ActSongVolume       ActionKind = "song-volume"
	ActSongToggleVolume ActionKind = "song-toggle-volume"
	ActSongHoverVolume  ActionKind = "song-hover-volume"
)

// Action is a user intent. Value carries the input of range controls and
// hover state (1 in, 0 out); the app fills it at dispatch time.
type Action struct {
	Kind   ActionKind
	Path   string
	Album  string
	Index  int
	Artist string
	Song   string
	Value  float64
}

// WithValue returns a copy carrying v.
func (a Action) WithValue(v float64) Action {
	a.Value = v
	return a
}

func (a Action) attrs() []html.Attribute {
	out := []html.Attribute{{Key: "data-action", Val: string(a.Kind)}}
	add := func(k, v string) {
		if v != "" {
			out = append(out, html.Attribute{Key: k, Val: v})
		}
	}
	add("data-path", a.Path)
	add("data-album", a.Album)
	add("data-artist", a.Artist)
	add("data-song", a.Song)
	if a.Kind == ActPlayAlbumTrack {
		add("data-index", strconv.Itoa(a.Index))
	}
	return out
}

// Navigate is the action of a client-side link.
func Navigate(path string) Action {
	return Action{Kind: ActNavigate, Path: path}
}
