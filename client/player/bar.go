package player

import "Trackshelf/model"

// Bar is the persistent player widget. The engine creates one on the first
// album playback and keeps it for the life of the app.
type Bar struct {
	Visible        bool
	CoverDismissed bool
	Volume         Volume
	Progress       Progress
}

func newBar() *Bar {
	return &Bar{Volume: newVolume()}
}

// BarState is what the bar renders.
type BarState struct {
	Created        bool // false until the first album playback
	Visible        bool
	Track          *model.Track
	AlbumSlug      string
	Paused         bool
	LoopMode       LoopMode
	Progress       Progress
	Volume         Volume
	CoverDismissed bool
}

// ShowsCover reports whether the floating cover panel is on screen.
func (b BarState) ShowsCover() bool {
	return b.Visible && !b.CoverDismissed && b.Track != nil && b.Track.Cover != ""
}
