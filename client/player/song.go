package player

import "Trackshelf/model"

// songSurface is the song view's control surface. When shared it drives the
// session's handle instead of owning one.
type songSurface struct {
	track    *model.Track
	shared   bool
	paused   bool
	loopOne  bool
	volume   Volume
	progress Progress
	audio    Audio
}

// SongState is what the song view renders.
type SongState struct {
	Track    *model.Track
	Shared   bool
	Paused   bool
	LoopOne  bool
	Volume   Volume
	Progress Progress
}
