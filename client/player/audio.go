// Package player is the playback engine: the album session, the song view's
// control surface, the persistent bar and the rules tying them together.
// Everything here runs on the client event loop.
package player

import "Trackshelf/model"

// Audio is one playable handle, the equivalent of a media element.
type Audio interface {
	Play() error
	Pause()
	Paused() bool
	CurrentTime() float64
	// Duration reports false until the length is known.
	Duration() (float64, bool)
	Seek(seconds float64)
	SetVolume(v float64)
	Volume() float64
	// Release stops playback and detaches the source. The handle is dead afterwards.
	Release()
}

// Events are the media callbacks a handle raises. They must be delivered on
// the event loop. Any of them may be nil.
type Events struct {
	OnEnded          func()
	OnError          func(err error)
	OnDurationChange func(seconds float64)
}

// Factory creates handles for a source URL.
type Factory interface {
	NewAudio(src string, ev Events) Audio
}

// AlbumSource is the catalog lookup the engine needs.
type AlbumSource interface {
	ByAlbum(albumSlug string) []*model.Track
}

// LoopMode is the album loop setting.
type LoopMode int

const (
	LoopNone LoopMode = iota
	LoopAll
	LoopOne
)

// Next cycles None -> All -> One -> None.
func (m LoopMode) Next() LoopMode {
	return (m + 1) % 3
}

func (m LoopMode) String() string {
	switch m {
	case LoopAll:
		return "loopall"
	case LoopOne:
		return "loop1"
	default:
		return "noloop"
	}
}
