package player

import "Trackshelf/model"

// Session is the album playback state.
type Session struct {
	Tracks       []*model.Track
	CurrentIndex int
	AlbumSlug    string
	LoopMode     LoopMode
	Paused       bool

	audio Audio
}

// Current returns the track at CurrentIndex, or nil when nothing is loaded.
func (s *Session) Current() *model.Track {
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Tracks) {
		return nil
	}
	return s.Tracks[s.CurrentIndex]
}

// HasAudio reports whether a live handle exists.
func (s *Session) HasAudio() bool {
	return s.audio != nil
}

// IsPlayingAlbum reports whether the session holds the album and has a live handle.
func (s *Session) IsPlayingAlbum(albumSlug string) bool {
	return s.audio != nil && s.AlbumSlug == albumSlug && len(s.Tracks) > 0
}

func (s *Session) releaseAudio() {
	if s.audio != nil {
		s.audio.Release()
		s.audio = nil
	}
}
