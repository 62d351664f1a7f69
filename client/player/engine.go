package player

import (
	"Trackshelf/client/eventloop"
	"Trackshelf/logger"
	"Trackshelf/model"
)

// Options wires an Engine to its collaborators. Durations and OnChange are optional.
type Options struct {
	Factory   Factory
	Frames    eventloop.FrameScheduler
	Albums    AlbumSource
	Source    func(t *model.Track) string
	Durations *DurationCache
	// OnChange runs after every state change the views should reflect.
	OnChange func()
}

// Engine owns the album session, the song surface and the bar.
type Engine struct {
	opts Options

	session Session
	bar     *Bar
	song    *songSurface

	// Generations invalidate events from handles that were replaced.
	sessionGen int
	songGen    int

	frame   eventloop.FrameID
	polling bool
}

// NewEngine creates an idle engine.
func NewEngine(opts Options) *Engine {
	if opts.Source == nil {
		opts.Source = func(t *model.Track) string { return t.File }
	}
	return &Engine{opts: opts}
}

// Session returns a copy of the session state.
func (e *Engine) Session() Session {
	s := e.session
	s.Tracks = append([]*model.Track(nil), e.session.Tracks...)
	return s
}

// HasBar reports whether the bar was ever created.
func (e *Engine) HasBar() bool {
	return e.bar != nil
}

// Bar returns what the bar renders. Visible is false until the first album playback.
func (e *Engine) Bar() BarState {
	if e.bar == nil {
		return BarState{}
	}
	return BarState{
		Created:        true,
		Visible:        e.bar.Visible,
		Track:          e.session.Current(),
		AlbumSlug:      e.session.AlbumSlug,
		Paused:         e.session.Paused,
		LoopMode:       e.session.LoopMode,
		Progress:       e.bar.Progress,
		Volume:         e.bar.Volume,
		CoverDismissed: e.bar.CoverDismissed,
	}
}

// Song returns the song surface state, or false when no song view is active.
func (e *Engine) Song() (SongState, bool) {
	if e.song == nil {
		return SongState{}, false
	}
	st := SongState{
		Track:    e.song.track,
		Shared:   e.song.shared,
		Volume:   e.song.volume,
		Progress: e.song.progress,
		Paused:   e.song.paused,
		LoopOne:  e.song.loopOne,
	}
	if e.song.shared {
		st.Paused = e.session.Paused
		st.LoopOne = e.session.LoopMode == LoopOne
		st.Volume.Level = e.bar.Volume.Level
	}
	return st, true
}

// PlayingAlbum reports whether albumSlug is the album the session is playing.
func (e *Engine) PlayingAlbum(albumSlug string) bool {
	return e.session.IsPlayingAlbum(albumSlug)
}

func (e *Engine) changed() {
	if e.opts.OnChange != nil {
		e.opts.OnChange()
	}
}

// PlayAlbumTracks starts the album from its first track.
func (e *Engine) PlayAlbumTracks(albumSlug string) {
	e.PlayAlbumTrack(albumSlug, 0)
}

// PlayAlbumTrack starts the album at index with looping off. An empty album
// or an index out of range leaves everything as it was.
func (e *Engine) PlayAlbumTrack(albumSlug string, index int) {
	tracks := e.opts.Albums.ByAlbum(albumSlug)
	if index < 0 || index >= len(tracks) {
		return
	}
	e.session.Tracks = tracks
	e.session.AlbumSlug = albumSlug
	e.session.CurrentIndex = index
	e.session.LoopMode = LoopNone
	if e.bar == nil {
		e.bar = newBar()
	}
	e.bar.Visible = true
	e.bar.CoverDismissed = false
	e.loadCurrent()
	e.changed()
}

// loadCurrent replaces the session handle with one for the current track and plays it.
func (e *Engine) loadCurrent() {
	e.session.releaseAudio()
	e.sessionGen++
	gen := e.sessionGen

	t := e.session.Current()
	a := e.opts.Factory.NewAudio(e.opts.Source(t), Events{
		OnEnded: func() {
			if gen == e.sessionGen {
				e.trackEnded()
			}
		},
		OnError: func(err error) {
			if gen == e.sessionGen {
				e.sessionFailed(err)
			}
		},
		OnDurationChange: func(seconds float64) {
			if e.opts.Durations != nil {
				e.opts.Durations.Set(t, seconds)
			}
			if gen == e.sessionGen {
				e.refreshProgress()
				e.changed()
			}
		},
	})
	e.session.audio = a
	if e.bar != nil {
		a.SetVolume(e.bar.Volume.Level)
	}
	e.refreshProgress()
	e.session.Paused = false
	if err := a.Play(); err != nil {
		e.sessionFailed(err)
		return
	}
	e.reschedule()
}

func (e *Engine) trackEnded() {
	switch {
	case e.session.LoopMode == LoopOne:
		e.session.audio.Seek(0)
		if err := e.session.audio.Play(); err != nil {
			e.sessionFailed(err)
			return
		}
	case e.session.CurrentIndex < len(e.session.Tracks)-1:
		e.session.CurrentIndex++
		e.loadCurrent()
	case e.session.LoopMode == LoopAll:
		e.session.CurrentIndex = 0
		e.loadCurrent()
	default:
		e.session.Paused = true
		e.refreshProgress()
		e.reschedule()
	}
	e.changed()
}

func (e *Engine) sessionFailed(err error) {
	t := e.session.Current()
	logger.Warn("[Player] playback failed",
		logger.String("artist", t.Artist),
		logger.String("title", t.Title),
		logger.ErrorField(err))
	if e.session.audio != nil {
		e.session.audio.Pause()
	}
	e.session.Paused = true
	e.refreshProgress()
	e.reschedule()
	e.changed()
}

// Next moves one track forward. On the last track it does nothing.
func (e *Engine) Next() {
	if e.session.CurrentIndex+1 >= len(e.session.Tracks) {
		return
	}
	e.session.CurrentIndex++
	e.loadCurrent()
	e.changed()
}

// Prev moves one track back. On the first track it does nothing.
func (e *Engine) Prev() {
	if e.session.CurrentIndex <= 0 || len(e.session.Tracks) == 0 {
		return
	}
	e.session.CurrentIndex--
	e.loadCurrent()
	e.changed()
}

// TogglePlayPause flips the session handle. Without a handle it does nothing.
func (e *Engine) TogglePlayPause() {
	a := e.session.audio
	if a == nil {
		return
	}
	if a.Paused() {
		if err := a.Play(); err != nil {
			e.sessionFailed(err)
			return
		}
		e.session.Paused = false
	} else {
		a.Pause()
		e.session.Paused = true
	}
	e.refreshProgress()
	e.reschedule()
	e.changed()
}

// CycleLoopMode advances None -> All -> One -> None.
func (e *Engine) CycleLoopMode() {
	e.session.LoopMode = e.session.LoopMode.Next()
	e.changed()
}

// Seek moves the session handle to percent of its duration.
func (e *Engine) Seek(percent float64) {
	if seekTo(e.session.audio, percent) {
		e.refreshProgress()
		e.changed()
	}
}

// SetVolume sets the bar volume and applies it to the session handle.
func (e *Engine) SetVolume(level float64) {
	if e.bar == nil {
		return
	}
	e.setSessionVolume(level)
	e.changed()
}

// setSessionVolume is the single place the session level changes. A shared
// song slider follows it.
func (e *Engine) setSessionVolume(level float64) {
	e.bar.Volume.Set(level)
	if e.session.audio != nil {
		e.session.audio.SetVolume(e.bar.Volume.Level)
	}
	if e.song != nil && e.song.shared {
		e.song.volume.Level = e.bar.Volume.Level
	}
}

// ToggleVolume opens or closes the bar volume slider.
func (e *Engine) ToggleVolume() {
	if e.bar == nil {
		return
	}
	e.bar.Volume.Toggle()
	e.changed()
}

// HoverVolume records the pointer over the bar volume control.
func (e *Engine) HoverVolume(in bool) {
	if e.bar == nil || e.bar.Volume.Hovered == in {
		return
	}
	e.bar.Volume.Hover(in)
	e.changed()
}

// DismissCover closes the floating cover panel until the next album playback.
func (e *Engine) DismissCover() {
	if e.bar == nil || e.bar.CoverDismissed {
		return
	}
	e.bar.CoverDismissed = true
	e.changed()
}

// EnterSong attaches the song surface to t. The surface shares the session
// handle when the session holds exactly that one track; otherwise session
// audio stops, the bar hides, and t plays on its own handle.
func (e *Engine) EnterSong(t *model.Track) {
	if t == nil {
		return
	}
	if e.song != nil {
		if model.SameTrack(e.song.track, t) {
			return
		}
		e.LeaveSong()
	}

	s := &songSurface{track: t, volume: newVolume()}
	e.song = s
	if e.session.audio != nil && len(e.session.Tracks) == 1 && model.SameTrack(e.session.Tracks[0], t) {
		s.shared = true
		s.volume.Level = e.bar.Volume.Level
		s.progress = progressOf(e.session.audio)
		e.changed()
		return
	}

	e.session.releaseAudio()
	e.sessionGen++
	e.session.Paused = true
	if e.bar != nil {
		e.bar.Visible = false
	}

	e.songGen++
	gen := e.songGen
	s.audio = e.opts.Factory.NewAudio(e.opts.Source(t), Events{
		OnEnded: func() {
			if gen == e.songGen {
				e.songEnded()
			}
		},
		OnError: func(err error) {
			if gen == e.songGen {
				e.songFailed(err)
			}
		},
		OnDurationChange: func(seconds float64) {
			if e.opts.Durations != nil {
				e.opts.Durations.Set(t, seconds)
			}
			if gen == e.songGen {
				e.song.progress = progressOf(e.song.audio)
				e.changed()
			}
		},
	})
	s.audio.SetVolume(s.volume.Level)
	if err := s.audio.Play(); err != nil {
		e.songFailed(err)
		return
	}
	e.reschedule()
	e.changed()
}

// LeaveSong detaches the song surface and releases a handle it owns.
func (e *Engine) LeaveSong() {
	if e.song == nil {
		return
	}
	if !e.song.shared && e.song.audio != nil {
		e.song.audio.Release()
	}
	e.song = nil
	e.songGen++
	e.reschedule()
}

func (e *Engine) songEnded() {
	s := e.song
	if s.loopOne {
		s.audio.Seek(0)
		if err := s.audio.Play(); err != nil {
			e.songFailed(err)
			return
		}
	} else {
		s.paused = true
		s.progress = progressOf(s.audio)
	}
	e.reschedule()
	e.changed()
}

func (e *Engine) songFailed(err error) {
	s := e.song
	logger.Warn("[Player] song playback failed",
		logger.String("artist", s.track.Artist),
		logger.String("title", s.track.Title),
		logger.ErrorField(err))
	s.audio.Pause()
	s.paused = true
	e.reschedule()
	e.changed()
}

// songAudio is the handle the song surface drives.
func (e *Engine) songAudio() Audio {
	if e.song == nil {
		return nil
	}
	if e.song.shared {
		return e.session.audio
	}
	return e.song.audio
}

// SongTogglePlayPause flips whichever handle the song surface drives.
func (e *Engine) SongTogglePlayPause() {
	if e.song == nil {
		return
	}
	if e.song.shared {
		e.TogglePlayPause()
		return
	}
	a := e.song.audio
	if a.Paused() {
		if err := a.Play(); err != nil {
			e.songFailed(err)
			return
		}
		e.song.paused = false
	} else {
		a.Pause()
		e.song.paused = true
	}
	e.refreshProgress()
	e.reschedule()
	e.changed()
}

// SongToggleLoop flips single-track looping. A shared surface flips the
// session between LoopOne and None.
func (e *Engine) SongToggleLoop() {
	if e.song == nil {
		return
	}
	if e.song.shared {
		if e.session.LoopMode == LoopOne {
			e.session.LoopMode = LoopNone
		} else {
			e.session.LoopMode = LoopOne
		}
	} else {
		e.song.loopOne = !e.song.loopOne
	}
	e.changed()
}

// SongSeek moves the song surface's handle to percent of its duration.
func (e *Engine) SongSeek(percent float64) {
	if seekTo(e.songAudio(), percent) {
		e.refreshProgress()
		e.changed()
	}
}

// SongSetVolume sets the song slider and applies it to the driven handle.
// A shared slider moves the bar level too, so later track loads keep it.
func (e *Engine) SongSetVolume(level float64) {
	if e.song == nil {
		return
	}
	if e.song.shared {
		e.setSessionVolume(level)
		e.changed()
		return
	}
	e.song.volume.Set(level)
	if e.song.audio != nil {
		e.song.audio.SetVolume(e.song.volume.Level)
	}
	e.changed()
}

// SongToggleVolume opens or closes the song volume slider.
func (e *Engine) SongToggleVolume() {
	if e.song == nil {
		return
	}
	e.song.volume.Toggle()
	e.changed()
}

// SongHoverVolume records the pointer over the song volume control.
func (e *Engine) SongHoverVolume(in bool) {
	if e.song == nil || e.song.volume.Hovered == in {
		return
	}
	e.song.volume.Hover(in)
	e.changed()
}

func (e *Engine) refreshProgress() {
	if e.bar != nil {
		e.bar.Progress = progressOf(e.session.audio)
	}
	if a := e.songAudio(); a != nil {
		e.song.progress = progressOf(a)
	}
}

func (e *Engine) playing() bool {
	if e.session.audio != nil && !e.session.Paused {
		return true
	}
	return e.song != nil && !e.song.shared && e.song.audio != nil && !e.song.paused
}

// reschedule keeps exactly one frame pending while anything plays.
func (e *Engine) reschedule() {
	want := e.playing()
	switch {
	case want && !e.polling:
		e.polling = true
		e.frame = e.opts.Frames.RequestFrame(e.poll)
	case !want && e.polling:
		e.polling = false
		e.opts.Frames.CancelFrame(e.frame)
	}
}

func (e *Engine) poll() {
	e.polling = false
	e.refreshProgress()
	e.reschedule()
	e.changed()
}

// Polling reports whether a progress frame is pending.
func (e *Engine) Polling() bool {
	return e.polling
}
