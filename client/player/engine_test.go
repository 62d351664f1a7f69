package player

import (
	"errors"
	"testing"

	"Trackshelf/client/eventloop"
	"Trackshelf/model"
)

type fakeAudio struct {
	src      string
	ev       Events
	paused   bool
	time     float64
	duration float64
	known    bool
	volume   float64
	released bool
	plays    int
	playErr  error
}

func (a *fakeAudio) Play() error {
	if a.playErr != nil {
		return a.playErr
	}
	a.plays++
	a.paused = false
	return nil
}
func (a *fakeAudio) Pause()                    { a.paused = true }
func (a *fakeAudio) Paused() bool              { return a.paused }
func (a *fakeAudio) CurrentTime() float64      { return a.time }
func (a *fakeAudio) Duration() (float64, bool) { return a.duration, a.known }
func (a *fakeAudio) Seek(s float64)            { a.time = s }
func (a *fakeAudio) SetVolume(v float64)       { a.volume = v }
func (a *fakeAudio) Volume() float64           { return a.volume }
func (a *fakeAudio) Release()                  { a.released = true; a.paused = true }

// end simulates the media reaching its end.
func (a *fakeAudio) end() {
	a.paused = true
	a.time = a.duration
	a.ev.OnEnded()
}

type fakeFactory struct {
	created []*fakeAudio
	playErr error
}

func (f *fakeFactory) NewAudio(src string, ev Events) Audio {
	a := &fakeAudio{src: src, ev: ev, paused: true, volume: 1, duration: 200, known: true, playErr: f.playErr}
	f.created = append(f.created, a)
	return a
}

func (f *fakeFactory) last() *fakeAudio {
	return f.created[len(f.created)-1]
}

type fakeAlbums map[string][]*model.Track

func (f fakeAlbums) ByAlbum(slug string) []*model.Track { return f[slug] }

func albumTracks(titles ...string) []*model.Track {
	out := make([]*model.Track, len(titles))
	for i, title := range titles {
		out[i] = &model.Track{Title: title, Artist: "Xaev", Album: "Night Drive", File: "/audio/" + title + ".mp3"}
	}
	return out
}

type harness struct {
	engine  *Engine
	factory *fakeFactory
	frames  *eventloop.ManualFrames
	changes int
}

func newHarness(albums fakeAlbums) *harness {
	h := &harness{factory: &fakeFactory{}, frames: eventloop.NewManualFrames()}
	h.engine = NewEngine(Options{
		Factory:  h.factory,
		Frames:   h.frames,
		Albums:   albums,
		OnChange: func() { h.changes++ },
	})
	return h
}

func TestTrackEndPolicy(t *testing.T) {
	tests := []struct {
		name       string
		mode       LoopMode
		start      int
		wantIndex  int
		wantPaused bool
		wantNew    bool
	}{
		{"loop one restarts", LoopOne, 1, 1, false, false},
		{"none advances", LoopNone, 1, 2, false, true},
		{"none stops on last", LoopNone, 2, 2, true, false},
		{"loop all advances", LoopAll, 0, 1, false, true},
		{"loop all wraps", LoopAll, 2, 0, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(fakeAlbums{"night-drive": albumTracks("a", "b", "c")})
			h.engine.PlayAlbumTrack("night-drive", tt.start)
			for h.engine.Session().LoopMode != tt.mode {
				h.engine.CycleLoopMode()
			}
			first := h.factory.last()
			first.time = 50
			first.end()

			s := h.engine.Session()
			if s.CurrentIndex != tt.wantIndex {
				t.Errorf("index = %d, want %d", s.CurrentIndex, tt.wantIndex)
			}
			if s.Paused != tt.wantPaused {
				t.Errorf("paused = %v, want %v", s.Paused, tt.wantPaused)
			}
			created := len(h.factory.created) > 1
			if created != tt.wantNew {
				t.Errorf("new handle = %v, want %v", created, tt.wantNew)
			}
			if tt.wantNew && !first.released {
				t.Error("replaced handle was not released")
			}
			if tt.mode == LoopOne && (first.time != 0 || first.plays != 2) {
				t.Errorf("loop one: time=%v plays=%d", first.time, first.plays)
			}
			if tt.wantPaused && h.engine.Polling() {
				t.Error("polling continues after playback stopped")
			}
		})
	}
}

func TestNextPrevClamp(t *testing.T) {
	h := newHarness(fakeAlbums{"night-drive": albumTracks("a", "b")})
	h.engine.Prev() // nothing loaded
	if len(h.factory.created) != 0 {
		t.Fatal("prev without a session created a handle")
	}

	h.engine.PlayAlbumTracks("night-drive")
	h.engine.Prev()
	if got := h.engine.Session().CurrentIndex; got != 0 || len(h.factory.created) != 1 {
		t.Fatalf("prev on first: index %d, handles %d", got, len(h.factory.created))
	}
	h.engine.Next()
	h.engine.Next()
	if got := h.engine.Session().CurrentIndex; got != 1 || len(h.factory.created) != 2 {
		t.Fatalf("next on last: index %d, handles %d", got, len(h.factory.created))
	}
	if got := h.factory.last().src; got != "/audio/b.mp3" {
		t.Errorf("source = %q", got)
	}
}

func TestPlayAlbumTrackOutOfRange(t *testing.T) {
	h := newHarness(fakeAlbums{"night-drive": albumTracks("a")})
	h.engine.PlayAlbumTrack("night-drive", 3)
	h.engine.PlayAlbumTracks("missing")
	if h.engine.HasBar() || len(h.factory.created) != 0 {
		t.Fatal("out of range playback changed state")
	}
}

func TestBarCreatedOnceAndMirrorsSession(t *testing.T) {
	h := newHarness(fakeAlbums{"night-drive": albumTracks("a", "b")})
	if h.engine.Bar().Visible {
		t.Fatal("bar visible before playback")
	}
	h.engine.PlayAlbumTracks("night-drive")
	h.engine.SetVolume(0.4)
	h.engine.PlayAlbumTrack("night-drive", 1)

	bar := h.engine.Bar()
	if !bar.Visible || bar.Track.Title != "b" || bar.AlbumSlug != "night-drive" {
		t.Fatalf("bar = %+v", bar)
	}
	if bar.Volume.Level != 0.4 || h.factory.last().volume != 0.4 {
		t.Errorf("volume not carried to the new handle: bar %v handle %v", bar.Volume.Level, h.factory.last().volume)
	}

	h.engine.TogglePlayPause()
	if !h.engine.Bar().Paused || h.engine.Polling() {
		t.Error("pause did not stop polling")
	}
	h.engine.TogglePlayPause()
	if h.engine.Bar().Paused || !h.engine.Polling() {
		t.Error("resume did not restart polling")
	}
}

func TestTogglePlayPauseWithoutHandle(t *testing.T) {
	h := newHarness(fakeAlbums{})
	h.engine.TogglePlayPause()
	if h.changes != 0 {
		t.Error("toggle without a handle changed state")
	}
}

func TestCycleLoopMode(t *testing.T) {
	h := newHarness(fakeAlbums{})
	want := []LoopMode{LoopAll, LoopOne, LoopNone}
	for _, w := range want {
		h.engine.CycleLoopMode()
		if got := h.engine.Session().LoopMode; got != w {
			t.Fatalf("loop mode = %v, want %v", got, w)
		}
	}
}

func TestProgressPolling(t *testing.T) {
	h := newHarness(fakeAlbums{"night-drive": albumTracks("a")})
	h.engine.PlayAlbumTracks("night-drive")
	a := h.factory.last()

	a.time = 65
	if n := h.frames.Tick(); n != 1 {
		t.Fatalf("ran %d frames", n)
	}
	if got := h.engine.Bar().Progress.Timestamp(); got != "1:05 / 3:20" {
		t.Errorf("timestamp = %q", got)
	}
	if h.frames.Pending() != 1 {
		t.Error("frame not rescheduled")
	}

	h.engine.Seek(50)
	if a.time != 100 {
		t.Errorf("seek 50%% = %v, want 100", a.time)
	}
	if got := h.engine.Bar().Progress.Percent(); got != 50 {
		t.Errorf("percent = %v", got)
	}

	h.engine.TogglePlayPause()
	if h.frames.Pending() != 0 {
		t.Error("frame still pending after pause")
	}
}

func TestSeekWithoutDuration(t *testing.T) {
	h := newHarness(fakeAlbums{"night-drive": albumTracks("a")})
	h.engine.PlayAlbumTracks("night-drive")
	a := h.factory.last()
	a.known = false
	a.time = 12
	h.engine.Seek(50)
	if a.time != 12 {
		t.Errorf("seek without duration moved to %v", a.time)
	}
}

func TestSharedSongSurface(t *testing.T) {
	tracks := albumTracks("solo")
	h := newHarness(fakeAlbums{"night-drive": tracks})
	h.engine.PlayAlbumTracks("night-drive")
	session := h.factory.last()

	song := &model.Track{Title: "Solo", Artist: "xaev"}
	h.engine.EnterSong(song)
	st, ok := h.engine.Song()
	if !ok || !st.Shared {
		t.Fatalf("song state = %+v, %v", st, ok)
	}
	if len(h.factory.created) != 1 {
		t.Fatal("shared surface created its own handle")
	}

	h.engine.SongTogglePlayPause()
	if !session.paused || !h.engine.Bar().Paused {
		t.Error("song toggle did not pause the session handle")
	}
	if st, _ := h.engine.Song(); !st.Paused {
		t.Error("song surface does not mirror the session")
	}

	h.engine.SongToggleLoop()
	if h.engine.Session().LoopMode != LoopOne {
		t.Error("song loop did not set session LoopOne")
	}
	h.engine.SongToggleLoop()
	if h.engine.Session().LoopMode != LoopNone {
		t.Error("song loop did not clear session loop")
	}

	h.engine.LeaveSong()
	if session.released {
		t.Error("leaving a shared song released the session handle")
	}
}

func TestIndependentSongSupersedesBar(t *testing.T) {
	h := newHarness(fakeAlbums{"night-drive": albumTracks("a", "b")})
	h.engine.PlayAlbumTracks("night-drive")
	session := h.factory.last()

	// a two-track session never shares, even for one of its tracks
	h.engine.EnterSong(albumTracks("a")[0])
	if !session.released {
		t.Error("session audio kept playing")
	}
	if h.engine.Bar().Visible {
		t.Error("bar still visible")
	}
	if !h.engine.HasBar() {
		t.Error("bar destroyed")
	}
	st, _ := h.engine.Song()
	if st.Shared || st.Paused {
		t.Fatalf("song state = %+v", st)
	}
	own := h.factory.last()
	if own == session || own.plays != 1 {
		t.Fatal("song did not start its own handle")
	}

	h.engine.SongSetVolume(0.25)
	if own.volume != 0.25 {
		t.Errorf("song volume = %v", own.volume)
	}

	h.engine.TogglePlayPause() // session has no handle now
	if own.paused {
		t.Error("bar toggle reached the song handle")
	}

	h.engine.LeaveSong()
	if !own.released {
		t.Error("song handle not released on leave")
	}

	h.engine.PlayAlbumTracks("night-drive")
	if !h.engine.Bar().Visible {
		t.Error("bar not shown again on album playback")
	}
}

func TestIndependentSongEnd(t *testing.T) {
	h := newHarness(fakeAlbums{})
	song := albumTracks("a")[0]
	h.engine.EnterSong(song)
	own := h.factory.last()

	h.engine.SongToggleLoop()
	own.end()
	if own.plays != 2 || own.time != 0 {
		t.Errorf("loop one song: plays=%d time=%v", own.plays, own.time)
	}

	h.engine.SongToggleLoop()
	own.end()
	if st, _ := h.engine.Song(); !st.Paused {
		t.Error("song did not stop at the end")
	}
	if h.engine.Polling() {
		t.Error("polling after the song stopped")
	}
}

func TestMediaErrorHaltsWithoutAdvance(t *testing.T) {
	h := newHarness(fakeAlbums{"night-drive": albumTracks("a", "b")})
	h.engine.PlayAlbumTracks("night-drive")
	first := h.factory.last()
	first.ev.OnError(errors.New("decode failed"))

	s := h.engine.Session()
	if !s.Paused || s.CurrentIndex != 0 || len(h.factory.created) != 1 {
		t.Fatalf("after error: paused=%v index=%d handles=%d", s.Paused, s.CurrentIndex, len(h.factory.created))
	}
	if h.engine.Polling() {
		t.Error("polling after media error")
	}
}

func TestPlayFailureIsMediaError(t *testing.T) {
	h := newHarness(fakeAlbums{"night-drive": albumTracks("a", "b")})
	h.factory.playErr = errors.New("not allowed")
	h.engine.PlayAlbumTracks("night-drive")
	if s := h.engine.Session(); !s.Paused || s.CurrentIndex != 0 {
		t.Fatalf("session = %+v", s)
	}
}

func TestStaleEventsIgnored(t *testing.T) {
	h := newHarness(fakeAlbums{"night-drive": albumTracks("a", "b", "c")})
	h.engine.PlayAlbumTracks("night-drive")
	old := h.factory.last()
	h.engine.Next()

	old.ev.OnEnded()
	if got := h.engine.Session().CurrentIndex; got != 1 {
		t.Errorf("stale ended moved index to %d", got)
	}
}

func TestDurationChangeFillsCache(t *testing.T) {
	h := newHarness(fakeAlbums{"night-drive": albumTracks("a")})
	cache := NewDurationCache(nil, nil, nil)
	h.engine.opts.Durations = cache

	h.engine.PlayAlbumTracks("night-drive")
	h.factory.last().ev.OnDurationChange(187)

	if got := cache.Label(albumTracks("a")[0]); got != "3:07" {
		t.Errorf("label = %q", got)
	}
}

func TestBarVolumeAndCover(t *testing.T) {
	h := newHarness(fakeAlbums{"night-drive": albumTracks("a")})
	h.engine.ToggleVolume() // no bar yet
	h.engine.PlayAlbumTracks("night-drive")

	if h.engine.Bar().Volume.Visible() {
		t.Fatal("volume visible initially")
	}
	h.engine.HoverVolume(true)
	if !h.engine.Bar().Volume.Visible() {
		t.Error("hover did not reveal volume")
	}
	h.engine.HoverVolume(false)
	h.engine.ToggleVolume()
	if !h.engine.Bar().Volume.Visible() {
		t.Error("toggle did not reveal volume")
	}

	h.engine.DismissCover()
	if !h.engine.Bar().CoverDismissed {
		t.Error("cover not dismissed")
	}
	h.engine.PlayAlbumTracks("night-drive")
	if h.engine.Bar().CoverDismissed {
		t.Error("cover stays dismissed on new album playback")
	}
}

func TestPlayAlbumResetsLoopMode(t *testing.T) {
	h := newHarness(fakeAlbums{"night-drive": albumTracks("a", "b")})
	h.engine.PlayAlbumTracks("night-drive")
	h.engine.CycleLoopMode()
	h.engine.PlayAlbumTrack("night-drive", 1)
	if got := h.engine.Session().LoopMode; got != LoopNone {
		t.Errorf("loop mode = %v after new playback", got)
	}
}

// sharedHarness plays a one-track album and opens its song view on the same handle.
func sharedHarness(t *testing.T) (*harness, *fakeAudio) {
	t.Helper()
	h := newHarness(fakeAlbums{"night-drive": albumTracks("solo")})
	h.engine.PlayAlbumTracks("night-drive")
	h.engine.EnterSong(&model.Track{Title: "Solo", Artist: "Xaev"})
	if st, _ := h.engine.Song(); !st.Shared {
		t.Fatal("song surface not shared")
	}
	return h, h.factory.last()
}

func TestSharedSurfacesAgreeOnVolume(t *testing.T) {
	tests := []struct {
		name  string
		apply func(e *Engine)
		want  float64
	}{
		{"song slider", func(e *Engine) { e.SongSetVolume(0.2) }, 0.2},
		{"bar slider", func(e *Engine) { e.SetVolume(0.7) }, 0.7},
		{"song then bar", func(e *Engine) { e.SongSetVolume(0.1); e.SetVolume(0.6) }, 0.6},
		{"bar then song", func(e *Engine) { e.SetVolume(0.6); e.SongSetVolume(0.3) }, 0.3},
		{"clamped", func(e *Engine) { e.SongSetVolume(4) }, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, a := sharedHarness(t)
			tt.apply(h.engine)

			st, _ := h.engine.Song()
			bar := h.engine.Bar()
			if a.volume != tt.want || st.Volume.Level != tt.want || bar.Volume.Level != tt.want {
				t.Errorf("handle=%v song=%v bar=%v, want %v", a.volume, st.Volume.Level, bar.Volume.Level, tt.want)
			}
		})
	}
}

func TestSharedVolumeSurvivesReload(t *testing.T) {
	h, _ := sharedHarness(t)
	h.engine.CycleLoopMode() // LoopAll
	h.engine.SongSetVolume(0.1)

	h.factory.last().end() // wraps onto a fresh handle
	if len(h.factory.created) != 2 {
		t.Fatalf("handles = %d, want 2", len(h.factory.created))
	}
	st, _ := h.engine.Song()
	if got := h.factory.last().volume; got != 0.1 || st.Volume.Level != 0.1 {
		t.Errorf("after wrap: handle=%v song=%v, want 0.1", got, st.Volume.Level)
	}
}

func TestSharedSongProgress(t *testing.T) {
	tests := []struct {
		name string
		act  func(h *harness, a *fakeAudio)
		want string
	}{
		{"polled frame", func(h *harness, a *fakeAudio) {
			a.time = 65
			h.frames.Tick()
		}, "1:05 / 3:20"},
		{"track end", func(h *harness, a *fakeAudio) {
			a.time = 190
			h.frames.Tick()
			a.end()
		}, "3:20 / 3:20"},
		{"media error", func(h *harness, a *fakeAudio) {
			a.time = 30
			h.frames.Tick()
			a.time = 42
			a.ev.OnError(errors.New("decode failed"))
		}, "0:42 / 3:20"},
		{"song seek", func(h *harness, a *fakeAudio) {
			h.engine.SongSeek(25)
		}, "0:50 / 3:20"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, a := sharedHarness(t)
			tt.act(h, a)

			st, _ := h.engine.Song()
			if got := st.Progress.Timestamp(); got != tt.want {
				t.Errorf("song timestamp = %q, want %q", got, tt.want)
			}
			if got := h.engine.Bar().Progress.Timestamp(); got != tt.want {
				t.Errorf("bar timestamp = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSongSeekTargetsDrivenHandle(t *testing.T) {
	t.Run("shared", func(t *testing.T) {
		h, a := sharedHarness(t)
		h.engine.SongSeek(50)
		if a.time != 100 || len(h.factory.created) != 1 {
			t.Errorf("session handle time = %v, handles = %d", a.time, len(h.factory.created))
		}
	})
	t.Run("independent", func(t *testing.T) {
		h := newHarness(fakeAlbums{"night-drive": albumTracks("a", "b")})
		h.engine.PlayAlbumTracks("night-drive")
		session := h.factory.last()
		h.engine.EnterSong(albumTracks("b")[0])
		own := h.factory.last()

		h.engine.SongSeek(50)
		if own.time != 100 {
			t.Errorf("song handle time = %v, want 100", own.time)
		}
		if session.time != 0 {
			t.Errorf("released session handle moved to %v", session.time)
		}
		if st, _ := h.engine.Song(); st.Progress.Percent() != 50 {
			t.Errorf("song percent = %v", st.Progress.Percent())
		}
	})
}
