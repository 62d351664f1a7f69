package player

import (
	"context"
	"errors"
	"math"
	"time"

	"Trackshelf/client/eventloop"
	"Trackshelf/core/audio"
)

// ErrReleased is returned by Play on a released handle.
var ErrReleased = errors.New("audio handle released")

// VirtualFactory makes clock-driven handles for headless runs. Nothing is
// decoded: the length comes from the prober and the position from the wall
// clock, and "ended" fires when the clock passes the length.
type VirtualFactory struct {
	poster eventloop.Poster
	prober audio.Prober
	now    func() time.Time
}

// NewVirtualFactory creates a factory whose handle events are posted to p.
func NewVirtualFactory(p eventloop.Poster, prober audio.Prober) *VirtualFactory {
	return &VirtualFactory{poster: p, prober: prober, now: time.Now}
}

func (f *VirtualFactory) NewAudio(src string, ev Events) Audio {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	a := &VirtualAudio{
		src:    src,
		ev:     ev,
		poster: f.poster,
		now:    f.now,
		volume: 1,
		cancel: cancel,
	}
	go func() {
		defer cancel()
		d, err := f.prober.GetAudioDuration(ctx, src)
		f.poster.Post(func() { a.probed(d, err) })
	}()
	return a
}

// VirtualAudio is a handle without a decoder. All methods run on the loop.
type VirtualAudio struct {
	src    string
	ev     Events
	poster eventloop.Poster
	now    func() time.Time

	duration float64
	known    bool
	offset   float64
	started  time.Time
	playing  bool
	volume   float64
	released bool

	timer  *time.Timer
	gen    int
	cancel context.CancelFunc
}

// Source returns the URL the handle was created for.
func (a *VirtualAudio) Source() string { return a.src }

func (a *VirtualAudio) probed(d float64, err error) {
	if a.released {
		return
	}
	if err != nil {
		a.Pause()
		if a.ev.OnError != nil {
			a.ev.OnError(err)
		}
		return
	}
	a.duration, a.known = d, true
	if a.ev.OnDurationChange != nil {
		a.ev.OnDurationChange(d)
	}
	a.armEnd()
}

func (a *VirtualAudio) Play() error {
	if a.released {
		return ErrReleased
	}
	if a.playing {
		return nil
	}
	if a.known && a.offset >= a.duration {
		a.offset = 0
	}
	a.playing = true
	a.started = a.now()
	a.armEnd()
	return nil
}

func (a *VirtualAudio) Pause() {
	if !a.playing {
		return
	}
	a.offset = a.CurrentTime()
	a.playing = false
	a.stopTimer()
}

func (a *VirtualAudio) Paused() bool { return !a.playing }

func (a *VirtualAudio) CurrentTime() float64 {
	pos := a.offset
	if a.playing {
		pos += a.now().Sub(a.started).Seconds()
	}
	if a.known {
		pos = math.Min(pos, a.duration)
	}
	return pos
}

func (a *VirtualAudio) Duration() (float64, bool) {
	return a.duration, a.known
}

func (a *VirtualAudio) Seek(seconds float64) {
	seconds = math.Max(0, seconds)
	if a.known {
		seconds = math.Min(seconds, a.duration)
	}
	a.offset = seconds
	if a.playing {
		a.started = a.now()
		a.armEnd()
	}
}

func (a *VirtualAudio) SetVolume(v float64) { a.volume = math.Max(0, math.Min(1, v)) }

func (a *VirtualAudio) Volume() float64 { return a.volume }

func (a *VirtualAudio) Release() {
	if a.released {
		return
	}
	a.Pause()
	a.released = true
	a.cancel()
}

func (a *VirtualAudio) armEnd() {
	a.stopTimer()
	if !a.playing || !a.known {
		return
	}
	remaining := time.Duration((a.duration - a.CurrentTime()) * float64(time.Second))
	a.gen++
	gen := a.gen
	a.timer = time.AfterFunc(remaining, func() {
		a.poster.Post(func() {
			if gen != a.gen || a.released || !a.playing {
				return
			}
			a.offset = a.duration
			a.playing = false
			a.timer = nil
			if a.ev.OnEnded != nil {
				a.ev.OnEnded()
			}
		})
	})
}

func (a *VirtualAudio) stopTimer() {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.gen++
}
