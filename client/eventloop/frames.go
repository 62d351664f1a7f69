package eventloop

import (
	"sync"
	"time"
)

// FrameID identifies a requested frame callback.
type FrameID int

// FrameScheduler is the requestAnimationFrame contract: a callback runs once
// on the next frame unless cancelled first.
type FrameScheduler interface {
	RequestFrame(fn func()) FrameID
	CancelFrame(id FrameID)
}

// DefaultFrameInterval approximates a 60 Hz display.
const DefaultFrameInterval = 16 * time.Millisecond

// TimerFrames delivers frames as callbacks posted to a loop after a fixed
// interval.
type TimerFrames struct {
	poster   Poster
	interval time.Duration

	mu     sync.Mutex
	nextID FrameID
	timers map[FrameID]*time.Timer
}

// NewTimerFrames creates a scheduler posting to p.
func NewTimerFrames(p Poster, interval time.Duration) *TimerFrames {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &TimerFrames{
		poster:   p,
		interval: interval,
		timers:   make(map[FrameID]*time.Timer),
	}
}

func (f *TimerFrames) RequestFrame(fn func()) FrameID {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	id := f.nextID
	f.timers[id] = time.AfterFunc(f.interval, func() {
		f.poster.Post(func() {
			// A cancel may have raced the timer; only run if still pending.
			f.mu.Lock()
			_, pending := f.timers[id]
			delete(f.timers, id)
			f.mu.Unlock()
			if pending {
				fn()
			}
		})
	})
	return id
}

func (f *TimerFrames) CancelFrame(id FrameID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.timers[id]; ok {
		t.Stop()
		delete(f.timers, id)
	}
}

// Pending returns the number of frames requested and not yet run.
func (f *TimerFrames) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.timers)
}

// ManualFrames runs frames only when Tick is called.
type ManualFrames struct {
	nextID  FrameID
	pending map[FrameID]func()
	order   []FrameID
}

// NewManualFrames creates an empty scheduler.
func NewManualFrames() *ManualFrames {
	return &ManualFrames{pending: make(map[FrameID]func())}
}

func (m *ManualFrames) RequestFrame(fn func()) FrameID {
	m.nextID++
	m.pending[m.nextID] = fn
	m.order = append(m.order, m.nextID)
	return m.nextID
}

func (m *ManualFrames) CancelFrame(id FrameID) {
	delete(m.pending, id)
}

// Tick runs the frames requested before the call. Frames requested during
// the tick wait for the next one. It returns how many ran.
func (m *ManualFrames) Tick() int {
	order := m.order
	m.order = nil
	n := 0
	for _, id := range order {
		fn, ok := m.pending[id]
		if !ok {
			continue
		}
		delete(m.pending, id)
		fn()
		n++
	}
	return n
}

// Pending returns the number of frames waiting for a tick.
func (m *ManualFrames) Pending() int {
	return len(m.pending)
}
