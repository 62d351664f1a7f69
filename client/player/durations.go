package player

import (
	"context"
	"time"

	"Trackshelf/client/eventloop"
	"Trackshelf/core/audio"
	"Trackshelf/core/slug"
	"Trackshelf/logger"
	"Trackshelf/model"
)

const probeTimeout = 15 * time.Second

// DurationCache remembers track lengths by identity. Lookups and writes
// happen on the event loop; probes run in goroutines and post their result
// back.
type DurationCache struct {
	prober audio.Prober
	poster eventloop.Poster
	source func(t *model.Track) string

	known    map[slug.Identity]float64
	inflight map[slug.Identity]bool
	failed   map[slug.Identity]bool
}

// NewDurationCache creates a cache. A nil prober makes Request a no-op, so
// only lengths reported by playing handles get cached.
func NewDurationCache(prober audio.Prober, poster eventloop.Poster, source func(t *model.Track) string) *DurationCache {
	if source == nil {
		source = func(t *model.Track) string { return t.File }
	}
	return &DurationCache{
		prober:   prober,
		poster:   poster,
		source:   source,
		known:    make(map[slug.Identity]float64),
		inflight: make(map[slug.Identity]bool),
		failed:   make(map[slug.Identity]bool),
	}
}

// Lookup returns the cached length of t.
func (c *DurationCache) Lookup(t *model.Track) (float64, bool) {
	d, ok := c.known[t.Identity()]
	return d, ok
}

// Set records the length of t. Non-positive values are ignored.
func (c *DurationCache) Set(t *model.Track, seconds float64) {
	if t == nil || seconds <= 0 {
		return
	}
	id := t.Identity()
	c.known[id] = seconds
	delete(c.failed, id)
}

// Label renders the cached length or "--:--".
func (c *DurationCache) Label(t *model.Track) string {
	if d, ok := c.Lookup(t); ok {
		return FormatTime(d)
	}
	return UnknownTime
}

// Request probes t in the background unless its length is known, already
// being probed, or failed before. onDone runs on the loop after a successful
// probe. It reports whether a probe started.
func (c *DurationCache) Request(ctx context.Context, t *model.Track, onDone func()) bool {
	if c.prober == nil || t == nil || t.File == "" {
		return false
	}
	id := t.Identity()
	if _, ok := c.known[id]; ok || c.inflight[id] || c.failed[id] {
		return false
	}
	c.inflight[id] = true
	src := c.source(t)

	go func() {
		ctx, cancel := context.WithTimeout(ctx, probeTimeout)
		defer cancel()
		d, err := c.prober.GetAudioDuration(ctx, src)
		c.poster.Post(func() {
			delete(c.inflight, id)
			if err != nil {
				logger.Debug("[Player] duration probe failed",
					logger.String("source", src), logger.ErrorField(err))
				c.failed[id] = true
				return
			}
			c.Set(t, d)
			if onDone != nil {
				onDone()
			}
		})
	}()
	return true
}
