package player

import (
	"fmt"
	"math"
)

// UnknownTime is shown where a duration is not known yet.
const UnknownTime = "--:--"

// FormatTime renders seconds as M:SS.
func FormatTime(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// Progress is a polled snapshot of a handle's position.
type Progress struct {
	Elapsed  float64
	Duration float64
	Known    bool
}

func progressOf(a Audio) Progress {
	if a == nil {
		return Progress{}
	}
	d, ok := a.Duration()
	return Progress{Elapsed: a.CurrentTime(), Duration: d, Known: ok && d > 0}
}

// Percent is the seek bar value in [0,100].
func (p Progress) Percent() float64 {
	if !p.Known {
		return 0
	}
	pct := p.Elapsed / p.Duration * 100
	return math.Max(0, math.Min(100, pct))
}

// Timestamp renders "elapsed / total".
func (p Progress) Timestamp() string {
	if !p.Known {
		return FormatTime(p.Elapsed) + " / " + UnknownTime
	}
	return FormatTime(p.Elapsed) + " / " + FormatTime(p.Duration)
}

// seekTo writes a percentage of the duration to the handle. Without a known
// duration it does nothing.
func seekTo(a Audio, percent float64) bool {
	if a == nil {
		return false
	}
	d, ok := a.Duration()
	if !ok || d <= 0 {
		return false
	}
	percent = math.Max(0, math.Min(100, percent))
	a.Seek(percent / 100 * d)
	return true
}
