package player

import "math"

// Volume is the state of one volume control.
type Volume struct {
	Level   float64
	Open    bool // explicitly toggled open
	Hovered bool
}

func newVolume() Volume {
	return Volume{Level: 1}
}

// Set clamps v into [0,1].
func (v *Volume) Set(level float64) {
	if math.IsNaN(level) {
		return
	}
	v.Level = math.Max(0, math.Min(1, level))
}

// Toggle flips the explicit open state.
func (v *Volume) Toggle() {
	v.Open = !v.Open
}

// Hover records pointer enter/leave.
func (v *Volume) Hover(in bool) {
	v.Hovered = in
}

// Visible reports whether the slider shows.
func (v Volume) Visible() bool {
	return v.Open || v.Hovered
}

// FillPercent is the filled share of the slider track.
func (v Volume) FillPercent() float64 {
	return v.Level * 100
}
