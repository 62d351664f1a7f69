package player

import (
	"math"
	"testing"
)

func TestFormatTime(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0:00"},
		{5.9, "0:05"},
		{65, "1:05"},
		{600, "10:00"},
		{-3, "0:00"},
		{math.NaN(), "0:00"},
		{math.Inf(1), "0:00"},
	}
	for _, tt := range tests {
		if got := FormatTime(tt.in); got != tt.want {
			t.Errorf("FormatTime(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestProgressUnknownDuration(t *testing.T) {
	p := Progress{Elapsed: 7}
	if got := p.Timestamp(); got != "0:07 / --:--" {
		t.Errorf("timestamp = %q", got)
	}
	if p.Percent() != 0 {
		t.Errorf("percent = %v", p.Percent())
	}
}

func TestVolumeClamp(t *testing.T) {
	v := newVolume()
	v.Set(1.7)
	if v.Level != 1 {
		t.Errorf("level = %v", v.Level)
	}
	v.Set(-0.2)
	if v.Level != 0 || v.FillPercent() != 0 {
		t.Errorf("level = %v", v.Level)
	}
	v.Set(0.5)
	v.Set(math.NaN())
	if v.FillPercent() != 50 {
		t.Errorf("fill = %v", v.FillPercent())
	}
}
