package view

import (
	"fmt"

	"Trackshelf/client/player"
)

func fillStyle(percent float64) string {
	p := formatFloat(percent)
	return fmt.Sprintf("background:linear-gradient(to right, #3b82f6 0%%, #3b82f6 %s%%, #444 %s%%, #444 100%%)", p, p)
}

func rangeInput(id string, lo, hi, step, value float64) *Node {
	percent := (value - lo) / (hi - lo) * 100
	return El("input").ID(id).
		Set("type", "range").
		Set("min", formatFloat(lo)).
		Set("max", formatFloat(hi)).
		Set("step", formatFloat(step)).
		Set("value", formatFloat(value)).
		Set("style", fillStyle(percent))
}

func volumeControl(v player.Volume, toggle, set, hover ActionKind) *Node {
	slider := rangeInput("volumeSlider", 0, 1, 0.01, v.Level).On(Action{Kind: set})
	if !v.Visible() {
		slider.Set("style", slider.Get("style")+";display:none")
	}
	container := El("div",
		El("svg", El("path").Set("d", "M3 9v6h4l5 5V4L7 9H3z")).ID("volumeIcon").Class("volume-icon").
			Set("viewBox", "0 0 24 24").On(Action{Kind: toggle}),
		slider,
	).Class("volume-container").On(Action{Kind: hover})
	if v.Open {
		container.Class("volume-container active")
	}
	return container
}

func svg(class string, children ...*Node) *Node {
	return El("svg", children...).Class(class).
		Set("viewBox", "0 0 24 24").
		Set("fill", "none").
		Set("stroke", "currentColor")
}

func playIcon(paused bool) *Node {
	if paused {
		return svg("icon-play", El("polygon").Set("points", "5 3 19 12 5 21 5 3"))
	}
	return svg("icon-pause",
		El("rect").Set("x", "6").Set("y", "4").Set("width", "4").Set("height", "16"),
		El("rect").Set("x", "14").Set("y", "4").Set("width", "4").Set("height", "16"))
}

func prevIcon() *Node {
	return svg("icon-prev",
		El("polygon").Set("points", "19 20 9 12 19 4 19 20"),
		El("line").Set("x1", "5").Set("y1", "19").Set("x2", "5").Set("y2", "5"))
}

func nextIcon() *Node {
	return svg("icon-next",
		El("polygon").Set("points", "5 4 15 12 5 20 5 4"),
		El("line").Set("x1", "19").Set("y1", "5").Set("x2", "19").Set("y2", "19"))
}

func repeatPaths() []*Node {
	return []*Node{
		El("polyline").Set("points", "17 1 21 5 17 9"),
		El("path").Set("d", "M3 11V9a4 4 0 0 1 4-4h14"),
		El("polyline").Set("points", "7 23 3 19 7 15"),
		El("path").Set("d", "M21 13v2a4 4 0 0 1-4 4H3"),
	}
}

func loopIcon(on bool) *Node {
	if on {
		return loopModeIcon(player.LoopOne)
	}
	return loopModeIcon(player.LoopNone)
}

// loopModeIcon draws a distinct icon per mode: a dimmed repeat, a repeat, and
// a repeat with a "1" badge.
func loopModeIcon(m player.LoopMode) *Node {
	icon := svg("icon-"+m.String(), repeatPaths()...)
	switch m {
	case player.LoopNone:
		icon.Set("opacity", "0.4")
	case player.LoopOne:
		icon.Children = append(icon.Children, El("text", Text("1")).Set("x", "10").Set("y", "15"))
	}
	return icon
}
