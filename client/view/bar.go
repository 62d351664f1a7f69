package view

import (
	"Trackshelf/client/player"
	"Trackshelf/client/router"
)

// PlayerBar renders the persistent bar. It is absent until the first album
// playback and hidden, not removed, while a song plays on its own.
func PlayerBar(s State) *Node {
	if s.Playback == nil {
		return nil
	}
	b := s.Playback.Bar()
	if !b.Created {
		return nil
	}
	bar := El("div").ID("persistent-album-bar").Class("player-bar")
	if !b.Visible {
		bar.Class("player-bar hide")
	}

	title, meta := El("div").ID("bar-track-title"), El("div").ID("bar-track-meta")
	if t := b.Track; t != nil {
		title.Children = append(title.Children, Text(t.Title))
		meta.Children = append(meta.Children,
			El("span", Text(t.Album)).On(Navigate(router.AlbumPath(b.AlbumSlug))),
			Text(" • "+t.Artist))
	}

	mode := b.LoopMode.String()
	bar.Children = append(bar.Children,
		El("div",
			El("button", prevIcon()).ID("bar-prev").On(Action{Kind: ActPrev}),
			El("button", playIcon(b.Paused)).ID("bar-play").On(Action{Kind: ActTogglePlay}),
			El("button", nextIcon()).ID("bar-next").On(Action{Kind: ActNext}),
			El("div", title, meta),
		),
		El("div",
			El("span", Text(b.Progress.Timestamp())).ID("albumTimestamp"),
			rangeInput("albumProgress", 0, 100, 0.1, b.Progress.Percent()).On(Action{Kind: ActSeek}),
			volumeControl(b.Volume, ActToggleVolume, ActVolume, ActHoverVolume),
			El("button", loopModeIcon(b.LoopMode)).ID("persistentLoopBtn").Class("btn-loop "+mode).
				Set("title", loopTitles[b.LoopMode]).On(Action{Kind: ActCycleLoop}),
		),
	)
	if b.ShowsCover() {
		bar.Children = append(bar.Children, El("div",
			El("img").ID("cover-img").Set("src", b.Track.Cover).Set("alt", "cover"),
			El("button", Text("✖")).ID("cover-close").On(Action{Kind: ActDismissCover}),
		).ID("persistent-cover-box"))
	}
	return bar
}

var loopTitles = map[player.LoopMode]string{
	player.LoopNone: "Loop off",
	player.LoopAll:  "Loop album",
	player.LoopOne:  "Loop track",
}
