package view

import (
	"fmt"
	"strconv"

	"Trackshelf/client/catalog"
	"Trackshelf/client/player"
	"Trackshelf/client/router"
	"Trackshelf/core/slug"
	"Trackshelf/model"
)

// Playback is the part of the engine the views read.
type Playback interface {
	Bar() player.BarState
	Song() (player.SongState, bool)
	PlayingAlbum(albumSlug string) bool
	Session() player.Session
}

// Durations labels track lengths.
type Durations interface {
	Label(t *model.Track) string
}

// State is everything a render reads.
type State struct {
	Route     router.Route
	Catalog   *catalog.Store
	Playback  Playback
	Durations Durations
	IsAdmin   bool
	Theme     string
	// SearchResults holds the server's answer for Route.Query on the home page.
	SearchResults []*model.Track
}

// NotFoundTitle is the heading of the fallback view.
const NotFoundTitle = "404 - Not Found"

// DefaultTheme applies until the user picks another one.
const DefaultTheme = "dark"

// Themes lists the selectable themes in menu order.
var Themes = []string{"dark", "light"}

// ValidTheme reports whether name is one of Themes.
func ValidTheme(name string) bool {
	for _, t := range Themes {
		if t == name {
			return true
		}
	}
	return false
}

// Render builds the whole page: header, the routed view and the bar.
func Render(s State) *Node {
	theme := s.Theme
	if !ValidTheme(theme) {
		theme = DefaultTheme
	}
	return El("div",
		Header(s),
		El("main", Content(s)).ID("app"),
		PlayerBar(s),
	).ID("layout").Class("theme-" + theme)
}

// Content renders the routed view alone.
func Content(s State) *Node {
	r := s.Route
	switch r.Kind {
	case router.Home:
		return Home(s)
	case router.Login:
		return Login()
	case router.Upload:
		return Upload()
	case router.Artist:
		return Artist(s, r.Artist)
	case router.Album:
		return Album(s, r.Album)
	case router.Song:
		return Song(s, r.Artist, r.Song)
	default:
		return NotFound()
	}
}

// Header is the site navigation. Admin links follow the session flag.
func Header(s State) *Node {
	nav := El("nav",
		El("a", Text("Home")).Set("href", "/").On(Navigate("/")),
		El("form",
			El("input").Set("name", "q").Set("placeholder", "Search").Set("value", s.Route.Query),
		).ID("search").On(Action{Kind: ActSearch}),
	)
	if s.IsAdmin {
		nav.Children = append(nav.Children,
			El("a", Text("Add Song")).ID("add-song-link").Set("href", "/upload").On(Navigate("/upload")),
			El("button", Text("Log out")).ID("logout-button").On(Action{Kind: ActLogout}),
		)
	} else {
		nav.Children = append(nav.Children,
			El("a", Text("Login")).ID("login-button").Set("href", "/login").On(Navigate("/login")),
		)
	}
	nav.Children = append(nav.Children, themeSelect(s.Theme))
	return El("header", nav)
}

func themeSelect(current string) *Node {
	if !ValidTheme(current) {
		current = DefaultTheme
	}
	sel := El("select").ID("theme-select").Set("name", "theme").On(Action{Kind: ActTheme})
	for _, t := range Themes {
		opt := El("option", Text(t)).Set("value", t)
		if t == current {
			opt.Set("selected", "")
		}
		sel.Children = append(sel.Children, opt)
	}
	return sel
}

// Home shows new and popular tracks, and search results when a query is active.
func Home(s State) *Node {
	page := El("div")
	if s.Route.Query != "" {
		page.Children = append(page.Children,
			section(fmt.Sprintf("Results for %q", s.Route.Query), "search-results", cards(s.SearchResults)))
	}
	page.Children = append(page.Children,
		section("Newly Added", "new-tracks", cards(s.Catalog.NewReleases())),
		section("Popular Tracks", "popular-tracks", cards(s.Catalog.Popular())),
	)
	return page
}

func section(title, id string, grid *Node) *Node {
	return El("section", El("h2", Text(title)), grid).ID(id)
}

func cards(tracks []*model.Track) *Node {
	grid := El("div").Class("grid")
	for _, t := range tracks {
		grid.Children = append(grid.Children, TrackCard(t))
	}
	return grid
}

// TrackCard links to the song and its artist.
func TrackCard(t *model.Track) *Node {
	id := t.Identity()
	return El("div",
		El("img").Set("src", t.Cover).Set("alt", t.Album),
		El("h3", Text(t.Title)).On(Navigate(id.Path())),
		El("p", Text(t.Artist)).On(Navigate(router.ArtistPath(id.Artist))),
	).Class("track")
}

// Artist lists an artist's tracks and the albums they appear on.
func Artist(s State, artistSlug string) *Node {
	tracks := s.Catalog.ByArtist(artistSlug)
	if len(tracks) == 0 {
		return NotFound()
	}
	name := tracks[0].Artist

	albums := El("div").Class("grid")
	for _, t := range catalog.AlbumsFeaturing(tracks) {
		key := catalog.AlbumKey(t)
		title := t.Album
		if title == "" {
			title = catalog.UnknownAlbum
		}
		albums.Children = append(albums.Children, El("div",
			El("img").Set("src", t.Cover).Set("alt", title),
			El("div", Text(title)).On(Navigate(router.AlbumPath(key))),
		).Class("albumlink"))
	}

	return El("div",
		El("h2", Text(name)),
		cards(tracks).ID("artist-tracks"),
		El("h3", Text("Albums featuring "+name)),
		albums.ID("artist-albums"),
	)
}

// Album lists the tracks in play order. When the album is the one playing it
// offers a restart and marks the current row.
func Album(s State, albumSlug string) *Node {
	album, ok := s.Catalog.Album(albumSlug)
	if !ok {
		return NotFound()
	}
	playing := s.Playback != nil && s.Playback.PlayingAlbum(albumSlug)
	current := -1
	if playing {
		current = s.Playback.Session().CurrentIndex
	}

	by := El("span", Text("by ")).Class("artistPointer")
	for i, ac := range catalog.ArtistSummary(album.Tracks) {
		if i > 0 {
			by.Children = append(by.Children, Text(", "))
		}
		by.Children = append(by.Children,
			El("span", Text(ac.Artist)).On(Navigate(router.ArtistPath(slug.Slugify(ac.Artist)))))
	}

	label := "▶ Play All"
	if playing {
		label = "▶ Restart Album"
	}
	play := El("button", Text(label)).ID("play-album").On(Action{Kind: ActPlayAlbum, Album: albumSlug})

	rows := El("div").ID("album-tracks")
	for i, t := range album.Tracks {
		rows.Children = append(rows.Children, albumRow(s, albumSlug, i, t, i == current))
	}

	return El("div", El("h2", Text(album.Title), by), play, rows)
}

func albumRow(s State, albumSlug string, i int, t *model.Track, current bool) *Node {
	number := "?"
	if t.AlbumNumber != nil && *t.AlbumNumber != 0 {
		number = strconv.Itoa(int(*t.AlbumNumber))
	}
	duration := player.UnknownTime
	if s.Durations != nil {
		duration = s.Durations.Label(t)
	}

	row := El("div",
		El("div",
			El("div", Text(t.Title)).Class("track-title").
				On(Action{Kind: ActPlayAlbumTrack, Album: albumSlug, Index: i}),
			El("div",
				Text("#"+number+" "),
				El("span", Text(fmt.Sprintf("(Track %d)", i+1))),
				Text(" • "),
				El("span", Text(duration)).Class("duration"),
			).Class("albumtracktext").On(Navigate(t.Identity().Path())),
		),
	).Class("albumtrack")
	if current {
		row.Class("albumtrack currenttrack")
		row.Children = append(row.Children, El("span", Text("Playing...")).Class("playingtext"))
	}
	return row
}

// Song is the track detail with its own control surface.
func Song(s State, artistSlug, songSlug string) *Node {
	t := s.Catalog.FindSong(artistSlug, songSlug)
	if t == nil {
		return NotFound()
	}
	st := player.SongState{Track: t, Paused: true}
	if s.Playback != nil {
		if live, ok := s.Playback.Song(); ok && model.SameTrack(live.Track, t) {
			st = live
		}
	}
	id := t.Identity()

	page := El("div",
		El("img").Set("src", t.Cover).Set("alt", t.Album),
		El("h2", Text(t.Title)),
		El("p", Text("by "), El("span", Text(t.Artist)).On(Navigate(router.ArtistPath(id.Artist)))).Class("artistPointer"),
		El("p", Text(t.Album)).Class("albumPointer").On(Navigate(router.AlbumPath(t.AlbumSlug()))),
		songControls(st),
	).Class("track").ID("song")

	if s.IsAdmin {
		page.Children = append(page.Children,
			El("button", Text("Delete Track")).Class("delete-btn").
				On(Action{Kind: ActDelete, Artist: id.Artist, Song: id.Title}))
	}
	return page
}

func songControls(st player.SongState) *Node {
	loop := "noloop"
	pressed := "false"
	if st.LoopOne {
		loop, pressed = "loop1", "true"
	}
	return El("div",
		El("div",
			El("button", playIcon(st.Paused)).ID("btnPlayPause").On(Action{Kind: ActSongToggle}),
			El("div", Text(st.Progress.Timestamp())).ID("timestamp"),
			El("button", loopIcon(st.LoopOne)).ID("btnLoop").Class("btn-loop "+loop).
				Set("aria-pressed", pressed).On(Action{Kind: ActSongLoop}),
			volumeControl(st.Volume, ActSongToggleVolume, ActSongVolume, ActSongHoverVolume),
		),
		rangeInput("progressBar", 0, 100, 0.1, st.Progress.Percent()).On(Action{Kind: ActSongSeek}),
	).Class("audio-player")
}

// Login is the admin login form.
func Login() *Node {
	return El("div",
		El("h2", Text("Admin Login")),
		El("form",
			El("input").ID("login-username").Set("name", "username").Set("placeholder", "Username"),
			El("input").ID("login-password").Set("name", "password").Set("type", "password").Set("placeholder", "Password"),
			El("button", Text("Login")).Set("type", "submit"),
		).ID("login-form").On(Action{Kind: ActLogin}),
	).ID("login-box")
}

// UploadFields are the inputs of the upload form in display order.
var UploadFields = []string{"title", "artist", "album", "cover", "file", "albumNumber"}

var uploadPlaceholders = map[string]string{
	"title":       "Song Title",
	"artist":      "Artist",
	"album":       "Album",
	"cover":       "Cover Image URL",
	"file":        "Audio File URL (MP3/WAV)",
	"albumNumber": "Album Track Number",
}

// Upload is the new-track form.
func Upload() *Node {
	form := El("form").ID("uploadForm").On(Action{Kind: ActUpload})
	for _, name := range UploadFields {
		in := El("input").Set("name", name).Set("placeholder", uploadPlaceholders[name])
		if name == "title" || name == "artist" || name == "file" {
			in.Set("required", "")
		}
		form.Children = append(form.Children, in)
	}
	flags := El("div")
	for _, f := range []struct{ name, label string }{{"isNew", "New"}, {"isPopular", "Popular"}, {"isClean", "Clean"}} {
		flags.Children = append(flags.Children,
			El("label", El("input").Set("type", "checkbox").Set("name", f.name), Text(" "+f.label)))
	}
	form.Children = append(form.Children,
		flags,
		El("button", Text("Upload")).Set("type", "submit"),
		El("button", Text("Log out")).Set("type", "button").On(Action{Kind: ActLogout}),
	)
	return El("div", El("h2", Text("Upload New Track")), form)
}

// NotFound is the fallback view.
func NotFound() *Node {
	return El("h2", Text(NotFoundTitle)).ID("not-found")
}
