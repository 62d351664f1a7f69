// Package app ties the client together: it resolves the location, renders
// the routed view and turns user actions into catalog, session and playback
// changes. An App is driven from a single event loop goroutine; network calls
// block that goroutine until they answer.
package app

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"Trackshelf/client/api"
	"Trackshelf/client/catalog"
	"Trackshelf/client/eventloop"
	"Trackshelf/client/player"
	"Trackshelf/client/router"
	"Trackshelf/client/view"
	"Trackshelf/core/audio"
	"Trackshelf/core/slug"
	"Trackshelf/logger"
	"Trackshelf/model"
)

// Alert texts shown to the user.
const (
	MsgLoggedIn      = "Logged in!"
	MsgLoginFailed   = "Login failed."
	MsgLoggedOut     = "Logged out."
	MsgAdminOnly     = "You must be an admin to access this page."
	MsgUploadMissing = "Title, artist and file are required."
	MsgBadNumber     = "Album number must be a number."
)

// DefaultCover is used when an upload has no cover URL.
const DefaultCover = "https://via.placeholder.com/300"

// API is the server surface the client uses.
type API interface {
	catalog.Fetcher
	CreateTrack(ctx context.Context, t *model.Track) (*model.Track, error)
	DeleteTrack(ctx context.Context, artistSlug, songSlug string) error
	Login(ctx context.Context, username, password string) error
	Logout(ctx context.Context) error
	IsAdmin(ctx context.Context) (bool, error)
}

// Subscriber streams catalog events.
type Subscriber interface {
	Subscribe(ctx context.Context, fn func(api.Event)) error
}

// Options configures an App. Prober and Poster are optional; without them
// album durations are only learned from tracks that actually play.
type Options struct {
	API     API
	Factory player.Factory
	Frames  eventloop.FrameScheduler
	Prober  audio.Prober
	Poster  eventloop.Poster
	// Source turns a track's file into a playable URL. Defaults to the file as is.
	Source func(t *model.Track) string
	Alert  func(msg string)
	// OnRender receives every rendered page.
	OnRender func(page *view.Node)
	// Theme is the saved theme, if any. OnTheme receives every change so
	// it can be saved again.
	Theme   string
	OnTheme func(theme string)
}

// App is the client state.
type App struct {
	ctx       context.Context
	api       API
	catalog   *catalog.Store
	history   *router.History
	engine    *player.Engine
	durations *player.DurationCache
	alert     func(string)
	onRender  func(*view.Node)
	onTheme   func(string)

	isAdmin bool
	theme   string
	route   router.Route
	results []*model.Track
	page    *view.Node
}

// New builds an App at "/". Nothing is fetched until Start.
func New(opts Options) *App {
	a := &App{
		ctx:      context.Background(),
		api:      opts.API,
		catalog:  catalog.New(opts.API),
		history:  router.NewHistory("/"),
		alert:    opts.Alert,
		onRender: opts.OnRender,
		onTheme:  opts.OnTheme,
		theme:    view.DefaultTheme,
	}
	if view.ValidTheme(opts.Theme) {
		a.theme = opts.Theme
	}
	if a.alert == nil {
		a.alert = func(msg string) { logger.Info("[App] alert", logger.String("message", msg)) }
	}
	prober := opts.Prober
	if opts.Poster == nil {
		prober = nil
	}
	a.durations = player.NewDurationCache(prober, opts.Poster, opts.Source)
	a.engine = player.NewEngine(player.Options{
		Factory:   opts.Factory,
		Frames:    opts.Frames,
		Albums:    a.catalog,
		Source:    opts.Source,
		Durations: a.durations,
		OnChange:  a.render,
	})
	return a
}

func (a *App) Catalog() *catalog.Store { return a.catalog }

func (a *App) Engine() *player.Engine { return a.engine }

func (a *App) Durations() *player.DurationCache { return a.durations }

func (a *App) Route() router.Route { return a.route }

// Location is the current history entry.
func (a *App) Location() string { return a.history.Current() }

func (a *App) IsAdmin() bool { return a.isAdmin }

// Page is the last rendered page.
func (a *App) Page() *view.Node { return a.page }

// Start loads the catalog and the admin flag, then routes to path.
func (a *App) Start(ctx context.Context, path string) error {
	a.ctx = ctx
	if err := a.catalog.Load(ctx); err != nil {
		return err
	}
	a.refreshAdmin(ctx)
	a.history.Replace(path)
	a.resolve(ctx)
	return nil
}

func (a *App) refreshAdmin(ctx context.Context) {
	ok, err := a.api.IsAdmin(ctx)
	if err != nil {
		logger.Warn("[App] admin check failed", logger.ErrorField(err))
		ok = false
	}
	a.isAdmin = ok
}

// Navigate pushes path and renders it without reloading anything.
func (a *App) Navigate(ctx context.Context, path string) {
	a.history.Push(path)
	a.resolve(ctx)
}

// Back goes one entry back in history, if there is one.
func (a *App) Back(ctx context.Context) bool {
	if !a.history.Back() {
		return false
	}
	a.resolve(ctx)
	return true
}

// Forward goes one entry forward in history, if there is one.
func (a *App) Forward(ctx context.Context) bool {
	if !a.history.Forward() {
		return false
	}
	a.resolve(ctx)
	return true
}

// resolve routes the current location. The upload page re-checks the admin
// flag with the server on every visit.
func (a *App) resolve(ctx context.Context) {
	r := router.Resolve(a.history.Current())
	if r.RequiresAdmin() {
		a.refreshAdmin(ctx)
		if !a.isAdmin {
			a.alert(MsgAdminOnly)
			a.history.Replace("/")
			r = router.Resolve("/")
		}
	}

	a.results = nil
	if r.Kind == router.Home && r.Query != "" {
		results, err := a.catalog.Search(ctx, r.Query)
		if err != nil {
			// the loaded catalog still answers, just not with the server's view
			a.alert("Search failed: " + err.Error())
			results = a.catalog.Filter(r.Query)
		}
		a.results = results
	}
	a.route = r

	if r.Kind == router.Song {
		if t := a.catalog.FindSong(r.Artist, r.Song); t != nil {
			a.engine.EnterSong(t)
		} else {
			a.engine.LeaveSong()
		}
	} else {
		a.engine.LeaveSong()
	}
	a.render()
}

func (a *App) state() view.State {
	return view.State{
		Route:         a.route,
		Catalog:       a.catalog,
		Playback:      a.engine,
		Durations:     a.durations,
		IsAdmin:       a.isAdmin,
		Theme:         a.theme,
		SearchResults: a.results,
	}
}

func (a *App) render() {
	a.page = view.Render(a.state())
	if a.route.Kind == router.Album {
		for _, t := range a.catalog.ByAlbum(a.route.Album) {
			a.durations.Request(a.ctx, t, a.render)
		}
	}
	if a.onRender != nil {
		a.onRender(a.page)
	}
}

// Dispatch runs a click or range-input action.
func (a *App) Dispatch(ctx context.Context, act view.Action) {
	e := a.engine
	switch act.Kind {
	case view.ActNavigate:
		a.Navigate(ctx, act.Path)
	case view.ActLogout:
		a.Logout(ctx)
	case view.ActDelete:
		a.Delete(ctx, act.Artist, act.Song)
	case view.ActPlayAlbum:
		e.PlayAlbumTracks(act.Album)
	case view.ActPlayAlbumTrack:
		e.PlayAlbumTrack(act.Album, act.Index)
	case view.ActTogglePlay:
		e.TogglePlayPause()
	case view.ActNext:
		e.Next()
	case view.ActPrev:
		e.Prev()
	case view.ActCycleLoop:
		e.CycleLoopMode()
	case view.ActSeek:
		e.Seek(act.Value)
	case view.ActVolume:
		e.SetVolume(act.Value)
	case view.ActToggleVolume:
		e.ToggleVolume()
	case view.ActHoverVolume:
		e.HoverVolume(act.Value != 0)
	case view.ActDismissCover:
		e.DismissCover()
	case view.ActSongToggle:
		e.SongTogglePlayPause()
	case view.ActSongLoop:
		e.SongToggleLoop()
	case view.ActSongSeek:
		e.SongSeek(act.Value)
	case view.ActSongVolume:
		e.SongSetVolume(act.Value)
	case view.ActSongToggleVolume:
		e.SongToggleVolume()
	case view.ActSongHoverVolume:
		e.SongHoverVolume(act.Value != 0)
	default:
		logger.Warn("[App] unhandled action", logger.String("kind", string(act.Kind)))
	}
}

// Submit runs a form action with the form's values.
func (a *App) Submit(ctx context.Context, act view.Action, form url.Values) {
	switch act.Kind {
	case view.ActSearch:
		a.Search(ctx, form.Get("q"))
	case view.ActLogin:
		a.Login(ctx, form.Get("username"), form.Get("password"))
	case view.ActUpload:
		a.Upload(ctx, form)
	case view.ActTheme:
		a.SetTheme(form.Get("theme"))
	default:
		a.Dispatch(ctx, act)
	}
}

// Theme returns the active theme.
func (a *App) Theme() string {
	return a.theme
}

// SetTheme switches the page theme and hands the choice to OnTheme so it
// outlives the app. Unknown names are ignored.
func (a *App) SetTheme(name string) {
	if !view.ValidTheme(name) || name == a.theme {
		return
	}
	a.theme = name
	if a.onTheme != nil {
		a.onTheme(name)
	}
	if a.page != nil {
		a.render()
	}
}

// Search shows the server's matches for q on the home page.
func (a *App) Search(ctx context.Context, q string) {
	q = strings.TrimSpace(q)
	if q == "" {
		a.Navigate(ctx, "/")
		return
	}
	a.Navigate(ctx, "/?q="+url.QueryEscape(q))
}

// Login starts an admin session and goes home.
func (a *App) Login(ctx context.Context, username, password string) {
	if err := a.api.Login(ctx, username, password); err != nil {
		logger.Info("[Auth] login rejected", logger.ErrorField(err))
		a.alert(MsgLoginFailed)
		return
	}
	a.alert(MsgLoggedIn)
	a.refreshAdmin(ctx)
	a.Navigate(ctx, "/")
}

// Logout ends the admin session and goes home.
func (a *App) Logout(ctx context.Context) {
	if err := a.api.Logout(ctx); err != nil {
		logger.Warn("[Auth] logout failed", logger.ErrorField(err))
	}
	a.alert(MsgLoggedOut)
	a.refreshAdmin(ctx)
	a.Navigate(ctx, "/")
}

// Upload creates a track from the upload form. On success the server's copy
// goes to the front of the catalog and the app goes home; on failure nothing
// changes.
func (a *App) Upload(ctx context.Context, form url.Values) {
	t, err := trackFromForm(form)
	if err != nil {
		a.alert(err.Error())
		return
	}
	created, err := a.api.CreateTrack(ctx, t)
	if err != nil {
		a.alert("Upload failed: " + err.Error())
		return
	}
	a.catalog.Prepend(created)
	a.Navigate(ctx, "/")
}

func trackFromForm(form url.Values) (*model.Track, error) {
	get := func(k string) string { return strings.TrimSpace(form.Get(k)) }
	t := &model.Track{
		Title:     get("title"),
		Artist:    get("artist"),
		Album:     get("album"),
		Cover:     get("cover"),
		File:      get("file"),
		IsNew:     checked(form, "isNew"),
		IsPopular: checked(form, "isPopular"),
		IsClean:   checked(form, "isClean"),
	}
	if t.Title == "" || t.Artist == "" || t.File == "" {
		return nil, errors.New(MsgUploadMissing)
	}
	if t.Cover == "" {
		t.Cover = DefaultCover
	}
	n, err := model.ParseAlbumNumber(get("albumNumber"))
	if err != nil {
		return nil, errors.New(MsgBadNumber)
	}
	t.AlbumNumber = n
	return t, nil
}

func checked(form url.Values, name string) bool {
	v := form.Get(name)
	return v != "" && v != "false" && v != "off"
}

// Delete removes a track on the server, then from the catalog, and moves to
// the artist page while the artist still has tracks.
func (a *App) Delete(ctx context.Context, artistSlug, songSlug string) {
	if err := a.api.DeleteTrack(ctx, artistSlug, songSlug); err != nil {
		var se *api.StatusError
		if errors.As(err, &se) {
			a.alert("Delete failed: " + se.Error())
		} else {
			a.alert("Delete error: " + err.Error())
		}
		return
	}
	a.catalog.RemoveByIdentity(slug.Identity{Artist: artistSlug, Title: songSlug})
	if a.catalog.HasArtist(artistSlug) {
		a.Navigate(ctx, router.ArtistPath(artistSlug))
	} else {
		a.Navigate(ctx, "/")
	}
}

// ApplyEvent folds a catalog event from the server into the local list.
func (a *App) ApplyEvent(ctx context.Context, ev api.Event) {
	switch ev.Type {
	case "track.created":
		if ev.Track == nil {
			return
		}
		id := ev.Track.Identity()
		if a.catalog.FindSong(id.Artist, id.Title) != nil {
			return
		}
		a.catalog.Prepend(ev.Track)
	case "track.deleted":
		if ev.Track == nil || !a.catalog.RemoveByIdentity(ev.Track.Identity()) {
			return
		}
	case "catalog.reloaded":
		if err := a.catalog.Load(ctx); err != nil {
			logger.Warn("[App] catalog reload failed", logger.ErrorField(err))
			return
		}
	default:
		return
	}
	a.render()
}

// Watch subscribes to catalog events and applies each one on the loop. It
// returns when ctx ends or the stream closes.
func (a *App) Watch(ctx context.Context, sub Subscriber, loop eventloop.Poster) error {
	return sub.Subscribe(ctx, func(ev api.Event) {
		loop.Post(func() { a.ApplyEvent(ctx, ev) })
	})
}
