package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"Trackshelf/config"
	"Trackshelf/core/auth"
	"Trackshelf/core/session"
	"Trackshelf/model"
	"Trackshelf/repository"
	"Trackshelf/storage"

	"github.com/gorilla/websocket"
)

const testPassword = "correct horse"

type testEnv struct {
	srv    *httptest.Server
	client *http.Client
	repo   *repository.JSONTrackRepository
	events *EventHub
}

func newTestEnv(t *testing.T, seed []*model.Track) *testEnv {
	t.Helper()
	dir := t.TempDir()

	dataFile := filepath.Join(dir, "tracks.json")
	if seed != nil {
		data, _ := json.Marshal(seed)
		if err := os.WriteFile(dataFile, data, 0644); err != nil {
			t.Fatal(err)
		}
	}
	repo, err := repository.NewJSONTrackRepository(dataFile)
	if err != nil {
		t.Fatal(err)
	}
	audioStore, err := storage.NewLocalStore(filepath.Join(dir, "audio"))
	if err != nil {
		t.Fatal(err)
	}
	publicDir := filepath.Join(dir, "public")
	os.MkdirAll(publicDir, 0755)
	os.WriteFile(filepath.Join(publicDir, "index.html"), []byte("<html>app</html>"), 0644)

	admin, err := auth.NewAdminCredential("admin", testPassword)
	if err != nil {
		t.Fatal(err)
	}
	sessions := session.NewManager(session.NewMemoryStore(), "test-secret", time.Hour, false)
	events := NewEventHub(nil)
	go events.Run()
	t.Cleanup(events.Stop)

	h := NewAPIHandler(repo, audioStore, sessions, admin, events, &config.Config{})
	srv := httptest.NewServer(NewRouter(h, NewMetrics(), publicDir))
	t.Cleanup(srv.Close)

	jar, _ := cookiejar.New(nil)
	return &testEnv{
		srv:    srv,
		client: &http.Client{Jar: jar},
		repo:   repo,
		events: events,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, r)
	if err != nil {
		t.Fatal(err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := e.client.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (e *testEnv) login(t *testing.T) {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/login", LoginRequest{Username: "admin", Password: testPassword})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d", resp.StatusCode)
	}
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func seedTracks() []*model.Track {
	return []*model.Track{
		{Title: "Take Me Away", Artist: "Xaev", Album: "To The Core (153bpm)", File: "/audio/a.mp3"},
		{Title: "Nightfall", Artist: "Luna Park", Album: "Dusk", File: "/audio/b.mp3"},
	}
}

func TestAuthFlow(t *testing.T) {
	env := newTestEnv(t, nil)

	var status map[string]bool
	decode(t, env.do(t, http.MethodGet, "/api/is-admin", nil), &status)
	if status["isAdmin"] {
		t.Fatal("fresh client should not be admin")
	}

	resp := env.do(t, http.MethodPost, "/api/login", LoginRequest{Username: "admin", Password: "wrong"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad login status = %d, want 401", resp.StatusCode)
	}
	var failed loginResponse
	decode(t, resp, &failed)
	if failed.Success || failed.Message != "Invalid credentials" {
		t.Errorf("bad login body = %+v", failed)
	}

	env.login(t)
	decode(t, env.do(t, http.MethodGet, "/api/is-admin", nil), &status)
	if !status["isAdmin"] {
		t.Fatal("should be admin after login")
	}

	var out loginResponse
	decode(t, env.do(t, http.MethodPost, "/api/logout", nil), &out)
	if !out.Success {
		t.Error("logout should report success")
	}
	decode(t, env.do(t, http.MethodGet, "/api/is-admin", nil), &status)
	if status["isAdmin"] {
		t.Error("should not be admin after logout")
	}
}

func TestLoginAcceptsForm(t *testing.T) {
	env := newTestEnv(t, nil)
	resp, err := env.client.PostForm(env.srv.URL+"/api/login", map[string][]string{
		"username": {"admin"},
		"password": {testPassword},
	})
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestAdminRoutesForbidden(t *testing.T) {
	env := newTestEnv(t, seedTracks())

	tests := []struct {
		method, path string
		body         interface{}
	}{
		{http.MethodPost, "/api/tracks", model.Track{Title: "X", Artist: "Y"}},
		{http.MethodDelete, "/api/tracks/xaev/take-me-away", nil},
		{http.MethodPost, "/api/upload-song", nil},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			resp := env.do(t, tt.method, tt.path, tt.body)
			if resp.StatusCode != http.StatusForbidden {
				t.Fatalf("status = %d, want 403", resp.StatusCode)
			}
			var body errorResponse
			decode(t, resp, &body)
			if body.Error == "" {
				t.Error("403 body should carry an error message")
			}
		})
	}
	if env.repo.Count() != 2 {
		t.Errorf("Count = %d, forbidden requests must not mutate", env.repo.Count())
	}
}

func TestGetTracksQuery(t *testing.T) {
	env := newTestEnv(t, seedTracks())

	var all []model.Track
	decode(t, env.do(t, http.MethodGet, "/api/tracks", nil), &all)
	if len(all) != 2 {
		t.Fatalf("len = %d, want 2", len(all))
	}

	var filtered []model.Track
	decode(t, env.do(t, http.MethodGet, "/api/tracks?q=LUNA", nil), &filtered)
	if len(filtered) != 1 || filtered[0].Title != "Nightfall" {
		t.Errorf("filtered = %+v", filtered)
	}
}

func TestUploadRoundTrip(t *testing.T) {
	env := newTestEnv(t, seedTracks())
	env.login(t)

	before := time.Now().Add(-time.Second)
	posted := map[string]interface{}{
		"title":       "Fresh Cut",
		"artist":      "New Act",
		"album":       "Debut",
		"isNew":       true,
		"albumNumber": "3",
		"createdAt":   "1999-01-01T00:00:00Z",
	}
	resp := env.do(t, http.MethodPost, "/api/tracks", posted)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var created trackResponse
	decode(t, resp, &created)
	if created.Track.CreatedAt.Before(before) {
		t.Errorf("createdAt = %v, want server time", created.Track.CreatedAt)
	}

	var all []model.Track
	decode(t, env.do(t, http.MethodGet, "/api/tracks", nil), &all)
	if len(all) != 3 || all[0].Title != "Fresh Cut" {
		t.Fatalf("new track should be first, got %+v", all[0])
	}
	if all[0].AlbumNumber == nil || *all[0].AlbumNumber != 3 {
		t.Errorf("albumNumber = %v, want 3", all[0].AlbumNumber)
	}

	dup := env.do(t, http.MethodPost, "/api/tracks", map[string]string{"title": "fresh cut", "artist": "NEW ACT"})
	if dup.StatusCode != http.StatusConflict {
		t.Errorf("duplicate status = %d, want 409", dup.StatusCode)
	}
}

func TestDeleteTrack(t *testing.T) {
	env := newTestEnv(t, seedTracks())
	env.login(t)

	resp := env.do(t, http.MethodDelete, "/api/tracks/xaev/take-me-away", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if env.repo.Count() != 1 {
		t.Fatalf("Count = %d, want 1", env.repo.Count())
	}

	resp = env.do(t, http.MethodDelete, "/api/tracks/xaev/take-me-away", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	if env.repo.Count() != 1 {
		t.Errorf("Count = %d after 404, store must be unchanged", env.repo.Count())
	}
}

func multipartUpload(t *testing.T, fields map[string]string, fileName, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	if fileName != "" {
		fw, err := mw.CreateFormFile("audioFile", fileName)
		if err != nil {
			t.Fatal(err)
		}
		fw.Write([]byte(content))
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestUploadSong(t *testing.T) {
	env := newTestEnv(t, nil)
	env.login(t)

	body, contentType := multipartUpload(t, map[string]string{
		"title":       "Take Me Away",
		"artist":      "Xaev",
		"album":       "To The Core (153bpm)",
		"category":    "isPopular",
		"releaseDate": "2023-06-01",
		"albumNumber": "2",
	}, "take-me-away.mp3", "ID3-fake-audio")

	resp, err := env.client.Post(env.srv.URL+"/api/upload-song", contentType, body)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d: %s", resp.StatusCode, msg)
	}
	var created trackResponse
	decode(t, resp, &created)

	track := created.Track
	if track.File != "/audio/take-me-away.mp3" {
		t.Errorf("file = %q", track.File)
	}
	if !track.IsPopular || track.IsNew || track.IsClean {
		t.Errorf("category flags = new:%v popular:%v clean:%v", track.IsNew, track.IsPopular, track.IsClean)
	}
	if want := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC); !track.CreatedAt.Equal(want) {
		t.Errorf("createdAt = %v, want %v", track.CreatedAt, want)
	}

	audio, err := env.client.Get(env.srv.URL + track.File)
	if err != nil {
		t.Fatal(err)
	}
	defer audio.Body.Close()
	data, _ := io.ReadAll(audio.Body)
	if audio.StatusCode != http.StatusOK || string(data) != "ID3-fake-audio" {
		t.Errorf("audio GET = %d %q", audio.StatusCode, data)
	}
	if ct := audio.Header.Get("Content-Type"); ct != "audio/mpeg" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestUploadSongMissingFields(t *testing.T) {
	env := newTestEnv(t, nil)
	env.login(t)

	tests := []struct {
		name   string
		fields map[string]string
		file   string
	}{
		{"no file", map[string]string{"title": "T", "artist": "A"}, ""},
		{"no title", map[string]string{"artist": "A"}, "a.mp3"},
		{"no artist", map[string]string{"title": "T"}, "a.mp3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, contentType := multipartUpload(t, tt.fields, tt.file, "x")
			resp, err := env.client.Post(env.srv.URL+"/api/upload-song", contentType, body)
			if err != nil {
				t.Fatal(err)
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
		})
	}
}

func TestClientRoutesServeIndex(t *testing.T) {
	env := newTestEnv(t, nil)

	for _, path := range []string{"/", "/xaev/take-me-away", "/album/dusk", "/upload"} {
		resp := env.do(t, http.MethodGet, path, nil)
		data, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK || !strings.Contains(string(data), "app") {
			t.Errorf("GET %s = %d %q, want index.html", path, resp.StatusCode, data)
		}
	}

	resp := env.do(t, http.MethodGet, "/api/nope", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown API path status = %d, want 404", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("unknown API path Content-Type = %q", ct)
	}
}

func TestEventsFeed(t *testing.T) {
	env := newTestEnv(t, nil)
	env.login(t)

	wsURL := "ws" + strings.TrimPrefix(env.srv.URL, "http") + "/api/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// registration happens asynchronously; publish until the event arrives
	done := make(chan Event, 1)
	go func() {
		var ev Event
		if err := conn.ReadJSON(&ev); err == nil {
			done <- ev
		}
	}()

	deadline := time.After(5 * time.Second)
	for {
		env.events.Publish(EventTrackCreated, &model.Track{Title: "Ping", Artist: "Probe"})
		select {
		case ev := <-done:
			if ev.Type != EventTrackCreated || ev.Track == nil || ev.Track.Title != "Ping" {
				t.Errorf("event = %+v", ev)
			}
			return
		case <-time.After(50 * time.Millisecond):
		case <-deadline:
			t.Fatal("no event received")
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)
	env.do(t, http.MethodGet, "/api/tracks", nil)

	resp := env.do(t, http.MethodGet, "/metrics", nil)
	data, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(data), `trackshelf_http_requests_total{method="GET",route="/api/tracks",status="200"}`) {
		t.Errorf("metrics missing request counter:\n%s", data)
	}
}

func TestParseReleaseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{in: ""},
		{in: "2024-02-29", want: time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)},
		{in: "2024-02-29T10:00:00+02:00", want: time.Date(2024, 2, 29, 8, 0, 0, 0, time.UTC)},
		{in: "yesterday", wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseReleaseDate(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseReleaseDate(%q) err = %v", tt.in, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("parseReleaseDate(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

// conflictingRepo accepts the identity pre-check but loses the insert.
type conflictingRepo struct {
	repository.TrackRepository
}

func (conflictingRepo) CreateTrack(*model.Track) (*model.Track, error) {
	return nil, repository.ErrDuplicateTrack
}

func TestUploadSongRemovesAudioWhenCreateFails(t *testing.T) {
	dir := t.TempDir()
	repo, err := repository.NewJSONTrackRepository(filepath.Join(dir, "tracks.json"))
	if err != nil {
		t.Fatal(err)
	}
	audioStore, err := storage.NewLocalStore(filepath.Join(dir, "audio"))
	if err != nil {
		t.Fatal(err)
	}
	h := NewAPIHandler(conflictingRepo{repo}, audioStore, nil, nil, nil, &config.Config{})

	body, contentType := multipartUpload(t, map[string]string{
		"title":  "Take Me Away",
		"artist": "Xaev",
	}, "take-me-away.mp3", "ID3-fake-audio")
	req := httptest.NewRequest(http.MethodPost, "/api/upload-song", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.UploadSongHandler(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	objects, err := audioStore.List(req.Context())
	if err != nil {
		t.Fatal(err)
	}
	if len(objects) != 0 {
		t.Errorf("stored objects = %v, want none", objects)
	}
}
