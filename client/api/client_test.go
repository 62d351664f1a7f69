package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"Trackshelf/model"

	"github.com/gorilla/websocket"
)

// fakeServer mimics the catalog API closely enough for the client.
func fakeServer(t *testing.T) *httptest.Server {
	t.Helper()
	tracks := []*model.Track{
		{Title: "Take Me Away", Artist: "Xaev"},
		{Title: "Nightfall", Artist: "Luna Park"},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/tracks", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			q := strings.ToLower(r.URL.Query().Get("q"))
			var out []*model.Track
			for _, tr := range tracks {
				if q == "" || strings.Contains(strings.ToLower(tr.Title), q) {
					out = append(out, tr)
				}
			}
			json.NewEncoder(w).Encode(out)
		case http.MethodPost:
			if c, err := r.Cookie("sid"); err != nil || c.Value != "admin" {
				w.WriteHeader(http.StatusForbidden)
				json.NewEncoder(w).Encode(map[string]string{"error": "Access denied. Admins only."})
				return
			}
			var tr model.Track
			json.NewDecoder(r.Body).Decode(&tr)
			tr.CreatedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
			json.NewEncoder(w).Encode(map[string]*model.Track{"track": &tr})
		}
	})
	mux.HandleFunc("/api/tracks/xaev/take-me-away", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/api/tracks/nobody/nothing", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Track not found", http.StatusNotFound)
	})
	mux.HandleFunc("/api/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "pw" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "message": "Invalid credentials"})
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "sid", Value: "admin", Path: "/"})
		json.NewEncoder(w).Encode(map[string]bool{"success": true})
	})
	mux.HandleFunc("/api/is-admin", func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie("sid")
		json.NewEncoder(w).Encode(map[string]bool{"isAdmin": err == nil && c.Value == "admin"})
	})
	mux.HandleFunc("/api/events", func(w http.ResponseWriter, r *http.Request) {
		up := websocket.Upgrader{}
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.WriteJSON(Event{Type: "track.created", Track: &model.Track{Title: "Live"}})
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestListAndSearch(t *testing.T) {
	srv := fakeServer(t)
	c, err := New(srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	all, err := c.ListTracks(ctx)
	if err != nil || len(all) != 2 {
		t.Fatalf("ListTracks = %d, %v", len(all), err)
	}
	found, err := c.Search(ctx, "night fall")
	if err != nil {
		t.Fatal(err)
	}
	if len(found) != 0 {
		t.Errorf("Search with space = %d results, want 0", len(found))
	}
	found, _ = c.Search(ctx, "NIGHT")
	if len(found) != 1 || found[0].Title != "Nightfall" {
		t.Errorf("Search = %+v", found)
	}
}

func TestLoginKeepsSessionCookie(t *testing.T) {
	srv := fakeServer(t)
	c, _ := New(srv.URL)
	ctx := context.Background()

	if err := c.Login(ctx, "admin", "bad"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("bad login err = %v, want ErrUnauthorized", err)
	} else if err.Error() != "Invalid credentials" {
		t.Errorf("message = %q", err.Error())
	}

	if _, err := c.CreateTrack(ctx, &model.Track{Title: "X", Artist: "Y"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("create before login err = %v, want ErrForbidden", err)
	}

	if err := c.Login(ctx, "admin", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	admin, err := c.IsAdmin(ctx)
	if err != nil || !admin {
		t.Fatalf("IsAdmin = %v, %v", admin, err)
	}
	created, err := c.CreateTrack(ctx, &model.Track{Title: "X", Artist: "Y"})
	if err != nil {
		t.Fatalf("CreateTrack: %v", err)
	}
	if created.CreatedAt.IsZero() {
		t.Error("server timestamp not decoded")
	}
}

func TestDeleteTrackErrors(t *testing.T) {
	srv := fakeServer(t)
	c, _ := New(srv.URL)
	ctx := context.Background()

	if err := c.DeleteTrack(ctx, "xaev", "take-me-away"); err != nil {
		t.Errorf("DeleteTrack: %v", err)
	}
	err := c.DeleteTrack(ctx, "nobody", "nothing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if err.Error() != "Track not found" {
		t.Errorf("message = %q, want plain-text body", err.Error())
	}
}

func TestSubscribe(t *testing.T) {
	srv := fakeServer(t)
	c, _ := New(srv.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var got []Event
	if err := c.Subscribe(ctx, func(ev Event) { got = append(got, ev) }); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if len(got) != 1 || got[0].Type != "track.created" || got[0].Track.Title != "Live" {
		t.Errorf("events = %+v", got)
	}
}

func TestURL(t *testing.T) {
	c, _ := New("http://localhost:3000/")
	if got := c.URL("/audio/a.mp3"); got != "http://localhost:3000/audio/a.mp3" {
		t.Errorf("URL = %q", got)
	}
}
