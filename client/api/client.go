// Package api is the HTTP client the headless app uses to talk to the
// catalog server. It keeps session cookies in a jar, like a browser would.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"Trackshelf/model"

	"github.com/gorilla/websocket"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)

// StatusError is a non-2xx answer from the server.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return http.StatusText(e.Code)
	}
	return e.Message
}

// Is maps status codes onto the package sentinels.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Code == http.StatusUnauthorized
	case ErrForbidden:
		return e.Code == http.StatusForbidden
	case ErrNotFound:
		return e.Code == http.StatusNotFound
	case ErrConflict:
		return e.Code == http.StatusConflict
	}
	return false
}

// Client talks to the catalog API.
type Client struct {
	base   *url.URL
	http   *http.Client
	dialer *websocket.Dialer
}

// New creates a client for the server at baseURL, e.g. http://localhost:3000.
func New(baseURL string) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid API base URL %q: %w", baseURL, err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Client{
		base: base,
		http: &http.Client{Jar: jar, Timeout: 30 * time.Second},
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
			Jar:              jar,
		},
	}, nil
}

// URL resolves a server path such as /audio/x.mp3 against the base URL.
func (c *Client) URL(path string) string {
	ref, err := url.Parse(path)
	if err != nil {
		return c.base.String() + path
	}
	return c.base.ResolveReference(ref).String()
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.URL(path), r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readStatusError(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s: %w", method, path, err)
	}
	return nil
}

// readStatusError extracts the server's message from a JSON {error} or
// {message} body, or falls back to the raw text.
func readStatusError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	msg := strings.TrimSpace(string(data))
	if json.Unmarshal(data, &body) == nil {
		switch {
		case body.Error != "":
			msg = body.Error
		case body.Message != "":
			msg = body.Message
		}
	}
	return &StatusError{Code: resp.StatusCode, Message: msg}
}

// ListTracks fetches the full catalog.
func (c *Client) ListTracks(ctx context.Context) ([]*model.Track, error) {
	var tracks []*model.Track
	if err := c.do(ctx, http.MethodGet, "/api/tracks", nil, &tracks); err != nil {
		return nil, err
	}
	return tracks, nil
}

// Search asks the server to filter by title or artist.
func (c *Client) Search(ctx context.Context, q string) ([]*model.Track, error) {
	var tracks []*model.Track
	path := "/api/tracks?q=" + url.QueryEscape(q)
	if err := c.do(ctx, http.MethodGet, path, nil, &tracks); err != nil {
		return nil, err
	}
	return tracks, nil
}

// CreateTrack posts a new track and returns it as stored by the server.
func (c *Client) CreateTrack(ctx context.Context, track *model.Track) (*model.Track, error) {
	var out struct {
		Track *model.Track `json:"track"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/tracks", track, &out); err != nil {
		return nil, err
	}
	if out.Track == nil {
		return nil, errors.New("server returned no track")
	}
	return out.Track, nil
}

// DeleteTrack removes a track by its identity slugs.
func (c *Client) DeleteTrack(ctx context.Context, artistSlug, songSlug string) error {
	path := "/api/tracks/" + url.PathEscape(artistSlug) + "/" + url.PathEscape(songSlug)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// Login starts an admin session.
func (c *Client) Login(ctx context.Context, username, password string) error {
	body := map[string]string{"username": username, "password": password}
	return c.do(ctx, http.MethodPost, "/api/login", body, nil)
}

// Logout ends the admin session.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/logout", nil, nil)
}

// IsAdmin asks the server whether the session is an admin session.
func (c *Client) IsAdmin(ctx context.Context) (bool, error) {
	var out struct {
		IsAdmin bool `json:"isAdmin"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/is-admin", nil, &out); err != nil {
		return false, err
	}
	return out.IsAdmin, nil
}
