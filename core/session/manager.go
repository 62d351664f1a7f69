package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// CookieName is the cookie carrying the signed session id.
const CookieName = "trackshelf.sid"

var (
	// ErrInvalidToken is returned when the cookie signature or claims do not check out.
	ErrInvalidToken = errors.New("invalid session token")
)

type claims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Manager issues and resolves session cookies. The cookie holds only a
// signed session id; the admin flag lives in the Store.
type Manager struct {
	store  Store
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// NewManager creates a Manager. A zero ttl falls back to 24 hours.
func NewManager(store Store, secret string, ttl time.Duration, secure bool) *Manager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{
		store:  store,
		secret: []byte(secret),
		ttl:    ttl,
		secure: secure,
		now:    time.Now,
	}
}

func (m *Manager) sign(id string) (string, error) {
	now := m.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		SessionID: id,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	})
	return token.SignedString(m.secret)
}

func (m *Manager) parse(raw string) (string, error) {
	parsed, err := jwt.ParseWithClaims(raw, &claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	c, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid || c.SessionID == "" {
		return "", ErrInvalidToken
	}
	return c.SessionID, nil
}

// sessionID extracts and verifies the session id carried by the request.
func (m *Manager) sessionID(r *http.Request) (string, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return "", ErrNoSession
	}
	return m.parse(cookie.Value)
}

// Load returns the session attached to the request.
func (m *Manager) Load(r *http.Request) (*Data, error) {
	id, err := m.sessionID(r)
	if err != nil {
		return nil, err
	}
	return m.store.Get(r.Context(), id)
}

// IsAdmin reports whether the request carries a live admin session.
// Any lookup failure counts as not admin.
func (m *Manager) IsAdmin(r *http.Request) bool {
	data, err := m.Load(r)
	if err != nil {
		return false
	}
	return data.IsAdmin
}

// GrantAdmin starts a fresh admin session and sets its cookie. Any previous
// session on the request is discarded so ids are never reused across logins.
func (m *Manager) GrantAdmin(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	if old, err := m.sessionID(r); err == nil {
		_ = m.store.Delete(ctx, old)
	}

	id := uuid.NewString()
	data := &Data{IsAdmin: true, CreatedAt: m.now().UTC()}
	if err := m.store.Set(ctx, id, data, m.ttl); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	token, err := m.sign(id)
	if err != nil {
		return fmt.Errorf("failed to sign session: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl / time.Second),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Destroy removes the request's session, if any, and clears the cookie.
func (m *Manager) Destroy(w http.ResponseWriter, r *http.Request) error {
	var err error
	if id, idErr := m.sessionID(r); idErr == nil {
		err = m.store.Delete(r.Context(), id)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return err
}

// Store exposes the underlying store, mostly for health checks.
func (m *Manager) Store() Store {
	return m.store
}

// Pinger is satisfied by stores that can report their own health.
type Pinger interface {
	Check(ctx context.Context) error
}
