// Package session keeps per-browser state for the web server.
//
// Session data lives in process memory only. The browser holds a cookie
// whose value is an HS256 JWT carrying the session id, so a forged or
// expired cookie never reaches the map.
package session

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"ganttview/internal/service"
)

const (
	// CookieName is the session cookie name.
	CookieName = "ganttview_session"

	// DefaultTTL is how long a session lives after its last save.
	DefaultTTL = 24 * time.Hour
)

// Data is the state held for one browser.
type Data struct {
	// User is set once the identity provider login completes.
	User *service.User

	// Basecamp holds the linked account's tokens.
	Basecamp service.Credentials

	// Accounts are the linked accounts for the configured product.
	Accounts []service.Account

	// State is the pending OAuth state value, if any.
	State string
}

// LoggedIn reports whether a user has logged in.
func (d Data) LoggedIn() bool {
	return d.User != nil
}

// HasBasecamp reports whether a Basecamp account is linked.
func (d Data) HasBasecamp() bool {
	return d.Basecamp.Valid()
}

type entry struct {
	data    Data
	expires time.Time
}

// Store is an in-memory session store.
type Store struct {
	mu       sync.Mutex
	sessions map[string]entry

	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithTTL sets the session lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// WithSecureCookie marks the cookie Secure.
func WithSecureCookie(secure bool) Option {
	return func(s *Store) { s.secure = secure }
}

// WithClock sets the time source (for testing).
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates a store that signs cookies with secret.
func NewStore(secret string, opts ...Option) *Store {
	s := &Store{
		sessions: make(map[string]entry),
		secret:   []byte(secret),
		ttl:      DefaultTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load returns the session for the request. ok is false when there is no
// valid cookie or the session has expired; id is "" in that case.
func (s *Store) Load(r *http.Request) (id string, data Data, ok bool) {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return "", Data{}, false
	}
	id, err = s.parse(c.Value)
	if err != nil {
		return "", Data{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, found := s.sessions[id]
	if !found {
		return "", Data{}, false
	}
	if s.now().After(e.expires) {
		delete(s.sessions, id)
		return "", Data{}, false
	}
	return id, e.data, true
}

// Save stores data under id, creating a new session when id is "", and
// writes a fresh cookie. It returns the session id.
func (s *Store) Save(w http.ResponseWriter, id string, data Data) (string, error) {
	if id == "" {
		id = uuid.New().String()
	}
	expires := s.now().Add(s.ttl)

	token, err := s.sign(id, expires)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.sessions[id] = entry{data: data, expires: expires}
	s.purgeLocked()
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return id, nil
}

// Destroy deletes the session and clears the cookie.
func (s *Store) Destroy(w http.ResponseWriter, id string) {
	if id != "" {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Store) purgeLocked() {
	now := s.now()
	for id, e := range s.sessions {
		if now.After(e.expires) {
			delete(s.sessions, id)
		}
	}
}

func (s *Store) sign(id string, expires time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		ID:        id,
		IssuedAt:  jwt.NewNumericDate(s.now()),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session: %w", err)
	}
	return signed, nil
}

func (s *Store) parse(value string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(value, &claims,
		func(t *jwt.Token) (interface{}, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", err
	}
	if claims.ID == "" {
		return "", errors.New("session token has no id")
	}
	return claims.ID, nil
}
