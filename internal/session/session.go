// Package session owns the bearer token and the cached identity of the
// signed-in user. The session is created on login, attached to every
// authenticated request, and destroyed on logout or on any authorization
// failure reported by the backend. It is persisted to disk so it survives
// restarts, the same way the original web client kept it in local storage.
package session

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"artmarket/internal/models"
	"artmarket/internal/pkg/logger"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
)

// Session holds the current authentication state. All methods are safe for
// concurrent use; the session is the single writer of its own state.
type Session struct {
	mu    sync.Mutex
	token string
	user  *models.User
	path  string
	log   *logger.Logger
}

// persisted is the on-disk shape of a session.
type persisted struct {
	Token string       `json:"token"`
	User  *models.User `json:"user,omitempty"`
}

// New creates a session manager that persists to the given file path.
func New(path string, l *logger.Logger) *Session {
	return &Session{path: path, log: l}
}

// Load restores a previously persisted session, if any. A missing file is
// not an error; it simply means nobody is signed in.
func (s *Session) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	var p persisted
	if err := json.Unmarshal(data, &p); err != nil {
		// A corrupt session file is treated as no session at all.
		s.log.Warn("discarding unreadable session file", zap.String("path", s.path), zap.Error(err))
		return nil
	}

	s.token = p.Token
	s.user = p.User
	return nil
}

// Establish stores a freshly acquired token and user and persists them.
// Only the login flow calls this.
func (s *Session) Establish(token string, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = token
	s.user = user
	return s.persistLocked()
}

// SetUser refreshes the cached profile without touching the token.
func (s *Session) SetUser(user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.user = user
	if s.token == "" {
		return nil
	}
	return s.persistLocked()
}

// Clear drops the token, the cached user and the persisted file. It is
// idempotent: clearing an empty session is a no-op.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = ""
	s.user = nil
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.log.Warn("failed to remove session file", zap.String("path", s.path), zap.Error(err))
	}
}

// Token returns the current bearer token, or the empty string when nobody
// is signed in.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// CurrentUser returns the cached profile of the signed-in user, or nil.
func (s *Session) CurrentUser() *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// IsAuthenticated reports whether a usable token is present. A JWT-shaped
// token whose exp claim is already in the past counts as absent, so the
// caller is sent to login without a doomed round trip. The check is
// best-effort: opaque tokens are assumed usable and left for the backend
// to judge.
func (s *Session) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token == "" {
		return false
	}
	return !tokenExpired(s.token)
}

// tokenExpired inspects a JWT-shaped token's registered claims without
// verifying the signature; verification is the backend's job.
func tokenExpired(token string) bool {
	claims := jwt.RegisteredClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return claims.ExpiresAt.Before(time.Now())
}

// persistLocked writes the session file; the caller holds the mutex.
func (s *Session) persistLocked() error {
	data, err := json.Marshal(persisted{Token: s.token, User: s.user})
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}
