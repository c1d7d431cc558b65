package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"artmarket/internal/models"
	"artmarket/internal/pkg/logger"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSession(t *testing.T) *Session {
	l, err := logger.CreateLogger("error")
	require.NoError(t, err)
	return New(filepath.Join(t.TempDir(), "session.json"), l)
}

func signedToken(t *testing.T, expiresAt time.Time) string {
	claims := jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(expiresAt)}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestLoadMissingFile(t *testing.T) {
	s := testSession(t)
	require.NoError(t, s.Load())
	assert.Empty(t, s.Token())
	assert.Nil(t, s.CurrentUser())
	assert.False(t, s.IsAuthenticated())
}

func TestEstablishAndReload(t *testing.T) {
	s := testSession(t)
	user := &models.User{ID: 1, Username: "vermeer"}
	token := signedToken(t, time.Now().Add(time.Hour))

	require.NoError(t, s.Establish(token, user))
	assert.True(t, s.IsAuthenticated())

	reloaded := New(s.path, s.log)
	require.NoError(t, reloaded.Load())
	assert.Equal(t, token, reloaded.Token())
	require.NotNil(t, reloaded.CurrentUser())
	assert.Equal(t, "vermeer", reloaded.CurrentUser().Username)
}

func TestClearIsIdempotent(t *testing.T) {
	s := testSession(t)
	require.NoError(t, s.Establish("token", &models.User{Username: "vermeer"}))

	s.Clear()
	assert.Empty(t, s.Token())
	assert.Nil(t, s.CurrentUser())
	_, err := os.Stat(s.path)
	assert.True(t, os.IsNotExist(err))

	// Clearing an already empty session must not fail or log errors.
	s.Clear()
	assert.Empty(t, s.Token())
}

func TestCorruptFileIsIgnored(t *testing.T) {
	s := testSession(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.path), 0o700))
	require.NoError(t, os.WriteFile(s.path, []byte("not json"), 0o600))

	require.NoError(t, s.Load())
	assert.Empty(t, s.Token())
	assert.False(t, s.IsAuthenticated())
}

func TestExpiredTokenIsNotAuthenticated(t *testing.T) {
	s := testSession(t)
	expired := signedToken(t, time.Now().Add(-time.Hour))
	require.NoError(t, s.Establish(expired, nil))

	assert.False(t, s.IsAuthenticated())
	// The token itself is still present; only its usability is judged.
	assert.Equal(t, expired, s.Token())
}

func TestOpaqueTokenIsAssumedUsable(t *testing.T) {
	s := testSession(t)
	require.NoError(t, s.Establish("opaque-token", nil))
	assert.True(t, s.IsAuthenticated())
}
