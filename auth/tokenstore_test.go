package auth

import (
	"crypto/rand"
	"encoding/base64"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/corelabsai/driveagent/errors"
	"github.com/corelabsai/driveagent/internal/mylog"
)

func testKey(t *testing.T) string {
	t.Helper()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return base64.URLEncoding.EncodeToString(key)
}

func testLogger() *mylog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) *TokenStore {
	t.Helper()
	store, err := NewTokenStore(t.TempDir(), testKey(t), testLogger())
	require.NoError(t, err)
	return store
}

func TestTokenStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)

	token := &oauth2.Token{
		AccessToken:  "ya29.access",
		RefreshToken: "1//refresh",
		TokenType:    "Bearer",
		Expiry:       time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.Save("alice@example.com", token))
	assert.True(t, store.Exists("alice@example.com"))

	loaded, err := store.Load("alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, token.AccessToken, loaded.AccessToken)
	assert.Equal(t, token.RefreshToken, loaded.RefreshToken)
	assert.True(t, token.Expiry.Equal(loaded.Expiry))
}

func TestTokenStoreMissingUser(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Load("nobody@example.com")
	assert.ErrorIs(t, err, errors.ErrNotFound)
	assert.False(t, store.Exists("nobody@example.com"))
	assert.False(t, store.Delete("nobody@example.com"))
}

func TestTokenStoreWrongKey(t *testing.T) {
	dir := t.TempDir()

	store, err := NewTokenStore(dir, testKey(t), testLogger())
	require.NoError(t, err)
	require.NoError(t, store.Save("alice@example.com", &oauth2.Token{AccessToken: "secret"}))

	other, err := NewTokenStore(dir, testKey(t), testLogger())
	require.NoError(t, err)

	_, err = other.Load("alice@example.com")
	assert.ErrorIs(t, err, errors.ErrDecode)
}

func TestTokenStoreInvalidKey(t *testing.T) {
	_, err := NewTokenStore(t.TempDir(), "not base64!!", testLogger())
	assert.ErrorIs(t, err, errors.ErrInvalidConfig)

	short := base64.URLEncoding.EncodeToString([]byte("too short"))
	_, err = NewTokenStore(t.TempDir(), short, testLogger())
	assert.ErrorIs(t, err, errors.ErrInvalidConfig)
}

func TestTokenStoreNoPlaintextAtRest(t *testing.T) {
	dir := t.TempDir()
	store, err := NewTokenStore(dir, testKey(t), testLogger())
	require.NoError(t, err)

	require.NoError(t, store.Save("alice@example.com", &oauth2.Token{
		AccessToken:  "very-secret-access-token",
		RefreshToken: "very-secret-refresh-token",
	}))

	raw, err := os.ReadFile(filepath.Join(dir, safeFilename("alice@example.com")))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "very-secret-access-token")
	assert.NotContains(t, string(raw), "very-secret-refresh-token")
}

func TestTokenStoreDelete(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save("alice@example.com", &oauth2.Token{AccessToken: "tok"}))
	assert.True(t, store.Delete("alice@example.com"))
	assert.False(t, store.Exists("alice@example.com"))
}

func TestSafeFilename(t *testing.T) {
	assert.Equal(t, "alice_at_example_dot_com.enc", safeFilename("alice@example.com"))
	assert.NotContains(t, safeFilename("../sneaky@evil.com"), string(filepath.Separator))
}
