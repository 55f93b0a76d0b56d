package auth

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/oauth2"

	"github.com/corelabsai/driveagent/errors"
	"github.com/corelabsai/driveagent/internal/mylog"
)

const nonceLen = 24

// TokenStore persists per-user OAuth token bundles on disk. Tokens are
// never written in plaintext: each bundle is sealed with NaCl secretbox
// under a key sourced from configuration.
type TokenStore struct {
	dir    string
	key    [32]byte
	logger *mylog.Logger
}

// NewTokenStore decodes the base64 encryption key and prepares the
// token directory.
func NewTokenStore(dir, encryptionKey string, logger *mylog.Logger) (*TokenStore, error) {
	raw, err := base64.URLEncoding.DecodeString(encryptionKey)
	if err != nil {
		raw, err = base64.StdEncoding.DecodeString(encryptionKey)
	}
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidConfig, "encryption key is not valid base64: %v", err)
	}
	if len(raw) != 32 {
		return nil, errors.Wrapf(errors.ErrInvalidConfig, "encryption key must be 32 bytes, got %d", len(raw))
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Wrapf(err, "failed to create token dir %s", dir)
	}

	s := &TokenStore{dir: dir, logger: logger}
	copy(s.key[:], raw)

	logger.Info("token store initialised", "dir", dir)
	return s, nil
}

// safeFilename turns an email into a filesystem-safe name.
func safeFilename(userID string) string {
	r := strings.NewReplacer("@", "_at_", ".", "_dot_", string(filepath.Separator), "_")
	return r.Replace(userID) + ".enc"
}

func (s *TokenStore) path(userID string) string {
	return filepath.Join(s.dir, safeFilename(userID))
}

// Save encrypts and persists the token bundle for userID.
func (s *TokenStore) Save(userID string, token *oauth2.Token) error {
	payload, err := json.Marshal(token)
	if err != nil {
		return errors.Wrap(err, "failed to marshal token")
	}

	var nonce [nonceLen]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return errors.Wrap(err, "failed to generate nonce")
	}

	sealed := secretbox.Seal(nonce[:], payload, &nonce, &s.key)
	if err := os.WriteFile(s.path(userID), sealed, 0o600); err != nil {
		return errors.Wrapf(err, "failed to write tokens for %s", userID)
	}

	s.logger.Debug("tokens saved", "user", userID)
	return nil
}

// Load returns the decrypted token bundle, or errors.ErrNotFound when
// nothing is stored for userID.
func (s *TokenStore) Load(userID string) (*oauth2.Token, error) {
	sealed, err := os.ReadFile(s.path(userID))
	if os.IsNotExist(err) {
		return nil, errors.Wrapf(errors.ErrNotFound, "no tokens stored for %s", userID)
	} else if err != nil {
		return nil, errors.Wrapf(err, "failed to read tokens for %s", userID)
	}

	if len(sealed) < nonceLen {
		return nil, errors.Wrapf(errors.ErrDecode, "token file for %s is truncated", userID)
	}

	var nonce [nonceLen]byte
	copy(nonce[:], sealed[:nonceLen])

	payload, ok := secretbox.Open(nil, sealed[nonceLen:], &nonce, &s.key)
	if !ok {
		return nil, errors.Wrapf(errors.ErrDecode, "cannot decrypt tokens for %s", userID)
	}

	var token oauth2.Token
	if err := json.Unmarshal(payload, &token); err != nil {
		return nil, errors.Wrapf(errors.ErrDecode, "corrupt token bundle for %s: %v", userID, err)
	}

	return &token, nil
}

// Delete removes stored tokens. Returns true if a file was deleted.
func (s *TokenStore) Delete(userID string) bool {
	if err := os.Remove(s.path(userID)); err != nil {
		return false
	}
	s.logger.Info("tokens deleted", "user", userID)
	return true
}

// Exists reports whether tokens are stored for userID.
func (s *TokenStore) Exists(userID string) bool {
	_, err := os.Stat(s.path(userID))
	return err == nil
}
