// Package auth implements the Google OAuth 2.0 lifecycle: building the
// consent URL, exchanging authorization codes, refreshing stored
// credentials, and revoking access.
package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/corelabsai/driveagent/config"
	"github.com/corelabsai/driveagent/errors"
	"github.com/corelabsai/driveagent/internal/mylog"
)

// Scopes requested during consent. Full drive and docs access plus
// enough identity to key storage by email.
var Scopes = []string{
	"https://www.googleapis.com/auth/drive",
	"https://www.googleapis.com/auth/documents",
	"openid",
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/userinfo.profile",
}

const (
	defaultUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	defaultRevokeURL   = "https://oauth2.googleapis.com/revoke"
)

type (
	// UserInfo is the authenticated user's basic profile. UserID doubles
	// as the storage key for tokens and memory.
	UserInfo struct {
		UserID string `json:"user_id"`
		Email  string `json:"email"`
		Name   string `json:"name"`
	}

	// OAuth manages the full OAuth 2.0 lifecycle for each user.
	OAuth struct {
		conf        *oauth2.Config
		store       *TokenStore
		logger      *mylog.Logger
		userInfoURL string
		revokeURL   string
	}
)

func NewOAuth(conf *config.OAuthConfig, logger *mylog.Logger) (*OAuth, error) {
	if conf.GoogleClientID == "" || conf.GoogleClientSecret == "" {
		return nil, errors.Wrap(errors.ErrInvalidConfig, "google oauth client credentials are not set")
	}

	store, err := NewTokenStore(conf.TokenDir, conf.EncryptionKey, logger)
	if err != nil {
		return nil, err
	}

	return &OAuth{
		conf: &oauth2.Config{
			ClientID:     conf.GoogleClientID,
			ClientSecret: conf.GoogleClientSecret,
			RedirectURL:  conf.GoogleRedirectURL,
			Scopes:       Scopes,
			Endpoint:     google.Endpoint,
		},
		store:       store,
		logger:      logger,
		userInfoURL: defaultUserInfoURL,
		revokeURL:   defaultRevokeURL,
	}, nil
}

// AuthorizationURL returns the consent URL and the state token carried
// through the redirect. A random state is generated when none is given.
func (o *OAuth) AuthorizationURL(state string) (string, string) {
	if state == "" {
		state = uuid.NewString()
	}

	authURL := o.conf.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
	return authURL, state
}

// HandleCallback exchanges the authorization code for tokens, fetches
// the user's profile, and persists the encrypted token bundle.
func (o *OAuth) HandleCallback(ctx context.Context, code string) (*UserInfo, error) {
	token, err := o.conf.Exchange(ctx, code)
	if err != nil {
		return nil, errors.Wrap(err, "failed to exchange authorization code")
	}

	info, err := o.fetchUserInfo(ctx, token)
	if err != nil {
		return nil, err
	}
	if info.Email == "" {
		return nil, errors.Wrap(errors.ErrUnauthorized, "google userinfo response has no email")
	}
	info.UserID = info.Email

	if err := o.store.Save(info.UserID, token); err != nil {
		return nil, err
	}

	o.logger.Info("authenticated user", "user", info.UserID)
	return info, nil
}

func (o *OAuth) fetchUserInfo(ctx context.Context, token *oauth2.Token) (*UserInfo, error) {
	resp, err := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token)).Get(o.userInfoURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch user info")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrapf(errors.ErrUnauthorized, "userinfo request returned %s", resp.Status)
	}

	var info UserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, errors.Wrap(errors.ErrDecode, "failed to decode user info")
	}
	return &info, nil
}

// TokenSource returns an auto-refreshing token source for userID.
// Refreshed tokens are transparently re-encrypted and persisted, so
// the on-disk bundle never goes stale.
func (o *OAuth) TokenSource(ctx context.Context, userID string) (oauth2.TokenSource, error) {
	token, err := o.store.Load(userID)
	if err != nil {
		return nil, err
	}

	return &persistingSource{
		userID: userID,
		src:    o.conf.TokenSource(ctx, token),
		store:  o.store,
		logger: o.logger,
		last:   token.AccessToken,
	}, nil
}

// Authenticated reports whether tokens are stored for userID.
func (o *OAuth) Authenticated(userID string) bool {
	return o.store.Exists(userID)
}

// Revoke invalidates the user's tokens with Google and deletes local
// storage. The revocation call is best-effort.
func (o *OAuth) Revoke(ctx context.Context, userID string) {
	if token, err := o.store.Load(userID); err == nil && token.AccessToken != "" {
		body := url.Values{"token": {token.AccessToken}}.Encode()
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.revokeURL, strings.NewReader(body))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			if resp, err := http.DefaultClient.Do(req); err != nil {
				o.logger.Warn("revocation call failed", "user", userID, "err", err)
			} else {
				resp.Body.Close()
			}
		}
	}

	o.store.Delete(userID)
	o.logger.Info("revoked credentials", "user", userID)
}

// persistingSource wraps an oauth2.TokenSource and writes refreshed
// tokens back to the store.
type persistingSource struct {
	userID string
	src    oauth2.TokenSource
	store  *TokenStore
	logger *mylog.Logger
	last   string
}

func (p *persistingSource) Token() (*oauth2.Token, error) {
	token, err := p.src.Token()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to refresh tokens for %s", p.userID)
	}

	if token.AccessToken != p.last {
		p.last = token.AccessToken
		if err := p.store.Save(p.userID, token); err != nil {
			p.logger.Warn("could not persist refreshed tokens", "user", p.userID, "err", err)
		} else {
			p.logger.Debug("refreshed credentials", "user", p.userID)
		}
	}

	return token, nil
}
