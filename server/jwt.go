package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/corelabsai/driveagent/errors"
)

// issueToken signs a short-lived session JWT carrying the user's
// identity in the subject claim.
func (s *Server) issueToken(userID string) (string, error) {
	now := time.Now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
		"exp": now.Add(time.Duration(s.conf.JWTExpiryHours) * time.Hour).Unix(),
	})

	signed, err := token.SignedString([]byte(s.conf.JWTSecret))
	return signed, errors.Wrap(err, "failed to sign session token")
}

// parseToken validates the JWT and returns the user ID.
func (s *Server) parseToken(tokenStr string) (string, error) {
	token, err := jwt.Parse(tokenStr,
		func(*jwt.Token) (any, error) { return []byte(s.conf.JWTSecret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", errors.Wrapf(errors.ErrUnauthorized, "invalid session token: %v", err)
	}

	userID, err := token.Claims.GetSubject()
	if err != nil || userID == "" {
		return "", errors.Wrap(errors.ErrUnauthorized, "session token has no subject")
	}

	return userID, nil
}

// authenticated wraps a handler with bearer-token authentication and
// hands it the resolved user ID.
func (s *Server) authenticated(next func(w http.ResponseWriter, r *http.Request, userID string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			http.Error(w, "missing Authorization header", http.StatusUnauthorized)
			return
		}

		tokenStr, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			http.Error(w, "Authorization header must be a bearer token", http.StatusUnauthorized)
			return
		}

		userID, err := s.parseToken(tokenStr)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}

		next(w, r, userID)
	}
}
