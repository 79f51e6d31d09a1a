// Package session holds the credentials of the signed-in user. A Store keeps
// an in-memory snapshot that is swapped whole on every mutation, persists it
// through a Backend, and notifies subscribers of each change.
package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// Errors returned by the store.
var (
	ErrPartialSession = errors.New("session: access token, refresh token and user id are all required")
	ErrNoSession      = errors.New("session: not authenticated")
)

// Session is the credential triple of the current user. The zero value is
// the anonymous session.
type Session struct {
	AccessToken  string
	RefreshToken string
	UserID       int
}

// Authenticated reports whether all three fields are present.
func (s Session) Authenticated() bool {
	return s.AccessToken != "" && s.RefreshToken != "" && s.UserID != 0
}

// Empty reports whether no field is present.
func (s Session) Empty() bool {
	return s.AccessToken == "" && s.RefreshToken == "" && s.UserID == 0
}

// Expiry returns the exp claim of the access token, or the zero time when the
// token is not a JWT or carries no exp. The signature is not verified; the
// backend remains the authority on validity.
func (s Session) Expiry() time.Time {
	if s.AccessToken == "" {
		return time.Time{}
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s.AccessToken, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

// Token converts the session to an oauth2 bearer token. It returns nil for
// a session that is not authenticated.
func (s Session) Token() *oauth2.Token {
	if !s.Authenticated() {
		return nil
	}
	return &oauth2.Token{
		AccessToken:  s.AccessToken,
		TokenType:    "Bearer",
		RefreshToken: s.RefreshToken,
		Expiry:       s.Expiry(),
	}
}

// Reason says why the session changed.
type Reason string

const (
	ReasonLogin    Reason = "login"
	ReasonRefresh  Reason = "refresh"
	ReasonLogout   Reason = "logout"
	ReasonExpired  Reason = "expired"
	ReasonExternal Reason = "external" // changed by another process sharing the backend
)

// Change is delivered to subscribers after every mutation.
type Change struct {
	Session Session
	Reason  Reason
}
