/*
Package session owns the signed-in user's identity for the lifetime of a browser session.

The identity (access token, role, user id, username) is kept in one signed cookie. It is
resolved once per request by Middleware and handed to handlers through the request
context, never read ad hoc from cookies.
*/
package session

import (
	"errors"
	"net/http"
	"time"

	"campusportal/internal/app/user"
	"campusportal/internal/pkg/auth/jwt"
)

// CookieName is the name of the signed session cookie.
const CookieName = "campus_session"

// ErrNoSession is returned by Load when the request carries no usable session.
var ErrNoSession = errors.New("no session")

// Store reads, writes and clears the session identity.
type Store interface {
	Load(r *http.Request) (user.Identity, error)
	Save(w http.ResponseWriter, identity user.Identity) error
	Clear(w http.ResponseWriter)
}

// CookieStore keeps the identity in an HS256-signed cookie.
type CookieStore struct {
	secret string
	secure bool
	now    func() time.Time
}

// NewCookieStore creates a CookieStore signing with secret. secure marks the cookie Secure
// (HTTPS only) and should be set outside development.
func NewCookieStore(secret string, secure bool) *CookieStore {
	return &CookieStore{secret: secret, secure: secure, now: time.Now}
}

// Load returns the identity stored in the request's session cookie.
func (s *CookieStore) Load(r *http.Request) (user.Identity, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return user.Identity{}, ErrNoSession
	}

	payload, err := jwt.ParseToken(cookie.Value, s.secret)
	if err != nil {
		return user.Identity{}, err
	}

	role, ok := user.ParseRole(payload.Role)
	if !ok || payload.AccessToken == "" {
		return user.Identity{}, ErrNoSession
	}

	return user.Identity{
		Token:    payload.AccessToken,
		Role:     role,
		UserID:   payload.UserID,
		Username: payload.Username,
	}, nil
}

// Save writes identity into a fresh session cookie. The cookie lives as long as the access
// token does, or jwt.SessionExpiration when the token's expiry is unknown.
func (s *CookieStore) Save(w http.ResponseWriter, identity user.Identity) error {
	lifetime := jwt.SessionExpiration
	if expiry, ok := jwt.AccessTokenExpiry(identity.Token); ok {
		if remaining := expiry.Sub(s.now()); remaining > 0 && remaining < lifetime {
			lifetime = remaining
		}
	}

	token, err := jwt.GenerateToken(&jwt.Payload{
		AccessToken: identity.Token,
		Role:        string(identity.Role),
		UserID:      identity.UserID,
		Username:    identity.Username,
	}, s.secret, lifetime)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(lifetime / time.Second),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear expires the session cookie.
func (s *CookieStore) Clear(w http.ResponseWriter) {
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
