package jwt

import "github.com/golang-jwt/jwt"

// Payload defines the claims of the portal's signed session cookie.
// It wraps the identity returned by the auth service so the browser cannot alter the role
// or user id it presents.
type Payload struct {
	// StandardClaims carries Exp, Iat and Iss for validity checks.
	jwt.StandardClaims `json:"standard_claims"`

	// AccessToken is the auth service's bearer token, forwarded on backend calls.
	AccessToken string `json:"access_token"`

	// Role is one of student, organizer or admin.
	Role string `json:"role"`

	// UserID is the auth service's user id.
	UserID string `json:"user_id"`

	// Username is the login email.
	Username string `json:"username"`
}
