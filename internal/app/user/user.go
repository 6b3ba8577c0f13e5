/*
Package user contains the session identity of a signed-in portal user.
*/
package user

import "strings"

// Role is the portal role a user signed in with.
type Role string

const (
	RoleStudent   Role = "student"
	RoleOrganizer Role = "organizer"
	RoleAdmin     Role = "admin"
)

// ParseRole normalizes s (case-insensitive) into a known Role.
func ParseRole(s string) (Role, bool) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleStudent, RoleOrganizer, RoleAdmin:
		return r, true
	default:
		return "", false
	}
}

// Identity is everything the portal knows about the signed-in user.
type Identity struct {
	// Token is the backend access token, sent as a bearer credential.
	Token string `json:"-"`

	Role Role `json:"role"`

	// UserID is the auth service's user id (a UUID string).
	UserID string `json:"user_id"`

	// Username is the login email; the booking service receives it as user_email.
	Username string `json:"username"`
}

// IsZero reports whether the identity is anonymous.
func (i Identity) IsZero() bool {
	return i.Token == ""
}

// CanManage reports whether the identity may edit, delete or analyse an event owned by organizerID.
func (i Identity) CanManage(organizerID string) bool {
	switch i.Role {
	case RoleAdmin:
		return true
	case RoleOrganizer:
		return i.UserID != "" && strings.EqualFold(strings.TrimSpace(organizerID), strings.TrimSpace(i.UserID))
	default:
		return false
	}
}
