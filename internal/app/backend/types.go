package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ID is an identifier issued by a backend service. Services disagree on whether ids are
// JSON strings (UUIDs) or numbers, so both decode into the same string form.
type ID string

// UnmarshalJSON accepts a JSON string, number or null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*id = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(strings.TrimSpace(s))
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("id must be a string or number: %w", err)
		}
		*id = ID(n.String())
	}
	return nil
}

// timestampLayouts are the formats the events service has been seen to emit.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// WireLayout is the naive local date-time format sent to the events service.
const WireLayout = "2006-01-02T15:04:05"

// Timestamp is a leniently parsed backend date-time. Missing or unparsable values are the
// zero Timestamp.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON parses any of timestampLayouts; null, "" and unknown formats yield zero.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	t.Time = time.Time{}

	var s string
	if err := json.Unmarshal(data, &s); err != nil || s == "" {
		return nil
	}

	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return nil
}

// MarshalJSON writes RFC 3339 or null for the zero value.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339))
}

// Event is one entry of the events roster.
type Event struct {
	ID          ID        `json:"event_id"`
	Name        string    `json:"event_name"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	StartTime   Timestamp `json:"start_time"`
	EndTime     Timestamp `json:"end_time"`
	TotalSeats  int       `json:"total_seats"`
	OrganizerID ID        `json:"organizer_id,omitempty"`
}

// NewEvent is the payload for creating an event.
type NewEvent struct {
	Name        string  `json:"event_name"`
	Description *string `json:"description"`
	StartTime   string  `json:"start_time"`
	EndTime     string  `json:"end_time"`
	OrganizerID string  `json:"organizer_id"`
	Location    *string `json:"location"`
	TotalSeats  int     `json:"total_seats"`
}

// EventUpdate is the payload for editing an event.
type EventUpdate struct {
	Name       string  `json:"event_name"`
	StartTime  string  `json:"start_time"`
	EndTime    string  `json:"end_time"`
	Location   *string `json:"location"`
	TotalSeats int     `json:"total_seats"`
}

// BookRequest is the payload of POST /book. The booking service reads the event name
// from the key "event_Name".
type BookRequest struct {
	EventID   ID     `json:"event_id"`
	UserID    string `json:"user_id"`
	UserEmail string `json:"user_email"`
	EventName string `json:"event_Name"`
}

// Registrant is one row of the paginated registrant list.
type Registrant struct {
	BookingID ID        `json:"booking_id"`
	EventID   ID        `json:"event_id"`
	UserID    ID        `json:"user_id"`
	BookedAt  Timestamp `json:"booking_time"`
	EventName string    `json:"event_name"`
	UserEmail string    `json:"user_email"`

	// Status is a BookingStatus, or "unknown" when the service sent something else.
	Status string `json:"status"`
}

// UnmarshalJSON decodes a registrant row, normalizing its status for display.
func (r *Registrant) UnmarshalJSON(data []byte) error {
	type plain Registrant
	var raw plain
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if status, err := ParseBookingStatus(raw.Status); err == nil {
		raw.Status = string(status)
	} else {
		raw.Status = StatusUnknownLabel
	}

	*r = Registrant(raw)
	return nil
}

// User is an account as listed by the auth service.
type User struct {
	ID        ID        `json:"user_id"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Role      string    `json:"role"`
	CreatedAt Timestamp `json:"created_at"`
}

// LoginRequest is the payload of the auth service login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// LoginResult is the auth service's answer to a successful login.
type LoginResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Role        string `json:"role"`
	Username    string `json:"username"`
	UserID      ID     `json:"user_id"`
}

// SignUpRequest is the payload of the auth service registration.
type SignUpRequest struct {
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Address  string `json:"address,omitempty"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Reminder is the notification service payload announcing an upcoming event.
type Reminder struct {
	Type  string        `json:"type"`
	Event ReminderEvent `json:"event"`
}

// ReminderEvent is the event snapshot embedded in a Reminder.
type ReminderEvent struct {
	EventID        ID     `json:"event_id"`
	EventName      string `json:"event_name"`
	Description    string `json:"description"`
	StartTime      string `json:"start_time"`
	EndTime        string `json:"end_time"`
	OrganizerID    ID     `json:"organizer_id"`
	Location       string `json:"location"`
	RemainingSeats int    `json:"remaining_seats"`
	ReminderType   string `json:"reminder_type"`
}
