package backend

import (
	"encoding/json"
	"fmt"
	"strings"
)

// BookingStatus is the closed set of states a booking can be in.
type BookingStatus string

const (
	StatusConfirmed BookingStatus = "confirmed"
	StatusWaiting   BookingStatus = "waiting"
	StatusCancelled BookingStatus = "cancelled"
)

// StatusUnknownLabel is shown for registrant rows whose status is not a BookingStatus.
const StatusUnknownLabel = "unknown"

// ParseBookingStatus validates s; a missing or unrecognised status is an error.
func ParseBookingStatus(s string) (BookingStatus, error) {
	switch status := BookingStatus(strings.ToLower(strings.TrimSpace(s))); status {
	case StatusConfirmed, StatusWaiting, StatusCancelled:
		return status, nil
	case "":
		return "", fmt.Errorf("booking status is missing")
	default:
		return "", fmt.Errorf("unknown booking status %q", s)
	}
}

// Active reports whether the booking holds a seat or a waitlist place.
func (s BookingStatus) Active() bool {
	return s == StatusConfirmed || s == StatusWaiting
}

// Booking is one of the current user's bookings.
type Booking struct {
	ID       ID            `json:"booking_id"`
	EventID  ID            `json:"event_id"`
	UserID   ID            `json:"user_id"`
	Status   BookingStatus `json:"status"`
	BookedAt Timestamp     `json:"booking_time"`
}

// UnmarshalJSON decodes a booking and rejects it unless it names an event and carries a
// valid status.
func (b *Booking) UnmarshalJSON(data []byte) error {
	type plain Booking
	var raw struct {
		plain
		Status string `json:"status"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if raw.EventID == "" {
		return fmt.Errorf("booking %q has no event_id", raw.ID)
	}

	status, err := ParseBookingStatus(raw.Status)
	if err != nil {
		return fmt.Errorf("booking %q: %w", raw.ID, err)
	}

	*b = Booking(raw.plain)
	b.Status = status
	return nil
}
