package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// ErrSeatsMissing is returned when /available-seats answers without a usable count.
var ErrSeatsMissing = errors.New("remaining_seats missing or invalid")

// AvailableSeats returns the remaining seat count of eventID.
func (c *Client) AvailableSeats(ctx context.Context, token string, eventID ID) (int, error) {
	var body struct {
		RemainingSeats *int `json:"remaining_seats"`
	}
	if _, err := c.do(ctx, request{
		method: http.MethodGet,
		url:    c.endpoints.Booking + "/available-seats/" + url.PathEscape(string(eventID)),
		token:  token,
		out:    &body,
	}); err != nil {
		return 0, err
	}

	if body.RemainingSeats == nil || *body.RemainingSeats < 0 {
		return 0, fmt.Errorf("event %s: %w", eventID, ErrSeatsMissing)
	}
	return *body.RemainingSeats, nil
}

// UserBookings returns userID's bookings. A body that is not a list counts as no
// bookings; bookings without a valid status are dropped.
func (c *Client) UserBookings(ctx context.Context, token, userID string) ([]Booking, error) {
	var raw json.RawMessage
	if _, err := c.do(ctx, request{
		method: http.MethodGet,
		url:    c.endpoints.Booking + "/user/" + url.PathEscape(userID) + "/bookings",
		token:  token,
		out:    &raw,
	}); err != nil {
		return nil, err
	}

	return decodeList[Booking](raw, func(index int, err error) {
		c.logger.Warn().Err(err).Int("index", index).Str("user_id", userID).Msg("Dropping booking with invalid payload")
	}), nil
}

// Book places a booking and returns the status the service answered with.
func (c *Client) Book(ctx context.Context, token string, req BookRequest) (int, error) {
	return c.do(ctx, request{
		method: http.MethodPost,
		url:    c.endpoints.Booking + "/book",
		token:  token,
		body:   req,
	})
}

// CancelBooking cancels bookingID and returns the status the service answered with.
func (c *Client) CancelBooking(ctx context.Context, token string, bookingID ID) (int, error) {
	return c.do(ctx, request{
		method: http.MethodPost,
		url:    c.endpoints.Booking + "/booking/cancel/" + url.PathEscape(string(bookingID)),
		token:  token,
	})
}

// BookingsCount returns the number of bookings held for eventID.
func (c *Client) BookingsCount(ctx context.Context, token string, eventID ID) (int, error) {
	q := url.Values{}
	q.Set("event_id", string(eventID))

	var body struct {
		TotalBookings int `json:"total_bookings"`
	}
	if _, err := c.do(ctx, request{
		method: http.MethodGet,
		url:    c.endpoints.Booking + "/bookings/count?" + q.Encode(),
		token:  token,
		out:    &body,
	}); err != nil {
		return 0, err
	}
	return body.TotalBookings, nil
}

// BookingsBatch returns up to size registrants of eventID starting at offset. The service
// answers 404 once offset is past the last registrant.
func (c *Client) BookingsBatch(ctx context.Context, token string, eventID ID, offset, size int) ([]Registrant, error) {
	q := url.Values{}
	q.Set("event_id", string(eventID))
	q.Set("offset", strconv.Itoa(offset))
	q.Set("batch_size", strconv.Itoa(size))

	var raw json.RawMessage
	if _, err := c.do(ctx, request{
		method: http.MethodGet,
		url:    c.endpoints.Booking + "/bookings/batch?" + q.Encode(),
		token:  token,
		out:    &raw,
	}); err != nil {
		return nil, err
	}

	return decodeList[Registrant](raw, func(index int, err error) {
		c.logger.Warn().Err(err).Int("index", index).Msg("Skipping malformed registrant")
	}), nil
}
