package backend

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClientWithHTTP(Endpoints{
		Events:       srv.URL + "/events",
		Booking:      srv.URL,
		Notification: srv.URL,
		Auth:         srv.URL,
	}, srv.Client())
}

func TestParseDetail(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"string detail", `{"detail":"Invalid role"}`, "Invalid role"},
		{"validation list", `{"detail":[{"msg":"field required"},{"msg":"value too short"}]}`, "field required, value too short"},
		{"no detail", `{"error":"boom"}`, ""},
		{"not json", `<html>bad gateway</html>`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseDetail([]byte(tt.body)))
		})
	}
}

func TestUserBookings_DropsInvalidStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user/u-1/bookings", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `[
			{"booking_id": 1, "event_id": 10, "user_id": "u-1", "status": "confirmed"},
			{"booking_id": 2, "event_id": 11, "user_id": "u-1", "status": "pending"},
			{"booking_id": 3, "event_id": 12, "user_id": "u-1"},
			{"booking_id": 4, "event_id": "e-13", "user_id": "u-1", "status": "Waiting"}
		]`)
	})

	bookings, err := client.UserBookings(t.Context(), "tok", "u-1")
	require.NoError(t, err)
	require.Len(t, bookings, 2)

	assert.Equal(t, ID("10"), bookings[0].EventID)
	assert.Equal(t, StatusConfirmed, bookings[0].Status)
	assert.Equal(t, ID("e-13"), bookings[1].EventID)
	assert.Equal(t, StatusWaiting, bookings[1].Status)
}

func TestUserBookings_NonArrayIsEmpty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"message":"no bookings"}`)
	})

	bookings, err := client.UserBookings(t.Context(), "tok", "u-1")
	require.NoError(t, err)
	assert.Empty(t, bookings)
}

func TestListEvents_NonArrayIsError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"events":[]}`)
	})

	_, err := client.ListEvents(t.Context(), "tok")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestListEvents_ParsesTimestamps(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/events", r.URL.Path)
		_, _ = io.WriteString(w, `[
			{"event_id": "e1", "event_name": "Hackathon", "start_time": "2025-03-14T09:30:00", "end_time": null, "total_seats": 50, "organizer_id": "org-1"}
		]`)
	})

	events, err := client.ListEvents(t.Context(), "tok")
	require.NoError(t, err)
	require.Len(t, events, 1)

	assert.Equal(t, "Hackathon", events[0].Name)
	assert.Equal(t, time.Date(2025, time.March, 14, 9, 30, 0, 0, time.UTC), events[0].StartTime.Time)
	assert.True(t, events[0].EndTime.IsZero())
	assert.Equal(t, ID("org-1"), events[0].OrganizerID)
}

func TestBook_SendsEventNameKey(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/book", r.URL.Path)

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Hackathon", body["event_Name"])
		assert.Equal(t, "e1", body["event_id"])
		assert.Equal(t, "student@campus.edu", body["user_email"])

		w.WriteHeader(http.StatusCreated)
	})

	status, err := client.Book(t.Context(), "tok", BookRequest{
		EventID:   "e1",
		UserID:    "u-1",
		UserEmail: "student@campus.edu",
		EventName: "Hackathon",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, status)
}

func TestBook_APIErrorCarriesDetail(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"detail":"Already booked"}`)
	})

	status, err := client.Book(t.Context(), "tok", BookRequest{EventID: "e1"})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, http.StatusBadRequest, StatusOf(err))
	assert.Equal(t, "Already booked", DetailOf(err))
}

func TestAvailableSeats(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/available-seats/e1":
			_, _ = io.WriteString(w, `{"remaining_seats": 3}`)
		case "/available-seats/e2":
			_, _ = io.WriteString(w, `{}`)
		default:
			http.NotFound(w, r)
		}
	})

	seats, err := client.AvailableSeats(t.Context(), "tok", "e1")
	require.NoError(t, err)
	assert.Equal(t, 3, seats)

	_, err = client.AvailableSeats(t.Context(), "tok", "e2")
	assert.ErrorIs(t, err, ErrSeatsMissing)

	_, err = client.AvailableSeats(t.Context(), "tok", "e3")
	assert.True(t, IsNotFound(err))
}

func TestBookingsBatch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "e1", q.Get("event_id"))
		assert.Equal(t, "5", q.Get("batch_size"))

		if q.Get("offset") != "0" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"detail":"No more bookings"}`)
			return
		}
		_, _ = io.WriteString(w, `[
			{"booking_id": 1, "user_email": "a@campus.edu", "status": "cancelled"},
			{"booking_id": 2, "user_email": "b@campus.edu", "status": "refunded"}
		]`)
	})

	rows, err := client.BookingsBatch(t.Context(), "tok", "e1", 0, 5)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "cancelled", rows[0].Status)
	assert.Equal(t, StatusUnknownLabel, rows[1].Status)

	_, err = client.BookingsBatch(t.Context(), "tok", "e1", 5, 5)
	assert.True(t, IsNotFound(err))
}

func TestTransportFailureIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	client := NewClientWithHTTP(Endpoints{Events: base + "/events"}, http.DefaultClient)

	_, err := client.ListEvents(t.Context(), "tok")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestParseBookingStatus(t *testing.T) {
	status, err := ParseBookingStatus(" CONFIRMED ")
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, status)
	assert.True(t, status.Active())
	assert.False(t, StatusCancelled.Active())

	_, err = ParseBookingStatus("")
	assert.Error(t, err)
	_, err = ParseBookingStatus("refunded")
	assert.Error(t, err)
}
