package reconcile

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusportal/internal/app/backend"
	"campusportal/internal/app/roster"
	"campusportal/internal/app/user"
)

func event(id, name string, start time.Time, organizer string) backend.Event {
	return backend.Event{
		ID:          backend.ID(id),
		Name:        name,
		StartTime:   backend.Timestamp{Time: start},
		OrganizerID: backend.ID(organizer),
		TotalSeats:  30,
	}
}

func TestReconcile_ActiveBookingWins(t *testing.T) {
	events := []backend.Event{event("e1", "Robotics", time.Time{}, ""), event("e2", "Chess", time.Time{}, "")}
	bookings := []backend.Booking{
		{ID: "b1", EventID: "e1", Status: backend.StatusConfirmed},
		{ID: "b2", EventID: "e2", Status: backend.StatusWaiting},
	}
	// Even with no seats left, an active booking is shown as such.
	seats := roster.Seats{"e1": roster.Known(0), "e2": roster.Known(0)}

	rows := Reconcile(events, bookings, seats)
	require.Len(t, rows, 2)

	assert.Equal(t, StateConfirmed, rows[0].State)
	assert.Equal(t, ActionCancel, rows[0].Action)
	assert.Equal(t, backend.ID("b1"), rows[0].BookingID)

	assert.Equal(t, StateWaitlisted, rows[1].State)
	assert.Equal(t, ActionCancel, rows[1].Action)
	assert.Equal(t, backend.ID("b2"), rows[1].BookingID)
}

func TestReconcile_CancelledBookingIsNotActive(t *testing.T) {
	events := []backend.Event{event("e1", "Robotics", time.Time{}, "")}
	bookings := []backend.Booking{
		{ID: "b0", EventID: "e1", Status: backend.StatusCancelled},
		{ID: "b1", EventID: "e1", Status: backend.StatusWaiting},
	}

	rows := Reconcile(events, bookings, roster.Seats{"e1": roster.Known(2)})
	require.Len(t, rows, 1)
	assert.Equal(t, StateWaitlisted, rows[0].State)
	assert.Equal(t, backend.ID("b1"), rows[0].BookingID)
}

func TestReconcile_SoldOutOffersWaitlist(t *testing.T) {
	events := []backend.Event{
		event("full", "Full", time.Time{}, ""),
		event("open", "Open", time.Time{}, ""),
		event("unknown", "Unknown", time.Time{}, ""),
		event("pending", "Pending", time.Time{}, ""),
	}
	seats := roster.Seats{
		"full":    roster.Known(0),
		"open":    roster.Known(7),
		"unknown": roster.Unknown(),
	}

	rows := Reconcile(events, nil, seats)
	require.Len(t, rows, 4)

	for _, row := range rows {
		assert.Equal(t, StateNotRegistered, row.State, row.Event.ID)
	}
	assert.Equal(t, ActionJoinWaitlist, rows[0].Action)
	assert.Equal(t, ActionRegister, rows[1].Action)
	assert.Equal(t, ActionRegister, rows[2].Action)
	assert.Equal(t, ActionRegister, rows[3].Action)

	assert.False(t, rows[2].SeatsPending)
	assert.True(t, rows[3].SeatsPending)
}

func TestReconcile_OrphanBookingsIgnored(t *testing.T) {
	events := []backend.Event{event("e1", "Robotics", time.Time{}, "")}
	bookings := []backend.Booking{{ID: "b9", EventID: "gone", Status: backend.StatusConfirmed}}

	var rows []Row
	require.NotPanics(t, func() {
		rows = Reconcile(events, bookings, roster.Seats{"e1": roster.Known(1)})
	})
	require.Len(t, rows, 1)
	assert.Equal(t, backend.ID("e1"), rows[0].Event.ID)
	assert.Equal(t, StateNotRegistered, rows[0].State)
}

func TestReconcile_SeatsNeverSynthesized(t *testing.T) {
	events := []backend.Event{event("e1", "Robotics", time.Time{}, "")}

	rows := Reconcile(events, nil, roster.Seats{})
	require.Len(t, rows, 1)

	raw, err := json.Marshal(rows[0])
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Nil(t, decoded["seats"])
	assert.Equal(t, true, decoded["seats_pending"])
}

func TestFilter(t *testing.T) {
	march := time.Date(2025, time.March, 3, 10, 0, 0, 0, time.UTC)
	april := time.Date(2025, time.April, 1, 10, 0, 0, 0, time.UTC)

	rows := Reconcile([]backend.Event{
		event("e1", "Spring Hackathon", march, ""),
		event("e2", "Chess Night", march, ""),
		event("e3", "Hack Club", april, ""),
		event("e4", "Undated hack", time.Time{}, ""),
	}, nil, roster.Seats{})

	month, err := ParseMonth("2025-03")
	require.NoError(t, err)

	got := Filter(rows, Criteria{Month: month, Query: "HACK"})
	require.Len(t, got, 1)
	assert.Equal(t, backend.ID("e1"), got[0].Event.ID)

	got = Filter(rows, Criteria{Query: "hack"})
	assert.Len(t, got, 3)

	got = Filter(rows, Criteria{Month: month})
	assert.Len(t, got, 2)

	assert.Len(t, Filter(rows, Criteria{}), 4)

	_, err = ParseMonth("March")
	assert.Error(t, err)
}

func TestOwnedByAndManageable(t *testing.T) {
	rows := Reconcile([]backend.Event{
		event("e1", "Mine", time.Time{}, "ORG-1"),
		event("e2", "Theirs", time.Time{}, "org-2"),
	}, nil, roster.Seats{})

	owned := OwnedBy(rows, "org-1")
	require.Len(t, owned, 1)
	assert.Equal(t, backend.ID("e1"), owned[0].Event.ID)

	MarkManageable(rows, user.Identity{Token: "t", Role: user.RoleOrganizer, UserID: "org-1"})
	assert.True(t, rows[0].CanManage)
	assert.False(t, rows[1].CanManage)

	MarkManageable(rows, user.Identity{Token: "t", Role: user.RoleAdmin, UserID: "a"})
	assert.True(t, rows[1].CanManage)

	MarkManageable(rows, user.Identity{Token: "t", Role: user.RoleStudent, UserID: "org-1"})
	assert.False(t, rows[0].CanManage)
}
