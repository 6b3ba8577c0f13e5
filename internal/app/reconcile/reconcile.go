/*
Package reconcile derives, for every event of the roster, what the signed-in user sees:
their registration state, the seat count to display and the one action on offer.

Reconcile is a pure function of the events, the user's bookings and the seat counts. It
never infers a booking's state from a missing field and never synthesizes a seat count.
*/
package reconcile

import (
	"campusportal/internal/app/backend"
	"campusportal/internal/app/roster"
)

// State is the user's effective registration state for an event.
type State string

const (
	StateNotRegistered State = "not_registered"
	StateConfirmed     State = "confirmed"
	StateWaitlisted    State = "waitlisted"
)

// Action is the single action offered for an event.
type Action string

const (
	ActionRegister     Action = "register"
	ActionJoinWaitlist Action = "join_waitlist"
	ActionCancel       Action = "cancel"
)

// Row is the reconciled view of one event.
type Row struct {
	Event  backend.Event `json:"event"`
	State  State         `json:"state"`
	Action Action        `json:"action"`

	// BookingID is the active booking to cancel when Action is ActionCancel.
	BookingID backend.ID `json:"booking_id,omitempty"`

	// Seats is null while pending or unknown.
	Seats        roster.SeatCount `json:"seats"`
	SeatsPending bool             `json:"seats_pending"`

	// CanManage is set for organizers on their own events and for admins.
	CanManage bool `json:"can_manage"`

	// Pending names an in-flight action on this event ("register" or "cancel").
	Pending string `json:"pending,omitempty"`
}

// Reconcile builds one Row per event, in event order. Bookings for events outside the
// roster are ignored.
func Reconcile(events []backend.Event, bookings []backend.Booking, seats roster.Seats) []Row {
	rows := make([]Row, 0, len(events))

	for _, ev := range events {
		row := Row{Event: ev}

		count, known := seats.Lookup(ev.ID)
		row.Seats = count
		row.SeatsPending = !known

		if booking, ok := ActiveBooking(bookings, ev.ID); ok {
			row.State = stateOf(booking.Status)
			row.Action = ActionCancel
			row.BookingID = booking.ID
		} else {
			row.State = StateNotRegistered
			if known && count.SoldOut() {
				row.Action = ActionJoinWaitlist
			} else {
				row.Action = ActionRegister
			}
		}

		rows = append(rows, row)
	}

	return rows
}

// ActiveBooking returns the first confirmed or waiting booking for eventID.
func ActiveBooking(bookings []backend.Booking, eventID backend.ID) (backend.Booking, bool) {
	for _, b := range bookings {
		if b.EventID == eventID && b.Status.Active() {
			return b, true
		}
	}
	return backend.Booking{}, false
}

func stateOf(status backend.BookingStatus) State {
	if status == backend.StatusWaiting {
		return StateWaitlisted
	}
	return StateConfirmed
}
