package view

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"time"

	"campusportal/internal/app/backend"
	"campusportal/internal/app/reconcile"
	"campusportal/internal/app/roster"
	"campusportal/internal/app/user"
	"campusportal/internal/pkg/errs"
	"campusportal/internal/pkg/randx"
)

// ConfirmWindow is how long a cancellation waits for the user's confirmation.
const ConfirmWindow = 2 * time.Minute

// pendingAction is the in-flight action on an event. An event with no entry is settled.
type pendingAction string

const (
	pendingRegister pendingAction = "register"
	pendingCancel   pendingAction = "cancel"
)

type confirmation struct {
	bookingID backend.ID
	eventID   backend.ID
	expiresAt time.Time
}

// Register books the user onto eventID. On success the page shows a confirmed booking
// right away and reloads roster and bookings in the background; the event stays pending
// until both reloads have finished.
func (p *Page) Register(ctx context.Context, eventID backend.ID) error {
	p.mu.Lock()
	ev, ok := p.findEventLocked(eventID)
	if !ok {
		p.mu.Unlock()
		return errs.NewError(errs.ErrEventNotFound)
	}
	if _, busy := p.pending[eventID]; busy {
		p.mu.Unlock()
		return errs.NewError(errs.ErrActionPending)
	}
	if _, registered := reconcile.ActiveBooking(p.bookings, eventID); registered {
		p.mu.Unlock()
		return errs.NewError(errs.ErrAlreadyRegistered)
	}
	if err := p.beginLocked(eventID, pendingRegister); err != nil {
		p.mu.Unlock()
		return err
	}
	p.mu.Unlock()

	status, err := p.svc.Backend.Book(ctx, p.identity.Token, backend.BookRequest{
		EventID:   ev.ID,
		UserID:    p.identity.UserID,
		UserEmail: p.identity.Username,
		EventName: ev.Name,
	})
	if err == nil && status != http.StatusOK && status != http.StatusCreated {
		return p.abort(eventID, errs.WithMessage(errs.ErrRegisterFailed, "Registration response: "+http.StatusText(status)))
	}
	if err != nil {
		return p.abort(eventID, p.backendFailure(errs.ErrRegisterFailed, err))
	}

	p.logger.Info().Str("event_id", string(eventID)).Int("status", status).Msg("Registered for event.")

	p.mu.Lock()
	p.bookings = append(slices.Clone(p.bookings), backend.Booking{
		EventID:  ev.ID,
		UserID:   backend.ID(p.identity.UserID),
		Status:   backend.StatusConfirmed,
		BookedAt: backend.Timestamp{Time: p.now()},
	})
	p.setNoticeLocked(NoticeSuccess, "Successfully registered for the event")
	p.changedLocked()
	p.mu.Unlock()

	p.refetchInBackground(func() { p.settle(eventID, pendingRegister) })
	return nil
}

// RequestCancel starts the cancellation of bookingID and returns the token the user must
// confirm it with.
func (p *Page) RequestCancel(bookingID backend.ID) (string, error) {
	if bookingID == "" {
		return "", errs.NewError(errs.ErrBookingInvalid)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	idx := slices.IndexFunc(p.bookings, func(b backend.Booking) bool { return b.ID == bookingID })
	if idx < 0 {
		return "", errs.NewError(errs.ErrBookingNotFound)
	}
	eventID := p.bookings[idx].EventID

	if _, busy := p.pending[eventID]; busy {
		return "", errs.NewError(errs.ErrActionPending)
	}

	token, err := randx.ConfirmToken()
	if err != nil {
		return "", errs.NewError(errs.ErrUnknown, err)
	}

	now := p.now()
	for t, c := range p.confirms {
		if !now.Before(c.expiresAt) {
			delete(p.confirms, t)
		}
	}
	p.confirms[token] = confirmation{bookingID: bookingID, eventID: eventID, expiresAt: now.Add(ConfirmWindow)}
	p.lastActive = now

	return token, nil
}

// DismissCancel drops a cancellation the user decided against.
func (p *Page) DismissCancel(token string) {
	p.mu.Lock()
	delete(p.confirms, token)
	p.mu.Unlock()
}

// ConfirmCancel cancels the booking behind token. On success the booking disappears from
// the page right away and roster and bookings are reloaded in the background.
func (p *Page) ConfirmCancel(ctx context.Context, token string) error {
	p.mu.Lock()
	c, ok := p.confirms[token]
	if !ok || !p.now().Before(c.expiresAt) {
		delete(p.confirms, token)
		p.mu.Unlock()
		return errs.NewError(errs.ErrConfirmationExpired)
	}
	if err := p.beginLocked(c.eventID, pendingCancel); err != nil {
		p.mu.Unlock()
		return err
	}
	delete(p.confirms, token)
	p.mu.Unlock()

	status, err := p.svc.Backend.CancelBooking(ctx, p.identity.Token, c.bookingID)
	if err == nil && status != http.StatusOK && status != http.StatusNoContent {
		return p.abort(c.eventID, errs.WithMessage(errs.ErrCancelFailed, "Cancellation response: "+http.StatusText(status)))
	}
	if err != nil {
		return p.abort(c.eventID, p.backendFailure(errs.ErrCancelFailed, err))
	}

	p.logger.Info().Str("booking_id", string(c.bookingID)).Int("status", status).Msg("Booking cancelled.")

	p.mu.Lock()
	p.bookings = slices.DeleteFunc(slices.Clone(p.bookings), func(b backend.Booking) bool { return b.ID == c.bookingID })
	p.setNoticeLocked(NoticeSuccess, "Registration cancelled successfully")
	p.changedLocked()
	p.mu.Unlock()

	p.refetchInBackground(func() { p.settle(c.eventID, pendingCancel) })
	return nil
}

// beginLocked moves eventID from settled to action, rejecting a second action in flight.
func (p *Page) beginLocked(eventID backend.ID, action pendingAction) error {
	if _, busy := p.pending[eventID]; busy {
		return errs.NewError(errs.ErrActionPending)
	}
	p.pending[eventID] = action
	p.lastActive = p.now()
	p.changedLocked()
	return nil
}

// settle returns eventID to settled once the refetch of action has finished.
func (p *Page) settle(eventID backend.ID, action pendingAction) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pending[eventID] != action {
		return
	}
	delete(p.pending, eventID)
	if !p.closed {
		p.changedLocked()
	}
}

// abort settles eventID after a failed backend call and shows the failure on the page.
func (p *Page) abort(eventID backend.ID, failure *errs.CustomError) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.pending, eventID)
	if !p.closed {
		p.setNoticeLocked(NoticeError, failure.Message)
		p.changedLocked()
	}
	return failure
}

// fail shows failure on the page without touching the pending state.
func (p *Page) fail(failure *errs.CustomError) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.closed {
		p.setNoticeLocked(NoticeError, failure.Message)
		p.changedLocked()
	}
	return failure
}

// succeed shows message on the page.
func (p *Page) succeed(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.closed {
		p.setNoticeLocked(NoticeSuccess, message)
		p.changedLocked()
	}
}

// backendFailure maps a backend error to code, passing the service's detail message through.
func (p *Page) backendFailure(code int, err error) *errs.CustomError {
	p.logger.Warn().Err(err).Int("code", code).Msg("Backend call failed")
	return errs.WithMessage(code, backend.DetailOf(err))
}

func (p *Page) findEventLocked(id backend.ID) (backend.Event, bool) {
	idx := slices.IndexFunc(p.events, func(ev backend.Event) bool { return ev.ID == id })
	if idx < 0 {
		return backend.Event{}, false
	}
	return p.events[idx], true
}

// ManagedEvent returns event id from the page's roster if the page's user may manage it:
// admins any event, organizers only their own.
func (p *Page) ManagedEvent(id backend.ID) (backend.Event, error) {
	ev, _, err := p.manageableEvent(id)
	return ev, err
}

// manageableEvent returns event id if the page's user may manage it.
func (p *Page) manageableEvent(id backend.ID) (backend.Event, roster.SeatCount, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ev, ok := p.findEventLocked(id)
	if !ok {
		return backend.Event{}, roster.SeatCount{}, errs.NewError(errs.ErrEventNotFound)
	}
	if !p.identity.CanManage(string(ev.OrganizerID)) {
		return backend.Event{}, roster.SeatCount{}, errs.NewError(errs.ErrForbidden)
	}
	seats, _ := p.seats.Lookup(id)
	return ev, seats, nil
}

// CreateEvent creates an event owned by the page's user and reloads the roster.
func (p *Page) CreateEvent(ctx context.Context, form EventForm) error {
	if p.identity.Role != user.RoleOrganizer && p.identity.Role != user.RoleAdmin {
		return errs.NewError(errs.ErrForbidden)
	}

	start, end, verr := form.validate()
	if verr != nil {
		return verr
	}

	if err := p.svc.Backend.CreateEvent(ctx, p.identity.Token, backend.NewEvent{
		Name:        form.Name,
		Description: optional(form.Description),
		StartTime:   start.Format(backend.WireLayout),
		EndTime:     end.Format(backend.WireLayout),
		OrganizerID: p.identity.UserID,
		Location:    optional(form.Location),
		TotalSeats:  form.TotalSeats,
	}); err != nil {
		return p.fail(p.backendFailure(errs.ErrEventCreateFailed, err))
	}

	p.succeed("Event created successfully")
	p.refetchRosterInBackground()
	return nil
}

// EditEvent updates event id and reloads the roster.
func (p *Page) EditEvent(ctx context.Context, id backend.ID, form EventForm) error {
	if _, _, err := p.manageableEvent(id); err != nil {
		return err
	}

	start, end, verr := form.validate()
	if verr != nil {
		return verr
	}

	if err := p.svc.Backend.UpdateEvent(ctx, p.identity.Token, id, backend.EventUpdate{
		Name:       form.Name,
		StartTime:  start.Format(backend.WireLayout),
		EndTime:    end.Format(backend.WireLayout),
		Location:   optional(form.Location),
		TotalSeats: form.TotalSeats,
	}); err != nil {
		return p.fail(p.backendFailure(errs.ErrEventUpdateFailed, err))
	}

	p.succeed("Event updated successfully")
	p.refetchRosterInBackground()
	return nil
}

// DeleteEvent removes event id and reloads the roster.
func (p *Page) DeleteEvent(ctx context.Context, id backend.ID) error {
	if _, _, err := p.manageableEvent(id); err != nil {
		return err
	}

	if err := p.svc.Backend.DeleteEvent(ctx, p.identity.Token, id); err != nil {
		return p.fail(p.backendFailure(errs.ErrEventDeleteFailed, err))
	}

	p.succeed("Event deleted successfully")
	p.refetchRosterInBackground()
	return nil
}

// SendReminder asks the notification service to remind registrants of event id. The
// reminder carries the current remaining seats, 0 when unknown.
func (p *Page) SendReminder(ctx context.Context, id backend.ID) error {
	ev, seats, err := p.manageableEvent(id)
	if err != nil {
		return err
	}

	remaining, _ := seats.Value()

	if err := p.svc.Backend.SendNotification(ctx, backend.Reminder{
		Type: "event_reminder",
		Event: backend.ReminderEvent{
			EventID:        ev.ID,
			EventName:      ev.Name,
			Description:    ev.Description,
			StartTime:      wireTime(ev.StartTime),
			EndTime:        wireTime(ev.EndTime),
			OrganizerID:    ev.OrganizerID,
			Location:       ev.Location,
			RemainingSeats: remaining,
			ReminderType:   "event_reminder",
		},
	}); err != nil {
		p.logger.Warn().Err(err).Str("event_id", string(id)).Msg("Failed to send reminder")
		return p.fail(errs.NewError(errs.ErrReminderFailed))
	}

	p.succeed(fmt.Sprintf("Reminder sent for %q", ev.Name))
	return nil
}

func wireTime(t backend.Timestamp) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(backend.WireLayout)
}
