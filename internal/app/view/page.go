/*
Package view holds the server-side state of every open portal page.

A Page is created when the browser loads the portal and lives until the browser closes it
or it sits idle for too long. It owns the event roster, the user's bookings, the seat
counts, the banner and the set of in-flight actions, and it pushes a fresh Snapshot to its
live subscribers whenever that state changes. All mutation goes through Page methods under
the page mutex; backend calls are made outside of it.

This file defines the Page type, its fetch cycle and snapshot publishing.
*/
package view

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"campusportal/internal/app/backend"
	"campusportal/internal/app/reconcile"
	"campusportal/internal/app/roster"
	"campusportal/internal/app/user"
	"campusportal/internal/pkg/errs"
	"campusportal/internal/pkg/logx"
)

// NoticeDuration is how long a banner stays on the page.
const NoticeDuration = 2500 * time.Millisecond

// Backend is the subset of the backend client the page actions call.
type Backend interface {
	Book(ctx context.Context, token string, req backend.BookRequest) (int, error)
	CancelBooking(ctx context.Context, token string, bookingID backend.ID) (int, error)
	CreateEvent(ctx context.Context, token string, ev backend.NewEvent) error
	UpdateEvent(ctx context.Context, token string, id backend.ID, ev backend.EventUpdate) error
	DeleteEvent(ctx context.Context, token string, id backend.ID) error
	SendNotification(ctx context.Context, reminder backend.Reminder) error
}

// Services are the collaborators shared by every page.
type Services struct {
	Backend Backend
	Roster  *roster.Fetcher
}

// Page is the view state of one open portal page.
type Page struct {
	// ID is the UUID the browser addresses the page by.
	ID string

	identity user.Identity
	svc      Services

	// ctx scopes every fetch of the page; cancel is called on Close.
	ctx    context.Context
	cancel context.CancelFunc

	// mu guards every field below.
	mu sync.Mutex

	events   []backend.Event
	bookings []backend.Booking
	seats    roster.Seats

	// loaded is set once the first roster fetch has finished, successfully or not.
	loaded bool

	notice      *Notice
	noticeTimer *time.Timer

	pending  map[backend.ID]pendingAction
	confirms map[string]confirmation

	// rosterGen and bookingsGen number the latest issued fetch of each kind; results
	// of older fetches are discarded.
	rosterGen   uint64
	bookingsGen uint64

	version     uint64
	subscribers map[*Subscriber]struct{}
	lastActive  time.Time
	closed      bool

	// inflight tracks background refetches started by actions.
	inflight sync.WaitGroup

	now    func() time.Time
	logger zerolog.Logger
}

func newPage(id string, identity user.Identity, svc Services, now func() time.Time) *Page {
	ctx, cancel := context.WithCancel(context.Background())

	return &Page{
		ID:          id,
		identity:    identity,
		svc:         svc,
		ctx:         ctx,
		cancel:      cancel,
		seats:       roster.Seats{},
		bookings:    []backend.Booking{},
		pending:     make(map[backend.ID]pendingAction),
		confirms:    make(map[string]confirmation),
		subscribers: make(map[*Subscriber]struct{}),
		lastActive:  now(),
		now:         now,
		logger: logx.Component("page").With().
			Str("page_id", id).
			Str("user_id", identity.UserID).
			Logger(),
	}
}

// Identity returns the user the page was opened for.
func (p *Page) Identity() user.Identity {
	return p.identity
}

// BelongsTo reports whether id is the user the page was opened for.
func (p *Page) BelongsTo(id user.Identity) bool {
	return p.identity.UserID == id.UserID && p.identity.Role == id.Role
}

// Touch marks the page as in use.
func (p *Page) Touch() {
	p.mu.Lock()
	p.lastActive = p.now()
	p.mu.Unlock()
}

// idleSince returns the last activity time and whether a live connection is attached.
func (p *Page) idleSince() (time.Time, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastActive, len(p.subscribers) > 0
}

// Snapshot returns the current render data filtered by c.
func (p *Page) Snapshot(c Criteria) Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.lastActive = p.now()
	return p.snapshotLocked(c)
}

func (p *Page) snapshotLocked(c Criteria) Snapshot {
	rows := reconcile.Reconcile(p.events, p.bookings, p.seats)
	reconcile.MarkManageable(rows, p.identity)

	for i := range rows {
		if action, ok := p.pending[rows[i].Event.ID]; ok {
			rows[i].Pending = string(action)
		}
	}

	if c.Tab == TabManage {
		rows = slices.DeleteFunc(rows, func(r reconcile.Row) bool { return !r.CanManage })
	}
	rows = reconcile.Filter(rows, c.Criteria)

	snap := Snapshot{
		PageID:  p.ID,
		User:    p.identity,
		Tab:     c.Tab,
		Loading: !p.loaded,
		Events:  rows,
		Version: p.version,
	}
	if c.Tab == "" {
		snap.Tab = TabAll
	}

	if p.notice != nil && p.now().Before(p.notice.ExpiresAt) {
		notice := *p.notice
		snap.Notification = &notice
	}
	return snap
}

// Refresh reloads the roster and the bookings and waits for both, or for ctx. The returned
// error reports a failed roster fetch; the page itself keeps its prior events.
func (p *Page) Refresh(ctx context.Context) error {
	if !p.track() {
		return errs.NewError(errs.ErrPageNotFound)
	}

	done := make(chan error, 1)
	go func() {
		defer p.inflight.Done()
		done <- p.refetch()
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// track registers one more background fetch with inflight. It reports false once the page
// is closed, so Shutdown never waits on work started after Close.
func (p *Page) track() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return false
	}
	p.inflight.Add(1)
	return true
}

// refetch runs the roster and bookings fetches concurrently and waits for both.
func (p *Page) refetch() error {
	var g errgroup.Group
	g.Go(p.refetchRoster)
	g.Go(func() error {
		p.refetchBookings()
		return nil
	})
	return g.Wait()
}

// refetchInBackground reloads everything and then runs after, if non-nil. It does nothing
// on a closed page.
func (p *Page) refetchInBackground(after func()) {
	if !p.track() {
		return
	}
	go func() {
		defer p.inflight.Done()

		if err := p.refetch(); err != nil && !errors.Is(err, context.Canceled) {
			p.logger.Warn().Err(err).Msg("Refetch after action failed")
		}
		if after != nil {
			after()
		}
	}()
}

// refetchRosterInBackground reloads only the roster.
func (p *Page) refetchRosterInBackground() {
	if !p.track() {
		return
	}
	go func() {
		defer p.inflight.Done()
		_ = p.refetchRoster()
	}()
}

func (p *Page) refetchRoster() error {
	p.mu.Lock()
	p.rosterGen++
	gen := p.rosterGen
	p.mu.Unlock()

	events, err := p.svc.Roster.Events(p.ctx, p.identity.Token)
	if err != nil {
		if p.ctx.Err() != nil {
			return p.ctx.Err()
		}

		p.logger.Warn().Err(err).Msg("Failed to fetch events")
		failure := errs.NewError(errs.ErrEventsFetchFailed)

		p.mu.Lock()
		if p.currentLocked(gen, p.rosterGen) {
			p.loaded = true
			p.setNoticeLocked(NoticeError, failure.Message)
			p.changedLocked()
		}
		p.mu.Unlock()
		return failure
	}

	p.mu.Lock()
	if !p.currentLocked(gen, p.rosterGen) {
		p.mu.Unlock()
		return nil
	}
	p.events = events
	p.loaded = true
	p.changedLocked()
	p.mu.Unlock()

	seats := p.svc.Roster.FetchSeats(p.ctx, p.identity.Token, events)

	p.mu.Lock()
	if p.currentLocked(gen, p.rosterGen) {
		p.seats = seats
		p.changedLocked()
	}
	p.mu.Unlock()
	return nil
}

func (p *Page) refetchBookings() {
	p.mu.Lock()
	p.bookingsGen++
	gen := p.bookingsGen
	p.mu.Unlock()

	bookings := p.svc.Roster.Bookings(p.ctx, p.identity)

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.currentLocked(gen, p.bookingsGen) {
		return
	}
	p.bookings = bookings
	p.changedLocked()
}

// currentLocked reports whether a fetch numbered gen may still be applied.
func (p *Page) currentLocked(gen, latest uint64) bool {
	return gen == latest && !p.closed && p.ctx.Err() == nil
}

// setNoticeLocked shows message until NoticeDuration has passed.
func (p *Page) setNoticeLocked(kind NoticeKind, message string) {
	p.notice = &Notice{Kind: kind, Message: message, ExpiresAt: p.now().Add(NoticeDuration)}

	if p.noticeTimer != nil {
		p.noticeTimer.Stop()
	}
	p.noticeTimer = time.AfterFunc(NoticeDuration, p.expireNotice)
}

func (p *Page) expireNotice() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || p.notice == nil || p.now().Before(p.notice.ExpiresAt) {
		return
	}
	p.notice = nil
	p.changedLocked()
}

// changedLocked bumps the version and pushes a snapshot to every subscriber.
func (p *Page) changedLocked() {
	p.version++

	for s := range p.subscribers {
		snap := p.snapshotLocked(s.criteria)
		if !s.push(NewMessage(TypeSnapshot, p.ID, snap)) {
			p.detachLocked(s)
		}
	}
}

// Attach registers s for live snapshots and sends it the current one.
func (p *Page) Attach(s *Subscriber) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		s.push(NewMessage(TypeClosed, p.ID, nil))
		s.closeSend()
		return
	}

	p.subscribers[s] = struct{}{}
	p.lastActive = p.now()
	p.logger.Info().Int("subscribers", len(p.subscribers)).Msg("Subscriber attached.")

	if !s.push(NewMessage(TypeSnapshot, p.ID, p.snapshotLocked(s.criteria))) {
		p.detachLocked(s)
	}
}

// Detach stops live snapshots to s.
func (p *Page) Detach(s *Subscriber) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.detachLocked(s)
}

func (p *Page) detachLocked(s *Subscriber) {
	if _, ok := p.subscribers[s]; !ok {
		return
	}
	delete(p.subscribers, s)
	s.closeSend()
	p.lastActive = p.now()
	p.logger.Info().Int("subscribers", len(p.subscribers)).Msg("Subscriber detached.")
}

// setCriteria changes what s is shown and pushes it a snapshot.
func (p *Page) setCriteria(s *Subscriber, c Criteria) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.subscribers[s]; !ok {
		return
	}
	s.criteria = c
	p.lastActive = p.now()

	if !s.push(NewMessage(TypeSnapshot, p.ID, p.snapshotLocked(c))) {
		p.detachLocked(s)
	}
}

// sendError pushes an error frame to s only.
func (p *Page) sendError(s *Subscriber, err *errs.CustomError) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.subscribers[s]; !ok {
		return
	}
	if !s.push(NewMessage(TypeError, p.ID, ErrorPayload{Code: err.Code, Message: err.Message})) {
		p.detachLocked(s)
	}
}

// Close cancels the page's fetches, discards late results and disconnects subscribers.
func (p *Page) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true
	p.cancel()

	if p.noticeTimer != nil {
		p.noticeTimer.Stop()
	}

	for s := range p.subscribers {
		s.push(NewMessage(TypeClosed, p.ID, nil))
		delete(p.subscribers, s)
		s.closeSend()
	}

	p.logger.Info().Msg("Page closed.")
}

// marshalMessage encodes msg for the wire.
func marshalMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}
