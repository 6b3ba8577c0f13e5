package view

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"campusportal/internal/app/backend"
	"campusportal/internal/app/reconcile"
	"campusportal/internal/app/roster"
	"campusportal/internal/app/user"
	"campusportal/internal/pkg/errs"
)

type mockSource struct {
	mock.Mock
}

func (m *mockSource) ListEvents(ctx context.Context, token string) ([]backend.Event, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]backend.Event), args.Error(1)
}

func (m *mockSource) AvailableSeats(ctx context.Context, token string, eventID backend.ID) (int, error) {
	args := m.Called(ctx, token, eventID)
	return args.Int(0), args.Error(1)
}

func (m *mockSource) UserBookings(ctx context.Context, token, userID string) ([]backend.Booking, error) {
	args := m.Called(ctx, token, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]backend.Booking), args.Error(1)
}

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) Book(ctx context.Context, token string, req backend.BookRequest) (int, error) {
	args := m.Called(ctx, token, req)
	return args.Int(0), args.Error(1)
}

func (m *mockBackend) CancelBooking(ctx context.Context, token string, bookingID backend.ID) (int, error) {
	args := m.Called(ctx, token, bookingID)
	return args.Int(0), args.Error(1)
}

func (m *mockBackend) CreateEvent(ctx context.Context, token string, ev backend.NewEvent) error {
	return m.Called(ctx, token, ev).Error(0)
}

func (m *mockBackend) UpdateEvent(ctx context.Context, token string, id backend.ID, ev backend.EventUpdate) error {
	return m.Called(ctx, token, id, ev).Error(0)
}

func (m *mockBackend) DeleteEvent(ctx context.Context, token string, id backend.ID) error {
	return m.Called(ctx, token, id).Error(0)
}

func (m *mockBackend) SendNotification(ctx context.Context, reminder backend.Reminder) error {
	return m.Called(ctx, reminder).Error(0)
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

var student = user.Identity{Token: "tok", Role: user.RoleStudent, UserID: "u-1", Username: "student@campus.edu"}

var testEvents = []backend.Event{
	{ID: "e1", Name: "Robotics Workshop", TotalSeats: 10, OrganizerID: "org-1"},
	{ID: "e2", Name: "Chess Night", TotalSeats: 2, OrganizerID: "org-2"},
}

type fixture struct {
	src     *mockSource
	backend *mockBackend
	clock   *testClock
	manager *Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{src: new(mockSource), backend: new(mockBackend), clock: newTestClock()}
	f.manager = newManager(Services{
		Backend: f.backend,
		Roster:  roster.NewFetcher(f.src, 2),
	}, time.Minute, f.clock.Now)
	t.Cleanup(f.manager.Shutdown)

	f.src.On("ListEvents", mock.Anything, "tok").Return(testEvents, nil)
	f.src.On("AvailableSeats", mock.Anything, "tok", backend.ID("e1")).Return(5, nil)
	f.src.On("AvailableSeats", mock.Anything, "tok", backend.ID("e2")).Return(0, nil)
	return f
}

func (f *fixture) open(t *testing.T, id user.Identity) *Page {
	t.Helper()

	page, err := f.manager.Open(t.Context(), id)
	require.NoError(t, err)
	return page
}

func rowOf(t *testing.T, snap Snapshot, id backend.ID) reconcile.Row {
	t.Helper()

	for _, row := range snap.Events {
		if row.Event.ID == id {
			return row
		}
	}
	require.Failf(t, "row not found", "event %s", id)
	return reconcile.Row{}
}

func TestOpen_LoadsRosterAndSeats(t *testing.T) {
	f := newFixture(t)
	f.src.On("UserBookings", mock.Anything, "tok", "u-1").Return([]backend.Booking{}, nil)

	page := f.open(t, student)
	snap := page.Snapshot(Criteria{})

	assert.False(t, snap.Loading)
	require.Len(t, snap.Events, 2)

	e1 := rowOf(t, snap, "e1")
	assert.Equal(t, reconcile.ActionRegister, e1.Action)
	n, known := e1.Seats.Value()
	assert.True(t, known)
	assert.Equal(t, 5, n)

	assert.Equal(t, reconcile.ActionJoinWaitlist, rowOf(t, snap, "e2").Action)
}

func TestRegister_OptimisticBeforeRefetch(t *testing.T) {
	f := newFixture(t)
	release := make(chan time.Time)

	f.src.On("UserBookings", mock.Anything, "tok", "u-1").Return([]backend.Booking{}, nil).Once()
	f.src.On("UserBookings", mock.Anything, "tok", "u-1").WaitUntil(release).Return([]backend.Booking{
		{ID: "b7", EventID: "e1", UserID: "u-1", Status: backend.StatusConfirmed},
	}, nil)

	f.backend.On("Book", mock.Anything, "tok", backend.BookRequest{
		EventID:   "e1",
		UserID:    "u-1",
		UserEmail: "student@campus.edu",
		EventName: "Robotics Workshop",
	}).Return(http.StatusCreated, nil)

	page := f.open(t, student)

	require.NoError(t, page.Register(t.Context(), "e1"))

	row := rowOf(t, page.Snapshot(Criteria{}), "e1")
	assert.Equal(t, reconcile.StateConfirmed, row.State)
	assert.Equal(t, reconcile.ActionCancel, row.Action)
	assert.Equal(t, "register", row.Pending)

	err := page.Register(t.Context(), "e1")
	assert.True(t, errs.HasCode(err, errs.ErrActionPending))

	close(release)
	page.inflight.Wait()

	snap := page.Snapshot(Criteria{})
	row = rowOf(t, snap, "e1")
	assert.Equal(t, reconcile.StateConfirmed, row.State)
	assert.Equal(t, backend.ID("b7"), row.BookingID)
	assert.Empty(t, row.Pending)

	require.NotNil(t, snap.Notification)
	assert.Equal(t, NoticeSuccess, snap.Notification.Kind)

	f.backend.AssertNumberOfCalls(t, "Book", 1)
}

func TestCancel_OptimisticRemoval(t *testing.T) {
	f := newFixture(t)
	release := make(chan time.Time)

	f.src.On("UserBookings", mock.Anything, "tok", "u-1").Return([]backend.Booking{
		{ID: "b1", EventID: "e1", UserID: "u-1", Status: backend.StatusWaiting},
	}, nil).Once()
	f.src.On("UserBookings", mock.Anything, "tok", "u-1").WaitUntil(release).Return([]backend.Booking{}, nil)
	f.backend.On("CancelBooking", mock.Anything, "tok", backend.ID("b1")).Return(http.StatusNoContent, nil)

	page := f.open(t, student)
	assert.Equal(t, reconcile.StateWaitlisted, rowOf(t, page.Snapshot(Criteria{}), "e1").State)

	token, err := page.RequestCancel("b1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	require.NoError(t, page.ConfirmCancel(t.Context(), token))

	row := rowOf(t, page.Snapshot(Criteria{}), "e1")
	assert.Equal(t, reconcile.StateNotRegistered, row.State)
	assert.Equal(t, "cancel", row.Pending)

	close(release)
	page.inflight.Wait()

	row = rowOf(t, page.Snapshot(Criteria{}), "e1")
	assert.Equal(t, reconcile.StateNotRegistered, row.State)
	assert.Empty(t, row.Pending)

	err = page.ConfirmCancel(t.Context(), token)
	assert.True(t, errs.HasCode(err, errs.ErrConfirmationExpired), "tokens are single use")
}

func TestRequestCancel_Validation(t *testing.T) {
	f := newFixture(t)
	f.src.On("UserBookings", mock.Anything, "tok", "u-1").Return([]backend.Booking{
		{ID: "b1", EventID: "e1", Status: backend.StatusConfirmed},
	}, nil)

	page := f.open(t, student)

	_, err := page.RequestCancel("")
	assert.True(t, errs.HasCode(err, errs.ErrBookingInvalid))

	_, err = page.RequestCancel("b404")
	assert.True(t, errs.HasCode(err, errs.ErrBookingNotFound))

	token, err := page.RequestCancel("b1")
	require.NoError(t, err)

	f.clock.Advance(ConfirmWindow + time.Second)
	err = page.ConfirmCancel(t.Context(), token)
	assert.True(t, errs.HasCode(err, errs.ErrConfirmationExpired))

	token, err = page.RequestCancel("b1")
	require.NoError(t, err)
	page.DismissCancel(token)
	err = page.ConfirmCancel(t.Context(), token)
	assert.True(t, errs.HasCode(err, errs.ErrConfirmationExpired))

	f.backend.AssertNotCalled(t, "CancelBooking", mock.Anything, mock.Anything, mock.Anything)
}

func TestRegister_FailureClearsPending(t *testing.T) {
	f := newFixture(t)
	f.src.On("UserBookings", mock.Anything, "tok", "u-1").Return([]backend.Booking{}, nil)
	f.backend.On("Book", mock.Anything, "tok", mock.Anything).
		Return(http.StatusBadRequest, &backend.APIError{Status: http.StatusBadRequest, Detail: "Already registered"}).Once()
	f.backend.On("Book", mock.Anything, "tok", mock.Anything).Return(http.StatusAccepted, nil).Once()

	page := f.open(t, student)

	err := page.Register(t.Context(), "e1")
	require.Error(t, err)
	assert.True(t, errs.HasCode(err, errs.ErrRegisterFailed))
	assert.Equal(t, "Already registered", errs.From(err).Message)

	snap := page.Snapshot(Criteria{})
	row := rowOf(t, snap, "e1")
	assert.Empty(t, row.Pending)
	assert.Equal(t, reconcile.StateNotRegistered, row.State)
	require.NotNil(t, snap.Notification)
	assert.Equal(t, NoticeError, snap.Notification.Kind)
	assert.Equal(t, "Already registered", snap.Notification.Message)

	err = page.Register(t.Context(), "e1")
	require.Error(t, err)
	assert.Equal(t, "Registration response: Accepted", errs.From(err).Message)

	err = page.Register(t.Context(), "nope")
	assert.True(t, errs.HasCode(err, errs.ErrEventNotFound))
}

func TestNoticeExpires(t *testing.T) {
	f := newFixture(t)
	f.src.On("UserBookings", mock.Anything, "tok", "u-1").Return([]backend.Booking{}, nil)
	f.backend.On("Book", mock.Anything, "tok", mock.Anything).Return(http.StatusInternalServerError, &backend.APIError{Status: 500})

	page := f.open(t, student)
	_ = page.Register(t.Context(), "e2")

	snap := page.Snapshot(Criteria{})
	require.NotNil(t, snap.Notification)
	assert.Equal(t, "Failed to register.", snap.Notification.Message)

	f.clock.Advance(NoticeDuration)
	assert.Nil(t, page.Snapshot(Criteria{}).Notification)
}

func TestClosedPageDiscardsLateResults(t *testing.T) {
	f := newFixture(t)
	release := make(chan time.Time)

	f.src.On("UserBookings", mock.Anything, "tok", "u-1").Return([]backend.Booking{}, nil).Once()
	f.src.On("UserBookings", mock.Anything, "tok", "u-1").WaitUntil(release).Return([]backend.Booking{}, nil)
	f.backend.On("Book", mock.Anything, "tok", mock.Anything).Return(http.StatusOK, nil)

	page := f.open(t, student)
	require.NoError(t, page.Register(t.Context(), "e1"))

	page.Close()
	close(release)
	page.inflight.Wait()

	// The refetch answered with no bookings, but the page was already closed.
	assert.Equal(t, reconcile.StateConfirmed, rowOf(t, page.Snapshot(Criteria{}), "e1").State)
}

func TestRefresh_EventsFailureKeepsPriorState(t *testing.T) {
	src := new(mockSource)
	mgr := newManager(Services{Backend: new(mockBackend), Roster: roster.NewFetcher(src, 1)}, time.Minute, newTestClock().Now)
	t.Cleanup(mgr.Shutdown)

	src.On("ListEvents", mock.Anything, "tok").Return(testEvents[:1], nil).Once()
	src.On("ListEvents", mock.Anything, "tok").Return(nil, &backend.APIError{Status: http.StatusBadGateway})
	src.On("AvailableSeats", mock.Anything, "tok", backend.ID("e1")).Return(1, nil)
	src.On("UserBookings", mock.Anything, "tok", "u-1").Return([]backend.Booking{}, nil)

	page, err := mgr.Open(t.Context(), student)
	require.NoError(t, err)

	err = page.Refresh(t.Context())
	assert.True(t, errs.HasCode(err, errs.ErrEventsFetchFailed))

	snap := page.Snapshot(Criteria{})
	require.Len(t, snap.Events, 1)
	require.NotNil(t, snap.Notification)
	assert.Equal(t, "Failed to fetch events", snap.Notification.Message)
}

func TestSnapshot_ManageTab(t *testing.T) {
	f := newFixture(t)
	organizer := user.Identity{Token: "tok", Role: user.RoleOrganizer, UserID: "org-1", Username: "org@campus.edu"}
	f.src.On("UserBookings", mock.Anything, "tok", "org-1").Return([]backend.Booking{}, nil)

	page := f.open(t, organizer)

	snap := page.Snapshot(Criteria{Tab: TabManage})
	require.Len(t, snap.Events, 1)
	assert.Equal(t, backend.ID("e1"), snap.Events[0].Event.ID)
	assert.True(t, snap.Events[0].CanManage)

	criteria, err := ParseCriteria("", "chess", "all")
	require.NoError(t, err)
	snap = page.Snapshot(criteria)
	require.Len(t, snap.Events, 1)
	assert.False(t, snap.Events[0].CanManage)
}

func TestOrganizerActions(t *testing.T) {
	f := newFixture(t)
	organizer := user.Identity{Token: "tok", Role: user.RoleOrganizer, UserID: "org-1", Username: "org@campus.edu"}
	f.src.On("UserBookings", mock.Anything, "tok", "org-1").Return([]backend.Booking{}, nil)

	page := f.open(t, organizer)

	form := EventForm{Name: "Robotics Workshop", StartTime: "2025-03-10T10:00", EndTime: "2025-03-10T12:00", TotalSeats: 20}

	f.backend.On("UpdateEvent", mock.Anything, "tok", backend.ID("e1"), backend.EventUpdate{
		Name:       "Robotics Workshop",
		StartTime:  "2025-03-10T10:00:00",
		EndTime:    "2025-03-10T12:00:00",
		TotalSeats: 20,
	}).Return(nil)
	require.NoError(t, page.EditEvent(t.Context(), "e1", form))

	err := page.EditEvent(t.Context(), "e2", form)
	assert.True(t, errs.HasCode(err, errs.ErrForbidden))

	bad := form
	bad.EndTime = "2025-03-10T09:00"
	err = page.EditEvent(t.Context(), "e1", bad)
	assert.True(t, errs.HasCode(err, errs.ErrEventTimeOrder))

	f.backend.On("CreateEvent", mock.Anything, "tok", mock.MatchedBy(func(ev backend.NewEvent) bool {
		return ev.OrganizerID == "org-1" && ev.Description == nil && ev.Location == nil
	})).Return(nil)
	require.NoError(t, page.CreateEvent(t.Context(), form))

	f.backend.On("SendNotification", mock.Anything, mock.MatchedBy(func(r backend.Reminder) bool {
		return r.Type == "event_reminder" && r.Event.EventID == "e1" && r.Event.RemainingSeats == 5
	})).Return(nil)
	require.NoError(t, page.SendReminder(t.Context(), "e1"))

	f.backend.On("DeleteEvent", mock.Anything, "tok", backend.ID("e1")).Return(&backend.APIError{Status: 409, Detail: "Event has bookings"})
	err = page.DeleteEvent(t.Context(), "e1")
	assert.Equal(t, "Event has bookings", errs.From(err).Message)

	page.inflight.Wait()
	f.backend.AssertExpectations(t)
}

func TestStudentCannotCreateEvents(t *testing.T) {
	f := newFixture(t)
	f.src.On("UserBookings", mock.Anything, "tok", "u-1").Return([]backend.Booking{}, nil)

	page := f.open(t, student)
	err := page.CreateEvent(t.Context(), EventForm{Name: "x", StartTime: "2025-03-10T10:00", EndTime: "2025-03-10T11:00"})
	assert.True(t, errs.HasCode(err, errs.ErrForbidden))
}

func TestEventFormValidate(t *testing.T) {
	tests := []struct {
		name string
		form EventForm
		code int
	}{
		{"missing name", EventForm{StartTime: "2025-01-01T10:00", EndTime: "2025-01-01T11:00"}, errs.ErrEventNameRequired},
		{"missing time", EventForm{Name: "a", StartTime: "2025-01-01T10:00"}, errs.ErrEventTimeRequired},
		{"bad time", EventForm{Name: "a", StartTime: "tomorrow", EndTime: "2025-01-01T11:00"}, errs.ErrEventTimeInvalid},
		{"same time", EventForm{Name: "a", StartTime: "2025-01-01T10:00", EndTime: "2025-01-01T10:00"}, errs.ErrEventTimeOrder},
		{"negative seats", EventForm{Name: "a", StartTime: "2025-01-01T10:00", EndTime: "2025-01-01T11:00", TotalSeats: -1}, errs.ErrEventSeatsNegative},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := tt.form.validate()
			require.NotNil(t, err)
			assert.Equal(t, tt.code, err.Code)
		})
	}

	_, _, err := EventForm{Name: "a", StartTime: "2025-01-01T10:00", EndTime: "2025-01-01T10:30:00"}.validate()
	assert.Nil(t, err)
}

func TestRegister_RefusedWhileBookingActive(t *testing.T) {
	f := newFixture(t)
	f.src.On("UserBookings", mock.Anything, "tok", "u-1").Return([]backend.Booking{
		{ID: "b1", EventID: "e1", UserID: "u-1", Status: backend.StatusConfirmed},
		{ID: "b2", EventID: "e2", UserID: "u-1", Status: backend.StatusCancelled},
	}, nil)
	f.backend.On("Book", mock.Anything, "tok", mock.Anything).Return(http.StatusCreated, nil)

	page := f.open(t, student)
	assert.Equal(t, reconcile.ActionCancel, rowOf(t, page.Snapshot(Criteria{}), "e1").Action)

	err := page.Register(t.Context(), "e1")
	assert.True(t, errs.HasCode(err, errs.ErrAlreadyRegistered))
	assert.Empty(t, rowOf(t, page.Snapshot(Criteria{}), "e1").Pending)
	f.backend.AssertNotCalled(t, "Book", mock.Anything, mock.Anything, mock.Anything)

	// A cancelled booking does not block registering again.
	require.NoError(t, page.Register(t.Context(), "e2"))
	page.inflight.Wait()
	f.backend.AssertNumberOfCalls(t, "Book", 1)
}

// newBarePage opens a page on src without the fixture's default expectations, so tests
// can queue the answers of successive fetches in order.
func newBarePage(t *testing.T, src *mockSource) *Page {
	t.Helper()

	mgr := newManager(Services{Backend: new(mockBackend), Roster: roster.NewFetcher(src, 1)}, time.Minute, newTestClock().Now)
	t.Cleanup(mgr.Shutdown)

	page, err := mgr.Open(t.Context(), student)
	require.NoError(t, err)
	return page
}

// blockOn makes a mock call signal entered and then wait for release.
func blockOn(entered chan<- struct{}, release <-chan struct{}) func(mock.Arguments) {
	return func(mock.Arguments) {
		close(entered)
		<-release
	}
}

func TestRefetchBookings_OlderResultDiscarded(t *testing.T) {
	src := new(mockSource)
	entered, release := make(chan struct{}), make(chan struct{})

	src.On("ListEvents", mock.Anything, "tok").Return(testEvents, nil)
	src.On("AvailableSeats", mock.Anything, "tok", mock.Anything).Return(3, nil)
	src.On("UserBookings", mock.Anything, "tok", "u-1").Return([]backend.Booking{}, nil).Once()
	src.On("UserBookings", mock.Anything, "tok", "u-1").Run(blockOn(entered, release)).Return([]backend.Booking{
		{ID: "old", EventID: "e1", Status: backend.StatusWaiting},
	}, nil).Once()
	src.On("UserBookings", mock.Anything, "tok", "u-1").Return([]backend.Booking{
		{ID: "new", EventID: "e1", Status: backend.StatusConfirmed},
	}, nil).Once()

	page := newBarePage(t, src)

	done := make(chan struct{})
	go func() {
		page.refetchBookings()
		close(done)
	}()
	<-entered

	page.refetchBookings()
	close(release)
	<-done

	row := rowOf(t, page.Snapshot(Criteria{}), "e1")
	assert.Equal(t, backend.ID("new"), row.BookingID)
	assert.Equal(t, reconcile.StateConfirmed, row.State)
}

func TestRefetchRoster_OlderEventsDiscarded(t *testing.T) {
	src := new(mockSource)
	entered, release := make(chan struct{}), make(chan struct{})

	src.On("UserBookings", mock.Anything, "tok", "u-1").Return([]backend.Booking{}, nil)
	src.On("AvailableSeats", mock.Anything, "tok", mock.Anything).Return(3, nil)
	src.On("ListEvents", mock.Anything, "tok").Return(testEvents, nil).Once()
	src.On("ListEvents", mock.Anything, "tok").Run(blockOn(entered, release)).Return(testEvents, nil).Once()
	src.On("ListEvents", mock.Anything, "tok").Return(testEvents[1:], nil).Once()

	page := newBarePage(t, src)

	done := make(chan error, 1)
	go func() { done <- page.refetchRoster() }()
	<-entered

	require.NoError(t, page.refetchRoster())
	close(release)
	require.NoError(t, <-done)

	snap := page.Snapshot(Criteria{})
	require.Len(t, snap.Events, 1)
	assert.Equal(t, backend.ID("e2"), snap.Events[0].Event.ID)
}

func TestRefetchRoster_OlderSeatsDiscarded(t *testing.T) {
	src := new(mockSource)
	entered, release := make(chan struct{}), make(chan struct{})

	src.On("UserBookings", mock.Anything, "tok", "u-1").Return([]backend.Booking{}, nil)
	src.On("ListEvents", mock.Anything, "tok").Return(testEvents[:1], nil)
	src.On("AvailableSeats", mock.Anything, "tok", backend.ID("e1")).Return(3, nil).Once()
	src.On("AvailableSeats", mock.Anything, "tok", backend.ID("e1")).Run(blockOn(entered, release)).Return(1, nil).Once()
	src.On("AvailableSeats", mock.Anything, "tok", backend.ID("e1")).Return(7, nil).Once()

	page := newBarePage(t, src)

	done := make(chan error, 1)
	go func() { done <- page.refetchRoster() }()
	<-entered

	require.NoError(t, page.refetchRoster())
	close(release)
	require.NoError(t, <-done)

	n, known := rowOf(t, page.Snapshot(Criteria{}), "e1").Seats.Value()
	assert.True(t, known)
	assert.Equal(t, 7, n)
}

func TestClosedPage_StartsNoFetches(t *testing.T) {
	f := newFixture(t)
	f.src.On("UserBookings", mock.Anything, "tok", "u-1").Return([]backend.Booking{}, nil)

	page := f.open(t, student)
	page.Close()

	ran := false
	page.refetchInBackground(func() { ran = true })
	page.inflight.Wait()
	assert.False(t, ran)

	err := page.Refresh(t.Context())
	assert.True(t, errs.HasCode(err, errs.ErrPageNotFound))

	f.src.AssertNumberOfCalls(t, "ListEvents", 1)
}
