package view

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"campusportal/internal/app/backend"
	"campusportal/internal/app/user"
	"campusportal/internal/pkg/errs"
)

func TestManager_GetChecksOwner(t *testing.T) {
	f := newFixture(t)
	f.src.On("UserBookings", mock.Anything, "tok", "u-1").Return([]backend.Booking{}, nil)

	page := f.open(t, student)

	got, err := f.manager.Get(page.ID, student)
	require.Nil(t, err)
	assert.Same(t, page, got)

	other := user.Identity{Token: "tok2", Role: user.RoleStudent, UserID: "u-2"}
	_, err = f.manager.Get(page.ID, other)
	require.NotNil(t, err)
	assert.Equal(t, errs.ErrPageNotFound, err.Code)

	_, err = f.manager.Get("not-a-uuid", student)
	require.NotNil(t, err)
	assert.Equal(t, errs.ErrPageNotFound, err.Code)
}

func TestManager_EvictsIdlePages(t *testing.T) {
	f := newFixture(t)
	f.src.On("UserBookings", mock.Anything, "tok", "u-1").Return([]backend.Booking{}, nil)

	stale := f.open(t, student)
	f.clock.Advance(45 * time.Second)
	fresh := f.open(t, student)

	assert.Equal(t, 0, f.manager.evictIdle())

	f.clock.Advance(30 * time.Second)
	assert.Equal(t, 1, f.manager.evictIdle())
	assert.Equal(t, 1, f.manager.Count())

	_, err := f.manager.Get(stale.ID, student)
	require.NotNil(t, err)

	_, err = f.manager.Get(fresh.ID, student)
	assert.Nil(t, err)

	assert.ErrorIs(t, stale.ctx.Err(), context.Canceled)
}

func TestManager_CloseAndShutdown(t *testing.T) {
	f := newFixture(t)
	f.src.On("UserBookings", mock.Anything, "tok", "u-1").Return([]backend.Booking{}, nil)

	first := f.open(t, student)
	second := f.open(t, student)
	require.Equal(t, 2, f.manager.Count())

	require.Nil(t, f.manager.Close(first.ID, student))
	assert.Equal(t, 1, f.manager.Count())
	assert.Error(t, first.ctx.Err())

	f.manager.Shutdown()
	assert.Equal(t, 0, f.manager.Count())
	assert.Error(t, second.ctx.Err())
}

func TestManager_CloseAllFor(t *testing.T) {
	f := newFixture(t)
	other := user.Identity{Token: "tok", Role: user.RoleStudent, UserID: "u-2", Username: "other@campus.edu"}
	f.src.On("UserBookings", mock.Anything, "tok", mock.Anything).Return([]backend.Booking{}, nil)

	mine := f.open(t, student)
	_ = f.open(t, student)
	theirs := f.open(t, other)

	assert.Equal(t, 2, f.manager.CloseAllFor(student))
	assert.Equal(t, 1, f.manager.Count())
	assert.Error(t, mine.ctx.Err())
	assert.NoError(t, theirs.ctx.Err())

	assert.Equal(t, 0, f.manager.CloseAllFor(student))
}
