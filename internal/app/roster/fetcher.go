/*
Package roster loads the event roster, the remaining seats of every event and the
signed-in user's bookings from the backend services.
*/
package roster

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"campusportal/internal/app/backend"
	"campusportal/internal/app/user"
	"campusportal/internal/pkg/logx"
)

// DefaultConcurrency bounds parallel seat lookups when none is configured.
const DefaultConcurrency = 8

// Source is the subset of the backend client the fetcher needs.
type Source interface {
	ListEvents(ctx context.Context, token string) ([]backend.Event, error)
	AvailableSeats(ctx context.Context, token string, eventID backend.ID) (int, error)
	UserBookings(ctx context.Context, token, userID string) ([]backend.Booking, error)
}

// Fetcher loads rosters and bookings.
type Fetcher struct {
	src         Source
	concurrency int
	logger      zerolog.Logger
}

// NewFetcher creates a Fetcher running at most concurrency seat lookups at once.
func NewFetcher(src Source, concurrency int) *Fetcher {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Fetcher{
		src:         src,
		concurrency: concurrency,
		logger:      logx.Component("roster"),
	}
}

// Events loads the roster in backend order.
func (f *Fetcher) Events(ctx context.Context, token string) ([]backend.Event, error) {
	events, err := f.src.ListEvents(ctx, token)
	if err != nil {
		return nil, err
	}
	return events, nil
}

// FetchSeats looks up every event's remaining seats concurrently and returns a fresh map
// once all lookups have finished.
func (f *Fetcher) FetchSeats(ctx context.Context, token string, events []backend.Event) Seats {
	counts := make([]SeatCount, len(events))

	var g errgroup.Group
	g.SetLimit(f.concurrency)

	for i, ev := range events {
		g.Go(func() error {
			n, err := f.src.AvailableSeats(ctx, token, ev.ID)
			if err != nil {
				f.logger.Warn().Err(err).Str("event_id", string(ev.ID)).Msg("Seat lookup failed")
				counts[i] = Unknown()
				return nil
			}
			counts[i] = Known(n)
			return nil
		})
	}
	_ = g.Wait()

	seats := make(Seats, len(events))
	for i, ev := range events {
		seats[ev.ID] = counts[i]
	}
	return seats
}

// Bookings returns the bookings of id. Failures yield an empty list.
func (f *Fetcher) Bookings(ctx context.Context, id user.Identity) []backend.Booking {
	if id.UserID == "" {
		return []backend.Booking{}
	}

	bookings, err := f.src.UserBookings(ctx, id.Token, id.UserID)
	if err != nil {
		if ctx.Err() == nil {
			f.logger.Warn().Err(err).Str("user_id", id.UserID).Msg("Failed to fetch bookings")
		}
		return []backend.Booking{}
	}
	return bookings
}
