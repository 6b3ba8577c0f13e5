/*
Package analytics serves organizers the registration figures of their events: the booking
count, the paginated registrant list and CSV exports of it.
*/
package analytics

import (
	"context"

	"github.com/rs/zerolog"

	"campusportal/internal/app/backend"
	"campusportal/internal/pkg/logx"
)

// DefaultBatchSize is the registrant page size used by the portal.
const DefaultBatchSize = 5

// Source is the subset of the backend client analytics needs.
type Source interface {
	BookingsCount(ctx context.Context, token string, eventID backend.ID) (int, error)
	BookingsBatch(ctx context.Context, token string, eventID backend.ID, offset, size int) ([]backend.Registrant, error)
}

// Count returns the number of bookings of eventID, or 0 when it cannot be loaded.
func Count(ctx context.Context, src Source, token string, eventID backend.ID) int {
	n, err := src.BookingsCount(ctx, token, eventID)
	if err != nil {
		logx.Warn("Failed to fetch bookings count", "event_id", string(eventID), "error", err.Error())
		return 0
	}
	return n
}

// Batch is one page of registrants.
type Batch struct {
	Registrants []backend.Registrant `json:"registrants"`
	Offset      int                  `json:"offset"`

	// NextOffset is where the following page starts.
	NextOffset int  `json:"next_offset"`
	HasMore    bool `json:"has_more"`
}

// Pager walks the registrant list of an event in fixed-size batches.
type Pager struct {
	src       Source
	batchSize int
	logger    zerolog.Logger
}

// NewPager creates a Pager requesting batchSize registrants at a time.
func NewPager(src Source, batchSize int) *Pager {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Pager{src: src, batchSize: batchSize, logger: logx.Component("analytics")}
}

// BatchSize returns the page size.
func (p *Pager) BatchSize() int {
	return p.batchSize
}

// Fetch returns the registrants starting at offset. A full batch means more may follow;
// a 404 from the booking service means the list is exhausted and is not an error.
func (p *Pager) Fetch(ctx context.Context, token string, eventID backend.ID, offset int) (Batch, error) {
	offset = max(offset, 0)

	rows, err := p.src.BookingsBatch(ctx, token, eventID, offset, p.batchSize)
	if err != nil {
		if backend.IsNotFound(err) {
			return Batch{Registrants: []backend.Registrant{}, Offset: offset, NextOffset: offset}, nil
		}
		p.logger.Warn().Err(err).Str("event_id", string(eventID)).Int("offset", offset).Msg("Failed to fetch registrants")
		return Batch{}, err
	}

	return Batch{
		Registrants: rows,
		Offset:      offset,
		NextOffset:  offset + len(rows),
		HasMore:     len(rows) == p.batchSize,
	}, nil
}

// Drain fetches every registrant of eventID, stopping after limit rows.
func (p *Pager) Drain(ctx context.Context, token string, eventID backend.ID, limit int) ([]backend.Registrant, error) {
	var all []backend.Registrant

	offset := 0
	for {
		batch, err := p.Fetch(ctx, token, eventID, offset)
		if err != nil {
			return nil, err
		}

		all = append(all, batch.Registrants...)
		if !batch.HasMore || len(all) >= limit {
			break
		}
		offset = batch.NextOffset
	}

	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}
