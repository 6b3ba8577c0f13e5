package analytics

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"campusportal/internal/app/backend"
	"campusportal/internal/app/storage"
)

const (
	// MaxExportRows bounds how many registrants one export drains.
	MaxExportRows = 10000

	// DownloadLinkDuration is how long an export's download link stays valid.
	DownloadLinkDuration = 15 * time.Minute
)

// ErrExportUnavailable is returned when no storage is configured.
var ErrExportUnavailable = errors.New("registrant export storage is not configured")

// Export describes an uploaded registrant CSV.
type Export struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	Rows      int       `json:"rows"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Exporter writes an event's registrants to CSV in object storage.
type Exporter struct {
	pager *Pager
	store storage.Service
	now   func() time.Time
}

// NewExporter creates an Exporter. A nil store disables exports.
func NewExporter(pager *Pager, store storage.Service) *Exporter {
	return &Exporter{pager: pager, store: store, now: time.Now}
}

// Enabled reports whether exports can be written.
func (e *Exporter) Enabled() bool {
	return e.store != nil
}

// Export drains the registrants of eventID, uploads them as CSV and returns a presigned
// download link.
func (e *Exporter) Export(ctx context.Context, token string, eventID backend.ID) (Export, error) {
	if !e.Enabled() {
		return Export{}, ErrExportUnavailable
	}

	rows, err := e.pager.Drain(ctx, token, eventID, MaxExportRows)
	if err != nil {
		return Export{}, fmt.Errorf("load registrants: %w", err)
	}

	var buf bytes.Buffer
	if err := writeCSV(&buf, rows); err != nil {
		return Export{}, fmt.Errorf("encode registrants: %w", err)
	}

	now := e.now().UTC()
	key := fmt.Sprintf("exports/%s/%s-%s.csv", sanitizeKey(string(eventID)), now.Format("20060102T150405Z"), uuid.NewString()[:8])

	if err := e.store.Upload(ctx, key, "text/csv", &buf); err != nil {
		return Export{}, err
	}

	url, err := e.store.PresignDownload(ctx, key, DownloadLinkDuration)
	if err != nil {
		_ = e.store.Delete(context.WithoutCancel(ctx), key)
		return Export{}, err
	}

	e.pager.logger.Info().Str("event_id", string(eventID)).Str("key", key).Int("rows", len(rows)).Msg("Registrant export uploaded.")

	return Export{Key: key, URL: url, Rows: len(rows), ExpiresAt: now.Add(DownloadLinkDuration)}, nil
}

func writeCSV(buf *bytes.Buffer, rows []backend.Registrant) error {
	w := csv.NewWriter(buf)
	if err := w.Write([]string{"booking_id", "user_email", "status", "booking_time"}); err != nil {
		return err
	}

	for _, r := range rows {
		bookedAt := ""
		if !r.BookedAt.IsZero() {
			bookedAt = r.BookedAt.Format(time.RFC3339)
		}
		if err := w.Write([]string{string(r.BookingID), r.UserEmail, r.Status, bookedAt}); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// sanitizeKey keeps object keys to a safe character set.
func sanitizeKey(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}
