package reconcile

import (
	"fmt"
	"strings"
	"time"

	"campusportal/internal/app/user"
)

// Month is a calendar month used to narrow the roster. The zero Month matches everything.
type Month struct {
	Year  int
	Month time.Month
}

// ParseMonth parses "YYYY-MM". An empty string yields the zero Month.
func ParseMonth(s string) (Month, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Month{}, nil
	}

	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, fmt.Errorf("invalid month %q, expected YYYY-MM", s)
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

// IsZero reports whether m matches every event.
func (m Month) IsZero() bool {
	return m.Year == 0
}

func (m Month) contains(t time.Time) bool {
	return !t.IsZero() && t.Year() == m.Year && t.Month() == m.Month
}

// Criteria narrows a list of rows.
type Criteria struct {
	Month Month

	// Query is matched case-insensitively against the event name.
	Query string
}

// Filter returns the rows matching c, keeping their order. With a month set, events without
// a start time are excluded.
func Filter(rows []Row, c Criteria) []Row {
	query := strings.ToLower(strings.TrimSpace(c.Query))

	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		if !c.Month.IsZero() && !c.Month.contains(row.Event.StartTime.Time) {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(row.Event.Name), query) {
			continue
		}
		out = append(out, row)
	}
	return out
}

// OwnedBy returns the rows whose event was created by organizerID.
func OwnedBy(rows []Row, organizerID string) []Row {
	organizerID = strings.TrimSpace(organizerID)

	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		if organizerID != "" && strings.EqualFold(strings.TrimSpace(string(row.Event.OrganizerID)), organizerID) {
			out = append(out, row)
		}
	}
	return out
}

// MarkManageable sets CanManage on every row id may manage.
func MarkManageable(rows []Row, id user.Identity) {
	for i := range rows {
		rows[i].CanManage = id.CanManage(string(rows[i].Event.OrganizerID))
	}
}
