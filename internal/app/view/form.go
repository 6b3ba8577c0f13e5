package view

import (
	"strings"
	"time"

	"campusportal/internal/pkg/errs"
)

// formLayouts are accepted for event start and end times; browsers send datetime-local
// values without seconds.
var formLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// EventForm is the organizer's input for creating or editing an event.
type EventForm struct {
	Name        string `json:"event_name"`
	Description string `json:"description"`
	Location    string `json:"location"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	TotalSeats  int    `json:"total_seats"`
}

func (f EventForm) validate() (start, end time.Time, _ *errs.CustomError) {
	if strings.TrimSpace(f.Name) == "" {
		return start, end, errs.NewError(errs.ErrEventNameRequired)
	}
	if strings.TrimSpace(f.StartTime) == "" || strings.TrimSpace(f.EndTime) == "" {
		return start, end, errs.NewError(errs.ErrEventTimeRequired)
	}

	start, okStart := parseFormTime(f.StartTime)
	end, okEnd := parseFormTime(f.EndTime)
	if !okStart || !okEnd {
		return start, end, errs.NewError(errs.ErrEventTimeInvalid)
	}
	if !end.After(start) {
		return start, end, errs.NewError(errs.ErrEventTimeOrder)
	}
	if f.TotalSeats < 0 {
		return start, end, errs.NewError(errs.ErrEventSeatsNegative)
	}
	return start, end, nil
}

func parseFormTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range formLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// optional returns nil for blank strings so the backend stores null.
func optional(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}
