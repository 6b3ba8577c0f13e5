package roster

import (
	"encoding/json"

	"campusportal/internal/app/backend"
)

// SeatCount is the remaining seat count of one event: a known integer >= 0, or unknown
// when the lookup failed.
type SeatCount struct {
	n     int
	known bool
}

// Known returns a known count; negative values clamp to 0.
func Known(n int) SeatCount {
	return SeatCount{n: max(n, 0), known: true}
}

// Unknown returns the count of an event whose lookup failed.
func Unknown() SeatCount {
	return SeatCount{}
}

// Value returns the count and whether it is known.
func (s SeatCount) Value() (int, bool) {
	return s.n, s.known
}

// SoldOut reports whether the count is known to be zero.
func (s SeatCount) SoldOut() bool {
	return s.known && s.n == 0
}

// MarshalJSON writes the count, or null when unknown.
func (s SeatCount) MarshalJSON() ([]byte, error) {
	if !s.known {
		return []byte("null"), nil
	}
	return json.Marshal(s.n)
}

// Seats maps event ids to their seat counts. A map is never mutated once published;
// refreshes build a new one.
type Seats map[backend.ID]SeatCount

// Lookup returns the count of id and whether any lookup result exists for it.
func (s Seats) Lookup(id backend.ID) (SeatCount, bool) {
	count, ok := s[id]
	return count, ok
}
