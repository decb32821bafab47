// Package schedule contains the pure time-domain logic of the reservation
// engine: resolving a tenant's open/close window for a calendar date and
// generating discretized, availability-annotated candidate slots. Nothing in
// this package touches the store; callers feed it tenant rows, table
// inventory, and existing bookings.
package schedule

import (
	"fmt"
	"time"

	"github.com/seatwise/go-booking-backend/internal/domain"
)

// Window is an open/close wall-clock pair in the tenant's timezone,
// pre-parsed to hour/minute components.
type Window struct {
	OpenHour  int
	OpenMin   int
	CloseHour int
	CloseMin  int
	Open      string // original "HH:MM"
	Close     string // original "HH:MM"
}

// Closure reasons reported when no window exists for a date.
const (
	ReasonHoliday = "HOLIDAY"
	ReasonClosed  = "CLOSED_OR_NO_HOURS"
)

// WindowFor computes the open/close window for tenant on the given
// tenant-local calendar date ("2006-01-02"). It returns (nil, reason, nil)
// when the tenant is closed: reason is ReasonHoliday for an exact holiday
// match, ReasonClosed when the weekday has no hours row or the row is marked
// closed. The weekday is determined in the tenant's timezone, never the
// server's.
func WindowFor(t *domain.Tenant, date string) (*Window, string, error) {
	loc, err := time.LoadLocation(t.Timezone)
	if err != nil {
		return nil, "", fmt.Errorf("tenant %s: bad timezone %q: %w", t.ID, t.Timezone, err)
	}

	// Anchor noon local to sidestep any DST midnight edge when deriving the
	// weekday for the date.
	day, err := time.ParseInLocation(domain.DateLayout, date, loc)
	if err != nil {
		return nil, "", fmt.Errorf("bad service date %q: %w", date, err)
	}
	weekday := day.Add(12 * time.Hour).In(loc).Weekday()

	for _, h := range t.Holidays {
		if h.Date == date {
			return nil, ReasonHoliday, nil
		}
	}

	for _, row := range t.Hours {
		if row.Weekday != int(weekday) {
			continue
		}
		if row.Closed || row.Open == "" || row.Close == "" {
			return nil, ReasonClosed, nil
		}
		w := &Window{Open: row.Open, Close: row.Close}
		if w.OpenHour, w.OpenMin, err = parseClock(row.Open); err != nil {
			return nil, "", fmt.Errorf("tenant %s weekday %d: %w", t.ID, row.Weekday, err)
		}
		if w.CloseHour, w.CloseMin, err = parseClock(row.Close); err != nil {
			return nil, "", fmt.Errorf("tenant %s weekday %d: %w", t.ID, row.Weekday, err)
		}
		return w, "", nil
	}
	return nil, ReasonClosed, nil
}

// parseClock splits an "HH:MM" wall-clock string.
func parseClock(s string) (hour, min int, err error) {
	if _, err = fmt.Sscanf(s, "%d:%d", &hour, &min); err != nil {
		return 0, 0, fmt.Errorf("bad wall-clock value %q: %w", s, err)
	}
	if hour < 0 || hour > 23 || min < 0 || min > 59 {
		return 0, 0, fmt.Errorf("wall-clock value %q out of range", s)
	}
	return hour, min, nil
}
