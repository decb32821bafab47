// Package schedule – slot generation.
package schedule

import (
	"sort"
	"time"

	"github.com/seatwise/go-booking-backend/internal/domain"
)

// Buffers is the mandatory idle time enforced around existing bookings on the
// same table. Application is asymmetric: Pre extends the candidate's leading
// edge backwards, Post extends both the candidate's and the existing
// booking's trailing edges.
type Buffers struct {
	Pre  time.Duration
	Post time.Duration
}

// Slot is one candidate bookable start time annotated with how many suitable
// tables remain free at that instant.
type Slot struct {
	Start           time.Time `json:"time"` // absolute, UTC
	AvailableTables int       `json:"available_tables"`
	Optimal         bool      `json:"optimal"`
}

// GenerateParams carries everything Generate needs. Interval and Duration
// default to 30 and 120 minutes when zero; Now must be supplied by the caller
// (the service layer injects the clock so tests stay deterministic).
type GenerateParams struct {
	Tables    []domain.RestaurantTable
	Bookings  []domain.Booking
	PartySize int
	Date      string // tenant-local calendar date, DateLayout
	Window    *Window
	Location  *time.Location
	Buffers   Buffers
	Interval  time.Duration
	Duration  time.Duration
	Now       time.Time
}

// Generate produces the discretized candidate start times for one date.
//
// Candidates step every Interval from Window open up to (exclusive of) close,
// each converted from tenant wall clock to UTC by constructing the instant in
// the tenant's location, so the UTC offset is the one in force at that
// candidate (DST-correct by construction). Candidates not strictly after Now
// are dropped.
//
// A table conflicts with a candidate when
//
//	[candidate−Pre, candidate+Duration+Post) overlaps [start, end+Post)
//
// for any existing booking on that table; a table with several overlapping
// bookings is still subtracted once. Bookings not yet assigned to a table
// each consume one unit of capacity while they overlap (the engine reserves
// capacity, not furniture, so unassigned rows still occupy a seat-group).
//
// A slot is emitted only when its available count is positive. Optimal marks
// candidates starting 18:00–19:59 tenant-local, a peak-desirability hint for
// UI sorting with no other semantics.
func Generate(p GenerateParams) []Slot {
	if p.Window == nil || p.Location == nil {
		return nil
	}
	interval := p.Interval
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	duration := p.Duration
	if duration <= 0 {
		duration = 120 * time.Minute
	}

	day, err := time.ParseInLocation(domain.DateLayout, p.Date, p.Location)
	if err != nil {
		return nil
	}
	y, m, d := day.Date()

	eligible := make([]domain.RestaurantTable, 0, len(p.Tables))
	for _, t := range p.Tables {
		if t.Active && t.Capacity >= p.PartySize {
			eligible = append(eligible, t)
		}
	}
	if len(eligible) == 0 {
		return nil
	}

	closeLocal := time.Date(y, m, d, p.Window.CloseHour, p.Window.CloseMin, 0, 0, p.Location)

	var out []Slot
	for mins := p.Window.OpenHour*60 + p.Window.OpenMin; ; mins += int(interval.Minutes()) {
		candidate := time.Date(y, m, d, mins/60, mins%60, 0, 0, p.Location)
		if !candidate.Before(closeLocal) {
			break
		}
		start := candidate.UTC()
		if !start.After(p.Now) {
			continue
		}

		available := availableAt(eligible, p.Bookings, start, duration, p.Buffers)
		if available <= 0 {
			continue
		}

		localHour := candidate.Hour()
		out = append(out, Slot{
			Start:           start,
			AvailableTables: available,
			Optimal:         localHour == 18 || localHour == 19,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

// availableAt counts eligible tables minus distinct conflicting tables minus
// overlapping table-less bookings, floored at zero.
func availableAt(eligible []domain.RestaurantTable, bookings []domain.Booking, start time.Time, duration time.Duration, buf Buffers) int {
	candFrom := start.Add(-buf.Pre)
	candTo := start.Add(duration + buf.Post)

	conflicting := make(map[string]struct{})
	unassigned := 0
	for _, b := range bookings {
		if b.Status == domain.BookingStatusCancelled {
			continue
		}
		busyFrom := b.StartTime
		busyTo := b.End().Add(buf.Post)
		if !candFrom.Before(busyTo) || !busyFrom.Before(candTo) {
			continue
		}
		if b.TableID == "" {
			unassigned++
			continue
		}
		conflicting[b.TableID] = struct{}{}
	}

	// Only conflicts on tables we actually counted as eligible reduce the
	// total; a busy two-top does not block a six-top search.
	hit := 0
	for _, t := range eligible {
		if _, ok := conflicting[t.ID]; ok {
			hit++
		}
	}

	available := len(eligible) - hit - unassigned
	if available < 0 {
		return 0
	}
	return available
}
