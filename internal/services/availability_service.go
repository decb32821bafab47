// Package services – AvailabilityService.
//
// This file implements the availability search: given a tenant and a service
// date, it resolves the tenant's open window, loads table inventory and the
// day's bookings, and asks the slot generator for the bookable candidates.
// The search is read-only; concurrent searches never contend.
package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/seatwise/go-booking-backend/internal/config"
	"github.com/seatwise/go-booking-backend/internal/domain"
	"github.com/seatwise/go-booking-backend/internal/schedule"
)

// AvailabilityRepo defines the repository contract required by
// AvailabilityService.
type AvailabilityRepo interface {
	// ListActiveTables returns the tenant's active seating units.
	ListActiveTables(ctx context.Context, db *gorm.DB, tenantID string) ([]domain.RestaurantTable, error)

	// ListBookingsBetween returns non-cancelled bookings starting in [from, to).
	ListBookingsBetween(ctx context.Context, db *gorm.DB, tenantID string, from, to time.Time) ([]domain.Booking, error)
}

// AvailabilityService computes bookable slots for a date. It holds the engine
// tunables (grid interval, seating duration, buffers) injected from config.
type AvailabilityService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the repository used by this service.
	Repo AvailabilityRepo

	Interval time.Duration
	Duration time.Duration
	Buffers  schedule.Buffers

	// Now is the clock; overridable in tests.
	Now func() time.Time
}

// NewAvailabilityService constructs an AvailabilityService from the engine
// configuration.
func NewAvailabilityService(db *gorm.DB, r AvailabilityRepo, eng config.EngineConfig) *AvailabilityService {
	return &AvailabilityService{
		DB:       db,
		Repo:     r,
		Interval: eng.SlotInterval,
		Duration: eng.DefaultDuration,
		Buffers:  schedule.Buffers{Pre: eng.PreBuffer, Post: eng.PostBuffer},
		Now:      time.Now,
	}
}

// Search returns the bookable slots for tenant on date (tenant-local
// "2006-01-02") for partySize guests. When the tenant is closed that day it
// returns an empty slice plus a machine reason (schedule.ReasonHoliday or
// schedule.ReasonClosed); an empty slice with no reason means the day is open
// but fully booked or already in the past.
func (s *AvailabilityService) Search(ctx context.Context, tenant *domain.Tenant, date string, partySize int) ([]schedule.Slot, string, error) {
	if tenant == nil {
		return nil, "", fmt.Errorf("%w: tenant is required", ErrInvalidInput)
	}
	if partySize <= 0 {
		return nil, "", fmt.Errorf("%w: party_size must be positive", ErrInvalidInput)
	}
	if _, err := time.Parse(domain.DateLayout, date); err != nil {
		return nil, "", fmt.Errorf("%w: service_date must be YYYY-MM-DD", ErrInvalidInput)
	}

	window, reason, err := schedule.WindowFor(tenant, date)
	if err != nil {
		return nil, "", err
	}
	if window == nil {
		return []schedule.Slot{}, reason, nil
	}

	loc, err := time.LoadLocation(tenant.Timezone)
	if err != nil {
		return nil, "", fmt.Errorf("tenant %s: bad timezone %q: %w", tenant.ID, tenant.Timezone, err)
	}

	tables, err := s.Repo.ListActiveTables(ctx, s.DB, tenant.ID)
	if err != nil {
		return nil, "", err
	}

	// Widen the fetch window by a seating duration on each side so bookings
	// straddling midnight still conflict correctly.
	day, _ := time.ParseInLocation(domain.DateLayout, date, loc)
	from := day.UTC().Add(-s.Duration)
	to := day.AddDate(0, 0, 1).UTC().Add(s.Duration)
	bookings, err := s.Repo.ListBookingsBetween(ctx, s.DB, tenant.ID, from, to)
	if err != nil {
		return nil, "", err
	}

	slots := schedule.Generate(schedule.GenerateParams{
		Tables:    tables,
		Bookings:  bookings,
		PartySize: partySize,
		Date:      date,
		Window:    window,
		Location:  loc,
		Buffers:   s.Buffers,
		Interval:  s.Interval,
		Duration:  s.Duration,
		Now:       s.Now().UTC(),
	})
	if slots == nil {
		slots = []schedule.Slot{}
	}
	return slots, "", nil
}
