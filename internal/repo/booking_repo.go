// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Booking
// model.
//
// Error semantics follow the package convention: ErrNotFound for missing
// rows, raw gorm errors otherwise.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/seatwise/go-booking-backend/internal/domain"
)

// CreateBooking inserts b, assigning a UUID primary key and UTC creation
// timestamp when unset. The persisted row is returned.
func CreateBooking(ctx context.Context, db *gorm.DB, b *domain.Booking) (*domain.Booking, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	if err := db.WithContext(ctx).Create(b).Error; err != nil {
		return nil, err
	}
	return b, nil
}

// ListBookingsBetween returns non-cancelled bookings for the tenant whose
// start time falls in [from, to). The slot generator widens the range by a
// booking duration on each side, so rows straddling the window edges are
// captured.
func ListBookingsBetween(ctx context.Context, db *gorm.DB, tenantID string, from, to time.Time) ([]domain.Booking, error) {
	var out []domain.Booking
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND start_time >= ? AND start_time < ? AND status <> ?",
			tenantID, from, to, domain.BookingStatusCancelled).
		Order("start_time asc").
		Find(&out).Error
	return out, err
}

// CountBookingsOverlapping returns how many non-cancelled bookings overlap
// [from, to) for the tenant. Start times are compared against the window
// assuming the default seating duration; used by the confirmation capacity
// re-check inside its transaction.
func CountBookingsOverlapping(ctx context.Context, db *gorm.DB, tenantID string, from, to time.Time, duration time.Duration) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Booking{}).
		Where("tenant_id = ? AND status <> ? AND start_time < ? AND start_time > ?",
			tenantID, domain.BookingStatusCancelled, to, from.Add(-duration)).
		Count(&total).Error
	return total, err
}

// LatestBookingByGuestEmail returns the most recently created booking for
// (tenant, email), or ErrNotFound. This is the compensating read used by the
// confirmation workflow when an insert does not come back with a usable row.
func LatestBookingByGuestEmail(ctx context.Context, db *gorm.DB, tenantID, email string) (*domain.Booking, error) {
	var b domain.Booking
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND guest_email = ?", tenantID, email).
		Order("created_at desc").
		First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}
