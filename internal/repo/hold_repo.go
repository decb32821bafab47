// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for checkout holds,
// including the schema-variant fallback write: most deployments store the
// hold's target instant as an absolute start_time column, but some older
// schemas carry split hold_date/hold_time wall-clock columns instead. The
// create path tries the absolute representation first and transparently
// retries with the split one, so callers never see the schema detail.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/seatwise/go-booking-backend/internal/domain"
)

// CreateHold persists h. On a failed insert with the absolute start_time
// representation it retries once with the split date/time representation
// before giving up. The returned error is the second attempt's when both
// fail.
func CreateHold(ctx context.Context, db *gorm.DB, h *domain.Hold) error {
	if err := db.WithContext(ctx).Create(h).Error; err == nil {
		return nil
	}

	// Alternate representation: split wall-clock columns, zero start_time.
	start := h.StartTime.UTC()
	return db.WithContext(ctx).Exec(
		`INSERT INTO holds (id, tenant_id, hold_date, hold_time, party_size, duration_minutes, session_id, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		h.ID, h.TenantID,
		start.Format(domain.DateLayout), start.Format("15:04:05"),
		h.PartySize, h.DurationMinutes, h.SessionID, h.ExpiresAt, h.CreatedAt,
	).Error
}

// GetHold fetches a hold by id for the tenant, or ErrNotFound. Expiry is the
// caller's concern; the row is returned even when stale so the service layer
// can distinguish "expired" from "never existed" in its logs (clients see the
// same not-found either way).
func GetHold(ctx context.Context, db *gorm.DB, tenantID, id string) (*domain.Hold, error) {
	var h domain.Hold
	err := db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&h).Error
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// DeleteHold removes a hold after consumption. Missing rows are not an
// error; the hold may have been purged concurrently.
func DeleteHold(ctx context.Context, db *gorm.DB, tenantID, id string) error {
	return db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Delete(&domain.Hold{}).Error
}

// DeleteExpiredHolds purges holds whose expiry is at or before now and
// returns how many were removed. Invoked opportunistically on hold creation.
func DeleteExpiredHolds(ctx context.Context, db *gorm.DB, tenantID string, now time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Where("tenant_id = ? AND expires_at <= ?", tenantID, now).
		Delete(&domain.Hold{})
	return res.RowsAffected, res.Error
}
