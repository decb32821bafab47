// Package services – HoldService.
//
// This file implements checkout holds: a short-lived reservation lock on a
// time/party-size combination so a guest can finish a multi-step checkout
// without losing the slot. A hold reserves capacity intent only; no table is
// assigned. Note that two concurrent holds on the same slot are both allowed
// here; the confirmation capacity re-check is what finally arbitrates.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/seatwise/go-booking-backend/internal/domain"
)

// HoldRepo defines the repository contract required by HoldService.
type HoldRepo interface {
	// CreateHold persists a hold, transparently retrying with the alternate
	// schema representation (see repo.CreateHold).
	CreateHold(ctx context.Context, db *gorm.DB, h *domain.Hold) error

	// DeleteExpiredHolds purges stale holds for the tenant.
	DeleteExpiredHolds(ctx context.Context, db *gorm.DB, tenantID string, now time.Time) (int64, error)
}

// HoldService creates checkout holds.
type HoldService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the hold repository used by this service.
	Repo HoldRepo

	// TTL is the hold lifetime (10 minutes in the default configuration).
	TTL time.Duration
	// Duration is the seating duration stamped onto the hold.
	Duration time.Duration

	// Now is the clock; overridable in tests.
	Now func() time.Time
}

// NewHoldService constructs a HoldService with the given lifetime and
// seating duration.
func NewHoldService(db *gorm.DB, r HoldRepo, ttl, duration time.Duration) *HoldService {
	return &HoldService{DB: db, Repo: r, TTL: ttl, Duration: duration, Now: time.Now}
}

// Create persists a hold for tenant at start (UTC) for partySize guests and
// returns it with its expiry. Missing or invalid input fails with
// ErrInvalidInput; persistence failure (after the schema-variant retry) with
// ErrHoldFailed.
func (s *HoldService) Create(ctx context.Context, tenant *domain.Tenant, start time.Time, partySize int) (*domain.Hold, error) {
	if tenant == nil {
		return nil, fmt.Errorf("%w: tenant is required", ErrInvalidInput)
	}
	if start.IsZero() {
		return nil, fmt.Errorf("%w: slot time is required", ErrInvalidInput)
	}
	if partySize <= 0 {
		return nil, fmt.Errorf("%w: party_size must be positive", ErrInvalidInput)
	}

	now := s.Now().UTC()

	// Opportunistic purge keeps the holds table from accumulating stale rows.
	// Best-effort: a failed purge never blocks the new hold.
	if n, err := s.Repo.DeleteExpiredHolds(ctx, s.DB, tenant.ID, now); err != nil {
		log.Warn().Err(err).Str("tenant_id", tenant.ID).Msg("expired hold purge failed")
	} else if n > 0 {
		log.Debug().Int64("purged", n).Str("tenant_id", tenant.ID).Msg("purged expired holds")
	}

	h := &domain.Hold{
		ID:              uuid.NewString(),
		TenantID:        tenant.ID,
		StartTime:       start.UTC(),
		PartySize:       partySize,
		DurationMinutes: int(s.Duration.Minutes()),
		SessionID:       uuid.NewString(),
		ExpiresAt:       now.Add(s.TTL),
		CreatedAt:       now,
	}
	if err := s.Repo.CreateHold(ctx, s.DB, h); err != nil {
		log.Error().Err(err).Str("tenant_id", tenant.ID).Msg("hold insert failed")
		return nil, fmt.Errorf("%w: %v", ErrHoldFailed, err)
	}
	return h, nil
}
