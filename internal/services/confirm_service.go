// Package services – ConfirmService.
//
// This file implements the confirmation workflow: a valid, unexpired hold
// plus guest details becomes a durable booking with status pending. The
// workflow tolerates read-after-write lag in the backing store with a
// bounded compensating re-read, and supports safe retries through
// caller-supplied idempotency keys whose recorded responses are replayed
// verbatim.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/seatwise/go-booking-backend/internal/domain"
	"github.com/seatwise/go-booking-backend/internal/repo"
)

// Bounded compensating re-read after an insert that returned no usable row.
const (
	insertRetryAttempts = 3
	insertRetryBackoff  = 150 * time.Millisecond
)

// confirmationPrefix is the fixed prefix of human-facing confirmation
// numbers.
const confirmationPrefix = "RES-"

// ConfirmRepo defines the repository contract required by ConfirmService.
type ConfirmRepo interface {
	GetHold(ctx context.Context, db *gorm.DB, tenantID, id string) (*domain.Hold, error)
	DeleteHold(ctx context.Context, db *gorm.DB, tenantID, id string) error
	CreateBooking(ctx context.Context, db *gorm.DB, b *domain.Booking) (*domain.Booking, error)
	LatestBookingByGuestEmail(ctx context.Context, db *gorm.DB, tenantID, email string) (*domain.Booking, error)
	CountActiveTablesWithCapacity(ctx context.Context, db *gorm.DB, tenantID string, partySize int) (int64, error)
	CountBookingsOverlapping(ctx context.Context, db *gorm.DB, tenantID string, from, to time.Time, duration time.Duration) (int64, error)
	GetIdempotency(ctx context.Context, db *gorm.DB, tenantID, key string, now time.Time) (*domain.Idempotency, error)
	CreateIdempotency(ctx context.Context, db *gorm.DB, tenantID, key string, status int, body string, ttl time.Duration) (*domain.Idempotency, error)
}

// GuestDetails are the contact fields attached to the booking at
// confirmation.
type GuestDetails struct {
	Name            string
	Email           string
	Phone           string
	SpecialRequests string
}

// Result is the outcome of a confirmation. When Replayed is true the booking
// fields are unset and ReplayStatus/ReplayBody carry the previously recorded
// response, to be returned to the client byte for byte.
type Result struct {
	Booking            *domain.Booking
	ConfirmationNumber string

	Replayed     bool
	ReplayStatus int
	ReplayBody   string
}

// ConfirmService converts holds into bookings.
type ConfirmService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the repository used by this service.
	Repo ConfirmRepo

	// IdempotencyTTL bounds how long a recorded response stays replayable.
	IdempotencyTTL time.Duration

	// Now is the clock and sleep the backoff primitive; both overridable in
	// tests.
	Now   func() time.Time
	sleep func(time.Duration)
}

// NewConfirmService constructs a ConfirmService.
func NewConfirmService(db *gorm.DB, r ConfirmRepo, idempotencyTTL time.Duration) *ConfirmService {
	return &ConfirmService{
		DB:             db,
		Repo:           r,
		IdempotencyTTL: idempotencyTTL,
		Now:            time.Now,
		sleep:          time.Sleep,
	}
}

// Confirm turns the hold identified by holdID into a pending booking.
//
// Sequence:
//  1. If idempotencyKey matches a recorded response, return it as a replay.
//  2. Load the hold; missing or expired fails with ErrHoldNotFound (never
//     extend an expired hold).
//  3. Inside a transaction, re-check capacity for the hold's window and
//     insert the booking (ErrNoCapacity when nothing remains free).
//  4. If the insert returned no usable identifier, re-query for the latest
//     booking matching tenant and guest email, up to 3 attempts with
//     increasing backoff, before failing with ErrBookingNotCreated.
//
// Guest name and email are required; the hold is deleted best-effort after a
// successful insert.
func (s *ConfirmService) Confirm(ctx context.Context, tenant *domain.Tenant, holdID string, guest GuestDetails, idempotencyKey string) (*Result, error) {
	if tenant == nil {
		return nil, fmt.Errorf("%w: tenant is required", ErrInvalidInput)
	}
	if strings.TrimSpace(holdID) == "" {
		return nil, fmt.Errorf("%w: hold_id is required", ErrInvalidInput)
	}
	guest.Name = strings.TrimSpace(guest.Name)
	guest.Email = strings.TrimSpace(guest.Email)
	if guest.Name == "" || guest.Email == "" {
		return nil, fmt.Errorf("%w: guest name and email are required", ErrInvalidInput)
	}

	now := s.Now().UTC()
	idempotencyKey = strings.TrimSpace(idempotencyKey)

	if idempotencyKey != "" {
		rec, err := s.Repo.GetIdempotency(ctx, s.DB, tenant.ID, idempotencyKey, now)
		if err == nil && rec != nil {
			return &Result{Replayed: true, ReplayStatus: rec.Status, ReplayBody: rec.Body}, nil
		}
		if err != nil && !errors.Is(err, repo.ErrNotFound) {
			// Lookup failure must not block confirmation; it only forfeits
			// replay protection for this attempt.
			log.Warn().Err(err).Str("tenant_id", tenant.ID).Msg("idempotency lookup failed")
		}
	}

	hold, err := s.Repo.GetHold(ctx, s.DB, tenant.ID, holdID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrHoldNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfirmationFailed, err)
	}
	if hold.Expired(now) {
		log.Info().Str("hold_id", holdID).Time("expired_at", hold.ExpiresAt).Msg("confirm attempted on expired hold")
		return nil, ErrHoldNotFound
	}

	start := hold.Start()
	duration := time.Duration(hold.DurationMinutes) * time.Minute
	booking := &domain.Booking{
		TenantID:        tenant.ID,
		StartTime:       start,
		DurationMinutes: hold.DurationMinutes,
		PartySize:       hold.PartySize,
		GuestName:       guest.Name,
		GuestEmail:      guest.Email,
		GuestPhone:      strings.TrimSpace(guest.Phone),
		SpecialRequests: strings.TrimSpace(guest.SpecialRequests),
		Status:          domain.BookingStatusPending,
		DepositRequired: false,
	}

	var created *domain.Booking
	txErr := s.DB.Transaction(func(tx *gorm.DB) error {
		capacity, err := s.Repo.CountActiveTablesWithCapacity(ctx, tx, tenant.ID, hold.PartySize)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrConfirmationFailed, err)
		}
		overlapping, err := s.Repo.CountBookingsOverlapping(ctx, tx, tenant.ID, start, start.Add(duration), duration)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrConfirmationFailed, err)
		}
		if capacity-overlapping <= 0 {
			return ErrNoCapacity
		}
		created, err = s.Repo.CreateBooking(ctx, tx, booking)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrConfirmationFailed, err)
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	// Some backing stores do not hand back a fully materialized row
	// synchronously. Compensate with a bounded, logged re-read keyed on the
	// guest email before giving up.
	if created == nil || created.ID == "" {
		for attempt := 1; attempt <= insertRetryAttempts; attempt++ {
			s.sleep(insertRetryBackoff * time.Duration(attempt))
			found, err := s.Repo.LatestBookingByGuestEmail(ctx, s.DB, tenant.ID, guest.Email)
			if err == nil && found != nil && found.ID != "" {
				created = found
				break
			}
			log.Warn().Int("attempt", attempt).Str("tenant_id", tenant.ID).Msg("booking re-read missed")
		}
		if created == nil || created.ID == "" {
			return nil, ErrBookingNotCreated
		}
	}

	if err := s.Repo.DeleteHold(ctx, s.DB, tenant.ID, hold.ID); err != nil {
		log.Warn().Err(err).Str("hold_id", hold.ID).Msg("consumed hold cleanup failed")
	}

	return &Result{
		Booking:            created,
		ConfirmationNumber: ConfirmationNumber(created.ID),
	}, nil
}

// Record stores the rendered response for (tenant, idempotencyKey) so a
// retried request replays it identically. Best-effort: failures are logged,
// never surfaced.
func (s *ConfirmService) Record(ctx context.Context, tenant *domain.Tenant, idempotencyKey string, status int, body string) {
	idempotencyKey = strings.TrimSpace(idempotencyKey)
	if tenant == nil || idempotencyKey == "" {
		return
	}
	if _, err := s.Repo.CreateIdempotency(ctx, s.DB, tenant.ID, idempotencyKey, status, body, s.IdempotencyTTL); err != nil && !errors.Is(err, repo.ErrDuplicate) {
		log.Warn().Err(err).Str("tenant_id", tenant.ID).Msg("idempotency record failed")
	}
}

// ConfirmationNumber derives the human-facing confirmation number from a
// booking id: fixed prefix plus the last six characters, uppercased. Locally
// distinguishing, not globally unique.
func ConfirmationNumber(bookingID string) string {
	s := bookingID
	if len(s) > 6 {
		s = s[len(s)-6:]
	}
	return confirmationPrefix + strings.ToUpper(s)
}
