package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/seatwise/go-booking-backend/internal/domain"
)

func newHold(start time.Time) *domain.Hold {
	now := time.Now().UTC()
	return &domain.Hold{
		ID:              uuid.NewString(),
		TenantID:        "t1",
		StartTime:       start,
		PartySize:       4,
		DurationMinutes: 120,
		SessionID:       uuid.NewString(),
		ExpiresAt:       now.Add(10 * time.Minute),
		CreatedAt:       now,
	}
}

func TestCreateHold_AbsoluteRepresentation(t *testing.T) {
	db := newRepoDB(t, &domain.Hold{})

	start := time.Date(2025, 6, 6, 23, 30, 0, 0, time.UTC)
	h := newHold(start)
	if err := CreateHold(context.Background(), db, h); err != nil {
		t.Fatalf("CreateHold: %v", err)
	}

	got, err := GetHold(context.Background(), db, "t1", h.ID)
	if err != nil {
		t.Fatalf("GetHold: %v", err)
	}
	if !got.Start().Equal(start) {
		t.Fatalf("Start() = %v, want %v", got.Start(), start)
	}
}

func TestCreateHold_SplitColumnFallback(t *testing.T) {
	db := newRepoDB(t) // no automigrate

	// Legacy schema: no start_time column, split date/time columns instead.
	if err := db.Exec(`CREATE TABLE holds (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		hold_date TEXT NOT NULL,
		hold_time TEXT NOT NULL,
		party_size INTEGER NOT NULL,
		duration_minutes INTEGER NOT NULL,
		session_id TEXT NOT NULL,
		expires_at DATETIME NOT NULL,
		created_at DATETIME NOT NULL
	)`).Error; err != nil {
		t.Fatalf("create legacy table: %v", err)
	}

	start := time.Date(2025, 6, 6, 23, 30, 0, 0, time.UTC)
	h := newHold(start)
	if err := CreateHold(context.Background(), db, h); err != nil {
		t.Fatalf("CreateHold should fall back to split columns: %v", err)
	}

	var date, clock string
	row := db.Raw(`SELECT hold_date, hold_time FROM holds WHERE id = ?`, h.ID).Row()
	if err := row.Scan(&date, &clock); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if date != "2025-06-06" || clock != "23:30:00" {
		t.Fatalf("split columns = (%q, %q)", date, clock)
	}
}

func TestGetHold_ScopedToTenant(t *testing.T) {
	db := newRepoDB(t, &domain.Hold{})

	h := newHold(time.Now().UTC())
	if err := CreateHold(context.Background(), db, h); err != nil {
		t.Fatalf("CreateHold: %v", err)
	}

	if _, err := GetHold(context.Background(), db, "other-tenant", h.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("cross-tenant read should be ErrNotFound, got %v", err)
	}
	if _, err := GetHold(context.Background(), db, "t1", uuid.NewString()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing hold should be ErrNotFound, got %v", err)
	}
}

func TestGetHold_ReturnsExpiredRows(t *testing.T) {
	db := newRepoDB(t, &domain.Hold{})

	h := newHold(time.Now().UTC())
	h.ExpiresAt = time.Now().UTC().Add(-time.Hour)
	if err := CreateHold(context.Background(), db, h); err != nil {
		t.Fatalf("CreateHold: %v", err)
	}

	got, err := GetHold(context.Background(), db, "t1", h.ID)
	if err != nil {
		t.Fatalf("expired rows must still be readable: %v", err)
	}
	if !got.Expired(time.Now().UTC()) {
		t.Fatalf("hold should report expired")
	}
}

func TestDeleteHold_MissingIsNotAnError(t *testing.T) {
	db := newRepoDB(t, &domain.Hold{})

	h := newHold(time.Now().UTC())
	if err := CreateHold(context.Background(), db, h); err != nil {
		t.Fatalf("CreateHold: %v", err)
	}
	if err := DeleteHold(context.Background(), db, "t1", h.ID); err != nil {
		t.Fatalf("DeleteHold: %v", err)
	}
	if _, err := GetHold(context.Background(), db, "t1", h.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("hold should be gone, got %v", err)
	}
	// Second delete is a no-op.
	if err := DeleteHold(context.Background(), db, "t1", h.ID); err != nil {
		t.Fatalf("repeat DeleteHold: %v", err)
	}
}

func TestDeleteExpiredHolds(t *testing.T) {
	db := newRepoDB(t, &domain.Hold{})
	now := time.Now().UTC()

	live := newHold(now)
	stale1 := newHold(now)
	stale1.ExpiresAt = now.Add(-time.Minute)
	stale2 := newHold(now)
	stale2.ExpiresAt = now // boundary: expired at exactly now
	otherTenant := newHold(now)
	otherTenant.TenantID = "t2"
	otherTenant.ExpiresAt = now.Add(-time.Minute)

	for _, h := range []*domain.Hold{live, stale1, stale2, otherTenant} {
		if err := CreateHold(context.Background(), db, h); err != nil {
			t.Fatalf("seed hold: %v", err)
		}
	}

	n, err := DeleteExpiredHolds(context.Background(), db, "t1", now)
	if err != nil {
		t.Fatalf("DeleteExpiredHolds: %v", err)
	}
	if n != 2 {
		t.Fatalf("purged %d, want 2", n)
	}
	if _, err := GetHold(context.Background(), db, "t1", live.ID); err != nil {
		t.Fatalf("live hold should survive: %v", err)
	}
	if _, err := GetHold(context.Background(), db, "t2", otherTenant.ID); err != nil {
		t.Fatalf("other tenant's hold should survive: %v", err)
	}
}
