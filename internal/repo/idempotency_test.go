package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/seatwise/go-booking-backend/internal/domain"
)

func TestIdempotency_RoundTrip(t *testing.T) {
	db := newRepoDB(t, &domain.Idempotency{})
	now := time.Now().UTC()

	rec, err := CreateIdempotency(context.Background(), db, "t1", "key-1", 201, `{"success":true}`, time.Hour)
	if err != nil {
		t.Fatalf("CreateIdempotency: %v", err)
	}
	if rec.ID == "" || rec.Status != 201 {
		t.Fatalf("unexpected record: %+v", rec)
	}

	got, err := GetIdempotency(context.Background(), db, "t1", "key-1", now)
	if err != nil {
		t.Fatalf("GetIdempotency: %v", err)
	}
	if got.Status != 201 || got.Body != `{"success":true}` {
		t.Fatalf("replay payload mismatch: %+v", got)
	}
}

func TestCreateIdempotency_DuplicateKey(t *testing.T) {
	db := newRepoDB(t, &domain.Idempotency{})

	if _, err := CreateIdempotency(context.Background(), db, "t1", "key-1", 201, "a", time.Hour); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := CreateIdempotency(context.Background(), db, "t1", "key-1", 201, "b", time.Hour); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	// Same key for another tenant is a distinct record.
	if _, err := CreateIdempotency(context.Background(), db, "t2", "key-1", 201, "c", time.Hour); err != nil {
		t.Fatalf("other tenant, same key: %v", err)
	}
}

func TestGetIdempotency_ExpiredAndMissing(t *testing.T) {
	db := newRepoDB(t, &domain.Idempotency{})
	now := time.Now().UTC()

	if _, err := CreateIdempotency(context.Background(), db, "t1", "old", 201, "x", time.Minute); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Reading past expiry behaves like a miss.
	if _, err := GetIdempotency(context.Background(), db, "t1", "old", now.Add(2*time.Minute)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired record should be ErrNotFound, got %v", err)
	}
	if _, err := GetIdempotency(context.Background(), db, "t1", "never", now); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing record should be ErrNotFound, got %v", err)
	}
	if _, err := GetIdempotency(context.Background(), db, "t1", "   ", now); !errors.Is(err, ErrNotFound) {
		t.Fatalf("blank key should be ErrNotFound, got %v", err)
	}
}
