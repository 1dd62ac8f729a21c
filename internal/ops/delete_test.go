package ops

import (
	"testing"
	"time"

	"github.com/hliu/keepsake/internal/errors"
	"github.com/hliu/keepsake/internal/record"
)

func TestDelete(t *testing.T) {
	database := newTestDB(t)
	id := mustCreate(t, database, "Trip")

	out, err := Delete(database, DeleteInput{ID: id})
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if !out.Deleted || out.ID != id {
		t.Errorf("output = %+v", out)
	}

	if _, err := Get(database, GetInput{ID: id}); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("Get after delete error = %v, want NOT_FOUND", err)
	}

	// Second delete of the same id is detectable.
	if _, err := Delete(database, DeleteInput{ID: id}); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("double delete error = %v, want NOT_FOUND", err)
	}
}

func TestDelete_SealedRecord(t *testing.T) {
	database := newTestDB(t)
	id := mustCreate(t, database, "Trip")

	if _, err := Seal(database, SealInput{
		ID:     id,
		Config: record.SealConfig{SealUntil: i64Ptr(futureUnix(time.Hour))},
	}); err != nil {
		t.Fatalf("Seal failed: %v", err)
	}

	// Manual deletion bypasses the seal.
	out, err := Delete(database, DeleteInput{ID: id})
	if err != nil {
		t.Fatalf("Delete(sealed) failed: %v", err)
	}
	if !out.Deleted {
		t.Error("sealed record not deleted")
	}
}

func TestDelete_ExpiredIsNotFound(t *testing.T) {
	database := newTestDB(t)
	id := mustCreate(t, database, "Trip")

	if _, err := Seal(database, SealInput{
		ID:     id,
		Config: record.SealConfig{AutoDestroyAt: i64Ptr(pastUnix(time.Minute))},
	}); err != nil {
		t.Fatalf("Seal failed: %v", err)
	}

	// The record is already past its destroy time, so for callers it no
	// longer exists; the delete still removes the row.
	if _, err := Delete(database, DeleteInput{ID: id}); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("Delete(expired) error = %v, want NOT_FOUND", err)
	}
}
