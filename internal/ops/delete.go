package ops

import (
	"database/sql"
	"strings"

	"github.com/hliu/keepsake/internal/db"
	"github.com/hliu/keepsake/internal/errors"
	"github.com/hliu/keepsake/internal/record"
)

// DeleteInput contains parameters for the Delete operation.
type DeleteInput struct {
	ID string
}

// DeleteOutput contains the result of the Delete operation.
type DeleteOutput struct {
	Deleted bool   `json:"deleted"`
	ID      string `json:"id"`
}

// Delete removes a record immediately, sealed or not. Deleting an absent
// or already-destroyed id fails with NOT_FOUND so double deletes are
// detectable.
func Delete(database *sql.DB, input DeleteInput) (*DeleteOutput, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, errors.NewValidation("id is required")
	}

	// A record past its destroy time no longer exists for callers, even if
	// the sweep has not reached it yet.
	r, err := db.GetByID(database, id)
	if err != nil {
		return nil, err
	}
	expired := record.StateAt(r, nowUnix()) == record.StateDestroyed

	if err := db.Delete(database, id); err != nil {
		return nil, err
	}
	if expired {
		return nil, errors.NewNotFound(id)
	}

	return &DeleteOutput{
		Deleted: true,
		ID:      id,
	}, nil
}
