package ops

import (
	"database/sql"
	"strings"

	"github.com/hliu/keepsake/internal/db"
	"github.com/hliu/keepsake/internal/errors"
	"github.com/hliu/keepsake/internal/record"
)

// GetInput contains parameters for the Get operation.
type GetInput struct {
	ID string
}

// GetOutput contains the result of the Get operation.
type GetOutput struct {
	record.View
}

// Get retrieves a record by id. Temporal state is evaluated lazily: a
// record past its auto_destroy_at is destroyed here and reported
// NOT_FOUND, and the returned view's is_sealed reflects the clock at this
// moment. Sealed records remain readable by id; they are only hidden from
// default listings.
func Get(database *sql.DB, input GetInput) (*GetOutput, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, errors.NewValidation("id is required")
	}

	now := nowUnix()
	r, err := db.GetByID(database, id)
	if err != nil {
		return nil, err
	}

	if record.StateAt(r, now) == record.StateDestroyed {
		// Apply the destruction as part of this access, then report the
		// record as gone. A concurrent sweep may have removed it already.
		if err := db.Delete(database, id); err != nil && !errors.Is(err, errors.ErrNotFound) {
			return nil, err
		}
		return nil, errors.NewNotFound(id)
	}

	return &GetOutput{View: r.ToView(now)}, nil
}
