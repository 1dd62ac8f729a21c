package ops

import (
	"database/sql"

	"github.com/hliu/keepsake/internal/db"
	"github.com/hliu/keepsake/internal/record"
)

// ListInput contains parameters for the List operation.
type ListInput struct {
	IncludeSealed bool
	Limit         int // default: 20, max: 100
	Offset        int // default: 0
}

// ListOutput contains the result of the List operation.
type ListOutput struct {
	Items      []record.View `json:"items"`
	Pagination Pagination    `json:"pagination"`
	Sort       string        `json:"sort"`
}

// List returns record views ordered by created_at descending. Sealed
// records are excluded unless requested; destroyed records never appear.
// Expired records are destroyed as part of this access (lazy evaluation),
// and the offset/limit window makes the sequence restartable.
func List(database *sql.DB, input ListInput) (*ListOutput, error) {
	now := nowUnix()

	// Reap before reading so the window is computed over live records only.
	if _, err := db.DestroyExpired(database, now); err != nil {
		return nil, err
	}

	limit := input.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	offset := max(input.Offset, 0)

	records, total, err := db.List(database, input.IncludeSealed, now, limit, offset)
	if err != nil {
		return nil, err
	}

	items := make([]record.View, 0, len(records))
	for _, r := range records {
		items = append(items, r.ToView(now))
	}

	hasMore := offset+len(items) < total

	return &ListOutput{
		Items: items,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: hasMore,
			Total:   total,
		},
		Sort: "created_at_desc",
	}, nil
}
