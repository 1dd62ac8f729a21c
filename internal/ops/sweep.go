package ops

import (
	"database/sql"

	"github.com/hliu/keepsake/internal/db"
	"github.com/hliu/keepsake/internal/record"
)

// SweepOutput contains the result of the Sweep operation.
type SweepOutput struct {
	Destroyed int    `json:"destroyed"`
	SweptAt   string `json:"swept_at"`
}

// Sweep destroys every record whose auto_destroy_at has passed. It backs
// the eager scheduler and the CLI/MCP sweep surface; the lazy access-path
// evaluation gives the same guarantee per record, so running it is about
// timeliness, not correctness.
func Sweep(database *sql.DB) (*SweepOutput, error) {
	now := nowUnix()

	count, err := db.DestroyExpired(database, now)
	if err != nil {
		return nil, err
	}

	return &SweepOutput{
		Destroyed: count,
		SweptAt:   record.FormatTime(now),
	}, nil
}
