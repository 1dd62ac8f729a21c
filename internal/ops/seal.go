package ops

import (
	"database/sql"
	"strings"

	"github.com/hliu/keepsake/internal/db"
	"github.com/hliu/keepsake/internal/errors"
	"github.com/hliu/keepsake/internal/record"
)

// SealInput contains parameters for the Seal operation.
type SealInput struct {
	ID     string
	Config record.SealConfig
}

// SealOutput contains the result of the Seal operation.
type SealOutput struct {
	ID            string  `json:"id"`
	IsSealed      bool    `json:"is_sealed"`
	State         string  `json:"state"`
	SealUntil     *string `json:"seal_until,omitempty"`
	AutoDestroyAt *string `json:"auto_destroy_at,omitempty"`
}

// Seal applies a seal configuration to a record. Sealing takes effect
// immediately; seal_until governs when the record unseals, not when the
// seal starts. A config with only auto_destroy_at schedules destruction
// without sealing. Re-sealing an already-sealed record fails with SEALED,
// and a failed seal leaves the record unchanged.
func Seal(database *sql.DB, input SealInput) (*SealOutput, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, errors.NewValidation("id is required")
	}

	if err := record.ValidateSealConfig(input.Config); err != nil {
		return nil, err
	}

	now := nowUnix()
	if err := db.Seal(database, id, input.Config, now); err != nil {
		return nil, err
	}

	r, err := db.GetByID(database, id)
	if err != nil {
		return nil, err
	}
	v := r.ToView(now)

	return &SealOutput{
		ID:            r.ID,
		IsSealed:      v.IsSealed,
		State:         v.State,
		SealUntil:     v.SealUntil,
		AutoDestroyAt: v.AutoDestroyAt,
	}, nil
}
