package ops

import (
	"database/sql"
	"strings"

	"github.com/hliu/keepsake/internal/db"
	"github.com/hliu/keepsake/internal/errors"
	"github.com/hliu/keepsake/internal/record"
)

// UpdateInput contains parameters for the Update operation.
// Editable fields are pointers; nil means "don't change". Setting MusicURL
// to the empty string clears the attachment (and its title with it).
type UpdateInput struct {
	ID string

	Title      *string
	Content    *string
	Images     *[]string
	MusicURL   *string
	MusicTitle *string
}

// UpdateOutput contains the result of the Update operation.
type UpdateOutput struct {
	ID        string `json:"id"`
	UpdatedAt string `json:"updated_at"`
}

// Update modifies an open record. Sealed records fail with SEALED until
// their seal_until passes; destroyed records are removed and fail with
// NOT_FOUND. The whole mutation is one transaction, so a failure leaves
// the record exactly as it was.
func Update(database *sql.DB, input UpdateInput) (*UpdateOutput, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, errors.NewValidation("id is required")
	}

	if input.Title == nil && input.Content == nil && input.Images == nil &&
		input.MusicURL == nil && input.MusicTitle == nil {
		return nil, errors.NewValidation("at least one editable field must be provided")
	}

	r, err := db.GetByID(database, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, errors.NewValidation("title must not be empty")
		}
		r.Title = title
	}

	if input.Content != nil {
		r.Content = *input.Content
	}

	if input.Images != nil {
		r.Images = cleanImages(*input.Images)
	}

	if input.MusicURL != nil {
		if strings.TrimSpace(*input.MusicURL) == "" {
			r.MusicURL = nil
			r.MusicTitle = nil
		} else {
			r.MusicURL = cleanOptionalString(input.MusicURL)
		}
	}

	if input.MusicTitle != nil && r.MusicURL != nil {
		r.MusicTitle = cleanOptionalString(input.MusicTitle)
	}

	// The seal/destroy guard runs inside the transaction against the row's
	// current timestamps, not the snapshot read above.
	if err := db.Update(database, r, nowUnix()); err != nil {
		return nil, err
	}

	return &UpdateOutput{
		ID:        r.ID,
		UpdatedAt: record.FormatTime(r.UpdatedAt),
	}, nil
}
