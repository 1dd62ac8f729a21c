package ops

import (
	"database/sql"
	"strings"

	"github.com/hliu/keepsake/internal/db"
	"github.com/hliu/keepsake/internal/errors"
	"github.com/hliu/keepsake/internal/record"
)

// CreateInput contains parameters for the Create operation.
type CreateInput struct {
	Title      string   // required
	Content    string   // may be empty
	Images     []string // ordered image URIs
	MusicURL   *string  // optional
	MusicTitle *string  // optional
}

// CreateOutput contains the result of the Create operation.
type CreateOutput struct {
	ID        string `json:"id"`
	CreatedAt string `json:"created_at"`
}

// Create allocates a new record in the open state.
func Create(database *sql.DB, input CreateInput) (*CreateOutput, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, errors.NewValidation("title is required")
	}

	id, err := generateULID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	now := nowUnix()
	r := &record.Record{
		ID:         id,
		Title:      title,
		Content:    input.Content,
		Images:     cleanImages(input.Images),
		MusicURL:   cleanOptionalString(input.MusicURL),
		MusicTitle: cleanOptionalString(input.MusicTitle),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := db.Insert(database, r); err != nil {
		return nil, err
	}

	return &CreateOutput{
		ID:        id,
		CreatedAt: record.FormatTime(now),
	}, nil
}
