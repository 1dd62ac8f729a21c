package ops

import (
	"bufio"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hliu/keepsake/internal/config"
	"github.com/hliu/keepsake/internal/db"
	"github.com/hliu/keepsake/internal/errors"
	"github.com/hliu/keepsake/internal/record"
)

// ImportMode controls collision behavior during import.
type ImportMode string

const (
	ImportModeError   ImportMode = "error"   // fail before inserting anything
	ImportModeReplace ImportMode = "replace" // overwrite existing records
	ImportModeSkip    ImportMode = "skip"    // keep existing records
)

// ImportInput contains parameters for the Import operation.
type ImportInput struct {
	Path string     // required
	Mode ImportMode // default: error
}

// ImportOutput contains the result of the Import operation.
type ImportOutput struct {
	Imported int           `json:"imported"`
	Skipped  int           `json:"skipped"`
	Errors   []ImportError `json:"errors"`
}

// ImportError describes a line that could not be imported.
type ImportError struct {
	Line    int    `json:"line"`
	ID      string `json:"id,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Import reads records from a JSONL export file. In mode "error" the
// whole file is validated and checked for id collisions before any insert,
// so a failed import leaves the store unchanged.
func Import(database *sql.DB, cfg *config.Config, input ImportInput) (*ImportOutput, error) {
	if input.Path == "" {
		return nil, errors.NewValidation("path is required")
	}
	mode := input.Mode
	if mode == "" {
		mode = ImportModeError
	}
	if mode != ImportModeError && mode != ImportModeReplace && mode != ImportModeSkip {
		return nil, errors.NewValidation("mode must be one of: error, replace, skip")
	}

	if err := ValidatePath(input.Path, PathCheckRead, cfg); err != nil {
		return nil, err
	}

	file, err := openFileNoFollowRead(input.Path)
	if err != nil {
		if _, ok := err.(*errors.KeepsakeError); ok {
			return nil, err
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to open import file: %w", err))
	}
	defer file.Close()

	records, parseErrors, err := parseExportFile(file)
	if err != nil {
		return nil, err
	}

	if mode == ImportModeError {
		if len(parseErrors) > 0 {
			return nil, errors.NewValidation(
				fmt.Sprintf("import aborted: %d invalid lines (first: line %d: %s)",
					len(parseErrors), parseErrors[0].Line, parseErrors[0].Message))
		}
		for _, r := range records {
			exists, err := db.Exists(database, r.ID)
			if err != nil {
				return nil, err
			}
			if exists {
				return nil, errors.NewValidation(
					fmt.Sprintf("import aborted: record %s already exists (use mode replace or skip)", r.ID))
			}
		}
	}

	out := &ImportOutput{Errors: parseErrors}
	for _, r := range records {
		exists, err := db.Exists(database, r.ID)
		if err != nil {
			return nil, err
		}
		switch {
		case exists && mode == ImportModeSkip:
			out.Skipped++
			continue
		case exists && mode == ImportModeReplace:
			if err := db.Delete(database, r.ID); err != nil {
				return nil, err
			}
		}
		if err := db.Insert(database, r); err != nil {
			return nil, err
		}
		out.Imported++
	}

	if out.Errors == nil {
		out.Errors = []ImportError{}
	}
	return out, nil
}

// parseExportFile reads the header and record lines of an export file.
// Malformed lines become ImportErrors rather than aborting the parse.
func parseExportFile(file io.Reader) ([]*record.Record, []ImportError, error) {
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, nil, errors.NewInternal(err)
		}
		return nil, nil, errors.NewValidation("import file is empty")
	}

	var header ExportHeader
	if err := json.Unmarshal(scanner.Bytes(), &header); err != nil || !header.KeepsakeExport {
		return nil, nil, errors.NewValidation("not a keepsake export file (missing header)")
	}
	if header.SchemaVersion != ExportSchemaVersion {
		return nil, nil, errors.NewValidation(
			fmt.Sprintf("unsupported export schema version: %s", header.SchemaVersion))
	}

	var records []*record.Record
	var parseErrors []ImportError
	seen := make(map[string]bool)

	lineNo := 1
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var er exportRecord
		if err := json.Unmarshal([]byte(line), &er); err != nil {
			parseErrors = append(parseErrors, ImportError{
				Line: lineNo, Code: string(errors.ErrValidation), Message: "invalid JSON",
			})
			continue
		}

		r, err := fromExportRecord(er)
		if err != nil {
			parseErrors = append(parseErrors, ImportError{
				Line: lineNo, ID: er.ID, Code: string(errors.ErrValidation), Message: err.Error(),
			})
			continue
		}
		if seen[r.ID] {
			parseErrors = append(parseErrors, ImportError{
				Line: lineNo, ID: r.ID, Code: string(errors.ErrValidation), Message: "duplicate id in file",
			})
			continue
		}
		seen[r.ID] = true
		records = append(records, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, errors.NewInternal(err)
	}

	return records, parseErrors, nil
}

// fromExportRecord validates and converts a wire record back to the
// domain form.
func fromExportRecord(er exportRecord) (*record.Record, error) {
	if strings.TrimSpace(er.ID) == "" {
		return nil, fmt.Errorf("id is required")
	}
	if strings.TrimSpace(er.Title) == "" {
		return nil, fmt.Errorf("title is required")
	}

	createdAt, err := record.ParseTime(er.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid created_at: %s", er.CreatedAt)
	}
	updatedAt, err := record.ParseTime(er.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid updated_at: %s", er.UpdatedAt)
	}
	sealUntil, err := parseOptionalTime(er.SealUntil)
	if err != nil {
		return nil, fmt.Errorf("invalid seal_until: %s", *er.SealUntil)
	}
	autoDestroyAt, err := parseOptionalTime(er.AutoDestroyAt)
	if err != nil {
		return nil, fmt.Errorf("invalid auto_destroy_at: %s", *er.AutoDestroyAt)
	}

	return &record.Record{
		ID:            er.ID,
		Title:         er.Title,
		Content:       er.Content,
		Images:        er.Images,
		MusicURL:      er.MusicURL,
		MusicTitle:    er.MusicTitle,
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
		SealUntil:     sealUntil,
		AutoDestroyAt: autoDestroyAt,
	}, nil
}

func parseOptionalTime(s *string) (*int64, error) {
	if s == nil {
		return nil, nil
	}
	ts, err := record.ParseTime(*s)
	if err != nil {
		return nil, err
	}
	return &ts, nil
}
