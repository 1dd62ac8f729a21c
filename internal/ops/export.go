package ops

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hliu/keepsake/internal/config"
	"github.com/hliu/keepsake/internal/db"
	"github.com/hliu/keepsake/internal/errors"
	"github.com/hliu/keepsake/internal/record"
)

// ExportSchemaVersion identifies the export file layout.
const ExportSchemaVersion = "1.0"

// ExportInput contains parameters for the Export operation.
type ExportInput struct {
	Path string // optional, default: ~/.keepsake/exports/records-<timestamp>.jsonl
}

// ExportOutput contains the result of the Export operation.
type ExportOutput struct {
	Path       string `json:"path"`
	Count      int    `json:"count"`
	ExportedAt string `json:"exported_at"`
}

// ExportHeader is the first line of a JSONL export file.
type ExportHeader struct {
	KeepsakeExport bool   `json:"_keepsake_export"`
	SchemaVersion  string `json:"schema_version"`
	ExportedAt     string `json:"exported_at"`
}

// exportRecord is the wire form of a record in export files. Timestamps
// are RFC 3339 strings and absent optionals stay absent, so a record set
// round-trips field for field.
type exportRecord struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	Images        []string `json:"images,omitempty"`
	MusicURL      *string  `json:"music_url,omitempty"`
	MusicTitle    *string  `json:"music_title,omitempty"`
	CreatedAt     string   `json:"created_at"`
	UpdatedAt     string   `json:"updated_at"`
	SealUntil     *string  `json:"seal_until,omitempty"`
	AutoDestroyAt *string  `json:"auto_destroy_at,omitempty"`
}

// Export writes the full live record set to a JSONL file. Records past
// their destroy time are swept first, never exported. The file is written
// to a temp name and renamed, so an existing export survives a failure.
func Export(database *sql.DB, cfg *config.Config, input ExportInput) (*ExportOutput, error) {
	now := nowUnix()

	if _, err := db.DestroyExpired(database, now); err != nil {
		return nil, err
	}

	exportPath := input.Path
	if exportPath == "" {
		var err error
		exportPath, err = defaultExportPath(time.Unix(now, 0).UTC())
		if err != nil {
			return nil, err
		}
	}

	// Validate all paths, defaults included.
	if err := ValidatePath(exportPath, PathCheckWrite, cfg); err != nil {
		return nil, err
	}

	dir := filepath.Dir(exportPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export directory: %w", err))
	}

	records, err := db.ListAll(database, now)
	if err != nil {
		return nil, err
	}

	// Write to temp file first, then atomic rename.
	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := exportPath + "." + hex.EncodeToString(randBytes) + ".tmp"
	file, err := openFileNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export file: %w", err))
	}

	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	enc := json.NewEncoder(file)
	header := ExportHeader{
		KeepsakeExport: true,
		SchemaVersion:  ExportSchemaVersion,
		ExportedAt:     record.FormatTime(now),
	}
	if err := enc.Encode(header); err != nil {
		return nil, errors.NewInternal(err)
	}

	for _, r := range records {
		if err := enc.Encode(toExportRecord(r)); err != nil {
			return nil, errors.NewInternal(err)
		}
	}

	if err := file.Close(); err != nil {
		file = nil
		return nil, errors.NewInternal(fmt.Errorf("failed to flush export file: %w", err))
	}
	file = nil

	if err := os.Rename(tempPath, exportPath); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to finalize export file: %w", err))
	}
	success = true

	return &ExportOutput{
		Path:       exportPath,
		Count:      len(records),
		ExportedAt: record.FormatTime(now),
	}, nil
}

// toExportRecord converts a record to its wire form.
func toExportRecord(r *record.Record) exportRecord {
	return exportRecord{
		ID:            r.ID,
		Title:         r.Title,
		Content:       r.Content,
		Images:        r.Images,
		MusicURL:      r.MusicURL,
		MusicTitle:    r.MusicTitle,
		CreatedAt:     record.FormatTime(r.CreatedAt),
		UpdatedAt:     record.FormatTime(r.UpdatedAt),
		SealUntil:     formatOptionalTime(r.SealUntil),
		AutoDestroyAt: formatOptionalTime(r.AutoDestroyAt),
	}
}

func formatOptionalTime(ts *int64) *string {
	if ts == nil {
		return nil
	}
	s := record.FormatTime(*ts)
	return &s
}

// defaultExportPath builds ~/.keepsake/exports/records-<timestamp>.jsonl.
func defaultExportPath(now time.Time) (string, error) {
	exportsDir, err := DefaultExportsDir()
	if err != nil {
		return "", err
	}
	filename := fmt.Sprintf("records-%s.jsonl", now.Format("20060102-150405"))
	return filepath.Join(exportsDir, filename), nil
}
