package ops

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hliu/keepsake/internal/errors"
	"github.com/hliu/keepsake/internal/record"
)

func TestExport(t *testing.T) {
	database := newTestDB(t)
	cfg := unsafeConfig()

	id1 := mustCreate(t, database, "First")
	id2 := mustCreate(t, database, "Second")
	if _, err := Seal(database, SealInput{
		ID: id2,
		Config: record.SealConfig{
			SealUntil:     i64Ptr(futureUnix(time.Hour)),
			AutoDestroyAt: i64Ptr(futureUnix(2 * time.Hour)),
		},
	}); err != nil {
		t.Fatalf("Seal failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "out.jsonl")
	out, err := Export(database, cfg, ExportInput{Path: path})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if out.Count != 2 {
		t.Errorf("count = %d, want 2", out.Count)
	}
	if out.Path != path {
		t.Errorf("path = %q, want %q", out.Path, path)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open export: %v", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	if !scanner.Scan() {
		t.Fatal("export file is empty")
	}
	var header ExportHeader
	if err := json.Unmarshal(scanner.Bytes(), &header); err != nil {
		t.Fatalf("failed to parse header: %v", err)
	}
	if !header.KeepsakeExport || header.SchemaVersion != ExportSchemaVersion {
		t.Errorf("header = %+v", header)
	}

	found := make(map[string]exportRecord)
	for scanner.Scan() {
		var er exportRecord
		if err := json.Unmarshal(scanner.Bytes(), &er); err != nil {
			t.Fatalf("failed to parse record line: %v", err)
		}
		found[er.ID] = er
	}
	if len(found) != 2 {
		t.Fatalf("exported %d records, want 2", len(found))
	}
	if _, ok := found[id1]; !ok {
		t.Errorf("record %s missing from export", id1)
	}
	// Sealed records export with their timestamps intact.
	sealed := found[id2]
	if sealed.SealUntil == nil || sealed.AutoDestroyAt == nil {
		t.Errorf("sealed record exported without seal timestamps: %+v", sealed)
	}
}

func TestExport_ExcludesExpired(t *testing.T) {
	database := newTestDB(t)
	cfg := unsafeConfig()

	mustCreate(t, database, "keeper")
	expired := mustCreate(t, database, "goner")
	if _, err := Seal(database, SealInput{
		ID:     expired,
		Config: record.SealConfig{AutoDestroyAt: i64Ptr(pastUnix(time.Minute))},
	}); err != nil {
		t.Fatalf("Seal failed: %v", err)
	}

	out, err := Export(database, cfg, ExportInput{
		Path: filepath.Join(t.TempDir(), "out.jsonl"),
	})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if out.Count != 1 {
		t.Errorf("count = %d, want 1 (expired record swept before export)", out.Count)
	}
}

func TestExport_PathValidation(t *testing.T) {
	database := newTestDB(t)
	cfg := unsafeConfig()

	_, err := Export(database, cfg, ExportInput{
		Path: filepath.Join(t.TempDir(), "out.txt"),
	})
	if !errors.Is(err, errors.ErrValidation) {
		t.Errorf("Export(.txt) error = %v, want VALIDATION", err)
	}

	_, err = Export(database, cfg, ExportInput{
		Path: t.TempDir() + string(filepath.Separator) + ".." + string(filepath.Separator) + "out.jsonl",
	})
	if !errors.Is(err, errors.ErrValidation) {
		t.Errorf("Export(traversal) error = %v, want VALIDATION", err)
	}
}

func TestExport_RefusesSymlink(t *testing.T) {
	database := newTestDB(t)
	cfg := unsafeConfig()
	dir := t.TempDir()

	target := filepath.Join(dir, "target.jsonl")
	if err := os.WriteFile(target, []byte("{}\n"), 0600); err != nil {
		t.Fatalf("failed to write target: %v", err)
	}
	link := filepath.Join(dir, "link.jsonl")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	if _, err := Export(database, cfg, ExportInput{Path: link}); !errors.Is(err, errors.ErrValidation) {
		t.Errorf("Export(symlink) error = %v, want VALIDATION", err)
	}
}
