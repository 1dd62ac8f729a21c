package ops

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hliu/keepsake/internal/config"
	"github.com/hliu/keepsake/internal/errors"
)

func TestValidatePath_AllowedDirs(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.AllowedPaths = []string{dir}

	if err := ValidatePath(filepath.Join(dir, "out.jsonl"), PathCheckWrite, cfg); err != nil {
		t.Errorf("write in allowed dir rejected: %v", err)
	}

	// Subdirectories of allowed dirs are not allowed.
	sub := filepath.Join(dir, "sub")
	if err := os.MkdirAll(sub, 0700); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if err := ValidatePath(filepath.Join(sub, "out.jsonl"), PathCheckWrite, cfg); !errors.Is(err, errors.ErrValidation) {
		t.Errorf("subdirectory write error = %v, want VALIDATION", err)
	}

	if err := ValidatePath(filepath.Join(t.TempDir(), "out.jsonl"), PathCheckWrite, cfg); !errors.Is(err, errors.ErrValidation) {
		t.Errorf("unlisted dir write error = %v, want VALIDATION", err)
	}

	// Relative allowed_paths entries are ignored rather than resolved.
	cfg.AllowedPaths = []string{"relative/dir"}
	if err := ValidatePath(filepath.Join("relative", "dir", "out.jsonl"), PathCheckWrite, cfg); !errors.Is(err, errors.ErrValidation) {
		t.Errorf("relative allowed path honored: %v", err)
	}
}

func TestValidatePath_Rejections(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.AllowUnsafePaths = true
	dir := t.TempDir()

	tests := []struct {
		name string
		path string
	}{
		{"empty path", ""},
		{"wrong extension", filepath.Join(dir, "out.txt")},
		{"no extension", filepath.Join(dir, "out")},
		{"traversal", dir + string(filepath.Separator) + ".." + string(filepath.Separator) + "out.jsonl"},
		{"traversal in middle", dir + "/../" + "data/out.jsonl"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidatePath(tt.path, PathCheckWrite, cfg); !errors.Is(err, errors.ErrValidation) {
				t.Errorf("ValidatePath(%q) error = %v, want VALIDATION", tt.path, err)
			}
		})
	}
}

func TestValidatePath_ReadRequiresExistingFile(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.AllowUnsafePaths = true
	dir := t.TempDir()

	missing := filepath.Join(dir, "missing.jsonl")
	if err := ValidatePath(missing, PathCheckRead, cfg); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("read of missing file error = %v, want NOT_FOUND", err)
	}

	present := filepath.Join(dir, "present.jsonl")
	if err := os.WriteFile(present, []byte("{}\n"), 0600); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := ValidatePath(present, PathCheckRead, cfg); err != nil {
		t.Errorf("read of existing file rejected: %v", err)
	}
}

func TestValidatePath_SymlinkRejectedEvenUnsafe(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.AllowUnsafePaths = true
	dir := t.TempDir()

	target := filepath.Join(dir, "target.jsonl")
	if err := os.WriteFile(target, []byte("{}\n"), 0600); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	link := filepath.Join(dir, "link.jsonl")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	if err := ValidatePath(link, PathCheckRead, cfg); !errors.Is(err, errors.ErrValidation) {
		t.Errorf("symlink read error = %v, want VALIDATION", err)
	}
}
