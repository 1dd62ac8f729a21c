package main

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hliu/keepsake/internal/config"
	"github.com/hliu/keepsake/internal/db"
	"github.com/hliu/keepsake/internal/ops"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()
	tmpDir := t.TempDir()
	database, err := db.Init(tmpDir)
	if err != nil {
		t.Fatalf("failed to init test db: %v", err)
	}
	cleanup := func() {
		database.Close()
	}
	return database, cleanup
}

// testConfig returns a config accepting temp-dir paths for testing.
func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.AllowUnsafePaths = true
	return cfg
}

// runApp executes the CLI app with captured stdout.
func runApp(t *testing.T, app interface{ Run([]string) error }, args ...string) (string, error) {
	t.Helper()

	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	err := app.Run(append([]string{"keepsake"}, args...))

	w.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	os.Stdout = oldStdout

	return buf.String(), err
}

func TestCLICreate(t *testing.T) {
	database, cleanup := setupTestDB(t)
	defer cleanup()

	app := newCLIApp(database, testConfig())

	// Capture stdout
	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	// Pipe record content via stdin
	oldStdin := os.Stdin
	stdinR, stdinW, _ := os.Pipe()
	os.Stdin = stdinR

	go func() {
		_, _ = stdinW.WriteString("We went to the sea.")
		stdinW.Close()
	}()

	err := app.Run([]string{"keepsake", "create", "--title=Trip",
		"--image=img/1.jpg", "--image=img/2.jpg",
		"--music-url=https://example.com/song.mp3", "--music-title=Our Song"})

	os.Stdin = oldStdin

	w.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	os.Stdout = oldStdout

	if err != nil {
		t.Fatalf("create command failed: %v", err)
	}

	var output ops.CreateOutput
	if err := json.Unmarshal(buf.Bytes(), &output); err != nil {
		t.Fatalf("failed to parse output: %v\nOutput: %s", err, buf.String())
	}
	if output.ID == "" {
		t.Error("expected non-empty ID")
	}

	// Verify through the read path
	got, err := ops.Get(database, ops.GetInput{ID: output.ID})
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Content != "We went to the sea." {
		t.Errorf("content = %q, piped stdin not stored", got.Content)
	}
	if len(got.Images) != 2 {
		t.Errorf("images = %v, want 2 entries", got.Images)
	}
}

func TestCLIShow(t *testing.T) {
	database, cleanup := setupTestDB(t)
	defer cleanup()

	created, err := ops.Create(database, ops.CreateInput{Title: "Trip", Content: "body"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	app := newCLIApp(database, testConfig())
	out, err := runApp(t, app, "show", created.ID)
	if err != nil {
		t.Fatalf("show command failed: %v", err)
	}

	var output ops.GetOutput
	if err := json.Unmarshal([]byte(out), &output); err != nil {
		t.Fatalf("failed to parse output: %v\nOutput: %s", err, out)
	}
	if output.Title != "Trip" {
		t.Errorf("title = %q, want Trip", output.Title)
	}
	if output.State != "open" {
		t.Errorf("state = %q, want open", output.State)
	}
}

func TestCLISealAndUpdate(t *testing.T) {
	database, cleanup := setupTestDB(t)
	defer cleanup()

	created, err := ops.Create(database, ops.CreateInput{Title: "Trip"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	app := newCLIApp(database, testConfig())
	until := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
	destroyAt := time.Now().Add(2 * time.Hour).UTC().Format(time.RFC3339)

	out, err := runApp(t, app, "seal", "--until="+until, "--destroy-at="+destroyAt, created.ID)
	if err != nil {
		t.Fatalf("seal command failed: %v", err)
	}

	var sealOut ops.SealOutput
	if err := json.Unmarshal([]byte(out), &sealOut); err != nil {
		t.Fatalf("failed to parse output: %v\nOutput: %s", err, out)
	}
	if !sealOut.IsSealed {
		t.Error("expected is_sealed=true")
	}

	// Updates of a sealed record fail with the SEALED code.
	_, err = runApp(t, app, "update", "--title=changed", created.ID)
	if err == nil {
		t.Fatal("update of sealed record succeeded")
	}
	if !strings.Contains(err.Error(), "SEALED") {
		t.Errorf("error = %v, want SEALED code in message", err)
	}

	// Bad timestamp format is rejected up front.
	_, err = runApp(t, app, "seal", "--until=tomorrow", created.ID)
	if err == nil || !strings.Contains(err.Error(), "VALIDATION") {
		t.Errorf("seal with bad timestamp error = %v, want VALIDATION", err)
	}
}

func TestCLIListAndDelete(t *testing.T) {
	database, cleanup := setupTestDB(t)
	defer cleanup()

	created, err := ops.Create(database, ops.CreateInput{Title: "Trip"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	app := newCLIApp(database, testConfig())

	out, err := runApp(t, app, "list", "--limit=5")
	if err != nil {
		t.Fatalf("list command failed: %v", err)
	}
	var listOut ops.ListOutput
	if err := json.Unmarshal([]byte(out), &listOut); err != nil {
		t.Fatalf("failed to parse output: %v\nOutput: %s", err, out)
	}
	if len(listOut.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(listOut.Items))
	}

	out, err = runApp(t, app, "delete", created.ID)
	if err != nil {
		t.Fatalf("delete command failed: %v", err)
	}
	var delOut ops.DeleteOutput
	if err := json.Unmarshal([]byte(out), &delOut); err != nil {
		t.Fatalf("failed to parse output: %v\nOutput: %s", err, out)
	}
	if !delOut.Deleted {
		t.Error("expected deleted=true")
	}

	// Deleting again reports NOT_FOUND.
	_, err = runApp(t, app, "delete", created.ID)
	if err == nil || !strings.Contains(err.Error(), "NOT_FOUND") {
		t.Errorf("double delete error = %v, want NOT_FOUND", err)
	}
}

func TestCLIExportImport(t *testing.T) {
	database, cleanup := setupTestDB(t)
	defer cleanup()

	if _, err := ops.Create(database, ops.CreateInput{Title: "Trip"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	app := newCLIApp(database, testConfig())
	path := filepath.Join(t.TempDir(), "export.jsonl")

	out, err := runApp(t, app, "export", "--path="+path)
	if err != nil {
		t.Fatalf("export command failed: %v", err)
	}
	var expOut ops.ExportOutput
	if err := json.Unmarshal([]byte(out), &expOut); err != nil {
		t.Fatalf("failed to parse output: %v\nOutput: %s", err, out)
	}
	if expOut.Count != 1 {
		t.Errorf("count = %d, want 1", expOut.Count)
	}

	// Import into a fresh store
	dest, destCleanup := setupTestDB(t)
	defer destCleanup()
	destApp := newCLIApp(dest, testConfig())

	out, err = runApp(t, destApp, "import", "--path="+path)
	if err != nil {
		t.Fatalf("import command failed: %v", err)
	}
	var impOut ops.ImportOutput
	if err := json.Unmarshal([]byte(out), &impOut); err != nil {
		t.Fatalf("failed to parse output: %v\nOutput: %s", err, out)
	}
	if impOut.Imported != 1 {
		t.Errorf("imported = %d, want 1", impOut.Imported)
	}
}

func TestCLISweep(t *testing.T) {
	database, cleanup := setupTestDB(t)
	defer cleanup()

	app := newCLIApp(database, testConfig())
	out, err := runApp(t, app, "sweep")
	if err != nil {
		t.Fatalf("sweep command failed: %v", err)
	}
	var sweepOut ops.SweepOutput
	if err := json.Unmarshal([]byte(out), &sweepOut); err != nil {
		t.Fatalf("failed to parse output: %v\nOutput: %s", err, out)
	}
	if sweepOut.Destroyed != 0 {
		t.Errorf("destroyed = %d, want 0 on empty store", sweepOut.Destroyed)
	}
}

func TestCLIErrorHandling(t *testing.T) {
	database, cleanup := setupTestDB(t)
	defer cleanup()

	app := newCLIApp(database, testConfig())

	_, err := runApp(t, app, "show", "01ARZ3NDEKTSV4RRFFQ69G5FAV")
	if err == nil || !strings.Contains(err.Error(), "NOT_FOUND") {
		t.Errorf("show unknown id error = %v, want NOT_FOUND", err)
	}

	_, err = runApp(t, app, "update", "")
	if err == nil || !strings.Contains(err.Error(), "VALIDATION") {
		t.Errorf("update without id error = %v, want VALIDATION", err)
	}
}

func TestIsCLIMode(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected bool
	}{
		{
			name:     "no args",
			args:     []string{"keepsake"},
			expected: false,
		},
		{
			name:     "create command",
			args:     []string{"keepsake", "create"},
			expected: true,
		},
		{
			name:     "list command",
			args:     []string{"keepsake", "list"},
			expected: true,
		},
		{
			name:     "help flag",
			args:     []string{"keepsake", "--help"},
			expected: true,
		},
		{
			name:     "version flag",
			args:     []string{"keepsake", "--version"},
			expected: true,
		},
		{
			name:     "unknown arg defaults to MCP",
			args:     []string{"keepsake", "--unknown"},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Save and restore os.Args
			oldArgs := os.Args
			defer func() { os.Args = oldArgs }()

			os.Args = tt.args
			result := isCLIMode()

			if result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestIsHelpOrVersion(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected bool
	}{
		{
			name:     "no args",
			args:     []string{"keepsake"},
			expected: false,
		},
		{
			name:     "help flag",
			args:     []string{"keepsake", "--help"},
			expected: true,
		},
		{
			name:     "help command",
			args:     []string{"keepsake", "help"},
			expected: true,
		},
		{
			name:     "version flag",
			args:     []string{"keepsake", "-v"},
			expected: true,
		},
		{
			name:     "regular command",
			args:     []string{"keepsake", "create"},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldArgs := os.Args
			defer func() { os.Args = oldArgs }()

			os.Args = tt.args
			result := isHelpOrVersion()

			if result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}
