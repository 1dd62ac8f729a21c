package ops

import (
	"database/sql"
	"testing"
	"time"

	"github.com/hliu/keepsake/internal/config"
	"github.com/hliu/keepsake/internal/db"
)

// newTestDB creates a temporary database for testing.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("failed to init db: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

// unsafeConfig returns a config that accepts temp-dir paths.
func unsafeConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.AllowUnsafePaths = true
	return cfg
}

// mustCreate stores a record and returns its id.
func mustCreate(t *testing.T, database *sql.DB, title string) string {
	t.Helper()

	out, err := Create(database, CreateInput{
		Title:   title,
		Content: "content of " + title,
		Images:  []string{"img/a.jpg", "img/b.jpg"},
	})
	if err != nil {
		t.Fatalf("Create(%q) failed: %v", title, err)
	}
	return out.ID
}

func strPtr(s string) *string { return &s }

func i64Ptr(v int64) *int64 { return &v }

func futureUnix(d time.Duration) int64 { return time.Now().Add(d).Unix() }

func pastUnix(d time.Duration) int64 { return time.Now().Add(-d).Unix() }
