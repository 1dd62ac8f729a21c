package ops

import (
	"testing"

	"github.com/hliu/keepsake/internal/errors"
	"github.com/hliu/keepsake/internal/record"
)

func TestCreate(t *testing.T) {
	database := newTestDB(t)

	out, err := Create(database, CreateInput{
		Title:      "Trip",
		Content:    "We went to the sea.",
		Images:     []string{"img/1.jpg", "img/2.jpg"},
		MusicURL:   strPtr("https://example.com/song.mp3"),
		MusicTitle: strPtr("Our Song"),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if out.ID == "" {
		t.Error("Create returned empty id")
	}
	if _, err := record.ParseTime(out.CreatedAt); err != nil {
		t.Errorf("created_at %q is not RFC 3339: %v", out.CreatedAt, err)
	}

	got, err := Get(database, GetInput{ID: out.ID})
	if err != nil {
		t.Fatalf("Get after Create failed: %v", err)
	}
	if got.Title != "Trip" {
		t.Errorf("title = %q, want Trip", got.Title)
	}
	if got.State != "open" {
		t.Errorf("state = %q, want open", got.State)
	}
	if got.IsSealed {
		t.Error("new record is sealed")
	}
	if len(got.Images) != 2 || got.Images[0] != "img/1.jpg" {
		t.Errorf("images = %v, order not preserved", got.Images)
	}
	if got.MusicURL == nil || *got.MusicURL != "https://example.com/song.mp3" {
		t.Errorf("music_url = %v", got.MusicURL)
	}
}

func TestCreate_TitleValidation(t *testing.T) {
	database := newTestDB(t)

	for _, title := range []string{"", "   ", "\t\n"} {
		_, err := Create(database, CreateInput{Title: title})
		if !errors.Is(err, errors.ErrValidation) {
			t.Errorf("Create(title=%q) error = %v, want VALIDATION", title, err)
		}
	}
}

func TestCreate_CleansImages(t *testing.T) {
	database := newTestDB(t)

	out, err := Create(database, CreateInput{
		Title:  "Trip",
		Images: []string{" img/1.jpg ", "", "  ", "img/2.jpg"},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := Get(database, GetInput{ID: out.ID})
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	want := []string{"img/1.jpg", "img/2.jpg"}
	if len(got.Images) != len(want) {
		t.Fatalf("images = %v, want %v", got.Images, want)
	}
	for i := range want {
		if got.Images[i] != want[i] {
			t.Errorf("images[%d] = %q, want %q", i, got.Images[i], want[i])
		}
	}
}

func TestCreate_UniqueIDs(t *testing.T) {
	database := newTestDB(t)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		id := mustCreate(t, database, "entry")
		if seen[id] {
			t.Fatalf("duplicate id issued: %s", id)
		}
		seen[id] = true
	}
}
