package record

import "time"

// Record represents a single memory record: a diary entry with ordered
// images, an optional music attachment, and optional seal/destroy timestamps.
type Record struct {
	// ID is a ULID that uniquely identifies this record. Never reused,
	// including after destruction.
	ID string

	// Title is the record headline. Required, non-empty.
	Title string

	// Content is the record body. May be empty.
	Content string

	// Images is an ordered list of image URIs. Order is display order.
	Images []string

	// MusicURL is an optional audio attachment reference (nullable)
	MusicURL *string

	// MusicTitle is the optional display title of the attachment (nullable)
	MusicTitle *string

	// CreatedAt is the Unix timestamp when the record was created
	CreatedAt int64

	// UpdatedAt is the Unix timestamp of the last mutation (update or seal)
	UpdatedAt int64

	// SealUntil is the Unix timestamp at which the record unseals (nullable).
	// While set and in the future, the record is read-only and hidden from
	// default listings.
	SealUntil *int64

	// AutoDestroyAt is the Unix timestamp of scheduled irreversible
	// deletion (nullable).
	AutoDestroyAt *int64
}

// SealConfig carries the timestamps applied to a record at seal time.
// It is a value object, never persisted on its own.
type SealConfig struct {
	SealUntil     *int64 `json:"seal_until,omitempty"`
	AutoDestroyAt *int64 `json:"auto_destroy_at,omitempty"`
}

// View is the host-facing shape of a record. Timestamps are RFC 3339
// strings, and IsSealed/State are evaluated against the clock supplied to
// ToView, so a view is always consistent with the moment it was built.
type View struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	Images        []string `json:"images"`
	MusicURL      *string  `json:"music_url,omitempty"`
	MusicTitle    *string  `json:"music_title,omitempty"`
	CreatedAt     string   `json:"created_at"`
	UpdatedAt     string   `json:"updated_at"`
	IsSealed      bool     `json:"is_sealed"`
	SealUntil     *string  `json:"seal_until,omitempty"`
	AutoDestroyAt *string  `json:"auto_destroy_at,omitempty"`
	State         string   `json:"state"`
}

// ToView converts a record to its host-facing view, evaluating the seal
// state at the given time.
func (r *Record) ToView(now int64) View {
	images := r.Images
	if images == nil {
		images = []string{}
	}
	return View{
		ID:            r.ID,
		Title:         r.Title,
		Content:       r.Content,
		Images:        images,
		MusicURL:      r.MusicURL,
		MusicTitle:    r.MusicTitle,
		CreatedAt:     FormatTime(r.CreatedAt),
		UpdatedAt:     FormatTime(r.UpdatedAt),
		IsSealed:      IsSealedAt(r, now),
		SealUntil:     formatOptional(r.SealUntil),
		AutoDestroyAt: formatOptional(r.AutoDestroyAt),
		State:         StateAt(r, now).String(),
	}
}

// FormatTime renders a Unix timestamp as RFC 3339 UTC.
func FormatTime(ts int64) string {
	return time.Unix(ts, 0).UTC().Format(time.RFC3339)
}

// ParseTime parses an RFC 3339 timestamp into Unix seconds.
func ParseTime(s string) (int64, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return 0, err
	}
	return t.Unix(), nil
}

func formatOptional(ts *int64) *string {
	if ts == nil {
		return nil
	}
	s := FormatTime(*ts)
	return &s
}
