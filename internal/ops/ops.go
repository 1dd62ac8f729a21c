package ops

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Pagination limits
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// nowUnix is the clock used by all operations. Temporal decisions flow
// through record.StateAt with this value so a single read is internally
// consistent.
func nowUnix() int64 {
	return time.Now().Unix()
}

// generateULID generates a new ULID. Monotonic entropy keeps ids unique
// and time-ordered for the store's lifetime; ids of destroyed records are
// never reissued.
func generateULID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// cleanImages trims whitespace and drops empty entries while preserving
// order (order is display order).
func cleanImages(images []string) []string {
	if len(images) == 0 {
		return nil
	}
	out := make([]string, 0, len(images))
	for _, uri := range images {
		uri = strings.TrimSpace(uri)
		if uri != "" {
			out = append(out, uri)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// cleanOptionalString trims an optional string, mapping blank to nil.
func cleanOptionalString(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
