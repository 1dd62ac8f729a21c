package record

import "github.com/hliu/keepsake/internal/errors"

// State is the temporal state of a record at a given instant.
type State int

const (
	// StateOpen is the default state: fully mutable, visible in listings.
	StateOpen State = iota

	// StateSealed means seal_until is set and still in the future: the
	// record is read-only and hidden from default listings.
	StateSealed

	// StateDestroyed means auto_destroy_at has passed: the record must not
	// be returned to any caller and is removed on the next access or sweep.
	StateDestroyed
)

// String returns the lowercase state name used in views and logs.
func (s State) String() string {
	switch s {
	case StateSealed:
		return "sealed"
	case StateDestroyed:
		return "destroyed"
	default:
		return "open"
	}
}

// StateAt evaluates the temporal state of a record at the given Unix time.
// This is the single place seal/destroy transitions are decided; both the
// lazy access paths and the background sweeper call it.
//
// Destruction takes precedence over sealing: a record past auto_destroy_at
// is destroyed even if seal_until is still in the future.
func StateAt(r *Record, now int64) State {
	if r.AutoDestroyAt != nil && now >= *r.AutoDestroyAt {
		return StateDestroyed
	}
	if r.SealUntil != nil && now < *r.SealUntil {
		return StateSealed
	}
	return StateOpen
}

// IsSealedAt reports whether the record is sealed at the given Unix time:
// true iff seal_until is set and now is before it.
func IsSealedAt(r *Record, now int64) bool {
	return r.SealUntil != nil && now < *r.SealUntil
}

// ValidateSealConfig checks a seal configuration. At least one timestamp
// must be present, and auto_destroy_at must be strictly after seal_until
// when both are set (otherwise the un-sealed window is unreachable).
func ValidateSealConfig(cfg SealConfig) error {
	if cfg.SealUntil == nil && cfg.AutoDestroyAt == nil {
		return errors.NewValidation("seal config must set seal_until, auto_destroy_at, or both")
	}
	if cfg.SealUntil != nil && cfg.AutoDestroyAt != nil && *cfg.AutoDestroyAt <= *cfg.SealUntil {
		return errors.NewValidation("auto_destroy_at must be strictly after seal_until")
	}
	return nil
}
