package ports

import (
	"context"
	"errors"
	"time"
)

// ErrIdempotencyConflict reports an Idempotency-Key replayed with a different body.
var ErrIdempotencyConflict = errors.New("idempotency conflict")

// IdempotencyRecord binds an Idempotency-Key to the fingerprint of the first
// payload sent with it and the pet that payload created.
type IdempotencyRecord struct {
	Key         string
	Fingerprint string
	PetID       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Matches reports whether other replays the same request against the same pet.
func (r IdempotencyRecord) Matches(other IdempotencyRecord) bool {
	return r.Fingerprint == other.Fingerprint && r.PetID == other.PetID
}

// IdempotencyStore remembers AddPet keys.
//
// Save is first-writer-wins: saving a key that already exists returns the stored
// record, together with ErrIdempotencyConflict unless the stored record Matches.
// Get returns nil, nil for unknown keys.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (*IdempotencyRecord, error)
	Save(ctx context.Context, record IdempotencyRecord) (*IdempotencyRecord, error)
}
