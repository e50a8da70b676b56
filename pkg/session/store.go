package session

import (
	"context"
	"errors"
)

// Sentinel errors.
var (
	// ErrNotFound is returned when no session exists for an id.
	ErrNotFound = errors.New("session: not found")

	// ErrExists is returned by Create when the id is already taken.
	ErrExists = errors.New("session: already exists")
)

// Store is a key-addressed mutable session repository. Updates to distinct
// session ids are independent and may run concurrently; updates carry only
// the fields being set. Applying the same Fields twice leaves the record in
// the same observable state as applying it once.
type Store interface {
	// Create persists a new session. Returns ErrExists if the id is taken.
	Create(ctx context.Context, s *Session) error

	// Get returns the session for the id, or ErrNotFound.
	Get(ctx context.Context, id string) (*Session, error)

	// UpdateFields applies a partial update to the session for the id.
	// Returns ErrNotFound if no such session exists.
	UpdateFields(ctx context.Context, id string, f Fields) error
}
