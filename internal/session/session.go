// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// IDBytes is the entropy of a session identifier. 32 bytes = 64 hex chars.
const IDBytes = 32

var (
	// ErrNotFound is returned when a session identifier does not resolve
	// to a live session.
	ErrNotFound = errors.New("session not found")

	// ErrNoToken is returned by Resolve when the session exists but is
	// anonymous.
	ErrNoToken = errors.New("session carries no token")
)

// Token is the identity payload associated with a session once login
// succeeds.
type Token struct {
	UserID ulid.ULID `json:"user_id"`
	Email  string    `json:"email"`
}

// IsZero reports whether t carries no identity.
func (t Token) IsZero() bool {
	return t.UserID.Compare(ulid.ULID{}) == 0 && t.Email == ""
}

// Record is the server-side state of one session.
type Record struct {
	// Token is nil for anonymous sessions.
	Token     *Token    `json:"token,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpired returns true if the record has expired at the given time.
func (r *Record) IsExpired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// Store is the persistence interface for session state. Implementations
// must be safe for concurrent use.
type Store interface {
	// Get returns the record for id, or an error wrapping ErrNotFound.
	Get(ctx context.Context, id string) (*Record, error)

	// Put stores the record under id, replacing any previous record.
	Put(ctx context.Context, id string, rec *Record) error

	// Rotate atomically moves the record from oldID to newID. The old
	// identifier stops resolving; the record is returned. At most one of
	// several concurrent Rotate calls for the same oldID succeeds, the
	// rest get an error wrapping ErrNotFound.
	Rotate(ctx context.Context, oldID, newID string) (*Record, error)

	// Delete removes the record for id. Deleting an absent id is not an
	// error.
	Delete(ctx context.Context, id string) error

	// DeleteExpired removes expired records and returns how many were
	// dropped. Stores with native expiry may return 0.
	DeleteExpired(ctx context.Context) (int64, error)
}

// NewID generates a cryptographically random session identifier.
func NewID() (string, error) {
	b := make([]byte, IDBytes)
	if _, err := rand.Read(b); err != nil {
		return "", oops.Code("SESSION_ID_GENERATE_FAILED").
			With("requested_bytes", IDBytes).
			Wrap(err)
	}
	return hex.EncodeToString(b), nil
}
