// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// User represents a registered account.
type User struct {
	ID           ulid.ULID
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewUser creates a validated User from already-parsed values and a
// password hash. The hash must come from a PasswordHasher; NewUser never
// sees a plaintext password.
func NewUser(email Email, name Name, passwordHash string) (*User, error) {
	if email.IsZero() {
		return nil, oops.Code("AUTH_INVALID_EMAIL").Errorf("email value is required")
	}
	if name.IsZero() {
		return nil, oops.Code("AUTH_INVALID_NAME").Errorf("name value is required")
	}
	if passwordHash == "" {
		return nil, oops.Code("AUTH_MISSING_HASH").Errorf("password hash cannot be empty")
	}

	now := time.Now()
	return &User{
		ID:           ulid.Make(),
		Email:        email.String(),
		Name:         name.String(),
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// LoggedUser is the request-scoped identity of an authenticated user.
// It is derived from the session token by the transport layer and never
// persisted.
type LoggedUser struct {
	ID    ulid.ULID
	Email string
}

// UserRepository manages user persistence. It is the sole serialization
// point for user-record mutations; implementations must enforce email
// uniqueness at insert time.
type UserRepository interface {
	// Create stores a new user. Returns an error wrapping ErrEmailTaken
	// if the email is already registered.
	Create(ctx context.Context, user *User) error

	// GetByEmail retrieves a user by email (case-insensitive).
	// Returns an error wrapping ErrNotFound if no such user exists.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id ulid.ULID) (*User, error)

	// UpdatePassword replaces the stored password hash for a user.
	UpdatePassword(ctx context.Context, id ulid.ULID, passwordHash string) error
}
