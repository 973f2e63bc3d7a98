// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package session

import (
	"context"
	"errors"
	"time"

	"github.com/samber/oops"
)

// DefaultTTL is the session lifetime used when none is configured.
const DefaultTTL = 24 * time.Hour

// Manager implements the session token contract over an injected Store.
type Manager struct {
	store Store
	ttl   time.Duration
}

// NewManager creates a Manager. ttl <= 0 falls back to DefaultTTL.
func NewManager(store Store, ttl time.Duration) (*Manager, error) {
	if store == nil {
		return nil, oops.Code("SESSION_MANAGER_INVALID").Errorf("store is required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{store: store, ttl: ttl}, nil
}

// Start creates a new anonymous session and returns its identifier.
func (m *Manager) Start(ctx context.Context) (string, error) {
	id, err := NewID()
	if err != nil {
		return "", err
	}

	now := time.Now()
	rec := &Record{CreatedAt: now, ExpiresAt: now.Add(m.ttl)}
	if err := m.store.Put(ctx, id, rec); err != nil {
		return "", oops.Code("SESSION_START_FAILED").Wrap(err)
	}
	return id, nil
}

// Renew issues a new identifier for the session, transplanting any
// existing state and invalidating the old identifier. Renewing an unknown
// or expired identifier starts a fresh anonymous session; the caller gets
// a usable identifier either way.
func (m *Manager) Renew(ctx context.Context, id string) (string, error) {
	newID, err := NewID()
	if err != nil {
		return "", err
	}

	rec, err := m.store.Rotate(ctx, id, newID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return m.Start(ctx)
		}
		return "", oops.Code("SESSION_RENEW_FAILED").Wrap(err)
	}

	now := time.Now()
	if rec.IsExpired(now) {
		_ = m.store.Delete(ctx, newID) //nolint:errcheck // Best effort, record expires on its own
		return m.Start(ctx)
	}
	return newID, nil
}

// Insert associates an identity token with the (already renewed) session.
func (m *Manager) Insert(ctx context.Context, id string, token Token) error {
	if token.IsZero() {
		return oops.Code("SESSION_TOKEN_INVALID").Errorf("token carries no identity")
	}

	rec, err := m.store.Get(ctx, id)
	if err != nil {
		return oops.Code("SESSION_INSERT_FAILED").Wrap(err)
	}

	now := time.Now()
	if rec.IsExpired(now) {
		return oops.Code("SESSION_INSERT_FAILED").Wrap(ErrNotFound)
	}

	rec.Token = &token
	rec.ExpiresAt = now.Add(m.ttl)
	if err := m.store.Put(ctx, id, rec); err != nil {
		return oops.Code("SESSION_INSERT_FAILED").Wrap(err)
	}
	return nil
}

// Resolve returns the identity token carried by the session. It returns
// an error wrapping ErrNotFound for unknown or expired identifiers and
// ErrNoToken for anonymous sessions.
func (m *Manager) Resolve(ctx context.Context, id string) (Token, error) {
	rec, err := m.store.Get(ctx, id)
	if err != nil {
		return Token{}, err
	}
	if rec.IsExpired(time.Now()) {
		return Token{}, ErrNotFound
	}
	if rec.Token == nil {
		return Token{}, ErrNoToken
	}
	return *rec.Token, nil
}

// Clear destroys the session. Clearing an unknown identifier is a no-op.
func (m *Manager) Clear(ctx context.Context, id string) error {
	if err := m.store.Delete(ctx, id); err != nil {
		return oops.Code("SESSION_CLEAR_FAILED").Wrap(err)
	}
	return nil
}

// Sweep drops expired sessions from the store.
func (m *Manager) Sweep(ctx context.Context) (int64, error) {
	return m.store.DeleteExpired(ctx)
}
