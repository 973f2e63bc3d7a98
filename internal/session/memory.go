// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store. A single lock serializes all
// mutations, which makes Rotate trivially atomic: of several concurrent
// rotations of the same identifier, the first one to take the lock moves
// the record and the rest observe not-found.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Record
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Record)}
}

// copyRecord returns a defensive copy so callers cannot mutate shared
// state outside the lock.
func copyRecord(rec *Record) *Record {
	out := &Record{CreatedAt: rec.CreatedAt, ExpiresAt: rec.ExpiresAt}
	if rec.Token != nil {
		tok := *rec.Token
		out.Token = &tok
	}
	return out
}

// Get returns the record for id.
func (s *MemoryStore) Get(_ context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyRecord(rec), nil
}

// Put stores the record under id.
func (s *MemoryStore) Put(_ context.Context, id string, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[id] = copyRecord(rec)
	return nil
}

// Rotate atomically moves the record from oldID to newID.
func (s *MemoryStore) Rotate(_ context.Context, oldID, newID string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.sessions[oldID]
	if !ok {
		return nil, ErrNotFound
	}
	delete(s.sessions, oldID)
	s.sessions[newID] = rec
	return copyRecord(rec), nil
}

// Delete removes the record for id.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}

// DeleteExpired removes expired records and returns the count.
func (s *MemoryStore) DeleteExpired(_ context.Context) (int64, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	var dropped int64
	for id, rec := range s.sessions {
		if rec.IsExpired(now) {
			delete(s.sessions, id)
			dropped++
		}
	}
	return dropped, nil
}

// Len returns the number of live records. Used by tests and metrics.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
