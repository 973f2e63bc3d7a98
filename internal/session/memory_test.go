// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package session_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatehouse/gatehouse/internal/session"
)

func TestMemoryStore_GetPut(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()

	t.Run("get on missing id", func(t *testing.T) {
		_, err := store.Get(ctx, "missing")
		assert.ErrorIs(t, err, session.ErrNotFound)
	})

	t.Run("put then get round-trips", func(t *testing.T) {
		now := time.Now()
		rec := &session.Record{
			Token:     &session.Token{UserID: ulid.Make(), Email: "ann@x.com"},
			CreatedAt: now,
			ExpiresAt: now.Add(time.Hour),
		}
		require.NoError(t, store.Put(ctx, "sid", rec))

		got, err := store.Get(ctx, "sid")
		require.NoError(t, err)
		assert.Equal(t, rec, got)
	})

	t.Run("returned record is a copy", func(t *testing.T) {
		got, err := store.Get(ctx, "sid")
		require.NoError(t, err)
		got.Token.Email = "mallory@x.com"

		again, err := store.Get(ctx, "sid")
		require.NoError(t, err)
		assert.Equal(t, "ann@x.com", again.Token.Email)
	})
}

func TestMemoryStore_Rotate(t *testing.T) {
	ctx := context.Background()

	t.Run("moves the record", func(t *testing.T) {
		store := session.NewMemoryStore()
		now := time.Now()
		rec := &session.Record{CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
		require.NoError(t, store.Put(ctx, "old", rec))

		moved, err := store.Rotate(ctx, "old", "new")
		require.NoError(t, err)
		assert.Equal(t, rec, moved)

		_, err = store.Get(ctx, "old")
		assert.ErrorIs(t, err, session.ErrNotFound)

		got, err := store.Get(ctx, "new")
		require.NoError(t, err)
		assert.Equal(t, rec, got)
	})

	t.Run("unknown old id", func(t *testing.T) {
		store := session.NewMemoryStore()
		_, err := store.Rotate(ctx, "missing", "new")
		assert.ErrorIs(t, err, session.ErrNotFound)
	})

	t.Run("concurrent rotations have at most one winner", func(t *testing.T) {
		store := session.NewMemoryStore()
		now := time.Now()
		require.NoError(t, store.Put(ctx, "contested", &session.Record{
			CreatedAt: now,
			ExpiresAt: now.Add(time.Hour),
		}))

		const racers = 16
		var wg sync.WaitGroup
		errs := make([]error, racers)
		for i := range racers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, errs[i] = store.Rotate(ctx, "contested", fmt.Sprintf("new-%d", i))
			}()
		}
		wg.Wait()

		var winners int
		for _, err := range errs {
			if err == nil {
				winners++
			} else {
				assert.ErrorIs(t, err, session.ErrNotFound)
			}
		}
		assert.Equal(t, 1, winners)
		assert.Equal(t, 1, store.Len())
	})
}

func TestMemoryStore_Delete(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()

	now := time.Now()
	require.NoError(t, store.Put(ctx, "sid", &session.Record{CreatedAt: now, ExpiresAt: now.Add(time.Hour)}))

	require.NoError(t, store.Delete(ctx, "sid"))
	assert.Equal(t, 0, store.Len())

	// Absent ids are not an error.
	require.NoError(t, store.Delete(ctx, "sid"))
}

func TestMemoryStore_DeleteExpired(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()

	now := time.Now()
	require.NoError(t, store.Put(ctx, "live", &session.Record{CreatedAt: now, ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, store.Put(ctx, "dead-a", &session.Record{CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)}))
	require.NoError(t, store.Put(ctx, "dead-b", &session.Record{CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)}))

	dropped, err := store.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), dropped)
	assert.Equal(t, 1, store.Len())
}
