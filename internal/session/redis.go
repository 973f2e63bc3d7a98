// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
)

// keyPrefix namespaces session keys in a shared Redis instance.
const keyPrefix = "gatehouse:session:"

// rotateScript moves a session value to a new key, preserving its TTL.
// Running it as a script makes the rotation atomic: concurrent rotations
// of the same identifier see the key exactly once.
var rotateScript = redis.NewScript(`
local v = redis.call('GET', KEYS[1])
if not v then
  return false
end
local ttl = redis.call('PTTL', KEYS[1])
redis.call('DEL', KEYS[1])
if ttl > 0 then
  redis.call('SET', KEYS[2], v, 'PX', ttl)
else
  redis.call('SET', KEYS[2], v)
end
return v
`)

// RedisStore is a Store backed by Redis. Expiry is delegated to Redis key
// TTLs, so DeleteExpired has nothing to do.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore creates a RedisStore on an existing client.
func NewRedisStore(client redis.UniversalClient) (*RedisStore, error) {
	if client == nil {
		return nil, oops.Code("SESSION_STORE_INVALID").Errorf("redis client is required")
	}
	return &RedisStore{client: client}, nil
}

func sessionKey(id string) string { return keyPrefix + id }

// Get returns the record for id.
func (s *RedisStore) Get(ctx context.Context, id string) (*Record, error) {
	data, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, oops.Code("SESSION_STORE_GET_FAILED").Wrap(err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, oops.Code("SESSION_STORE_GET_FAILED").
			With("operation", "decode record").
			Wrap(err)
	}
	return &rec, nil
}

// Put stores the record under id with a TTL matching its expiry.
func (s *RedisStore) Put(ctx context.Context, id string, rec *Record) error {
	ttl := time.Until(rec.ExpiresAt)
	if ttl <= 0 {
		return s.Delete(ctx, id)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return oops.Code("SESSION_STORE_PUT_FAILED").
			With("operation", "encode record").
			Wrap(err)
	}
	if err := s.client.Set(ctx, sessionKey(id), data, ttl).Err(); err != nil {
		return oops.Code("SESSION_STORE_PUT_FAILED").Wrap(err)
	}
	return nil
}

// Rotate atomically moves the record from oldID to newID.
func (s *RedisStore) Rotate(ctx context.Context, oldID, newID string) (*Record, error) {
	res, err := rotateScript.Run(ctx, s.client, []string{sessionKey(oldID), sessionKey(newID)}).Text()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, oops.Code("SESSION_STORE_ROTATE_FAILED").Wrap(err)
	}

	var rec Record
	if err := json.Unmarshal([]byte(res), &rec); err != nil {
		return nil, oops.Code("SESSION_STORE_ROTATE_FAILED").
			With("operation", "decode record").
			Wrap(err)
	}
	return &rec, nil
}

// Delete removes the record for id.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return oops.Code("SESSION_STORE_DELETE_FAILED").Wrap(err)
	}
	return nil
}

// DeleteExpired is a no-op; Redis drops expired keys itself.
func (s *RedisStore) DeleteExpired(_ context.Context) (int64, error) {
	return 0, nil
}
