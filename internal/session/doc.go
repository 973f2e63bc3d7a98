// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Package session owns the mapping from an opaque session identifier to
// per-session state.
//
// A session is created anonymously on first contact with a client and may
// later carry one identity Token. Manager exposes the four operations the
// authentication core needs: Start, Renew, Insert, Resolve, Clear. Renew
// rotates the identifier while transplanting any existing state, which is
// what defeats session fixation: an identifier obtained before login is
// dead after it.
//
// State lives behind the Store interface. MemoryStore keeps it in-process
// under a single lock; RedisStore keeps it in Redis so several instances
// can share it. Both resolve a racing Renew on the same identifier to at
// most one winner.
package session
