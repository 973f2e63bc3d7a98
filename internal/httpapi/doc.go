// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Package httpapi exposes the authentication core over HTTP.
//
// The session identifier rides in an opaque cookie. RequireUser is the
// guard for operations that need an identity: it resolves the cookie
// against the session manager and passes the resulting LoggedUser to the
// handler as an explicit argument, so no handler fishes identity out of
// ambient request state.
package httpapi
