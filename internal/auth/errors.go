// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

import "errors"

var (
	// ErrNotFound is returned when a requested user does not exist.
	ErrNotFound = errors.New("not found")

	// ErrEmailTaken is returned when a registration collides with an
	// existing email. Repository implementations map their uniqueness
	// violation onto this sentinel.
	ErrEmailTaken = errors.New("email already registered")
)
