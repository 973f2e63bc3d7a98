// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Package auth provides the credential and session authentication core.
//
// # Domain Types
//
// Value types (Email, Name, Password) can only be obtained through their
// parse constructors:
//   - ParseEmail - validates email shape and length
//   - ParseName - validates display name length and character set
//   - ParsePassword - validates the password policy
//
// A value that failed parsing never exists; everything downstream of the
// constructors trusts the wrapped string. User records are created with
// NewUser from already-parsed values.
//
// # Service
//
// Service coordinates the four authentication operations (Register, Login,
// Logout, ChangePassword) against a UserRepository (durable credential
// store) and a session.Manager (per-client session state). Passwords are
// stored as argon2id hashes; the plaintext never leaves the operation that
// received it.
package auth
