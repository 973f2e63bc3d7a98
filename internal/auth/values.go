// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/samber/oops"
)

// Email validation constraints. 254 is the RFC 5321 ceiling for a
// deliverable address.
const MaxEmailLength = 254

// Name validation constraints.
const MaxNameLength = 256

// Password policy bounds. The upper bound exists to cap argon2 input size.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 128
)

// emailRegex accepts one non-empty local part, an @, and a domain with at
// least one dot. Deliverability is the mail server's problem, not ours.
var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// nameForbiddenChars are rejected in display names to keep them safe to
// echo into HTML and shell-adjacent contexts.
const nameForbiddenChars = `/(){}"<>\`

// Email is a validated email address. Obtain one with ParseEmail.
type Email struct {
	raw string
}

// ParseEmail validates raw and returns it as an Email value.
func ParseEmail(raw string) (Email, error) {
	if strings.TrimSpace(raw) == "" {
		return Email{}, oops.Code("AUTH_INVALID_EMAIL").Errorf("email cannot be empty")
	}
	if len(raw) > MaxEmailLength {
		return Email{}, oops.Code("AUTH_INVALID_EMAIL").
			With("max", MaxEmailLength).
			Errorf("email must be at most %d characters", MaxEmailLength)
	}
	if !emailRegex.MatchString(raw) {
		return Email{}, oops.Code("AUTH_INVALID_EMAIL").Errorf("email is not a valid address")
	}
	return Email{raw: raw}, nil
}

// String returns the validated address.
func (e Email) String() string { return e.raw }

// IsZero reports whether e is the zero (never parsed) value.
func (e Email) IsZero() bool { return e.raw == "" }

// Name is a validated display name. Obtain one with ParseName.
type Name struct {
	raw string
}

// ParseName validates raw and returns it as a Name value.
func ParseName(raw string) (Name, error) {
	if strings.TrimSpace(raw) == "" {
		return Name{}, oops.Code("AUTH_INVALID_NAME").Errorf("name cannot be empty")
	}
	if len(raw) > MaxNameLength {
		return Name{}, oops.Code("AUTH_INVALID_NAME").
			With("max", MaxNameLength).
			Errorf("name must be at most %d characters", MaxNameLength)
	}
	if strings.ContainsAny(raw, nameForbiddenChars) {
		return Name{}, oops.Code("AUTH_INVALID_NAME").Errorf("name contains forbidden characters")
	}
	for _, r := range raw {
		if unicode.IsControl(r) {
			return Name{}, oops.Code("AUTH_INVALID_NAME").Errorf("name contains forbidden characters")
		}
	}
	return Name{raw: raw}, nil
}

// String returns the validated name.
func (n Name) String() string { return n.raw }

// IsZero reports whether n is the zero (never parsed) value.
func (n Name) IsZero() bool { return n.raw == "" }

// Password is a plaintext password that passed the policy check. Obtain
// one with ParsePassword. It deliberately has no String method; the
// plaintext is handed out once, to the hasher.
type Password struct {
	raw string
}

// ParsePassword validates raw against the password policy. The error
// carries no detail about which rule failed; callers only learn that the
// password was rejected.
func ParsePassword(raw string) (Password, error) {
	if len(raw) < MinPasswordLength || len(raw) > MaxPasswordLength || strings.TrimSpace(raw) == "" {
		return Password{}, oops.Code("AUTH_INVALID_PASSWORD").Errorf("password does not meet the policy")
	}
	return Password{raw: raw}, nil
}

// Expose returns the plaintext for hashing or verification. Call sites
// must not log or persist the returned value.
func (p Password) Expose() string { return p.raw }

// IsZero reports whether p is the zero (never parsed) value.
func (p Password) IsZero() bool { return p.raw == "" }
