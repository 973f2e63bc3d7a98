// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/oops"

	"github.com/gatehouse/gatehouse/internal/session"
	"github.com/gatehouse/gatehouse/pkg/errutil"
)

// dummyPasswordHash is verified against when a login email is unknown, so
// that unknown-email and wrong-password logins take the same time. It is
// a syntactically valid argon2id hash that matches no password.
//
//nolint:gosec // G101: intentionally fake hash for timing equalization, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=19456,t=2,p=1$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// RegisterResponse is the public result of a successful registration.
type RegisterResponse struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// LoginResponse is the public result of a successful login.
type LoginResponse struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// Service coordinates registration, login, logout and password changes.
type Service struct {
	users    UserRepository
	sessions *session.Manager
	hasher   PasswordHasher
	logger   *slog.Logger
}

// NewService creates a Service. A nil logger falls back to slog.Default.
func NewService(users UserRepository, sessions *session.Manager, hasher PasswordHasher, logger *slog.Logger) (*Service, error) {
	if users == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("user repository is required")
	}
	if sessions == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("session manager is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("password hasher is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{users: users, sessions: sessions, hasher: hasher, logger: logger}, nil
}

// Register creates a new user from validated values. The plaintext is
// hashed before anything is persisted; duplicate emails surface as
// AUTH_EMAIL_TAKEN, resolved by the repository's uniqueness constraint so
// concurrent registrations of the same email cannot both succeed.
func (s *Service) Register(ctx context.Context, name Name, email Email, password Password) (*RegisterResponse, error) {
	hash, err := s.hasher.Hash(password.Expose())
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	user, err := NewUser(email, name, hash)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "build user").
			Wrap(err)
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			// Wrap the bare sentinel so the public code is the one that
			// reaches the transport, not the repository's.
			return nil, oops.Code("AUTH_EMAIL_TAKEN").
				With("email", email.String()).
				Wrap(ErrEmailTaken)
		}
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "insert user").
			Wrap(err)
	}

	return &RegisterResponse{
		UserID: user.ID.String(),
		Name:   user.Name,
		Email:  user.Email,
	}, nil
}

// Login verifies the credentials and, on success, renews the caller's
// session and installs the identity token under the new identifier. The
// returned string is the renewed session identifier the transport must
// hand back to the client; it is empty when session renewal itself
// failed.
//
// Unknown email and wrong password are indistinguishable: same error
// code, and verification runs against a dummy hash for unknown emails so
// the timing matches too.
//
// A failure to store the token is logged for operators but does not fail
// the login; the client simply has no usable session and the transport
// must force a fresh login on the next authenticated request.
func (s *Service) Login(ctx context.Context, sessionID string, email Email, password Password) (*LoginResponse, string, error) {
	user, lookupErr := s.users.GetByEmail(ctx, email.String())

	targetHash := dummyPasswordHash
	userExists := false
	if lookupErr != nil {
		if !errors.Is(lookupErr, ErrNotFound) {
			return nil, "", oops.Code("AUTH_LOGIN_FAILED").
				With("operation", "get user by email").
				Wrap(lookupErr)
		}
	} else {
		targetHash = user.PasswordHash
		userExists = true
	}

	valid, verifyErr := s.hasher.Verify(password.Expose(), targetHash)
	if verifyErr != nil {
		if !userExists {
			return nil, "", invalidCredentials()
		}
		return nil, "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "verify password").
			Wrap(verifyErr)
	}
	if !userExists || !valid {
		return nil, "", invalidCredentials()
	}

	resp := &LoginResponse{
		UserID: user.ID.String(),
		Name:   user.Name,
		Email:  user.Email,
	}

	// Rotate the identifier before installing the token so a pre-login
	// session identifier cannot be replayed as an authenticated one.
	newID, err := s.sessions.Renew(ctx, sessionID)
	if err != nil {
		errutil.LogError(s.logger, "session renew failed after login", err)
		return resp, "", nil
	}

	token := session.Token{UserID: user.ID, Email: user.Email}
	if err := s.sessions.Insert(ctx, newID, token); err != nil {
		errutil.LogError(s.logger, "session token insert failed after login", err)
	}

	return resp, newID, nil
}

// Logout destroys the session. It is idempotent and never surfaces an
// error to the caller; store failures are an operator concern only.
func (s *Service) Logout(ctx context.Context, sessionID string) {
	if sessionID == "" {
		return
	}
	if err := s.sessions.Clear(ctx, sessionID); err != nil {
		errutil.LogError(s.logger, "session clear failed on logout", err)
	}
}

// ChangePassword replaces the stored hash after verifying the current
// password. Equality of the new password and its confirmation is the
// transport's job; by the time this runs, newPassword is the agreed
// value.
func (s *Service) ChangePassword(ctx context.Context, logged LoggedUser, currentPassword string, newPassword Password) error {
	user, err := s.users.GetByID(ctx, logged.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return invalidCredentials()
		}
		return oops.Code("AUTH_CHANGE_PASSWORD_FAILED").
			With("operation", "get user by id").
			Wrap(err)
	}

	valid, err := s.hasher.Verify(currentPassword, user.PasswordHash)
	if err != nil {
		return oops.Code("AUTH_CHANGE_PASSWORD_FAILED").
			With("operation", "verify current password").
			Wrap(err)
	}
	if !valid {
		return invalidCredentials()
	}

	hash, err := s.hasher.Hash(newPassword.Expose())
	if err != nil {
		return oops.Code("AUTH_CHANGE_PASSWORD_FAILED").
			With("operation", "hash new password").
			Wrap(err)
	}

	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return oops.Code("AUTH_CHANGE_PASSWORD_FAILED").
			With("operation", "update password hash").
			Wrap(err)
	}
	return nil
}

func invalidCredentials() error {
	return oops.Code("AUTH_INVALID_CREDENTIALS").Errorf("invalid email or password")
}
