// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/samber/oops"

	"github.com/gatehouse/gatehouse/internal/auth"
	"github.com/gatehouse/gatehouse/internal/observability"
	"github.com/gatehouse/gatehouse/internal/session"
	"github.com/gatehouse/gatehouse/pkg/errutil"
)

// SessionCookieName is the cookie carrying the opaque session identifier.
const SessionCookieName = "gatehouse_session"

// maxBodyBytes caps request bodies; auth payloads are tiny.
const maxBodyBytes = 16 << 10

// LoginRequest is the login payload. Fields are raw strings; validation
// happens inside the core.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the registration payload.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ChangePasswordRequest is the password change payload.
type ChangePasswordRequest struct {
	CurrentPassword    string `json:"current_password"`
	NewPassword        string `json:"new_password"`
	NewPasswordConfirm string `json:"new_password_confirm"`
}

// errorResponse is the JSON shape of every failed request.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// API holds the handlers for the /api/user surface.
type API struct {
	auth     *auth.Service
	sessions *session.Manager
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewAPI creates the API. metrics may be nil; a nil logger falls back to
// slog.Default.
func NewAPI(authSvc *auth.Service, sessions *session.Manager, metrics *observability.Metrics, logger *slog.Logger) (*API, error) {
	if authSvc == nil {
		return nil, oops.Code("HTTPAPI_INVALID").Errorf("auth service is required")
	}
	if sessions == nil {
		return nil, oops.Code("HTTPAPI_INVALID").Errorf("session manager is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &API{auth: authSvc, sessions: sessions, metrics: metrics, logger: logger}, nil
}

// Routes returns the handler for the user API.
func (a *API) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/user/login", a.handleLogin)
	mux.HandleFunc("GET /api/user/logout", a.RequireUser(a.handleLogout))
	mux.HandleFunc("POST /api/user/register", a.handleRegister)
	mux.HandleFunc("POST /api/user/password", a.RequireUser(a.handleChangePassword))
	return mux
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !a.decode(w, r, &req) {
		return
	}

	email, err := auth.ParseEmail(req.Email)
	if err != nil {
		a.writeError(w, err)
		return
	}
	password, err := auth.ParsePassword(req.Password)
	if err != nil {
		a.writeError(w, err)
		return
	}

	resp, newSessionID, err := a.auth.Login(r.Context(), a.sessionID(r), email, password)
	if err != nil {
		a.recordLogin(err)
		a.writeError(w, err)
		return
	}
	a.recordLogin(nil)

	if newSessionID != "" {
		a.setSessionCookie(w, r, newSessionID)
	}
	a.writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !a.decode(w, r, &req) {
		return
	}

	name, err := auth.ParseName(req.Name)
	if err != nil {
		a.writeError(w, err)
		return
	}
	email, err := auth.ParseEmail(req.Email)
	if err != nil {
		a.writeError(w, err)
		return
	}
	password, err := auth.ParsePassword(req.Password)
	if err != nil {
		a.writeError(w, err)
		return
	}

	resp, err := a.auth.Register(r.Context(), name, email, password)
	if err != nil {
		if a.metrics != nil {
			a.metrics.RecordRegistration("error")
		}
		a.writeError(w, err)
		return
	}
	if a.metrics != nil {
		a.metrics.RecordRegistration("ok")
	}
	a.writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request, _ auth.LoggedUser) {
	a.auth.Logout(r.Context(), a.sessionID(r))
	a.clearSessionCookie(w, r)
	w.WriteHeader(http.StatusOK)
}

func (a *API) handleChangePassword(w http.ResponseWriter, r *http.Request, user auth.LoggedUser) {
	var req ChangePasswordRequest
	if !a.decode(w, r, &req) {
		return
	}

	// The new password and its confirmation are compared here, before the
	// core ever sees them.
	if req.NewPassword != req.NewPasswordConfirm {
		a.writeError(w, oops.Code("AUTH_PASSWORD_MISMATCH").Errorf("new passwords do not match"))
		return
	}

	newPassword, err := auth.ParsePassword(req.NewPassword)
	if err != nil {
		a.writeError(w, err)
		return
	}

	if err := a.auth.ChangePassword(r.Context(), user, req.CurrentPassword, newPassword); err != nil {
		a.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// sessionID returns the session identifier carried by the request, or ""
// when the client has none yet.
func (a *API) sessionID(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (a *API) setSessionCookie(w http.ResponseWriter, r *http.Request, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

func (a *API) clearSessionCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

// decode reads a JSON body into dst, answering 400 on malformed input.
func (a *API) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		a.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return false
	}
	return true
}

func (a *API) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		errutil.LogError(a.logger, "response encode failed", err)
	}
}

// writeError converts err to its HTTP shape. Server-side failures are
// logged for operators and answered with a generic message; the caller
// never sees internals.
func (a *API) writeError(w http.ResponseWriter, err error) {
	status := errutil.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		errutil.LogError(a.logger, "request failed", err)
		a.writeJSON(w, status, errorResponse{Error: "internal error"})
		return
	}
	a.writeJSON(w, status, errorResponse{Error: err.Error(), Code: errutil.Code(err)})
}

func (a *API) recordLogin(err error) {
	if a.metrics == nil {
		return
	}
	switch {
	case err == nil:
		a.metrics.RecordLogin("ok")
	case errutil.Code(err) == "AUTH_INVALID_CREDENTIALS":
		a.metrics.RecordLogin("rejected")
	default:
		a.metrics.RecordLogin("error")
	}
}
