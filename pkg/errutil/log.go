// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Package errutil provides helpers for working with coded errors.
package errutil

import (
	"log/slog"
	"net/http"

	"github.com/samber/oops"
)

// LogError logs an error with structured context if it's an oops error.
// For oops errors, it extracts and logs the message, code and context.
// For standard errors, it logs the error string.
func LogError(logger *slog.Logger, msg string, err error) {
	if oopsErr, ok := oops.AsOops(err); ok {
		attrs := []any{
			"error", oopsErr.Error(),
		}
		if code := oopsErr.Code(); code != nil {
			attrs = append(attrs, "code", code)
		}
		if ctx := oopsErr.Context(); len(ctx) > 0 {
			attrs = append(attrs, "context", ctx)
		}
		logger.Error(msg, attrs...)
	} else {
		logger.Error(msg, "error", err)
	}
}

// Code returns the oops error code, or "" for uncoded errors.
func Code(err error) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	code, _ := oopsErr.Code().(string)
	return code
}

// httpStatusByCode maps authentication error codes to HTTP statuses.
// Anything unlisted is an internal failure.
var httpStatusByCode = map[string]int{
	"AUTH_INVALID_EMAIL":       http.StatusBadRequest,
	"AUTH_INVALID_NAME":        http.StatusBadRequest,
	"AUTH_INVALID_PASSWORD":    http.StatusBadRequest,
	"AUTH_PASSWORD_MISMATCH":   http.StatusBadRequest,
	"AUTH_INVALID_CREDENTIALS": http.StatusUnauthorized,
	"AUTH_UNAUTHENTICATED":     http.StatusUnauthorized,
	"AUTH_EMAIL_TAKEN":         http.StatusConflict,
}

// HTTPStatus maps an error to the HTTP status the transport should
// return. Uncoded and unknown-code errors map to 500.
func HTTPStatus(err error) int {
	if code := Code(err); code != "" {
		if status, ok := httpStatusByCode[code]; ok {
			return status
		}
	}
	return http.StatusInternalServerError
}
