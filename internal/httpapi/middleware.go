// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package httpapi

import (
	"errors"
	"net/http"

	"github.com/samber/oops"

	"github.com/gatehouse/gatehouse/internal/auth"
	"github.com/gatehouse/gatehouse/internal/session"
)

// UserHandler is a handler that receives the authenticated user as an
// explicit argument.
type UserHandler func(w http.ResponseWriter, r *http.Request, user auth.LoggedUser)

// RequireUser resolves the request's session into a LoggedUser before
// invoking next. Requests without a valid identity token are answered
// with 401; a session store failure is an operator problem and answers
// 500, never 401, so clients don't mistake an outage for a logout.
func (a *API) RequireUser(next UserHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := a.sessionID(r)
		if id == "" {
			a.writeError(w, unauthenticated())
			return
		}

		token, err := a.sessions.Resolve(r.Context(), id)
		if err != nil {
			if errors.Is(err, session.ErrNotFound) || errors.Is(err, session.ErrNoToken) {
				a.writeError(w, unauthenticated())
				return
			}
			a.writeError(w, oops.Code("SESSION_RESOLVE_FAILED").Wrap(err))
			return
		}

		next(w, r, auth.LoggedUser{ID: token.UserID, Email: token.Email})
	}
}

func unauthenticated() error {
	return oops.Code("AUTH_UNAUTHENTICATED").Errorf("authentication required")
}
