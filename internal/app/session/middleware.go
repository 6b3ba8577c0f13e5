package session

import (
	"context"
	"errors"
	"net/http"
	"slices"

	"campusportal/internal/app/user"
	"campusportal/internal/pkg/errs"
	"campusportal/internal/pkg/logx"
	"campusportal/internal/pkg/resp"
)

type contextKey string

// ContextIdentityKey stores the resolved user.Identity in the request context.
const ContextIdentityKey contextKey = "session_identity"

// Middleware resolves the session once and injects the identity into the request context.
// It never rejects a request: a missing or invalid cookie means anonymous.
func Middleware(store Store) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := store.Load(r)
			if err != nil {
				if !errors.Is(err, ErrNoSession) {
					logx.Ctx(r.Context()).Warn().Err(err).Msg("Invalid or expired session cookie, treating as anonymous")
				}
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// WithIdentity returns a copy of ctx carrying identity.
func WithIdentity(ctx context.Context, identity user.Identity) context.Context {
	return context.WithValue(ctx, ContextIdentityKey, identity)
}

// FromContext returns the identity stored by Middleware; ok is false for anonymous requests.
func FromContext(ctx context.Context) (user.Identity, bool) {
	identity, ok := ctx.Value(ContextIdentityKey).(user.Identity)
	if !ok || identity.IsZero() {
		return user.Identity{}, false
	}
	return identity, true
}

// RequireSession rejects anonymous requests with ErrUnauthorized.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := FromContext(r.Context()); !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole rejects requests whose session role is not one of roles.
func RequireRole(roles ...user.Role) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := FromContext(r.Context())
			if !ok {
				resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
				return
			}
			if !slices.Contains(roles, identity.Role) {
				resp.RespondError(w, r, errs.NewError(errs.ErrForbidden))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
