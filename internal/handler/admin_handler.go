package handler

import (
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"

	"campusportal/internal/app/backend"
	"campusportal/internal/app/session"
	"campusportal/internal/app/user"
	"campusportal/internal/pkg/errs"
	"campusportal/internal/pkg/logx"
	"campusportal/internal/pkg/resp"
)

// HandleListUsers returns every account known to the auth service.
func HandleListUsers(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, _ := session.FromContext(r.Context())

		users, err := deps.Auth.ListUsers(r.Context(), identity.Token)
		if err != nil {
			logx.Warn("admin: failed to list users", "error", err)
			resp.RespondError(w, r, backendError(errs.ErrUsersFetchFailed, err))
			return
		}
		resp.RespondSuccess(w, r, users)
	}
}

// HandleDeleteUser deletes an account. Admin accounts are refused.
func HandleDeleteUser(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, _ := session.FromContext(r.Context())
		id := backend.ID(chi.URLParam(r, "userID"))
		if id == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		users, err := deps.Auth.ListUsers(r.Context(), identity.Token)
		if err != nil {
			resp.RespondError(w, r, backendError(errs.ErrUsersFetchFailed, err))
			return
		}

		idx := slices.IndexFunc(users, func(u backend.User) bool { return u.ID == id })
		if idx < 0 {
			resp.RespondError(w, r, errs.WithMessage(errs.ErrUserDeleteFailed, "User not found"))
			return
		}
		if role, _ := user.ParseRole(users[idx].Role); role == user.RoleAdmin {
			resp.RespondError(w, r, errs.NewError(errs.ErrCannotDeleteAdmin))
			return
		}

		if err := deps.Auth.DeleteUser(r.Context(), identity.Token, id); err != nil {
			logx.Warn("admin: failed to delete user", "user_id", string(id), "error", err)
			resp.RespondError(w, r, backendError(errs.ErrUserDeleteFailed, err))
			return
		}

		logx.Info("User deleted", "user_id", string(id), "by", identity.UserID)
		resp.RespondSuccess(w, r, nil)
	}
}
