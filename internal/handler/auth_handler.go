/*
Package handler provides HTTP handler functions for sign-in, sign-up and the session.
*/
package handler

import (
	"errors"
	"net/http"
	"regexp"
	"strings"

	"campusportal/internal/app/backend"
	"campusportal/internal/app/session"
	"campusportal/internal/app/user"
	"campusportal/internal/pkg/errs"
	"campusportal/internal/pkg/logx"
	"campusportal/internal/pkg/req"
	"campusportal/internal/pkg/resp"
)

var (
	passwordCharsRegex = regexp.MustCompile(`^[A-Za-z\d!@#$%^&*]{8,}$`)
	passwordUpperRegex = regexp.MustCompile(`[A-Z]`)
	passwordLowerRegex = regexp.MustCompile(`[a-z]`)
	passwordDigitRegex = regexp.MustCompile(`\d`)
	passwordSignRegex  = regexp.MustCompile(`[!@#$%^&*]`)
)

// validPassword enforces the signup password policy: at least 8 characters drawn only from
// letters, digits and !@#$%^&*, with at least one of each class.
func validPassword(p string) bool {
	return passwordCharsRegex.MatchString(p) &&
		passwordUpperRegex.MatchString(p) &&
		passwordLowerRegex.MatchString(p) &&
		passwordDigitRegex.MatchString(p) &&
		passwordSignRegex.MatchString(p)
}

// backendError maps a failed backend call to code with the service's detail message, or to
// ErrBackendUnavailable when the service could not be reached.
func backendError(code int, err error) *errs.CustomError {
	if errors.Is(err, backend.ErrUnavailable) {
		return errs.NewError(errs.ErrBackendUnavailable)
	}
	return errs.WithMessage(code, backend.DetailOf(err))
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// HandleLogin signs in through the auth service and stores the returned identity in the
// session cookie.
func HandleLogin(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := session.FromContext(r.Context()); ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrAlreadyLoggedIn))
			return
		}

		var input LoginInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		role, ok := user.ParseRole(input.Role)
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidRole))
			return
		}

		email := strings.TrimSpace(input.Email)
		if email == "" || input.Password == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		result, err := deps.Auth.Login(r.Context(), backend.LoginRequest{
			Email:    email,
			Password: input.Password,
			Role:     string(role),
		})
		if err != nil {
			logx.Warn("login: auth service rejected credentials", "email", email, "error", err)
			resp.RespondError(w, r, backendError(errs.ErrInvalidCredentials, err))
			return
		}

		if result.AccessToken == "" {
			logx.Warn("login: response carried no access token", "email", email)
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidCredentials))
			return
		}

		if granted, ok := user.ParseRole(result.Role); ok {
			role = granted
		}
		username := result.Username
		if username == "" {
			username = email
		}

		identity := user.Identity{
			Token:    result.AccessToken,
			Role:     role,
			UserID:   string(result.UserID),
			Username: username,
		}

		if err := deps.Sessions.Save(w, identity); err != nil {
			logx.Error(err, "login: failed to save session")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		logx.Info("User signed in", "user_id", identity.UserID, "role", identity.Role)
		resp.RespondSuccess(w, r, identity)
	}
}

type SignupInput struct {
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Address         string `json:"address"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	Role            string `json:"role"`
}

// HandleSignup registers a new student or organizer account with the auth service.
// Admin accounts cannot be created here.
func HandleSignup(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := session.FromContext(r.Context()); ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrAlreadyLoggedIn))
			return
		}

		var input SignupInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		role, ok := user.ParseRole(input.Role)
		if !ok || role == user.RoleAdmin {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidRole))
			return
		}

		email := strings.TrimSpace(input.Email)
		if email == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		if !validPassword(input.Password) {
			resp.RespondError(w, r, errs.NewError(errs.ErrPasswordPolicy))
			return
		}

		if input.Password != input.ConfirmPassword {
			resp.RespondError(w, r, errs.NewError(errs.ErrPasswordMismatch))
			return
		}

		err := deps.Auth.SignUp(r.Context(), backend.SignUpRequest{
			Email:    email,
			Phone:    strings.TrimSpace(input.Phone),
			Address:  strings.TrimSpace(input.Address),
			Password: input.Password,
			Role:     string(role),
		})
		if err != nil {
			logx.Warn("signup: auth service rejected registration", "email", email, "error", err)
			resp.RespondError(w, r, backendError(errs.ErrSignupFailed, err))
			return
		}

		logx.Info("Account registered", "role", role)
		resp.RespondSuccess(w, r, map[string]any{
			"email": email,
			"role":  role,
		})
	}
}

// HandleLogout closes the signed-in user's pages and clears the session cookie. It succeeds
// for anonymous requests too.
func HandleLogout(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if identity, ok := session.FromContext(r.Context()); ok {
			deps.Pages.CloseAllFor(identity)
		}
		deps.Sessions.Clear(w)
		resp.RespondSuccess(w, r, nil)
	}
}

// HandleMe returns the identity of the current session.
func HandleMe(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := session.FromContext(r.Context())
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}
		resp.RespondSuccess(w, r, identity)
	}
}
