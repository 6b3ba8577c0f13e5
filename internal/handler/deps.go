package handler

import (
	"context"

	"campusportal/internal/app/analytics"
	"campusportal/internal/app/backend"
	"campusportal/internal/app/session"
	"campusportal/internal/app/view"
	"campusportal/internal/configs"
	"campusportal/internal/pkg/pow"
)

// AuthService is the part of the auth service the login, signup and admin handlers use.
type AuthService interface {
	Login(ctx context.Context, req backend.LoginRequest) (backend.LoginResult, error)
	SignUp(ctx context.Context, req backend.SignUpRequest) error
	ListUsers(ctx context.Context, token string) ([]backend.User, error)
	DeleteUser(ctx context.Context, token string, id backend.ID) error
}

type AppDeps struct {
	Config   *configs.AppConfig
	Sessions session.Store
	Auth     AuthService
	Pages    *view.Manager
	Pow      *pow.Manager

	// Analytics is the source of registrant counts.
	Analytics analytics.Source
	Pager     *analytics.Pager
	Exporter  *analytics.Exporter
}
