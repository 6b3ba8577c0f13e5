/*
Package handler provides the HTTP handlers and routing setup for the campus portal.

This file defines the main Router, applying middleware for logging, CORS, session
resolution and IP-based rate limiting before delegating requests to the API and
WebSocket handlers.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"campusportal/internal/app/session"
	"campusportal/internal/app/user"
	"campusportal/internal/pkg/limiter"
	"campusportal/internal/pkg/logx"
	"campusportal/internal/pkg/resp"
)

const (
	AuthRate     = 0.1
	AuthBurst    = 5
	BookingRate  = 1
	BookingBurst = 10
	SocketRate   = 0.2
	SocketBurst  = 5
)

// Router sets up the main HTTP routing table (chi.Router) for the application.
// It initializes the IP-based rate limiters, configures CORS, resolves the session once
// per request and applies per-route role guards.
func Router(deps *AppDeps) http.Handler {
	authLimiter := limiter.NewIPRateLimiter("auth", rate.Limit(AuthRate), AuthBurst)
	bookingLimiter := limiter.NewIPRateLimiter("booking", rate.Limit(BookingRate), BookingBurst)
	socketLimiter := limiter.NewIPRateLimiter("socket", rate.Limit(SocketRate), SocketBurst)

	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	var wsUpgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.IsDevelopment() {
				return true
			}

			origin := r.Header.Get("Origin")
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.IsDevelopment() {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-PoW-Token"},
		ExposedHeaders:   []string{},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)
	r.Use(session.Middleware(deps.Sessions))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		data := map[string]any{
			"status":     "ok",
			"service":    "Campus Portal",
			"open_pages": deps.Pages.Count(),
		}
		resp.RespondSuccess(w, r, data)
	})

	r.Route("/api", func(api chi.Router) {
		api.Route("/pow", func(p chi.Router) {
			p.Get("/challenge", HandlePowChallenge(deps))
			p.Post("/verify", HandlePowVerify(deps))
		})

		api.Route("/auth", func(auth chi.Router) {
			auth.With(authLimiter.Middleware).Post("/login", HandleLogin(deps))
			auth.With(authLimiter.Middleware, deps.Pow.Require).Post("/signup", HandleSignup(deps))
			auth.Post("/logout", HandleLogout(deps))
			auth.Get("/me", HandleMe(deps))
		})

		api.Route("/pages", func(pages chi.Router) {
			pages.Use(session.RequireSession)

			pages.Post("/", HandleOpenPage(deps))

			pages.Route("/{pageID}", func(page chi.Router) {
				page.Get("/", HandleGetPage(deps))
				page.Delete("/", HandleClosePage(deps))
				page.Post("/refresh", HandleRefreshPage(deps))

				page.Group(func(booking chi.Router) {
					booking.Use(bookingLimiter.Middleware)

					booking.Post("/register", HandleRegister(deps))
					booking.Post("/cancel", HandleRequestCancel(deps))
					booking.Post("/cancel/confirm", HandleConfirmCancel(deps))
				})
				page.Post("/cancel/dismiss", HandleDismissCancel(deps))

				page.Route("/events", func(events chi.Router) {
					events.Use(session.RequireRole(user.RoleOrganizer, user.RoleAdmin))

					events.Post("/", HandleCreateEvent(deps))
					events.Put("/{eventID}", HandleEditEvent(deps))
					events.Delete("/{eventID}", HandleDeleteEvent(deps))
					events.Post("/{eventID}/reminder", HandleSendReminder(deps))

					events.Get("/{eventID}/analytics/count", HandleRegistrantCount(deps))
					events.Get("/{eventID}/analytics/registrants", HandleRegistrants(deps))
					events.Post("/{eventID}/analytics/export", HandleExportRegistrants(deps))
				})
			})
		})

		api.Route("/admin/users", func(admin chi.Router) {
			admin.Use(session.RequireRole(user.RoleAdmin))

			admin.Get("/", HandleListUsers(deps))
			admin.Delete("/{userID}", HandleDeleteUser(deps))
		})
	})

	r.With(session.RequireSession).Get("/ws/pages/{pageID}", HandleWebSocket(deps, wsUpgrader, socketLimiter))

	return r
}
