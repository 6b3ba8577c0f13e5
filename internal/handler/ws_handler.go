/*
Package handler provides the HTTP handler function for WebSocket connection upgrading and initialization.

This file contains the HandleWebSocket function, which is responsible for rate limiting, resolving
the page, upgrading the HTTP connection to WebSocket, and attaching the subscriber to the page.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"campusportal/internal/app/session"
	"campusportal/internal/app/view"
	"campusportal/internal/pkg/errs"
	"campusportal/internal/pkg/limiter"
	"campusportal/internal/pkg/logx"
	"campusportal/internal/pkg/resp"
)

// HandleWebSocket creates an HTTP HandlerFunc streaming live snapshots of a page.
func HandleWebSocket(deps *AppDeps, upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := limiter.ClientIP(r)

		if !rateLimiter.Allow(ip) {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", ip)
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		identity, ok := session.FromContext(r.Context())
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		pageID := chi.URLParam(r, "pageID")
		page, customErr := deps.Pages.Get(pageID, identity)
		if customErr != nil {
			logx.Info("WebSocket connection rejected: Page not found.", "page_id", pageID)
			resp.RespondError(w, r, customErr)
			return
		}

		criteria, customErr := criteriaFromQuery(r)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		subscriber := view.NewSubscriber(page, conn, criteria)

		go subscriber.WritePump()

		logx.Info("WebSocket connection established and subscriber attached", "page_id", pageID, "user_id", identity.UserID)

		page.Attach(subscriber)

		subscriber.ReadPump()
	}
}
