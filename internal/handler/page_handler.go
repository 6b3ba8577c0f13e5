/*
Package handler provides HTTP handler functions for pages: opening, reading and closing a
page, and the registration and event actions performed on it.

Every action answers with the page's fresh snapshot, filtered by the month, q and tab
query parameters of the request.
*/
package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"campusportal/internal/app/backend"
	"campusportal/internal/app/session"
	"campusportal/internal/app/view"
	"campusportal/internal/pkg/errs"
	"campusportal/internal/pkg/logx"
	"campusportal/internal/pkg/req"
	"campusportal/internal/pkg/resp"
)

// criteriaFromQuery reads the snapshot filter from the month, q and tab query parameters.
func criteriaFromQuery(r *http.Request) (view.Criteria, *errs.CustomError) {
	q := r.URL.Query()
	c, err := view.ParseCriteria(q.Get("month"), q.Get("q"), q.Get("tab"))
	if err != nil {
		return view.Criteria{}, errs.NewError(errs.ErrInvalidParams)
	}
	return c, nil
}

// lookupPage resolves the {pageID} route parameter to a page owned by the session user.
// It answers the request itself and returns nil when that fails.
func lookupPage(deps *AppDeps, w http.ResponseWriter, r *http.Request) *view.Page {
	identity, ok := session.FromContext(r.Context())
	if !ok {
		resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
		return nil
	}

	page, customErr := deps.Pages.Get(chi.URLParam(r, "pageID"), identity)
	if customErr != nil {
		resp.RespondError(w, r, customErr)
		return nil
	}
	return page
}

// respondSnapshot answers with the page snapshot for the request's criteria.
func respondSnapshot(w http.ResponseWriter, r *http.Request, page *view.Page) {
	c, customErr := criteriaFromQuery(r)
	if customErr != nil {
		resp.RespondError(w, r, customErr)
		return
	}
	resp.RespondSuccess(w, r, page.Snapshot(c))
}

// HandleOpenPage opens a page for the session user and returns its first snapshot. A failed
// roster load is not an error here: the snapshot carries the failure banner.
func HandleOpenPage(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := session.FromContext(r.Context())
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		c, customErr := criteriaFromQuery(r)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		page, err := deps.Pages.Open(r.Context(), identity)
		if err != nil {
			logx.Ctx(r.Context()).Warn().Err(err).Str("page_id", page.ID).Msg("Page opened with a failed initial load")
		}

		resp.RespondSuccess(w, r, page.Snapshot(c))
	}
}

// HandleGetPage returns the current snapshot of a page.
func HandleGetPage(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := lookupPage(deps, w, r)
		if page == nil {
			return
		}
		respondSnapshot(w, r, page)
	}
}

// HandleRefreshPage reloads the roster and the bookings of a page.
func HandleRefreshPage(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := lookupPage(deps, w, r)
		if page == nil {
			return
		}

		if err := page.Refresh(r.Context()); err != nil {
			resp.RespondErr(w, r, err)
			return
		}
		respondSnapshot(w, r, page)
	}
}

// HandleClosePage closes a page and releases its resources.
func HandleClosePage(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := session.FromContext(r.Context())
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		if customErr := deps.Pages.Close(chi.URLParam(r, "pageID"), identity); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}
		resp.RespondSuccess(w, r, nil)
	}
}

type RegisterInput struct {
	EventID backend.ID `json:"event_id"`
}

// HandleRegister registers the session user for an event.
func HandleRegister(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := lookupPage(deps, w, r)
		if page == nil {
			return
		}

		var input RegisterInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}
		if input.EventID == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		if err := page.Register(r.Context(), input.EventID); err != nil {
			resp.RespondErr(w, r, err)
			return
		}
		respondSnapshot(w, r, page)
	}
}

type CancelInput struct {
	BookingID backend.ID `json:"booking_id"`
}

// HandleRequestCancel starts a cancellation and returns the token that confirms it.
func HandleRequestCancel(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := lookupPage(deps, w, r)
		if page == nil {
			return
		}

		var input CancelInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		token, err := page.RequestCancel(input.BookingID)
		if err != nil {
			resp.RespondErr(w, r, err)
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"confirm_token": token,
			"expires_in":    int(view.ConfirmWindow / time.Second),
		})
	}
}

type ConfirmInput struct {
	ConfirmToken string `json:"confirm_token"`
}

func bindConfirmToken(w http.ResponseWriter, r *http.Request) (string, bool) {
	var input ConfirmInput
	if customErr := req.BindJSON(w, r, &input); customErr != nil {
		resp.RespondError(w, r, customErr)
		return "", false
	}

	token := strings.TrimSpace(input.ConfirmToken)
	if token == "" {
		resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
		return "", false
	}
	return token, true
}

// HandleConfirmCancel carries out a cancellation the user confirmed.
func HandleConfirmCancel(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := lookupPage(deps, w, r)
		if page == nil {
			return
		}

		token, ok := bindConfirmToken(w, r)
		if !ok {
			return
		}

		if err := page.ConfirmCancel(r.Context(), token); err != nil {
			resp.RespondErr(w, r, err)
			return
		}
		respondSnapshot(w, r, page)
	}
}

// HandleDismissCancel drops a cancellation the user decided against.
func HandleDismissCancel(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := lookupPage(deps, w, r)
		if page == nil {
			return
		}

		token, ok := bindConfirmToken(w, r)
		if !ok {
			return
		}

		page.DismissCancel(token)
		resp.RespondSuccess(w, r, nil)
	}
}

// HandleCreateEvent creates an event owned by the session user.
func HandleCreateEvent(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := lookupPage(deps, w, r)
		if page == nil {
			return
		}

		var form view.EventForm
		if customErr := req.BindJSON(w, r, &form); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if err := page.CreateEvent(r.Context(), form); err != nil {
			resp.RespondErr(w, r, err)
			return
		}
		respondSnapshot(w, r, page)
	}
}

// HandleEditEvent updates an event the session user may manage.
func HandleEditEvent(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := lookupPage(deps, w, r)
		if page == nil {
			return
		}

		var form view.EventForm
		if customErr := req.BindJSON(w, r, &form); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if err := page.EditEvent(r.Context(), backend.ID(chi.URLParam(r, "eventID")), form); err != nil {
			resp.RespondErr(w, r, err)
			return
		}
		respondSnapshot(w, r, page)
	}
}

// HandleDeleteEvent deletes an event the session user may manage.
func HandleDeleteEvent(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := lookupPage(deps, w, r)
		if page == nil {
			return
		}

		if err := page.DeleteEvent(r.Context(), backend.ID(chi.URLParam(r, "eventID"))); err != nil {
			resp.RespondErr(w, r, err)
			return
		}
		respondSnapshot(w, r, page)
	}
}

// HandleSendReminder asks the notification service to remind an event's registrants.
func HandleSendReminder(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := lookupPage(deps, w, r)
		if page == nil {
			return
		}

		if err := page.SendReminder(r.Context(), backend.ID(chi.URLParam(r, "eventID"))); err != nil {
			resp.RespondErr(w, r, err)
			return
		}
		respondSnapshot(w, r, page)
	}
}
