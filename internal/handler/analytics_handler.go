package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"campusportal/internal/app/analytics"
	"campusportal/internal/app/backend"
	"campusportal/internal/app/view"
	"campusportal/internal/pkg/errs"
	"campusportal/internal/pkg/logx"
	"campusportal/internal/pkg/req"
	"campusportal/internal/pkg/resp"
)

// lookupManagedEvent resolves the {pageID} and {eventID} route parameters to an event the
// session user may manage. It answers the request itself and returns false when that fails.
func lookupManagedEvent(deps *AppDeps, w http.ResponseWriter, r *http.Request) (*view.Page, backend.Event, bool) {
	page := lookupPage(deps, w, r)
	if page == nil {
		return nil, backend.Event{}, false
	}

	ev, err := page.ManagedEvent(backend.ID(chi.URLParam(r, "eventID")))
	if err != nil {
		resp.RespondErr(w, r, err)
		return nil, backend.Event{}, false
	}
	return page, ev, true
}

// HandleRegistrantCount returns the number of bookings of an event, 0 when unavailable.
func HandleRegistrantCount(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, ev, ok := lookupManagedEvent(deps, w, r)
		if !ok {
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"event_id":       ev.ID,
			"total_bookings": analytics.Count(r.Context(), deps.Analytics, page.Identity().Token, ev.ID),
		})
	}
}

// HandleRegistrants returns one batch of an event's registrants starting at ?offset=.
func HandleRegistrants(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, ev, ok := lookupManagedEvent(deps, w, r)
		if !ok {
			return
		}

		offset, customErr := req.QueryInt(r, "offset", 0)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		batch, err := deps.Pager.Fetch(r.Context(), page.Identity().Token, ev.ID, offset)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrAnalyticsFailed))
			return
		}
		resp.RespondSuccess(w, r, batch)
	}
}

// HandleExportRegistrants writes an event's registrants to a CSV in object storage and
// returns a temporary download link.
func HandleExportRegistrants(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, ev, ok := lookupManagedEvent(deps, w, r)
		if !ok {
			return
		}

		export, err := deps.Exporter.Export(r.Context(), page.Identity().Token, ev.ID)
		if err != nil {
			if errors.Is(err, analytics.ErrExportUnavailable) {
				resp.RespondError(w, r, errs.NewError(errs.ErrExportUnavailable))
				return
			}
			logx.Error(err, "Registrant export failed", "event_id", string(ev.ID))
			resp.RespondError(w, r, errs.NewError(errs.ErrExportFailed))
			return
		}
		resp.RespondSuccess(w, r, export)
	}
}
