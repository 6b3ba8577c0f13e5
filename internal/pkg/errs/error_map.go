package errs

import "net/http"

// errorMap stores the CustomError template for every application error code.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:         {Code: ErrInvalidParams, Message: "Invalid request parameters.", Status: http.StatusBadRequest},
	ErrUnsupportedMediaType:  {Code: ErrUnsupportedMediaType, Message: "Unsupported request format.", Status: http.StatusUnsupportedMediaType},
	ErrInvalidJSONFormat:     {Code: ErrInvalidJSONFormat, Message: "Unsupported request format.", Status: http.StatusBadRequest},
	ErrExtraContentInBody:    {Code: ErrExtraContentInBody, Message: "Request contains unexpected data.", Status: http.StatusBadRequest},
	ErrRequestEntityTooLarge: {Code: ErrRequestEntityTooLarge, Message: "Request size is too large.", Status: http.StatusRequestEntityTooLarge},
	ErrRateLimitExceeded:     {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	// 2xxx: Page, Event and Booking Errors
	ErrPageNotFound:        {Code: ErrPageNotFound, Message: "This page has expired. Please reload.", Status: http.StatusNotFound},
	ErrEventNotFound:       {Code: ErrEventNotFound, Message: "Event not found.", Status: http.StatusNotFound},
	ErrEventsFetchFailed:   {Code: ErrEventsFetchFailed, Message: "Failed to fetch events"},
	ErrBookingInvalid:      {Code: ErrBookingInvalid, Message: "Invalid booking", Status: http.StatusBadRequest},
	ErrBookingNotFound:     {Code: ErrBookingNotFound, Message: "Booking not found.", Status: http.StatusNotFound},
	ErrActionPending:       {Code: ErrActionPending, Message: "Your previous action on this event is still being processed.", Status: http.StatusConflict},
	ErrConfirmationExpired: {Code: ErrConfirmationExpired, Message: "Confirmation expired. Please try again.", Status: http.StatusGone},
	ErrRegisterFailed:      {Code: ErrRegisterFailed, Message: "Failed to register."},
	ErrCancelFailed:        {Code: ErrCancelFailed, Message: "Failed to cancel registration."},
	ErrAlreadyRegistered:   {Code: ErrAlreadyRegistered, Message: "You are already registered for this event.", Status: http.StatusConflict},
	ErrEventTimeRequired:   {Code: ErrEventTimeRequired, Message: "Please provide both start and end date/time.", Status: http.StatusBadRequest},
	ErrEventTimeInvalid:    {Code: ErrEventTimeInvalid, Message: "Invalid start or end date/time.", Status: http.StatusBadRequest},
	ErrEventTimeOrder:      {Code: ErrEventTimeOrder, Message: "End time must be after start time.", Status: http.StatusBadRequest},
	ErrEventSeatsNegative:  {Code: ErrEventSeatsNegative, Message: "Total seats cannot be negative.", Status: http.StatusBadRequest},
	ErrEventNameRequired:   {Code: ErrEventNameRequired, Message: "Event name is required.", Status: http.StatusBadRequest},
	ErrEventCreateFailed:   {Code: ErrEventCreateFailed, Message: "Failed to create event."},
	ErrEventUpdateFailed:   {Code: ErrEventUpdateFailed, Message: "Failed to update event."},
	ErrEventDeleteFailed:   {Code: ErrEventDeleteFailed, Message: "Failed to delete event."},
	ErrReminderFailed:      {Code: ErrReminderFailed, Message: "Failed to send reminder. Is the service running?"},
	ErrAnalyticsFailed:     {Code: ErrAnalyticsFailed, Message: "Failed to load analytics data"},
	ErrExportUnavailable:   {Code: ErrExportUnavailable, Message: "Registrant export is not available.", Status: http.StatusServiceUnavailable},
	ErrExportFailed:        {Code: ErrExportFailed, Message: "Registrant export failed. Please try again."},

	// 3xxx: User, Session, and Security Errors
	ErrPowChallengeRequired: {Code: ErrPowChallengeRequired, Message: "Verification required. Please try again.", Status: http.StatusForbidden},
	ErrPowChallengeInvalid:  {Code: ErrPowChallengeInvalid, Message: "Verification failed. Please try again.", Status: http.StatusForbidden},
	ErrPowChallengeInternal: {Code: ErrPowChallengeInternal, Message: "Verification service error. Please try again later."},
	ErrUnauthorized:         {Code: ErrUnauthorized, Message: "Please sign in to continue.", Status: http.StatusUnauthorized},
	ErrForbidden:            {Code: ErrForbidden, Message: "You are not allowed to do that.", Status: http.StatusForbidden},
	ErrAlreadyLoggedIn:      {Code: ErrAlreadyLoggedIn, Message: "You are already signed in."},
	ErrInvalidCredentials:   {Code: ErrInvalidCredentials, Message: "Login error", Status: http.StatusUnauthorized},
	ErrPasswordMismatch:     {Code: ErrPasswordMismatch, Message: "Passwords do not match", Status: http.StatusBadRequest},
	ErrPasswordPolicy: {
		Code:    ErrPasswordPolicy,
		Message: "Password must be at least 8 characters long and contain at least one uppercase letter, one lowercase letter, one number, and one special character (!@#$%^&*)",
		Status:  http.StatusBadRequest,
	},
	ErrInvalidRole:       {Code: ErrInvalidRole, Message: "Invalid role.", Status: http.StatusBadRequest},
	ErrSignupFailed:      {Code: ErrSignupFailed, Message: "Registration error"},
	ErrUsersFetchFailed:  {Code: ErrUsersFetchFailed, Message: "Failed to fetch users"},
	ErrUserDeleteFailed:  {Code: ErrUserDeleteFailed, Message: "Failed to delete user"},
	ErrCannotDeleteAdmin: {Code: ErrCannotDeleteAdmin, Message: "Cannot delete admin", Status: http.StatusForbidden},

	// 5xxx: Internal System Errors
	ErrUnknown:            {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
	ErrBackendUnavailable: {Code: ErrBackendUnavailable, Message: "A campus service is unavailable. Please try again later.", Status: http.StatusBadGateway},
}
