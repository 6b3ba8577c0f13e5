/*
Package errs provides custom error types and application-level error code constants.

These error codes identify specific business or system errors both inside the portal and
in the JSON envelope returned to the browser.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request header Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body JSON format is incorrect (e.g., syntax error).
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates that the request body contained extra content after valid JSON data.
	ErrExtraContentInBody = 1004

	// ErrRequestEntityTooLarge indicates that the request body size exceeded the server limit.
	ErrRequestEntityTooLarge = 1006

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1007
)

// 2xxx: Page, Event and Booking Errors
const (
	// ErrPageNotFound indicates that the page id is unknown or the page was evicted.
	ErrPageNotFound = 2101

	// ErrEventNotFound indicates that the event is not part of the page's current roster.
	ErrEventNotFound = 2102

	// ErrEventsFetchFailed indicates that the event roster could not be loaded.
	ErrEventsFetchFailed = 2103

	// ErrBookingInvalid indicates that a cancellation was requested without a booking id.
	ErrBookingInvalid = 2201

	// ErrBookingNotFound indicates that the booking is not among the user's current bookings.
	ErrBookingNotFound = 2202

	// ErrActionPending indicates that another register/cancel on the same event is still settling.
	ErrActionPending = 2203

	// ErrConfirmationExpired indicates that a cancel confirmation token is unknown or expired.
	ErrConfirmationExpired = 2204

	// ErrRegisterFailed indicates that the booking service refused or failed the registration.
	ErrRegisterFailed = 2205

	// ErrCancelFailed indicates that the booking service refused or failed the cancellation.
	ErrCancelFailed = 2206

	// ErrAlreadyRegistered indicates that the user already holds a seat or waitlist place for the event.
	ErrAlreadyRegistered = 2207

	// ErrEventTimeRequired indicates that start or end date/time is missing.
	ErrEventTimeRequired = 2301

	// ErrEventTimeInvalid indicates that start or end date/time cannot be parsed.
	ErrEventTimeInvalid = 2302

	// ErrEventTimeOrder indicates that the event ends before (or when) it starts.
	ErrEventTimeOrder = 2303

	// ErrEventSeatsNegative indicates a negative total seat count.
	ErrEventSeatsNegative = 2304

	// ErrEventNameRequired indicates that the event name is empty.
	ErrEventNameRequired = 2305

	// ErrEventCreateFailed indicates that the events service rejected the new event.
	ErrEventCreateFailed = 2306

	// ErrEventUpdateFailed indicates that the events service rejected the update.
	ErrEventUpdateFailed = 2307

	// ErrEventDeleteFailed indicates that the events service rejected the deletion.
	ErrEventDeleteFailed = 2308

	// ErrReminderFailed indicates that the notification service did not accept the reminder.
	ErrReminderFailed = 2309

	// ErrAnalyticsFailed indicates that registrant data could not be loaded.
	ErrAnalyticsFailed = 2401

	// ErrExportUnavailable indicates that registrant export storage is not configured.
	ErrExportUnavailable = 2402

	// ErrExportFailed indicates that the registrant export could not be written.
	ErrExportFailed = 2403
)

// 3xxx: User, Session, and Security Errors
const (
	// ErrPowChallengeRequired indicates the client must complete a Proof-of-Work challenge first.
	ErrPowChallengeRequired = 3001

	// ErrPowChallengeInvalid indicates that the PoW proof provided by the client is invalid or incorrect.
	ErrPowChallengeInvalid = 3002

	// ErrPowChallengeInternal indicates an internal error during PoW challenge generation or validation.
	ErrPowChallengeInternal = 3003

	// ErrUnauthorized indicates that the request carries no valid session.
	ErrUnauthorized = 3004

	// ErrForbidden indicates that the session role may not perform the action.
	ErrForbidden = 3005

	// ErrAlreadyLoggedIn indicates a login or signup attempt with an active session.
	ErrAlreadyLoggedIn = 3006

	// ErrInvalidCredentials indicates that the auth service rejected the login.
	ErrInvalidCredentials = 3007

	// ErrPasswordMismatch indicates that password and confirmation differ.
	ErrPasswordMismatch = 3008

	// ErrPasswordPolicy indicates that the password does not satisfy the complexity policy.
	ErrPasswordPolicy = 3009

	// ErrInvalidRole indicates an unknown role or a role that cannot sign up.
	ErrInvalidRole = 3010

	// ErrSignupFailed indicates that the auth service rejected the signup.
	ErrSignupFailed = 3011

	// ErrUsersFetchFailed indicates that the user list could not be loaded.
	ErrUsersFetchFailed = 3012

	// ErrUserDeleteFailed indicates that the auth service did not delete the user.
	ErrUserDeleteFailed = 3013

	// ErrCannotDeleteAdmin indicates an attempt to delete an admin account.
	ErrCannotDeleteAdmin = 3014
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000

	// ErrBackendUnavailable indicates that a backend service could not be reached.
	ErrBackendUnavailable = 5001
)
