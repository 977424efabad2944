package errors

import "errors"

// This package defines a centralized set of sentinel errors for the application.
// Using sentinel errors allows services to return specific, recognizable error types
// without coupling them to implementation details like HTTP status codes. The API
// layer can then use `errors.Is()` to check for these specific errors and map
// them to the correct HTTP responses.

var (
	// ErrNotFound signifies that a requested resource could not be located.
	// This is typically mapped to a 404 Not Found HTTP status.
	ErrNotFound = errors.New("resource not found")

	// ErrValidation signifies that input data provided by a client failed
	// business rule validation.
	// This is typically mapped to a 400 Bad Request HTTP status.
	ErrValidation = errors.New("validation failed")

	// ErrConflict signifies that an operation could not be completed because
	// it conflicts with the current state of a resource.
	// This is typically mapped to a 409 Conflict HTTP status.
	ErrConflict = errors.New("resource conflict")

	// ErrPermission signifies that the caller is not authorized to perform
	// the requested action. Returned for provider 403 responses as well.
	ErrPermission = errors.New("permission denied")

	// ErrInternal signifies an unexpected error on the server. This is a generic
	// error used to prevent leaking sensitive implementation details to the client.
	ErrInternal = errors.New("internal server error")
)

// Provider-facing taxonomy. Requests to the hosted model API are classified
// into these before they ever reach the session layer, so the UI can show an
// actionable message (retry, check key, wait).
var (
	// ErrBadRequest signifies the provider rejected the request as malformed.
	ErrBadRequest = errors.New("bad request")

	// ErrAuth signifies a missing or invalid API credential.
	ErrAuth = errors.New("authentication failed")

	// ErrRateLimited signifies the provider throttled the request.
	ErrRateLimited = errors.New("rate limited")

	// ErrUnavailable signifies a transient provider outage (5xx).
	ErrUnavailable = errors.New("service temporarily unavailable")
)
