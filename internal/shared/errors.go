package shared

import "errors"

var (
	// ErrInvalidInput marks client-caused failures such as a malformed barcode.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound indicates the upstream database has no matching record.
	ErrNotFound = errors.New("not found")
	// ErrUpstreamUnavailable covers upstream timeouts, 5xx answers and transport faults.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrPersistence indicates a history store read or write fault.
	ErrPersistence = errors.New("persistence failure")
	// ErrRateLimited is returned when a client exhausts its request window.
	ErrRateLimited = errors.New("rate limited")
	// ErrCorsRejected is returned when the request origin is not allow-listed.
	ErrCorsRejected = errors.New("origin not allowed")
)
