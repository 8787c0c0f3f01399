package domain

import "errors"

// ErrNotFound is returned when the requested resource does not exist
// (e.g. a geocode cache miss, or an unknown session).
var ErrNotFound = errors.New("not found")

// ErrValidation is returned when input fails validation before any work is
// done. Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrUnauthenticated is returned when an operation needs an identified user
// and the auth context does not supply one. Handlers map it to HTTP 401.
var ErrUnauthenticated = errors.New("unauthenticated")

// ErrFetch is returned when the matching service call fails.
var ErrFetch = errors.New("match fetch failed")

// ErrResolution is returned when the geocoding fan-out fails as a group.
// Individual non-OK statuses are data, not ErrResolution.
var ErrResolution = errors.New("geolocation resolution failed")
