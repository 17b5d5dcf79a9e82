package service

import (
	"errors"
	"net/http"
)

// Error kinds. Backends annotate their errors so that errors.Is matches
// exactly one of the status kinds below.
var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrNotFound      = errors.New("not found")
	ErrUnprocessable = errors.New("unprocessable input")
	ErrGeneric       = errors.New("request failed")

	// ErrTokenExpired is the terminal outcome of a failed refresh.
	ErrTokenExpired = errors.New("token expired")

	// ErrNotConnected means no Basecamp credentials are held.
	ErrNotConnected = errors.New("basecamp not connected")
)

// KindForStatus maps an HTTP status to an error kind.
func KindForStatus(status int) error {
	switch status {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnprocessableEntity:
		return ErrUnprocessable
	default:
		return ErrGeneric
	}
}
