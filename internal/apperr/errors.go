// Package apperr defines the error kinds the API distinguishes and how they
// map onto HTTP statuses and envelope messages.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotLoggedIn      = errors.New("Not logged in")
	ErrUnknownEmail     = errors.New("Unknown email")
	ErrWrongPassword    = errors.New("Wrong password! Please try again")
	ErrInsufficientRole = errors.New("Unauthorized")
	ErrPoolUnavailable  = errors.New("Error connecting to database")
	ErrConnectionLeak   = errors.New("connection released more than once or never acquired")
	ErrIntegrity        = errors.New("Unexpected number of affected rows")
	ErrNotFound         = errors.New("Unknown endpoint")
	ErrBadRequest       = errors.New("Bad request")
	ErrSessionStore     = errors.New("Session store unavailable")
)

// QueryError wraps a failed database operation.
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// Query wraps err as a QueryError unless it is nil or already classified.
func Query(op string, err error) error {
	if err == nil {
		return nil
	}
	if Classified(err) {
		return err
	}
	return &QueryError{Op: op, Err: err}
}

// Invalid returns a bad-request error carrying msg as the user-facing text.
func Invalid(msg string) error {
	return &userError{kind: ErrBadRequest, msg: msg}
}

// Missing returns a not-found error carrying msg as the user-facing text.
func Missing(msg string) error {
	return &userError{kind: ErrNotFound, msg: msg}
}

type userError struct {
	kind error
	msg  string
}

func (e *userError) Error() string { return e.msg }
func (e *userError) Unwrap() error { return e.kind }

var sentinels = []error{
	ErrNotLoggedIn,
	ErrUnknownEmail,
	ErrWrongPassword,
	ErrInsufficientRole,
	ErrPoolUnavailable,
	ErrIntegrity,
	ErrNotFound,
	ErrBadRequest,
	ErrSessionStore,
}

// Classified reports whether err already carries one of the API error kinds.
func Classified(err error) bool {
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return true
		}
	}
	var qe *QueryError
	return errors.As(err, &qe)
}

// Status maps err to the HTTP status of its envelope.
func Status(err error) int {
	switch {
	case errors.Is(err, ErrNotLoggedIn), errors.Is(err, ErrUnknownEmail), errors.Is(err, ErrWrongPassword):
		return http.StatusUnauthorized
	case errors.Is(err, ErrInsufficientRole):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrIntegrity):
		return http.StatusConflict
	case errors.Is(err, ErrPoolUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the user-facing text for err. Database failures get a
// generic message; their detail goes into the envelope's details field.
func Message(err error) string {
	var ue *userError
	if errors.As(err, &ue) {
		return ue.msg
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "Database error"
}
