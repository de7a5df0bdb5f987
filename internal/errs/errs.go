// Package errs holds the error kinds shared by the auth components and their
// mapping to what a client is allowed to see.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrTokenExpired         = errors.New("token expired")
	ErrMalformedToken       = errors.New("malformed token")
	ErrInvalidSignature     = errors.New("invalid token signature")
	ErrDuplicateEmail       = errors.New("email already exists")
	ErrNotFound             = errors.New("not found")
	ErrExpiredOrInvalidCode = errors.New("invalid or expired code")
	ErrForbidden            = errors.New("forbidden")
	ErrStoreUnavailable     = errors.New("store unavailable")
	ErrInvalid              = errors.New("invalid input")
)

// StoreError wraps a raw storage failure. It matches ErrStoreUnavailable and
// keeps the cause for logs.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, ErrStoreUnavailable, e.Err)
}

func (e *StoreError) Is(target error) bool {
	return target == ErrStoreUnavailable
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Unavailable translates a backing store error. Nil stays nil.
func Unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}

// Invalidf builds an ErrInvalid carrying a client-safe reason.
func Invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// Retryable reports whether the caller may retry the failed operation.
func Retryable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}

// Kind returns a short label for logs and metrics.
func Kind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrTokenExpired):
		return "token_expired"
	case errors.Is(err, ErrMalformedToken):
		return "malformed_token"
	case errors.Is(err, ErrInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrDuplicateEmail):
		return "duplicate_email"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrExpiredOrInvalidCode):
		return "invalid_code"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrStoreUnavailable):
		return "store_unavailable"
	case errors.Is(err, ErrInvalid):
		return "invalid"
	default:
		return "internal"
	}
}

// Status maps an error to the HTTP status returned to the client.
func Status(err error) int {
	switch Kind(err) {
	case "invalid_credentials", "token_expired", "malformed_token", "invalid_signature", "unauthorized":
		return http.StatusUnauthorized
	case "duplicate_email":
		return http.StatusConflict
	case "not_found":
		return http.StatusNotFound
	case "invalid_code", "invalid":
		return http.StatusBadRequest
	case "forbidden":
		return http.StatusForbidden
	case "store_unavailable":
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Public returns the message a client may see. Token failures all read as
// "unauthorized" so the response does not say which check failed.
func Public(err error) string {
	switch Kind(err) {
	case "invalid_credentials":
		return ErrInvalidCredentials.Error()
	case "token_expired", "malformed_token", "invalid_signature", "unauthorized":
		return ErrUnauthorized.Error()
	case "duplicate_email":
		return ErrDuplicateEmail.Error()
	case "not_found":
		return ErrNotFound.Error()
	case "invalid_code":
		return ErrExpiredOrInvalidCode.Error()
	case "forbidden":
		return ErrForbidden.Error()
	case "store_unavailable":
		return "service temporarily unavailable, retry later"
	case "invalid":
		return err.Error()
	default:
		return "internal error"
	}
}
