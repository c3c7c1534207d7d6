package backend

import (
	"errors"
	"fmt"
)

// ConflictError reports a version mismatch on update. The entity changed
// remotely after it was fetched.
type ConflictError struct {
	Kind            string
	Key             string
	ExpectedVersion int64
	ActualVersion   int64
}

func (e *ConflictError) Error() string {
	if e.ActualVersion == 0 {
		return fmt.Sprintf("%s %q: concurrent modification (expected version %d)", e.Kind, e.Key, e.ExpectedVersion)
	}
	return fmt.Sprintf("%s %q: concurrent modification (expected version %d, current version %d)",
		e.Kind, e.Key, e.ExpectedVersion, e.ActualVersion)
}

// ValidationError reports a write the backend rejected as invalid.
type ValidationError struct {
	Kind    string
	Key     string
	Message string
	Cause   error
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("%s %q: invalid request: %s", e.Kind, e.Key, e.Message)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ValidationError) Unwrap() error { return e.Cause }

// NotFoundError reports an update of an entity that no longer exists.
type NotFoundError struct {
	Kind string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q: not found", e.Kind, e.Key)
}

// StatusError reports an unexpected HTTP status.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// IsConflict reports whether err is or wraps a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	var ne *NotFoundError
	return errors.As(err, &ne)
}
