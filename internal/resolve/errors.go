package resolve

import (
	"errors"
	"fmt"
	"strings"
)

// Code categorizes reference resolution failures.
type Code string

const (
	// CodeBlankKey indicates an empty key, or a required reference without id or key.
	CodeBlankKey Code = "BLANK_KEY"

	// CodeNotFound indicates the referenced key does not exist remotely.
	CodeNotFound Code = "NOT_FOUND"

	// CodeSelfReference indicates a draft referencing its own key.
	CodeSelfReference Code = "SELF_REFERENCE"

	// CodeUUIDKey indicates a UUID-shaped key while AllowUUIDKeys is off.
	CodeUUIDKey Code = "UUID_KEY"

	// CodeLookupFailed indicates the backend lookup itself failed.
	CodeLookupFailed Code = "LOOKUP_FAILED"

	// CodeDeferred indicates same-kind dependencies that are expected to be
	// created later in the run. Not terminal.
	CodeDeferred Code = "DEFERRED"
)

// ReferenceError describes why a draft's references could not be resolved.
type ReferenceError struct {
	Code Code

	// DraftKey identifies the draft being resolved.
	DraftKey string

	// Field names the reference field, e.g. "parent" or "categories[2]".
	Field string

	// Key is the offending reference key, if any.
	Key string

	// MissingKeys lists every pending dependency for CodeDeferred.
	MissingKeys []string

	// Cause is the underlying lookup error for CodeLookupFailed.
	Cause error
}

func (e *ReferenceError) Error() string {
	var msg string
	switch e.Code {
	case CodeBlankKey:
		msg = fmt.Sprintf("reference %q has a blank key", e.Field)
	case CodeNotFound:
		msg = fmt.Sprintf("reference %q: key %q does not exist", e.Field, e.Key)
	case CodeSelfReference:
		msg = fmt.Sprintf("reference %q: key %q references the draft itself", e.Field, e.Key)
	case CodeUUIDKey:
		msg = fmt.Sprintf("reference %q: key %q looks like a backend id; enable uuid keys to use it", e.Field, e.Key)
	case CodeLookupFailed:
		msg = fmt.Sprintf("reference %q: lookup of key %q failed: %v", e.Field, e.Key, e.Cause)
	case CodeDeferred:
		msg = fmt.Sprintf("waiting for %s to be created", strings.Join(e.MissingKeys, ", "))
	default:
		msg = string(e.Code)
	}
	if e.DraftKey != "" {
		return fmt.Sprintf("%s: draft %q: %s", e.Code, e.DraftKey, msg)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

func (e *ReferenceError) Unwrap() error { return e.Cause }

func hasCode(err error, code Code) bool {
	var re *ReferenceError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// IsBlankKey reports whether err is a blank-key reference error.
func IsBlankKey(err error) bool { return hasCode(err, CodeBlankKey) }

// IsNotFound reports whether err is a missing-target reference error.
func IsNotFound(err error) bool { return hasCode(err, CodeNotFound) }

// IsDeferred reports whether err only signals pending same-run dependencies.
func IsDeferred(err error) bool { return hasCode(err, CodeDeferred) }

// DeferredKeys returns the pending dependency keys of a deferred error.
func DeferredKeys(err error) []string {
	var re *ReferenceError
	if errors.As(err, &re) && re.Code == CodeDeferred {
		return re.MissingKeys
	}
	return nil
}
