package engine

import (
	"errors"
	"fmt"
)

var errBlankKey = errors.New("draft has no key")

// SyncError describes why a draft, or a whole batch, failed to sync.
//
// Sync errors are handed to Options.OnError and never returned from Sync.
// Cause carries the underlying error: a resolve.ReferenceError, a
// diff.DuplicateKeyError, a backend.ConflictError and so on.
type SyncError struct {
	// Code identifies the stage that failed.
	Code ErrorCode

	// Kind is the entity kind being synced.
	Kind string

	// DraftKey identifies the failed draft. Empty for batch-level failures.
	DraftKey string

	// Drafts is the number of drafts the error accounts for.
	Drafts int

	// Cause is the underlying error.
	Cause error
}

// ErrorCode categorizes sync failures.
type ErrorCode string

const (
	// ErrCodeBlankKey indicates a draft without a key.
	ErrCodeBlankKey ErrorCode = "BLANK_KEY"

	// ErrCodeDuplicateKey indicates a key repeated within one batch.
	ErrCodeDuplicateKey ErrorCode = "DUPLICATE_KEY"

	// ErrCodeUnresolved indicates a reference that could not be resolved.
	ErrCodeUnresolved ErrorCode = "UNRESOLVED_REFERENCE"

	// ErrCodeWaitingStore indicates the holding area could not be read or written.
	ErrCodeWaitingStore ErrorCode = "WAITING_STORE"

	// ErrCodeFetch indicates a failed backend read.
	ErrCodeFetch ErrorCode = "FETCH_FAILED"

	// ErrCodeBuild indicates the update actions could not be computed.
	ErrCodeBuild ErrorCode = "BUILD_FAILED"

	// ErrCodeCreate indicates the backend rejected a creation.
	ErrCodeCreate ErrorCode = "CREATE_FAILED"

	// ErrCodeUpdate indicates the backend rejected an update.
	ErrCodeUpdate ErrorCode = "UPDATE_FAILED"

	// ErrCodeConflict indicates an update still conflicted after its retry,
	// or the entity vanished between attempts.
	ErrCodeConflict ErrorCode = "CONFLICT"
)

// Error implements the error interface.
func (e *SyncError) Error() string {
	switch {
	case e.DraftKey != "":
		return fmt.Sprintf("%s: %s %q: %v", e.Code, e.Kind, e.DraftKey, e.Cause)
	case e.Drafts > 0:
		return fmt.Sprintf("%s: %d %s drafts: %v", e.Code, e.Drafts, e.Kind, e.Cause)
	default:
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Kind, e.Cause)
	}
}

// Unwrap returns the cause.
func (e *SyncError) Unwrap() error { return e.Cause }

func hasCode(err error, code ErrorCode) bool {
	var se *SyncError
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}

// IsConflictExhausted returns true if an update conflicted twice.
func IsConflictExhausted(err error) bool { return hasCode(err, ErrCodeConflict) }

// IsUnresolved returns true if a reference could not be resolved.
func IsUnresolved(err error) bool { return hasCode(err, ErrCodeUnresolved) }

// IsDuplicateKey returns true if the draft repeated a key within its batch.
func IsDuplicateKey(err error) bool { return hasCode(err, ErrCodeDuplicateKey) }

// IsBatchFailure returns true if the error failed a whole batch.
func IsBatchFailure(err error) bool {
	var se *SyncError
	return errors.As(err, &se) && se.DraftKey == "" && se.Drafts > 0
}
