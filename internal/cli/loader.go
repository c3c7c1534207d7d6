package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"

	"cuelang.org/go/cue/token"

	"github.com/roach88/catalogsync/internal/schema"
)

// Error code constants - unified across all CLI commands. Draft findings
// use the schema package codes (E100-E199).
const (
	ErrCodeGeneric      = "E001" // Generic/unknown error
	ErrCodeUnknownKind  = "E002" // Kind argument not recognized
	ErrCodeReadFailed   = "E003" // Draft file unreadable
	ErrCodeDecodeFailed = "E004" // Draft file does not match the schema
	ErrCodeNotFound     = "E005" // Path not found
	ErrCodeBackend      = "E006" // Backend or waiting store unavailable
	ErrCodeWriteFailed  = "E007" // File write error
	ErrCodeConfig       = "E008" // Invalid settings
)

// LoadError represents an error that occurred while loading a draft file.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Findings holds the non-fatal problems of a loaded draft file.
type Findings struct {
	Errors []schema.ValidationError `json:"errors,omitempty"`
	Cycles []schema.CycleWarning    `json:"cycles,omitempty"`
}

// Empty reports whether nothing was found.
func (f Findings) Empty() bool { return len(f.Errors) == 0 && len(f.Cycles) == 0 }

// checkKind rejects kinds no draft file can hold.
func checkKind(kind string) error {
	if !slices.Contains(schema.Kinds(), kind) {
		return &LoadError{
			Code:    ErrCodeUnknownKind,
			Message: fmt.Sprintf("unknown kind %q: must be one of %v", kind, schema.Kinds()),
		}
	}
	return nil
}

// LoadDrafts reads and decodes the draft file at path, then checks the
// drafts. Structural problems fail the load; semantic ones are returned as
// Findings.
func LoadDrafts[D any](kind, path string) (schema.Document[D], Findings, error) {
	var doc schema.Document[D]
	if err := checkKind(kind); err != nil {
		return doc, Findings{}, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return doc, Findings{}, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("draft file not found: %s", path)}
	}
	if err != nil {
		return doc, Findings{}, &LoadError{Code: ErrCodeReadFailed, Message: fmt.Sprintf("reading draft file: %v", err)}
	}

	s, err := schema.New()
	if err != nil {
		return doc, Findings{}, &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
	}
	doc, err = schema.Decode[D](s, kind, path, data)
	if err != nil {
		return doc, Findings{}, convertDecodeError(err)
	}

	return doc, Findings{
		Errors: schema.Validate(doc),
		Cycles: schema.AnalyzeCycles(doc),
	}, nil
}

// convertDecodeError converts a schema error to a LoadError with position info.
func convertDecodeError(err error) *LoadError {
	var decodeErr *schema.DecodeError
	if errors.As(err, &decodeErr) {
		return &LoadError{
			Code:    ErrCodeDecodeFailed,
			Message: fmt.Sprintf("%s: %s", decodeErr.Field, decodeErr.Message),
			Pos:     decodeErr.Pos,
		}
	}
	return &LoadError{Code: ErrCodeDecodeFailed, Message: err.Error()}
}

// loadFailure turns a LoadDrafts error into formatted output and an exit
// error.
func loadFailure(f *OutputFormatter, err error) error {
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		loadErr = &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
	}
	var details any
	if loadErr.Pos.IsValid() {
		details = map[string]any{
			"file":   loadErr.Pos.Filename(),
			"line":   loadErr.Pos.Line(),
			"column": loadErr.Pos.Column(),
		}
	}
	if outErr := f.Error(loadErr.Code, loadErr.Message, details); outErr != nil {
		return outErr
	}
	return WrapExitError(ExitCommandError, "failed to load drafts", err)
}
