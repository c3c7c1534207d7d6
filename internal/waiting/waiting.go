// Package waiting holds drafts whose same-kind references point at drafts
// that have not been created yet.
//
// A Record is saved when resolution defers a draft and is looked up by the
// keys it waits on once those keys are created. Records are deleted when the
// draft is processed or abandoned. The draft is stored as canonical JSON with
// a content hash so a record can be inspected or replayed outside the run
// that parked it.
package waiting

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/roach88/catalogsync/internal/canonical"
)

// Record is one parked draft.
type Record struct {
	Kind        string          `json:"kind"`
	DraftKey    string          `json:"draft_key"`
	MissingKeys []string        `json:"missing_keys"`
	Draft       json.RawMessage `json:"draft"`
	Hash        string          `json:"hash"`
	QueuedAt    time.Time       `json:"queued_at"`
}

// NewRecord serializes draft into a record.
func NewRecord(kind, draftKey string, missing []string, draft any, queuedAt time.Time) (Record, error) {
	data, err := canonical.Marshal(draft)
	if err != nil {
		return Record{}, fmt.Errorf("serialize waiting draft %q: %w", draftKey, err)
	}
	keys := slices.Clone(missing)
	slices.Sort(keys)
	return Record{
		Kind:        kind,
		DraftKey:    draftKey,
		MissingKeys: slices.Compact(keys),
		Draft:       data,
		Hash:        canonical.HashBytes(canonical.DomainDraft, data),
		QueuedAt:    queuedAt.UTC(),
	}, nil
}

// Decode unmarshals the parked draft into v.
func (r Record) Decode(v any) error {
	if err := json.Unmarshal(r.Draft, v); err != nil {
		return fmt.Errorf("decode waiting draft %q: %w", r.DraftKey, err)
	}
	return nil
}

// Store persists waiting records. Implementations must be safe for
// concurrent use.
type Store interface {
	// Save inserts or replaces the record for (Kind, DraftKey).
	Save(ctx context.Context, r Record) error

	// Get returns the records of kind for the given draft keys.
	Get(ctx context.Context, kind string, draftKeys []string) ([]Record, error)

	// WaitingOn returns the records of kind missing any of dependencyKeys.
	WaitingOn(ctx context.Context, kind string, dependencyKeys []string) ([]Record, error)

	// Delete removes one record. Deleting an absent record is not an error.
	Delete(ctx context.Context, kind, draftKey string) error

	// DeleteOlderThan removes records queued before cutoff and returns how
	// many were removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)

	// Count returns the number of records of kind.
	Count(ctx context.Context, kind string) (int, error)
}

// SortRecords orders records by queue time, then draft key. Stores return
// records in this order.
func SortRecords(records []Record) {
	slices.SortFunc(records, func(a, b Record) int {
		if c := a.QueuedAt.Compare(b.QueuedAt); c != 0 {
			return c
		}
		return strings.Compare(a.DraftKey, b.DraftKey)
	})
}
