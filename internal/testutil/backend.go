package testutil

import (
	"context"
	"slices"
	"sync"

	"github.com/roach88/catalogsync/internal/backend"
	"github.com/roach88/catalogsync/internal/resource"
)

// Call is one recorded backend request.
type Call struct {
	Op   string // "fetch", "fetch-many", "create" or "update"
	Keys []string
}

// RecordingService wraps a backend.Service, records every call and lets
// tests inject failures and concurrent modifications.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
// Hooks run outside the lock.
type RecordingService[D backend.Draft, E resource.Entity] struct {
	inner backend.Service[D, E]

	// BeforeUpdate runs before each update is forwarded. attempt counts the
	// updates of that key, starting at 1. A non-nil error is returned
	// instead of forwarding.
	BeforeUpdate func(ctx context.Context, existing E, attempt int) error

	// FetchManyErr, if set, fails every FetchManyByKeys call.
	FetchManyErr error

	// CreateErr fails creation of the keys it contains.
	CreateErr map[string]error

	mu       sync.Mutex
	calls    []Call
	attempts map[string]int
}

var _ backend.Service[resource.CategoryDraft, resource.Category] = (*RecordingService[resource.CategoryDraft, resource.Category])(nil)

// NewRecordingService wraps inner.
func NewRecordingService[D backend.Draft, E resource.Entity](inner backend.Service[D, E]) *RecordingService[D, E] {
	return &RecordingService[D, E]{inner: inner, attempts: map[string]int{}}
}

func (s *RecordingService[D, E]) record(op string, keys ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{Op: op, Keys: slices.Clone(keys)})
}

// Calls returns the recorded calls in order.
func (s *RecordingService[D, E]) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.calls)
}

// Count returns how many calls of op were made.
func (s *RecordingService[D, E]) Count(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Writes returns the number of create and update calls made for key.
func (s *RecordingService[D, E]) Writes(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if (c.Op == "create" || c.Op == "update") && slices.Contains(c.Keys, key) {
			n++
		}
	}
	return n
}

// FetchByKey implements backend.Service.
func (s *RecordingService[D, E]) FetchByKey(ctx context.Context, key string) (E, bool, error) {
	s.record("fetch", key)
	return s.inner.FetchByKey(ctx, key)
}

// FetchManyByKeys implements backend.Service.
func (s *RecordingService[D, E]) FetchManyByKeys(ctx context.Context, keys []string) ([]E, error) {
	s.record("fetch-many", keys...)
	if s.FetchManyErr != nil {
		return nil, s.FetchManyErr
	}
	return s.inner.FetchManyByKeys(ctx, keys)
}

// Create implements backend.Service.
func (s *RecordingService[D, E]) Create(ctx context.Context, draft D) (E, error) {
	s.record("create", draft.GetKey())
	if err, ok := s.CreateErr[draft.GetKey()]; ok {
		var zero E
		return zero, err
	}
	return s.inner.Create(ctx, draft)
}

// Update implements backend.Service.
func (s *RecordingService[D, E]) Update(ctx context.Context, existing E, actions []resource.Action) (E, error) {
	key := existing.GetKey()
	s.record("update", key)

	s.mu.Lock()
	s.attempts[key]++
	attempt := s.attempts[key]
	s.mu.Unlock()

	if s.BeforeUpdate != nil {
		if err := s.BeforeUpdate(ctx, existing, attempt); err != nil {
			var zero E
			return zero, err
		}
	}
	return s.inner.Update(ctx, existing, actions)
}
