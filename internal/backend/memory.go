package backend

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/roach88/catalogsync/internal/resource"
)

// Model describes how Memory builds and updates entities of one kind.
type Model[D Draft, E resource.Entity] struct {
	// Kind names the entity kind in errors.
	Kind string

	// New builds the stored entity for a draft.
	New func(id string, version int64, d D) E

	// Apply applies update actions. It must not change the version.
	Apply func(e E, actions []resource.Action) (E, error)

	// Draft extracts the draft part of an entity.
	Draft func(e E) D
}

// Memory is an in-process Service with optimistic versioning. It is safe
// for concurrent use.
type Memory[D Draft, E resource.Entity] struct {
	model Model[D, E]
	newID func() string

	mu    sync.Mutex
	byKey map[string]E
}

var _ Service[resource.CategoryDraft, resource.Category] = (*Memory[resource.CategoryDraft, resource.Category])(nil)

// NewMemory creates an empty collection. Ids are random UUIDs.
func NewMemory[D Draft, E resource.Entity](model Model[D, E]) *Memory[D, E] {
	return &Memory[D, E]{
		model: model,
		newID: uuid.NewString,
		byKey: map[string]E{},
	}
}

// Kind returns the entity kind.
func (m *Memory[D, E]) Kind() string { return m.model.Kind }

// Load replaces the contents with entities.
func (m *Memory[D, E]) Load(entities []E) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byKey = make(map[string]E, len(entities))
	for _, e := range entities {
		m.byKey[e.GetKey()] = e
	}
}

// Snapshot returns all entities ordered by key.
func (m *Memory[D, E]) Snapshot() []E {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]E, 0, len(m.byKey))
	for _, e := range m.byKey {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b E) int { return cmp.Compare(a.GetKey(), b.GetKey()) })
	return out
}

// FetchByKey implements Service.
func (m *Memory[D, E]) FetchByKey(_ context.Context, key string) (E, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.byKey[key]
	return e, ok, nil
}

// FetchByID returns the entity with backend id.
func (m *Memory[D, E]) FetchByID(_ context.Context, id string) (E, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.byKey {
		if e.GetID() == id {
			return e, true, nil
		}
	}
	var zero E
	return zero, false, nil
}

// FetchManyByKeys implements Service.
func (m *Memory[D, E]) FetchManyByKeys(_ context.Context, keys []string) ([]E, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []E
	for _, k := range keys {
		if e, ok := m.byKey[k]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

// FetchIDsByKeys implements KeyLookup.
func (m *Memory[D, E]) FetchIDsByKeys(ctx context.Context, keys []string) (map[string]string, error) {
	return idsByKey[D, E](ctx, m, keys)
}

// Create implements Service. Keys are unique per kind.
func (m *Memory[D, E]) Create(_ context.Context, draft D) (E, error) {
	var zero E
	key := draft.GetKey()
	if key == "" {
		return zero, &ValidationError{Kind: m.model.Kind, Message: "key is required"}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byKey[key]; exists {
		return zero, &ValidationError{Kind: m.model.Kind, Key: key, Message: "duplicate key"}
	}
	e := m.model.New(m.newID(), 1, draft)
	m.byKey[key] = e
	return e, nil
}

// Update implements Service.
func (m *Memory[D, E]) Update(_ context.Context, existing E, actions []resource.Action) (E, error) {
	var zero E
	key := existing.GetKey()

	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.byKey[key]
	if !ok || current.GetID() != existing.GetID() {
		return zero, &NotFoundError{Kind: m.model.Kind, Key: key}
	}
	if current.GetVersion() != existing.GetVersion() {
		return zero, &ConflictError{
			Kind:            m.model.Kind,
			Key:             key,
			ExpectedVersion: existing.GetVersion(),
			ActualVersion:   current.GetVersion(),
		}
	}

	applied, err := m.model.Apply(current, actions)
	if err != nil {
		return zero, &ValidationError{Kind: m.model.Kind, Key: key, Message: "update rejected", Cause: err}
	}
	updated := m.model.New(current.GetID(), current.GetVersion()+1, m.model.Draft(applied))
	if updated.GetKey() != key {
		return zero, &ValidationError{Kind: m.model.Kind, Key: key, Message: fmt.Sprintf("key cannot change to %q", updated.GetKey())}
	}
	m.byKey[key] = updated
	return updated, nil
}
