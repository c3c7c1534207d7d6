package backend

import (
	"context"

	"github.com/roach88/catalogsync/internal/resource"
)

// Draft is implemented by every draft type.
type Draft interface {
	GetKey() string
}

// Service reads and writes entities of one kind.
type Service[D Draft, E resource.Entity] interface {
	// FetchByKey returns the entity with key. ok is false when it does not
	// exist.
	FetchByKey(ctx context.Context, key string) (e E, ok bool, err error)

	// FetchManyByKeys returns the entities that exist for keys, in no
	// particular order.
	FetchManyByKeys(ctx context.Context, keys []string) ([]E, error)

	// Create stores a new entity built from draft.
	Create(ctx context.Context, draft D) (E, error)

	// Update applies actions to existing. It fails with a ConflictError
	// when existing's version is stale.
	Update(ctx context.Context, existing E, actions []resource.Action) (E, error)
}

// KeyLookup maps keys of one kind to backend ids.
type KeyLookup interface {
	FetchIDsByKeys(ctx context.Context, keys []string) (map[string]string, error)
}

// Lookup adapts a Service to a KeyLookup.
func Lookup[D Draft, E resource.Entity](s Service[D, E]) KeyLookup {
	if kl, ok := s.(KeyLookup); ok {
		return kl
	}
	return serviceLookup[D, E]{s}
}

type serviceLookup[D Draft, E resource.Entity] struct {
	svc Service[D, E]
}

func (l serviceLookup[D, E]) FetchIDsByKeys(ctx context.Context, keys []string) (map[string]string, error) {
	return idsByKey(ctx, l.svc, keys)
}

func idsByKey[D Draft, E resource.Entity](ctx context.Context, s Service[D, E], keys []string) (map[string]string, error) {
	entities, err := s.FetchManyByKeys(ctx, keys)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]string, len(entities))
	for _, e := range entities {
		ids[e.GetKey()] = e.GetID()
	}
	return ids, nil
}

// IDFetcher reads an entity by backend id.
type IDFetcher[E resource.Entity] interface {
	FetchByID(ctx context.Context, id string) (e E, ok bool, err error)
}
