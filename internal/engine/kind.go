package engine

import (
	"context"

	"github.com/roach88/catalogsync/internal/backend"
	"github.com/roach88/catalogsync/internal/diff"
	"github.com/roach88/catalogsync/internal/resolve"
	"github.com/roach88/catalogsync/internal/resource"
)

// Kind is the per-kind strategy a Syncer delegates to.
type Kind[D backend.Draft, E resource.Entity] interface {
	// Name is the kind name, e.g. "category".
	Name() string

	// Plural is the noun used in summaries, e.g. "categories".
	Plural() string

	// ReferencedKeys lists the unresolved reference keys of d by target kind.
	ReferencedKeys(d D) map[string][]string

	// Resolve returns a copy of d with every reference resolved. A
	// resolve.ReferenceError with CodeDeferred parks the draft.
	Resolve(ctx context.Context, r *resolve.Resolver, d D) (D, error)

	// Diff computes the actions that turn existing into draft.
	Diff(ctx context.Context, existing E, draft D) (diff.Result, error)
}

// Resetter is implemented by kinds that keep lookups between calls. Sync
// calls Reset before its first batch so nothing carries over from an
// earlier run.
type Resetter interface {
	Reset()
}
