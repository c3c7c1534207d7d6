package resolve

import (
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/roach88/catalogsync/internal/cache"
	"github.com/roach88/catalogsync/internal/resource"
)

// Options configures resolution policy.
type Options struct {
	// AllowUUIDKeys treats UUID-shaped keys as already-resolved ids instead
	// of rejecting them.
	AllowUUIDKeys bool
}

// Resolver resolves references for drafts of one kind during one run.
// It is safe for concurrent use.
type Resolver struct {
	caches  *cache.Registry
	kind    string
	pending map[string]bool
	opts    Options
}

// New creates a resolver for drafts of kind. pendingKeys are the keys of all
// drafts of that kind submitted in the run; a missing same-kind reference to
// one of them defers the draft instead of failing it.
func New(caches *cache.Registry, kind string, pendingKeys []string, opts Options) *Resolver {
	pending := make(map[string]bool, len(pendingKeys))
	for _, k := range pendingKeys {
		if k != "" {
			pending[k] = true
		}
	}
	return &Resolver{caches: caches, kind: kind, pending: pending, opts: opts}
}

// WithoutDeferral returns a resolver that reports every missing reference as
// CodeNotFound. Used for the last attempt on parked drafts.
func (r *Resolver) WithoutDeferral() *Resolver {
	return &Resolver{caches: r.caches, kind: r.kind, pending: nil, opts: r.opts}
}

// Reference resolves a single reference field of the draft identified by
// draftKey. It returns nil for an absent optional reference. A present
// reference with neither an id nor a key is a blank key, required or not.
func (r *Resolver) Reference(ctx context.Context, draftKey, field, target string, ref *resource.Reference, required bool) (*resource.Reference, error) {
	if ref.IsResolved() {
		return ref, nil
	}
	if ref == nil {
		if required {
			return nil, &ReferenceError{Code: CodeBlankKey, DraftKey: draftKey, Field: field}
		}
		return nil, nil
	}

	key := ref.Key
	if strings.TrimSpace(key) == "" {
		return nil, &ReferenceError{Code: CodeBlankKey, DraftKey: draftKey, Field: field}
	}
	if isUUID(key) {
		if !r.opts.AllowUUIDKeys {
			return nil, &ReferenceError{Code: CodeUUIDKey, DraftKey: draftKey, Field: field, Key: key}
		}
		return resource.RefByID(key), nil
	}
	if target == r.kind && key == draftKey {
		return nil, &ReferenceError{Code: CodeSelfReference, DraftKey: draftKey, Field: field, Key: key}
	}

	c, err := r.caches.For(target)
	if err != nil {
		return nil, &ReferenceError{Code: CodeLookupFailed, DraftKey: draftKey, Field: field, Key: key, Cause: err}
	}
	id, ok, err := c.Resolve(ctx, key)
	if err != nil {
		return nil, &ReferenceError{Code: CodeLookupFailed, DraftKey: draftKey, Field: field, Key: key, Cause: err}
	}
	if ok {
		return &resource.Reference{ID: id, Key: key}, nil
	}
	if target == r.kind && r.pending[key] {
		return nil, &ReferenceError{Code: CodeDeferred, DraftKey: draftKey, Field: field, Key: key, MissingKeys: []string{key}}
	}
	return nil, &ReferenceError{Code: CodeNotFound, DraftKey: draftKey, Field: field, Key: key}
}

// Prefetch warms the caches with every key in keysByKind using one backend
// query per kind.
func (r *Resolver) Prefetch(ctx context.Context, keysByKind map[string][]string) error {
	for kind, keys := range keysByKind {
		if len(keys) == 0 {
			continue
		}
		c, err := r.caches.For(kind)
		if err != nil {
			return err
		}
		var lookup []string
		for _, k := range keys {
			if strings.TrimSpace(k) != "" && !isUUID(k) {
				lookup = append(lookup, k)
			}
		}
		if _, err := c.FetchAndCache(ctx, lookup); err != nil {
			return err
		}
	}
	return nil
}

// Created records a newly created same-kind entity so dependents resolve
// without another backend query.
func (r *Resolver) Created(key, id string) {
	if c, err := r.caches.For(r.kind); err == nil {
		c.Put(key, id)
	}
}

func isUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

// deferrals accumulates deferred dependencies across the fields of one draft.
// The first terminal error wins.
type deferrals struct {
	draftKey string
	missing  []string
}

// check returns err if it is terminal, records it if it is a deferral.
func (d *deferrals) check(err error) error {
	if err == nil {
		return nil
	}
	if keys := DeferredKeys(err); keys != nil {
		for _, k := range keys {
			if !slices.Contains(d.missing, k) {
				d.missing = append(d.missing, k)
			}
		}
		return nil
	}
	return err
}

func (d *deferrals) err() error {
	if len(d.missing) == 0 {
		return nil
	}
	return &ReferenceError{Code: CodeDeferred, DraftKey: d.draftKey, MissingKeys: d.missing}
}
