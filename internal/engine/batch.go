package engine

import (
	"context"
	"sync"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/catalogsync/internal/backend"
	"github.com/roach88/catalogsync/internal/diff"
	"github.com/roach88/catalogsync/internal/match"
	"github.com/roach88/catalogsync/internal/resolve"
	"github.com/roach88/catalogsync/internal/resource"
	"github.com/roach88/catalogsync/internal/stats"
)

// run holds the state of one Sync call.
type run[D backend.Draft, E resource.Entity] struct {
	*Syncer[D, E]
	stats    *stats.Statistics
	resolver *resolve.Resolver

	mu     sync.Mutex
	parked map[string]bool // draft keys parked during this run
}

// batchOutcome collects what a batch produced.
type batchOutcome struct {
	mu      sync.Mutex
	created []string
	settled []string
}

func (o *batchOutcome) add(key string, created bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.settled = append(o.settled, key)
	if created {
		o.created = append(o.created, key)
	}
}

// syncBatch processes one batch and returns the keys it created.
func (r *run[D, E]) syncBatch(ctx context.Context, batch []D, resolver *resolve.Resolver) []string {
	kind := r.kind.Name()
	part := match.Split(batch, keyOf[D])

	for i := range part.Blank {
		r.fail(&SyncError{Code: ErrCodeBlankKey, Kind: kind, Cause: errBlankKey}, &part.Blank[i], nil, nil)
	}
	for i := range part.Duplicates {
		d := &part.Duplicates[i]
		r.fail(&SyncError{
			Code:     ErrCodeDuplicateKey,
			Kind:     kind,
			DraftKey: (*d).GetKey(),
			Cause:    &diff.DuplicateKeyError{Collection: r.kind.Plural(), Key: (*d).GetKey()},
		}, d, nil, nil)
	}

	drafts := part.Representatives
	if len(drafts) == 0 {
		return nil
	}

	if err := resolver.Prefetch(ctx, r.referencedKeys(drafts)); err != nil {
		r.failBatch(ErrCodeFetch, err, len(drafts))
		return nil
	}

	resolved := r.resolveAll(ctx, drafts, resolver)
	if len(resolved) == 0 {
		return nil
	}

	keys := make([]string, len(resolved))
	for i, d := range resolved {
		keys[i] = d.GetKey()
	}
	existing, err := r.service.FetchManyByKeys(ctx, keys)
	if err != nil {
		r.failBatch(ErrCodeFetch, err, len(resolved))
		return nil
	}
	existingByKey := make(map[string]E, len(existing))
	for _, e := range existing {
		existingByKey[e.GetKey()] = e
	}

	matched := match.Match(resolved, existingByKey, keyOf[D])
	out := &batchOutcome{}
	g := r.group()
	for _, d := range matched.ToCreate {
		g.Go(func() error {
			out.add(d.GetKey(), r.create(ctx, d))
			return nil
		})
	}
	for _, p := range matched.ToUpdate {
		g.Go(func() error {
			r.update(ctx, p.Existing, p.Draft)
			out.add(p.Draft.GetKey(), false)
			return nil
		})
	}
	_ = g.Wait()

	r.discardStale(ctx, out.settled)
	r.log.Debug("batch done",
		"drafts", len(batch),
		"created", len(out.created),
		"settled", len(out.settled),
	)
	return out.created
}

// resolveAll resolves drafts concurrently and returns the resolved ones in
// input order. Deferred drafts are parked, others fail.
func (r *run[D, E]) resolveAll(ctx context.Context, drafts []D, resolver *resolve.Resolver) []D {
	results := make([]D, len(drafts))
	ok := make([]bool, len(drafts))

	g := r.group()
	for i, d := range drafts {
		g.Go(func() error {
			rd, err := r.kind.Resolve(ctx, resolver, d)
			switch {
			case err == nil:
				results[i], ok[i] = rd, true
			case resolve.IsDeferred(err):
				r.park(ctx, d, resolve.DeferredKeys(err))
			default:
				r.fail(&SyncError{Code: ErrCodeUnresolved, Kind: r.kind.Name(), DraftKey: d.GetKey(), Cause: err}, &d, nil, nil)
			}
			return nil
		})
	}
	_ = g.Wait()

	out := make([]D, 0, len(drafts))
	for i := range drafts {
		if ok[i] {
			out = append(out, results[i])
		}
	}
	return out
}

// create creates one draft and reports whether an entity was created.
func (r *run[D, E]) create(ctx context.Context, d D) bool {
	draft, keep := r.beforeCreate(d)
	if !keep {
		r.stats.IncrementUpToDate()
		return false
	}

	created, err := r.service.Create(ctx, draft)
	if err != nil {
		r.fail(&SyncError{Code: ErrCodeCreate, Kind: r.kind.Name(), DraftKey: d.GetKey(), Cause: err}, &d, nil, nil)
		return false
	}
	r.stats.IncrementCreated()
	r.resolver.Created(created.GetKey(), created.GetID())
	r.log.Debug("created", "key", created.GetKey(), "id", created.GetID())
	return true
}

// update brings existing in line with draft, retrying once on conflict.
func (r *run[D, E]) update(ctx context.Context, existing E, draft D) {
	kind := r.kind.Name()
	key := draft.GetKey()

	actions, ok := r.plan(ctx, existing, draft, true)
	if !ok {
		return
	}
	if len(actions) == 0 {
		r.stats.IncrementUpToDate()
		return
	}

	_, err := r.service.Update(ctx, existing, actions)
	if err == nil {
		r.stats.IncrementUpdated()
		return
	}
	if !backend.IsConflict(err) {
		r.fail(&SyncError{Code: ErrCodeUpdate, Kind: kind, DraftKey: key, Cause: err}, &draft, &existing, actions)
		return
	}

	r.log.Debug("update conflict, retrying", "key", key, "error", err)
	fresh, found, ferr := r.service.FetchByKey(ctx, key)
	if ferr != nil {
		r.fail(&SyncError{Code: ErrCodeFetch, Kind: kind, DraftKey: key, Cause: ferr}, &draft, &existing, actions)
		return
	}
	if !found {
		r.fail(&SyncError{Code: ErrCodeConflict, Kind: kind, DraftKey: key, Cause: err}, &draft, &existing, actions)
		return
	}

	actions, ok = r.plan(ctx, fresh, draft, false)
	if !ok {
		return
	}
	if len(actions) == 0 {
		r.stats.IncrementUpToDate()
		return
	}
	if _, err := r.service.Update(ctx, fresh, actions); err != nil {
		code := ErrCodeUpdate
		if backend.IsConflict(err) {
			code = ErrCodeConflict
		}
		r.fail(&SyncError{Code: code, Kind: kind, DraftKey: key, Cause: err}, &draft, &fresh, actions)
		return
	}
	r.stats.IncrementUpdated()
}

// plan diffs existing against draft and applies the update hook. ok is false
// when the draft failed.
func (r *run[D, E]) plan(ctx context.Context, existing E, draft D, warn bool) ([]resource.Action, bool) {
	res, err := r.kind.Diff(ctx, existing, draft)
	if err != nil {
		r.fail(&SyncError{Code: ErrCodeBuild, Kind: r.kind.Name(), DraftKey: draft.GetKey(), Cause: err}, &draft, &existing, nil)
		return nil, false
	}
	if warn {
		for _, w := range multierr.Errors(res.Warnings) {
			r.log.Warn("diff warning", "key", draft.GetKey(), "warning", w)
			r.onWarning(w, &draft, &existing)
		}
	}
	if res.Empty() {
		return nil, true
	}
	return r.beforeUpdate(res.Actions, draft, existing), true
}

// fail counts one failed draft and reports it.
func (r *run[D, E]) fail(err error, draft *D, existing *E, actions []resource.Action) {
	r.stats.IncrementFailed(1)
	r.log.Warn("draft failed", "error", err)
	r.onError(err, draft, existing, actions)
}

// failBatch counts n failed drafts and reports the batch once.
func (r *run[D, E]) failBatch(code ErrorCode, cause error, n int) {
	err := &SyncError{Code: code, Kind: r.kind.Name(), Drafts: n, Cause: cause}
	r.stats.IncrementFailed(n)
	r.log.Error("batch failed", "drafts", n, "error", cause)
	r.onError(err, nil, nil, nil)
}

func (r *run[D, E]) referencedKeys(drafts []D) map[string][]string {
	merged := map[string][]string{}
	for _, d := range drafts {
		for kind, keys := range r.kind.ReferencedKeys(d) {
			merged[kind] = append(merged[kind], keys...)
		}
	}
	return merged
}

func (r *run[D, E]) group() *errgroup.Group {
	g := &errgroup.Group{}
	if r.opts.Workers > 0 {
		g.SetLimit(r.opts.Workers)
	}
	return g
}

func keyOf[D backend.Draft](d D) string { return d.GetKey() }
