package engine

import (
	"context"
	"slices"

	"github.com/roach88/catalogsync/internal/waiting"
)

// park saves a draft whose same-kind references are not created yet.
func (r *run[D, E]) park(ctx context.Context, d D, missing []string) {
	key := d.GetKey()
	rec, err := waiting.NewRecord(r.kind.Name(), key, missing, d, r.opts.Clock.Now())
	if err == nil {
		err = r.waiting.Save(ctx, rec)
	}
	if err != nil {
		r.fail(&SyncError{Code: ErrCodeWaitingStore, Kind: r.kind.Name(), DraftKey: key, Cause: err}, &d, nil, nil)
		return
	}

	r.mu.Lock()
	r.parked[key] = true
	r.mu.Unlock()
	r.log.Debug("draft parked", "key", key, "missing", rec.MissingKeys)
}

// unblock reprocesses drafts waiting on created keys until no further
// drafts are released.
func (r *run[D, E]) unblock(ctx context.Context, created []string) {
	for len(created) > 0 && ctx.Err() == nil {
		records, err := r.waiting.WaitingOn(ctx, r.kind.Name(), created)
		if err != nil {
			r.log.Error("read waiting drafts", "error", err)
			return
		}
		drafts := r.take(ctx, records)
		if len(drafts) == 0 {
			return
		}
		r.log.Debug("drafts unblocked", "count", len(drafts), "by", len(created))

		created = nil
		for start := 0; start < len(drafts); start += r.opts.BatchSize {
			if ctx.Err() != nil {
				return
			}
			end := min(start+r.opts.BatchSize, len(drafts))
			created = append(created, r.syncBatch(ctx, drafts[start:end], r.resolver)...)
		}
	}
}

// finalPass gives drafts still parked by this run one last attempt in which
// missing references fail instead of deferring.
func (r *run[D, E]) finalPass(ctx context.Context) {
	r.mu.Lock()
	keys := make([]string, 0, len(r.parked))
	for k := range r.parked {
		keys = append(keys, k)
	}
	r.mu.Unlock()
	if len(keys) == 0 {
		return
	}
	slices.Sort(keys)

	records, err := r.waiting.Get(ctx, r.kind.Name(), keys)
	if err != nil {
		r.failBatch(ErrCodeWaitingStore, err, len(keys))
		return
	}
	drafts := r.take(ctx, records)
	r.log.Info("retrying waiting drafts", "count", len(drafts))

	strict := r.resolver.WithoutDeferral()
	for start := 0; start < len(drafts); start += r.opts.BatchSize {
		if ctx.Err() != nil {
			return
		}
		end := min(start+r.opts.BatchSize, len(drafts))
		r.syncBatch(ctx, drafts[start:end], strict)
	}
}

// take removes records from the store and decodes their drafts. A record
// that cannot be removed or decoded fails its draft.
func (r *run[D, E]) take(ctx context.Context, records []waiting.Record) []D {
	drafts := make([]D, 0, len(records))
	for _, rec := range records {
		var d D
		err := rec.Decode(&d)
		if err == nil {
			err = r.waiting.Delete(ctx, rec.Kind, rec.DraftKey)
		}

		r.mu.Lock()
		delete(r.parked, rec.DraftKey)
		r.mu.Unlock()

		if err != nil {
			r.fail(&SyncError{Code: ErrCodeWaitingStore, Kind: r.kind.Name(), DraftKey: rec.DraftKey, Cause: err}, nil, nil, nil)
			continue
		}
		drafts = append(drafts, d)
	}
	return drafts
}

// discardStale deletes records left by earlier runs for drafts this batch
// settled.
func (r *run[D, E]) discardStale(ctx context.Context, keys []string) {
	if len(keys) == 0 {
		return
	}
	records, err := r.waiting.Get(ctx, r.kind.Name(), keys)
	if err != nil {
		r.log.Error("read waiting drafts", "error", err)
		return
	}
	for _, rec := range records {
		if err := r.waiting.Delete(ctx, rec.Kind, rec.DraftKey); err != nil {
			r.log.Error("delete stale waiting draft", "key", rec.DraftKey, "error", err)
			continue
		}
		r.log.Debug("stale waiting draft removed", "key", rec.DraftKey)
	}
}

// refreshWaiting publishes the number of parked drafts of this kind.
func (r *run[D, E]) refreshWaiting(ctx context.Context) {
	n, err := r.waiting.Count(context.WithoutCancel(ctx), r.kind.Name())
	if err != nil {
		r.log.Error("count waiting drafts", "error", err)
		return
	}
	r.stats.SetWaiting(n)
}
