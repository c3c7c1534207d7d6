package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/catalogsync/internal/backend"
	"github.com/roach88/catalogsync/internal/cache"
	"github.com/roach88/catalogsync/internal/resolve"
	"github.com/roach88/catalogsync/internal/resource"
	"github.com/roach88/catalogsync/internal/stats"
	"github.com/roach88/catalogsync/internal/waiting"
)

// Syncer synchronizes drafts of one kind.
//
// Thread-safety model:
//   - Sync(): one call at a time per Syncer; each call is an independent run
//   - Callbacks: serialized by the Syncer
type Syncer[D backend.Draft, E resource.Entity] struct {
	kind    Kind[D, E]
	service backend.Service[D, E]
	lookups map[string]backend.KeyLookup
	waiting waiting.Store
	opts    Options[D, E]
	log     *slog.Logger

	callbackMu sync.Mutex
}

// New creates a Syncer. lookups maps every kind referenced by the drafts to
// its key lookup; the synced kind itself is looked up through service when
// absent. A nil store parks deferred drafts in memory for the run.
func New[D backend.Draft, E resource.Entity](
	kind Kind[D, E],
	service backend.Service[D, E],
	lookups map[string]backend.KeyLookup,
	store waiting.Store,
	opts Options[D, E],
) *Syncer[D, E] {
	all := make(map[string]backend.KeyLookup, len(lookups)+1)
	for k, l := range lookups {
		all[k] = l
	}
	if _, ok := all[kind.Name()]; !ok {
		all[kind.Name()] = backend.Lookup(service)
	}
	if store == nil {
		store = waiting.NewMemory()
	}
	opts = opts.withDefaults()
	return &Syncer[D, E]{
		kind:    kind,
		service: service,
		lookups: all,
		waiting: store,
		opts:    opts,
		log:     opts.Logger.With("kind", kind.Name()),
	}
}

// Kind returns the kind name.
func (s *Syncer[D, E]) Kind() string { return s.kind.Name() }

// Sync runs one synchronization of drafts and returns its statistics.
//
// Per-draft and per-batch failures are reported through Options.OnError and
// counted; they never make Sync fail. The returned error is non-nil only
// when ctx is cancelled or the run cannot be set up, in which case the
// statistics cover the drafts handled so far.
func (s *Syncer[D, E]) Sync(ctx context.Context, drafts []D) (*stats.Statistics, error) {
	st := stats.New(s.kind.Name(), s.kind.Plural())
	st.Start(s.opts.Clock.Now())
	if s.opts.Metrics != nil {
		s.opts.Metrics.Track(st)
	}
	if rs, ok := s.kind.(Resetter); ok {
		rs.Reset()
	}

	fetchers := make(map[string]cache.Fetcher, len(s.lookups))
	for k, l := range s.lookups {
		fetchers[k] = l
	}
	caches, err := cache.NewRegistry(s.opts.CacheCapacity, fetchers)
	if err != nil {
		st.Stop(s.opts.Clock.Now())
		return st, fmt.Errorf("create key caches: %w", err)
	}

	keys := make([]string, 0, len(drafts))
	for _, d := range drafts {
		keys = append(keys, d.GetKey())
	}

	r := &run[D, E]{
		Syncer:   s,
		stats:    st,
		resolver: resolve.New(caches, s.kind.Name(), keys, resolve.Options{AllowUUIDKeys: s.opts.AllowUUIDKeys}),
		parked:   map[string]bool{},
	}

	s.log.Info("sync starting", "drafts", len(drafts), "batch_size", s.opts.BatchSize)

	for start := 0; start < len(drafts); start += s.opts.BatchSize {
		if err := ctx.Err(); err != nil {
			break
		}
		end := min(start+s.opts.BatchSize, len(drafts))
		created := r.syncBatch(ctx, drafts[start:end], r.resolver)
		r.unblock(ctx, created)
		r.refreshWaiting(ctx)
	}

	if ctx.Err() == nil {
		r.finalPass(ctx)
	}
	r.refreshWaiting(ctx)
	st.Stop(s.opts.Clock.Now())

	if err := ctx.Err(); err != nil {
		s.log.Info("sync stopping: context cancelled", "processed", st.Processed())
		return st, err
	}
	snap := st.Snapshot()
	s.log.Info("sync finished",
		"processed", snap.Processed,
		"created", snap.Created,
		"updated", snap.Updated,
		"up_to_date", snap.UpToDate,
		"failed", snap.Failed,
		"waiting", snap.Waiting,
	)
	return st, nil
}

// onError invokes the error callback under the callback lock.
func (s *Syncer[D, E]) onError(err error, draft *D, existing *E, actions []resource.Action) {
	if s.opts.OnError == nil {
		return
	}
	s.callbackMu.Lock()
	defer s.callbackMu.Unlock()
	s.opts.OnError(err, draft, existing, actions)
}

// onWarning invokes the warning callback under the callback lock.
func (s *Syncer[D, E]) onWarning(err error, draft *D, existing *E) {
	if s.opts.OnWarning == nil {
		return
	}
	s.callbackMu.Lock()
	defer s.callbackMu.Unlock()
	s.opts.OnWarning(err, draft, existing)
}

// beforeCreate invokes the creation hook under the callback lock.
func (s *Syncer[D, E]) beforeCreate(draft D) (D, bool) {
	if s.opts.BeforeCreate == nil {
		return draft, true
	}
	s.callbackMu.Lock()
	defer s.callbackMu.Unlock()
	return s.opts.BeforeCreate(draft)
}

// beforeUpdate invokes the update hook under the callback lock.
func (s *Syncer[D, E]) beforeUpdate(actions []resource.Action, draft D, existing E) []resource.Action {
	if s.opts.BeforeUpdate == nil {
		return actions
	}
	s.callbackMu.Lock()
	defer s.callbackMu.Unlock()
	return s.opts.BeforeUpdate(actions, draft, existing)
}
