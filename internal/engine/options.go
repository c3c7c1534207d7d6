package engine

import (
	"log/slog"

	"github.com/roach88/catalogsync/internal/cache"
	"github.com/roach88/catalogsync/internal/resource"
	"github.com/roach88/catalogsync/internal/stats"
)

// DefaultBatchSize is the number of drafts processed per batch.
const DefaultBatchSize = 30

// DefaultCacheCapacity bounds each key/id cache.
const DefaultCacheCapacity = cache.DefaultCapacity

// Options configures a Syncer. The zero value is usable.
//
// Callbacks are invoked one at a time, never concurrently, but from
// whichever goroutine handled the draft.
type Options[D, E any] struct {
	// BatchSize defaults to DefaultBatchSize.
	BatchSize int

	// CacheCapacity defaults to DefaultCacheCapacity.
	CacheCapacity int

	// Workers bounds concurrent per-draft work within a batch. Zero means
	// one goroutine per draft.
	Workers int

	// AllowUUIDKeys treats UUID-shaped reference keys as ids.
	AllowUUIDKeys bool

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Clock defaults to SystemClock().
	Clock Clock

	// Metrics, if set, tracks the statistics of every run.
	Metrics *stats.Collector

	// OnError is called once per failed draft, or once per failed batch
	// with a nil draft. existing and actions are set when known.
	OnError func(err error, draft *D, existing *E, actions []resource.Action)

	// OnWarning is called for non-fatal problems found while diffing.
	OnWarning func(err error, draft *D, existing *E)

	// BeforeCreate may rewrite a draft before creation. Returning false
	// skips the creation and counts the draft as up to date.
	BeforeCreate func(draft D) (D, bool)

	// BeforeUpdate may filter or extend the actions of an update. An empty
	// result skips the update and counts the draft as up to date.
	BeforeUpdate func(actions []resource.Action, draft D, existing E) []resource.Action
}

func (o Options[D, E]) withDefaults() Options[D, E] {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.CacheCapacity <= 0 {
		o.CacheCapacity = DefaultCacheCapacity
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Clock == nil {
		o.Clock = SystemClock()
	}
	return o
}
