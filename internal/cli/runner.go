package cli

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/roach88/catalogsync/internal/backend"
	"github.com/roach88/catalogsync/internal/catalog"
	"github.com/roach88/catalogsync/internal/config"
	"github.com/roach88/catalogsync/internal/engine"
	"github.com/roach88/catalogsync/internal/resource"
	"github.com/roach88/catalogsync/internal/stats"
	"github.com/roach88/catalogsync/internal/waiting"
)

// Failure is one draft, or batch, the run could not sync.
type Failure struct {
	Key   string `json:"key,omitempty"`
	Error string `json:"error"`
}

// Change is one planned write.
type Change struct {
	Key       string           `json:"key"`
	Operation string           `json:"operation"` // "create" | "update"
	Actions   []map[string]any `json:"actions,omitempty"`
}

// runner drives the syncer of one kind and collects what it reports.
type runner struct {
	cfg     config.Config
	log     *slog.Logger
	metrics *stats.Collector

	// plan, when set, records every write. Writes are applied only when
	// applyPlan is true.
	plan      *plan
	applyPlan bool

	mu       sync.Mutex
	failures []Failure
	warnings []string
}

type plan struct {
	mu      sync.Mutex
	changes []Change
}

func (p *plan) record(c Change) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, c)
}

// sorted returns the changes ordered by key.
func (p *plan) sorted() []Change {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := slices.Clone(p.changes)
	slices.SortStableFunc(out, func(a, b Change) int { return strings.Compare(a.Key, b.Key) })
	return out
}

// run loads the draft file of kind and syncs it against b.
func (r *runner) run(ctx context.Context, kind, path string, b catalog.Backend, st waiting.Store) (*stats.Statistics, error) {
	switch kind {
	case resource.KindType:
		return runKind(ctx, r, kind, path, func(o engine.Options[resource.TypeDraft, resource.Type]) *engine.Syncer[resource.TypeDraft, resource.Type] {
			return catalog.NewTypeSync(b, st, o)
		})
	case resource.KindProductType:
		return runKind(ctx, r, kind, path, func(o engine.Options[resource.ProductTypeDraft, resource.ProductType]) *engine.Syncer[resource.ProductTypeDraft, resource.ProductType] {
			return catalog.NewProductTypeSync(b, st, o)
		})
	case resource.KindCategory:
		return runKind(ctx, r, kind, path, func(o engine.Options[resource.CategoryDraft, resource.Category]) *engine.Syncer[resource.CategoryDraft, resource.Category] {
			return catalog.NewCategorySync(b, st, o)
		})
	case resource.KindProduct:
		return runKind(ctx, r, kind, path, func(o engine.Options[resource.ProductDraft, resource.Product]) *engine.Syncer[resource.ProductDraft, resource.Product] {
			return catalog.NewProductSync(b, st, o)
		})
	default:
		return nil, checkKind(kind)
	}
}

func runKind[D backend.Draft, E resource.Entity](
	ctx context.Context,
	r *runner,
	kind, path string,
	newSyncer func(engine.Options[D, E]) *engine.Syncer[D, E],
) (*stats.Statistics, error) {
	doc, findings, err := LoadDrafts[D](kind, path)
	if err != nil {
		return nil, err
	}
	r.log.Info("drafts loaded", "kind", kind, "file", path, "drafts", len(doc.Drafts))

	// Findings never stop a run; the syncer fails the affected drafts.
	for _, e := range findings.Errors {
		r.log.Warn("draft finding", "code", e.Code, "field", e.Field, "line", e.Line, "message", e.Message)
	}
	for _, c := range findings.Cycles {
		r.warn(c.Message)
	}

	return newSyncer(options[D, E](r)).Sync(ctx, doc.Drafts)
}

func (r *runner) warn(msg string) {
	r.mu.Lock()
	r.warnings = append(r.warnings, msg)
	r.mu.Unlock()
	r.log.Warn(msg)
}

// options builds the engine options of r.
func options[D backend.Draft, E resource.Entity](r *runner) engine.Options[D, E] {
	opts := engine.Options[D, E]{
		BatchSize:     r.cfg.BatchSize,
		Workers:       r.cfg.Workers,
		AllowUUIDKeys: r.cfg.AllowUUIDKeys,
		Logger:        r.log,
		Metrics:       r.metrics,
		OnError: func(err error, draft *D, _ *E, _ []resource.Action) {
			f := Failure{Error: err.Error()}
			if draft != nil {
				f.Key = (*draft).GetKey()
			}
			r.mu.Lock()
			r.failures = append(r.failures, f)
			r.mu.Unlock()
			r.log.Error("draft failed", "key", f.Key, "error", err)
		},
		OnWarning: func(err error, draft *D, _ *E) {
			key := ""
			if draft != nil {
				key = (*draft).GetKey()
			}
			r.warn(key + ": " + err.Error())
		},
	}

	if r.plan != nil {
		opts.BeforeCreate = func(d D) (D, bool) {
			r.plan.record(Change{Key: d.GetKey(), Operation: "create"})
			return d, r.applyPlan
		}
		opts.BeforeUpdate = func(actions []resource.Action, d D, _ E) []resource.Action {
			encoded, err := resource.EncodeActions(actions)
			if err != nil {
				r.log.Error("encode actions", "key", d.GetKey(), "error", err)
			}
			r.plan.record(Change{Key: d.GetKey(), Operation: "update", Actions: encoded})
			if r.applyPlan {
				return actions
			}
			return nil
		}
	}
	return opts
}

// result is the JSON payload of a finished run.
type result struct {
	stats.Snapshot
	Failures []Failure `json:"failures,omitempty"`
	Warnings []string  `json:"warnings,omitempty"`
	Changes  []Change  `json:"changes,omitempty"`
}

// result collects the outcome of the run, failures and warnings sorted.
func (r *runner) result(st *stats.Statistics) result {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := result{
		Snapshot: st.Snapshot(),
		Failures: slices.Clone(r.failures),
		Warnings: slices.Clone(r.warnings),
	}
	slices.SortStableFunc(res.Failures, func(a, b Failure) int { return strings.Compare(a.Key, b.Key) })
	slices.Sort(res.Warnings)
	if r.plan != nil {
		res.Changes = r.plan.sorted()
	}
	return res
}
