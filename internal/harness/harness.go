package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/roach88/catalogsync/internal/backend"
	"github.com/roach88/catalogsync/internal/catalog"
	"github.com/roach88/catalogsync/internal/engine"
	"github.com/roach88/catalogsync/internal/resource"
	"github.com/roach88/catalogsync/internal/schema"
	"github.com/roach88/catalogsync/internal/testutil"
	"github.com/roach88/catalogsync/internal/waiting"
)

// Harness runs scenarios against an in-memory catalog with a deterministic
// clock and one worker per batch, so writes happen in draft order.
type Harness struct {
	memory *catalog.MemoryBackend
	store  waiting.Store
	schema *schema.Schema
	clock  *testutil.DeterministicClock
	logger *slog.Logger

	mu     sync.Mutex
	result *Result
}

// Run executes a scenario and returns the result.
//
// Every scenario starts from a fresh catalog holding scenario.State and an
// empty waiting store that all steps share. A step that cannot run at all
// (drafts failing the schema, a batch error) aborts with an error.
func Run(scenario *Scenario) (*Result, error) {
	sch, err := schema.New()
	if err != nil {
		return nil, err
	}

	h := &Harness{
		memory: catalog.NewMemoryBackend(scenario.State),
		store:  waiting.NewMemory(),
		schema: sch,
		clock:  testutil.NewDeterministicClock(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		result: NewResult(),
	}

	ctx := context.Background()
	for i, step := range scenario.Steps {
		if err := h.runStep(ctx, i, step); err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}
	}

	h.result.State = h.memory.State()
	for _, msg := range EvaluateAssertions(h.result, scenario.Assertions) {
		h.result.AddError(msg)
	}
	return h.result, nil
}

func (h *Harness) runStep(ctx context.Context, index int, step Step) error {
	data, err := yaml.Marshal(&step.Drafts)
	if err != nil {
		return fmt.Errorf("encode drafts: %w", err)
	}

	b := h.memory.Backend()
	f := newFaults(step)
	switch step.Sync {
	case resource.KindType:
		b.Types = trace(h, index, step.Sync, b.Types, f)
		return syncStep(ctx, h, index, step, data, func(o engine.Options[resource.TypeDraft, resource.Type]) *engine.Syncer[resource.TypeDraft, resource.Type] {
			return catalog.NewTypeSync(b, h.store, o)
		})
	case resource.KindProductType:
		b.ProductTypes = trace(h, index, step.Sync, b.ProductTypes, f)
		return syncStep(ctx, h, index, step, data, func(o engine.Options[resource.ProductTypeDraft, resource.ProductType]) *engine.Syncer[resource.ProductTypeDraft, resource.ProductType] {
			return catalog.NewProductTypeSync(b, h.store, o)
		})
	case resource.KindCategory:
		b.Categories = trace(h, index, step.Sync, b.Categories, f)
		return syncStep(ctx, h, index, step, data, func(o engine.Options[resource.CategoryDraft, resource.Category]) *engine.Syncer[resource.CategoryDraft, resource.Category] {
			return catalog.NewCategorySync(b, h.store, o)
		})
	case resource.KindProduct:
		b.Products = trace(h, index, step.Sync, b.Products, f)
		return syncStep(ctx, h, index, step, data, func(o engine.Options[resource.ProductDraft, resource.Product]) *engine.Syncer[resource.ProductDraft, resource.Product] {
			return catalog.NewProductSync(b, h.store, o)
		})
	default:
		return fmt.Errorf("unknown kind %q", step.Sync)
	}
}

func syncStep[D backend.Draft, E resource.Entity](
	ctx context.Context,
	h *Harness,
	index int,
	step Step,
	data []byte,
	newSyncer func(engine.Options[D, E]) *engine.Syncer[D, E],
) error {
	doc, err := schema.Decode[D](h.schema, step.Sync, fmt.Sprintf("steps[%d].drafts", index), data)
	if err != nil {
		return err
	}

	var failures []string
	opts := engine.Options[D, E]{
		BatchSize:     step.BatchSize,
		Workers:       1,
		AllowUUIDKeys: step.AllowUUIDKeys,
		Logger:        h.logger,
		Clock:         h.clock,
		OnError: func(err error, draft *D, _ *E, _ []resource.Action) {
			if draft != nil {
				failures = append(failures, (*draft).GetKey())
			}
		},
	}

	st, err := newSyncer(opts).Sync(ctx, doc.Drafts)
	if err != nil {
		return err
	}

	slices.Sort(failures)
	res := StepResult{Snapshot: st.Snapshot(), Failures: failures}
	h.result.Steps = append(h.result.Steps, res)
	if step.Expect != nil {
		h.checkExpect(index, res, step.Expect)
	}
	return nil
}

func (h *Harness) checkExpect(index int, got StepResult, want *StepExpect) {
	counts := []struct {
		name      string
		got, want int
	}{
		{"created", got.Created, want.Created},
		{"updated", got.Updated, want.Updated},
		{"up_to_date", got.UpToDate, want.UpToDate},
		{"failed", got.Failed, want.Failed},
		{"waiting", got.Waiting, want.Waiting},
	}
	for _, c := range counts {
		if c.got != c.want {
			h.result.AddError(fmt.Sprintf("steps[%d]: expected %s %d, got %d", index, c.name, c.want, c.got))
		}
	}

	if want.Failures != nil {
		expected := slices.Clone(want.Failures)
		slices.Sort(expected)
		if !slices.Equal(expected, got.Failures) {
			h.result.AddError(fmt.Sprintf("steps[%d]: expected failures %v, got %v", index, expected, got.Failures))
		}
	}
}

func (h *Harness) record(ev TraceEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.result.addWrite(ev)
}

// faults holds the write failures a step injects.
type faults struct {
	mu        sync.Mutex
	conflicts map[string]bool
	reject    map[string]bool
}

func newFaults(step Step) *faults {
	f := &faults{conflicts: map[string]bool{}, reject: map[string]bool{}}
	for _, k := range step.Conflicts {
		f.conflicts[k] = true
	}
	for _, k := range step.Reject {
		f.reject[k] = true
	}
	return f
}

// conflict reports whether the update of key should conflict. Each key
// conflicts once.
func (f *faults) conflict(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.conflicts[key] {
		delete(f.conflicts, key)
		return true
	}
	return false
}

func (f *faults) rejected(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reject[key]
}

// tracer records the writes of one kind and injects faults. Reads pass
// through unchanged.
type tracer[D backend.Draft, E resource.Entity] struct {
	backend.Service[D, E]
	h      *Harness
	step   int
	kind   string
	faults *faults
}

func trace[D backend.Draft, E resource.Entity](h *Harness, step int, kind string, svc backend.Service[D, E], f *faults) *tracer[D, E] {
	return &tracer[D, E]{Service: svc, h: h, step: step, kind: kind, faults: f}
}

func (t *tracer[D, E]) Create(ctx context.Context, draft D) (E, error) {
	key := draft.GetKey()
	ev := TraceEvent{Step: t.step, Kind: t.kind, Operation: OpCreate, Key: key}
	if t.faults.rejected(key) {
		var zero E
		ev.Outcome = OutcomeRejected
		t.h.record(ev)
		return zero, &backend.ValidationError{Kind: t.kind, Key: key, Message: "rejected by scenario"}
	}

	e, err := t.Service.Create(ctx, draft)
	ev.Outcome = outcome(err)
	t.h.record(ev)
	return e, err
}

func (t *tracer[D, E]) Update(ctx context.Context, existing E, actions []resource.Action) (E, error) {
	key := existing.GetKey()
	ev := TraceEvent{Step: t.step, Kind: t.kind, Operation: OpUpdate, Key: key, Actions: resource.ActionNames(actions)}
	switch {
	case t.faults.rejected(key):
		ev.Outcome = OutcomeRejected
		t.h.record(ev)
		var zero E
		return zero, &backend.ValidationError{Kind: t.kind, Key: key, Message: "rejected by scenario"}
	case t.faults.conflict(key):
		ev.Outcome = OutcomeConflict
		t.h.record(ev)
		var zero E
		return zero, &backend.ConflictError{
			Kind:            t.kind,
			Key:             key,
			ExpectedVersion: existing.GetVersion(),
			ActualVersion:   existing.GetVersion() + 1,
		}
	}

	e, err := t.Service.Update(ctx, existing, actions)
	ev.Outcome = outcome(err)
	t.h.record(ev)
	return e, err
}

// FetchByID forwards to the wrapped service when it supports id lookups.
func (t *tracer[D, E]) FetchByID(ctx context.Context, id string) (E, bool, error) {
	if f, ok := t.Service.(backend.IDFetcher[E]); ok {
		return f.FetchByID(ctx, id)
	}
	var zero E
	return zero, false, fmt.Errorf("%s: lookup by id not supported", t.kind)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case backend.IsConflict(err):
		return OutcomeConflict
	default:
		return OutcomeError
	}
}
