package harness

import (
	"github.com/roach88/catalogsync/internal/catalog"
	"github.com/roach88/catalogsync/internal/stats"
)

// Write operations.
const (
	OpCreate = "create"
	OpUpdate = "update"
)

// Write outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeConflict = "conflict"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// TraceEvent records one write the engine sent to the backend.
type TraceEvent struct {
	Seq       int      `json:"seq"`
	Step      int      `json:"step"`
	Kind      string   `json:"kind"`
	Operation string   `json:"operation"`
	Key       string   `json:"key"`
	Actions   []string `json:"actions,omitempty"`
	Outcome   string   `json:"outcome"`
}

// StepResult is the outcome of one step.
type StepResult struct {
	stats.Snapshot
	Failures []string `json:"failures,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if all step expectations and assertions match.
	Pass bool `json:"pass"`

	// Trace contains all writes in order.
	Trace []TraceEvent `json:"trace"`

	// Steps holds one entry per executed step.
	Steps []StepResult `json:"steps"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// State is the catalog after the last step.
	State catalog.State `json:"state"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// addWrite appends a write to the trace, numbering it.
func (r *Result) addWrite(ev TraceEvent) {
	ev.Seq = len(r.Trace) + 1
	r.Trace = append(r.Trace, ev)
}
