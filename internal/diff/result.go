package diff

import (
	"go.uber.org/multierr"

	"github.com/roach88/catalogsync/internal/resource"
)

// Result holds the actions of one diff and any non-aborting problems.
type Result struct {
	Actions []resource.Action

	// Warnings combines every non-aborting problem; split it with
	// multierr.Errors.
	Warnings error
}

// Empty reports whether the diff produced no actions.
func (r Result) Empty() bool { return len(r.Actions) == 0 }

func (r *Result) add(actions ...resource.Action) {
	r.Actions = append(r.Actions, actions...)
}

func (r *Result) warn(err error) {
	r.Warnings = multierr.Append(r.Warnings, err)
}
