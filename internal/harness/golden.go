package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/catalogsync/internal/canonical"
)

// TraceSnapshot captures the writes and per-step outcome of a scenario.
// Backend ids and timings are left out, so snapshots are stable across runs.
type TraceSnapshot struct {
	ScenarioName string         `json:"scenario_name"`
	Steps        []StepSnapshot `json:"steps"`
	Trace        []TraceEvent   `json:"trace"`
}

// StepSnapshot is the id- and time-free part of a StepResult.
type StepSnapshot struct {
	Kind     string   `json:"kind"`
	Created  int      `json:"created"`
	Updated  int      `json:"updated"`
	UpToDate int      `json:"up_to_date"`
	Failed   int      `json:"failed"`
	Waiting  int      `json:"waiting"`
	Failures []string `json:"failures,omitempty"`
}

// Snapshot builds the golden form of result.
func Snapshot(name string, result *Result) TraceSnapshot {
	s := TraceSnapshot{ScenarioName: name, Steps: []StepSnapshot{}, Trace: result.Trace}
	for _, st := range result.Steps {
		s.Steps = append(s.Steps, StepSnapshot{
			Kind:     st.Kind,
			Created:  st.Created,
			Updated:  st.Updated,
			UpToDate: st.UpToDate,
			Failed:   st.Failed,
			Waiting:  st.Waiting,
			Failures: st.Failures,
		})
	}
	return s
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can check Pass, or an error if the scenario
// could not run.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares the snapshot of an existing result against a golden
// file without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := canonical.Marshal(Snapshot(scenarioName, result))
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
