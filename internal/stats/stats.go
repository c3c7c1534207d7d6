// Package stats accumulates per-run synchronization counters.
//
// Every terminal outcome increments exactly one of created, updated,
// upToDate or failed, so processed always equals their sum. Counters are
// never decremented. All methods are safe for concurrent use.
package stats

import (
	"fmt"
	"sync"
	"time"
)

// Statistics accumulates the outcome of one synchronization run.
type Statistics struct {
	mu       sync.Mutex
	kind     string
	noun     string
	created  int
	updated  int
	upToDate int
	failed   int
	waiting  int
	start    time.Time
	end      time.Time
}

// New creates statistics for kind. noun is the plural used in the summary,
// e.g. "categories".
func New(kind, noun string) *Statistics {
	return &Statistics{kind: kind, noun: noun}
}

// Kind returns the entity kind the statistics describe.
func (s *Statistics) Kind() string { return s.kind }

// IncrementCreated records a created entity.
func (s *Statistics) IncrementCreated() { s.add(&s.created, 1) }

// IncrementUpdated records an updated entity.
func (s *Statistics) IncrementUpdated() { s.add(&s.updated, 1) }

// IncrementUpToDate records a draft that needed no write.
func (s *Statistics) IncrementUpToDate() { s.add(&s.upToDate, 1) }

// IncrementFailed records n failed drafts.
func (s *Statistics) IncrementFailed(n int) { s.add(&s.failed, n) }

// SetWaiting records how many drafts are parked on unresolved dependencies.
func (s *Statistics) SetWaiting(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.waiting = n
}

func (s *Statistics) add(counter *int, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	*counter += n
}

// Start marks the beginning of the run.
func (s *Statistics) Start(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.start = t
}

// Stop marks the end of the run.
func (s *Statistics) Stop(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.end = t
}

// Merge adds o's counters to s. The elapsed window widens to cover both.
func (s *Statistics) Merge(o *Statistics) {
	snap := o.Snapshot()
	o.mu.Lock()
	ostart, oend := o.start, o.end
	o.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.created += snap.Created
	s.updated += snap.Updated
	s.upToDate += snap.UpToDate
	s.failed += snap.Failed
	s.waiting += snap.Waiting
	if s.start.IsZero() || (!ostart.IsZero() && ostart.Before(s.start)) {
		s.start = ostart
	}
	if oend.After(s.end) {
		s.end = oend
	}
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Kind      string        `json:"kind"`
	Processed int           `json:"processed"`
	Created   int           `json:"created"`
	Updated   int           `json:"updated"`
	UpToDate  int           `json:"up_to_date"`
	Failed    int           `json:"failed"`
	Waiting   int           `json:"waiting"`
	Elapsed   time.Duration `json:"elapsed_ns"`
}

// Snapshot returns the current counters.
func (s *Statistics) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	var elapsed time.Duration
	if !s.start.IsZero() && !s.end.IsZero() {
		elapsed = s.end.Sub(s.start)
	}
	return Snapshot{
		Kind:      s.kind,
		Processed: s.created + s.updated + s.upToDate + s.failed,
		Created:   s.created,
		Updated:   s.updated,
		UpToDate:  s.upToDate,
		Failed:    s.failed,
		Waiting:   s.waiting,
		Elapsed:   elapsed,
	}
}

// Processed returns created + updated + upToDate + failed.
func (s *Statistics) Processed() int { return s.Snapshot().Processed }

// Summary returns the one-line run summary.
func (s *Statistics) Summary() string {
	snap := s.Snapshot()
	return fmt.Sprintf("Summary: %d %s were processed in total (%d created, %d updated and %d failed to sync).",
		snap.Processed, s.noun, snap.Created, snap.Updated, snap.Failed)
}

// Report extends Summary with the up-to-date and waiting counts and the
// elapsed time.
func (s *Statistics) Report() string {
	snap := s.Snapshot()
	report := fmt.Sprintf("%s %d %s were already up to date.", s.Summary(), snap.UpToDate, s.noun)
	if snap.Waiting > 0 {
		report += fmt.Sprintf(" %d %s are waiting for referenced %s to be created.", snap.Waiting, s.noun, s.noun)
	}
	return fmt.Sprintf("%s Elapsed: %s.", report, snap.Elapsed.Round(time.Millisecond))
}
