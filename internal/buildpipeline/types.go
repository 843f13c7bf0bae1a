package buildpipeline

import (
	"time"

	"fieldhash/internal/fingerprint"
)

// Stage describes a pipeline phase.
type Stage string

const (
	StageFingerprint Stage = "fingerprint"
	StageCompare     Stage = "compare"
	StageStore       Stage = "store"
)

// Status captures progress state within a stage.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

// Event reports progress for a target (or for the whole run when Target is empty).
type Event struct {
	Target  string
	Stage   Stage
	Status  Status
	Change  Change // set on the final done event of a target
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events. Implementations must be goroutine-safe.
type ProgressSink interface {
	OnEvent(Event)
}

// Change classifies a target against its stored record.
type Change string

const (
	ChangeNew       Change = "new"
	ChangeChanged   Change = "changed"
	ChangeUnchanged Change = "unchanged"
)

// TargetResult is the outcome for one target.
type TargetResult struct {
	Address     string
	Kind        string
	Fingerprint fingerprint.Digest            // Absent when no field contributed
	Fields      map[string]fingerprint.Digest // per field key
	Change      Change
	Previous    fingerprint.Digest // stored fingerprint, "" for new targets
	// ChangedFields lists keys whose digest differs from the stored record,
	// including keys that appeared or disappeared. Sorted.
	ChangedFields []string
	Stored        bool
}

// Counts tallies results by change.
type Counts struct {
	New       uint32
	Changed   uint32
	Unchanged uint32
}

// Timings holds stage durations.
type Timings struct {
	stages map[Stage]time.Duration
}

// Set stores a duration for the given stage.
func (t *Timings) Set(stage Stage, dur time.Duration) {
	if t == nil {
		return
	}
	if t.stages == nil {
		t.stages = make(map[Stage]time.Duration)
	}
	t.stages[stage] = dur
}

func (t Timings) Has(stage Stage) bool {
	_, ok := t.stages[stage]
	return ok
}

func (t Timings) Duration(stage Stage) time.Duration {
	return t.stages[stage]
}

// Sum returns the sum of durations across the provided stages.
func (t Timings) Sum(stages ...Stage) time.Duration {
	var total time.Duration
	for _, stage := range stages {
		total += t.stages[stage]
	}
	return total
}
