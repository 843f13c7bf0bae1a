// Package observ measures how long the steps of a command take.
package observ

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Phase is one measured step.
type Phase struct {
	Name  string
	Start time.Time
	Dur   time.Duration
	Note  string
}

// Timer collects phases. Safe for concurrent use.
type Timer struct {
	mu     sync.Mutex
	phases []Phase
}

func NewTimer() *Timer { return &Timer{phases: make([]Phase, 0, 8)} }

// Begin starts a phase and returns its index for End.
func (t *Timer) Begin(name string) int {
	return t.add(Phase{Name: name, Start: time.Now()})
}

// End finishes a phase by its index and returns its duration.
// Unknown indexes are ignored.
func (t *Timer) End(idx int, note string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if idx < 0 || idx >= len(t.phases) {
		return 0
	}
	p := &t.phases[idx]
	p.Dur, p.Note = time.Since(p.Start), note
	return p.Dur
}

// Record adds a phase measured elsewhere, e.g. a pipeline stage total.
func (t *Timer) Record(name string, dur time.Duration, note string) {
	t.add(Phase{Name: name, Start: time.Now().Add(-dur), Dur: dur, Note: note})
}

func (t *Timer) add(p Phase) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.phases = append(t.phases, p)
	return len(t.phases) - 1
}

// Summary renders the phases as an aligned table.
func (t *Timer) Summary() string {
	report := t.Report()
	var sb strings.Builder
	sb.WriteString("timings:\n")
	row := func(name string, ms float64, note string) {
		fmt.Fprintf(&sb, "  %-20s %9.2f ms", name, ms)
		if note != "" {
			sb.WriteString("  (" + note + ")")
		}
		sb.WriteByte('\n')
	}
	for _, p := range report.Phases {
		row(p.Name, p.DurationMS, p.Note)
	}
	row("total", report.TotalMS, "")
	return sb.String()
}

// PhaseReport is the serializable form of a phase.
type PhaseReport struct {
	Name       string  `json:"name"`
	DurationMS float64 `json:"duration_ms"`
	Note       string  `json:"note,omitempty"`
}

// Report aggregates the timer for JSON output.
type Report struct {
	TotalMS float64       `json:"total_ms"`
	Phases  []PhaseReport `json:"phases"`
}

func (t *Timer) Report() Report {
	t.mu.Lock()
	defer t.mu.Unlock()
	report := Report{Phases: make([]PhaseReport, 0, len(t.phases))}
	var total time.Duration
	for _, p := range t.phases {
		total += p.Dur
		report.Phases = append(report.Phases, PhaseReport{
			Name:       p.Name,
			DurationMS: millis(p.Dur),
			Note:       p.Note,
		})
	}
	report.TotalMS = millis(total)
	return report
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
