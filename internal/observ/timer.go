package observ

import (
	"time"

	"kestrel/internal/buffer"
	"kestrel/internal/vector"
)

// Phase records the duration and metadata of one step (check, eval, a
// benchmark workload).
type Phase struct {
	Name  string
	Start time.Time
	Dur   time.Duration
	Note  string
}

// Timer tracks the execution time of several phases.
type Timer struct {
	phases *vector.Vector[Phase]
}

// NewTimer creates a new empty Timer.
func NewTimer() *Timer { return &Timer{phases: vector.NewCap[Phase](8)} }

// Begin starts a new phase and returns its index.
func (t *Timer) Begin(name string) int {
	t.phases.Push(Phase{Name: name, Start: time.Now()})
	return t.phases.Len() - 1
}

// End finishes a phase by its index. Unknown indexes are ignored.
func (t *Timer) End(idx int, note string) {
	p, err := t.phases.Get(idx)
	if err != nil {
		return
	}
	p.Dur = time.Since(p.Start)
	p.Note = note
	_ = t.phases.Set(idx, p)
}

// Record adds an already measured phase.
func (t *Timer) Record(name string, dur time.Duration, note string) {
	t.phases.Push(Phase{Name: name, Start: time.Now().Add(-dur), Dur: dur, Note: note})
}

// Summary returns a human-readable table of all phases.
func (t *Timer) Summary() string {
	report := t.Report()
	out := buffer.New()
	_, _ = out.WriteString("timings:\n")
	for _, p := range report.Phases {
		out.Printf("  %-20s %9.3f ms", p.Name, p.DurationMS)
		if p.Note != "" {
			out.Printf("  // %s", p.Note)
		}
		out.AppendByte('\n')
	}
	out.Printf("  %-20s %9.3f ms\n", "total", report.TotalMS)
	return out.Body()
}

// PhaseReport is the serialisable form of a phase.
type PhaseReport struct {
	Name       string  `json:"name" msgpack:"name"`
	DurationMS float64 `json:"duration_ms" msgpack:"duration_ms"`
	Note       string  `json:"note,omitempty" msgpack:"note,omitempty"`
}

// Report aggregates all phases.
type Report struct {
	TotalMS float64       `json:"total_ms" msgpack:"total_ms"`
	Phases  []PhaseReport `json:"phases" msgpack:"phases"`
}

// Report builds the phase list and total duration in milliseconds.
func (t *Timer) Report() Report {
	if t.phases.Len() == 0 {
		return Report{}
	}
	report := Report{Phases: make([]PhaseReport, 0, t.phases.Len())}
	var total time.Duration
	for _, phase := range t.phases.All() {
		total += phase.Dur
		report.Phases = append(report.Phases, PhaseReport{
			Name:       phase.Name,
			DurationMS: durationToMillis(phase.Dur),
			Note:       phase.Note,
		})
	}
	report.TotalMS = durationToMillis(total)
	return report
}

func durationToMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
