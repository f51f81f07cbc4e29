package doctor

import (
	"time"

	"k8s.io/utils/clock"
)

// Check is a single diagnostic.
type Check interface {
	Name() string
	Category() string
	Run() *CheckResult
}

// Runner runs checks in registration order.
type Runner struct {
	checks []Check
	clock  clock.PassiveClock
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithClock sets the clock used to stamp reports.
func WithClock(c clock.PassiveClock) RunnerOption {
	return func(r *Runner) { r.clock = c }
}

// NewRunner returns a Runner with no checks.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{clock: clock.RealClock{}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// AddCheck registers c.
func (r *Runner) AddCheck(c Check) {
	r.checks = append(r.checks, c)
}

// Run executes every check. Results keep registration order.
func (r *Runner) Run() *DoctorReport {
	report := &DoctorReport{
		Timestamp: r.clock.Now().UTC(),
		Results:   make([]*CheckResult, 0, len(r.checks)),
	}
	for _, c := range r.checks {
		result := c.Run()
		report.Results = append(report.Results, result)
		report.Summary.add(result.Status)
	}
	return report
}

// Fixers returns the checks whose last Run found something they can
// repair.
func (r *Runner) Fixers() []Fixer {
	var fixers []Fixer
	for _, c := range r.checks {
		if f, ok := c.(Fixer); ok && f.CanFix() {
			fixers = append(fixers, f)
		}
	}
	return fixers
}

// DoctorReport is the outcome of one Runner.Run.
type DoctorReport struct {
	Timestamp time.Time      `json:"timestamp"`
	Results   []*CheckResult `json:"results"`
	Summary   Summary        `json:"summary"`
}

// HasErrors reports whether any check failed. cback doctor exits 2.
func (r *DoctorReport) HasErrors() bool {
	return r.Summary.Errors > 0
}

// HasWarnings reports whether any check warned. cback doctor exits 1 when
// there are warnings but no errors.
func (r *DoctorReport) HasWarnings() bool {
	return r.Summary.Warnings > 0
}
