// Package doctor runs read-only diagnostics against a facilitator host
// and reports what a deploy would trip over.
package doctor

import (
	"context"

	"github.com/felixgeelhaar/fctl/internal/ports"
)

// Severity grades a check result.
type Severity int

const (
	// SeverityPass means the check found nothing wrong.
	SeverityPass Severity = iota
	// SeverityWarn means the check could not fully judge the host.
	SeverityWarn
	// SeverityFail means the check found a problem that needs fixing.
	SeverityFail
)

// String returns the severity label.
func (s Severity) String() string {
	switch s {
	case SeverityPass:
		return "pass"
	case SeverityWarn:
		return "warn"
	case SeverityFail:
		return "fail"
	default:
		return "unknown"
	}
}

// Result is the outcome of one check.
type Result struct {
	Name       string
	Severity   Severity
	Detail     string
	Suggestion string
}

// Check is one named diagnostic.
type Check interface {
	Name() string
	Run(ctx context.Context) Result
}

// Report collects every check result from a doctor run.
type Report struct {
	Results []Result
}

// Counts returns how many checks passed, warned, and failed.
func (r Report) Counts() (pass, warn, fail int) {
	for _, res := range r.Results {
		switch res.Severity {
		case SeverityPass:
			pass++
		case SeverityWarn:
			warn++
		case SeverityFail:
			fail++
		}
	}
	return pass, warn, fail
}

// Failed reports whether any check failed.
func (r Report) Failed() bool {
	_, _, fail := r.Counts()
	return fail > 0
}

// Doctor runs a fixed list of checks in order.
type Doctor struct {
	logger ports.Logger
	checks []Check
}

// New creates a doctor over the given checks.
func New(logger ports.Logger, checks ...Check) *Doctor {
	return &Doctor{logger: logger, checks: checks}
}

// Run executes every check. Checks never mutate the host; a failed
// check is reported, not returned as an error.
func (d *Doctor) Run(ctx context.Context) Report {
	report := Report{Results: make([]Result, 0, len(d.checks))}
	for _, c := range d.checks {
		if ctx.Err() != nil {
			break
		}
		d.logger.Debug(ctx, "running check", ports.F("check", c.Name()))
		res := c.Run(ctx)
		if res.Severity != SeverityPass {
			d.logger.Warn(ctx, "check reported a problem",
				ports.F("check", c.Name()),
				ports.F("severity", res.Severity.String()),
				ports.F("detail", res.Detail))
		}
		report.Results = append(report.Results, res)
	}
	return report
}
