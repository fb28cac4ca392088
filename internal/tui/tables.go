package tui

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/felixgeelhaar/fctl/internal/domain/backup"
	"github.com/felixgeelhaar/fctl/internal/domain/doctor"
	"github.com/felixgeelhaar/fctl/internal/domain/install"
	"github.com/felixgeelhaar/fctl/internal/runtime"
)

// newTable creates a table writer with the house styling.
func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	return t
}

// RenderServices writes the compose services as a table.
func RenderServices(w io.Writer, services []runtime.Service) {
	t := newTable(w)
	t.AppendHeader(table.Row{"SERVICE", "STATE", "HEALTH"})
	for _, svc := range services {
		health := svc.Health
		if health == "" {
			health = "-"
		}
		t.AppendRow(table.Row{svc.Name, colorState(svc.State), health})
	}
	t.Render()
}

// RenderDoctor writes the diagnostic results as a table, one check per
// row with its severity, detail, and suggestion.
func RenderDoctor(w io.Writer, report *doctor.Report) {
	t := newTable(w)
	t.AppendHeader(table.Row{"", "CHECK", "DETAIL", "SUGGESTION"})
	for _, res := range report.Results {
		t.AppendRow(table.Row{
			colorSeverity(res.Severity),
			DisplayName(res.Name),
			res.Detail,
			res.Suggestion,
		})
	}
	t.Render()
}

// RenderBackups writes the stored backup sets as a table, newest first.
func RenderBackups(w io.Writer, sets []backup.Set) {
	t := newTable(w)
	t.AppendHeader(table.Row{"STAMP", "ID", "AGE", "FILES"})
	for _, set := range sets {
		t.AppendRow(table.Row{set.Stamp, set.ID, FormatAge(set.CreatedAt), len(set.Files)})
	}
	t.Render()
}

// RenderInstallReport writes the step results of an install run as a
// table. Used on non-interactive terminals where the progress display
// cannot run.
func RenderInstallReport(w io.Writer, report *install.RunReport) {
	t := newTable(w)
	t.AppendHeader(table.Row{"#", "STEP", "OUTCOME", "DURATION"})
	for _, res := range report.Results {
		t.AppendRow(table.Row{
			res.Ordinal,
			DisplayName(res.ID),
			colorOutcome(res.Outcome),
			FormatDuration(res.Duration),
		})
	}
	t.Render()
}

func colorState(state string) string {
	switch state {
	case "running":
		return text.FgGreen.Sprint(state)
	case "restarting", "paused", "created":
		return text.FgYellow.Sprint(state)
	default:
		return text.FgRed.Sprint(state)
	}
}

func colorSeverity(s doctor.Severity) string {
	label := SeverityIcon(s) + " " + s.String()
	switch s {
	case doctor.SeverityPass:
		return text.FgGreen.Sprint(label)
	case doctor.SeverityWarn:
		return text.FgYellow.Sprint(label)
	default:
		return text.FgRed.Sprint(label)
	}
}

func colorOutcome(o install.Outcome) string {
	switch o {
	case install.OutcomeApplied, install.OutcomeSatisfied:
		return text.FgGreen.Sprint(string(o))
	case install.OutcomeSkipped:
		return text.FgYellow.Sprint(string(o))
	default:
		return text.FgRed.Sprint(string(o))
	}
}
