package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/felixgeelhaar/fctl/internal/domain/install"
)

// StepStartMsg is sent when an installer step starts executing.
type StepStartMsg struct {
	Ordinal     int
	ID          string
	Description string
}

// StepFinishMsg is sent when an installer step finishes.
type StepFinishMsg struct {
	Result install.StepResult
}

// InstallDoneMsg is sent when the whole run has finished.
type InstallDoneMsg struct {
	Report *install.RunReport
	Err    error
}

// InstallRunner executes an install run, reporting step lifecycle
// events to the observer. The harness Install method curried with its
// options satisfies this.
type InstallRunner func(ctx context.Context, obs install.Observer) (*install.RunReport, error)

// progressObserver forwards installer callbacks into the running
// program as messages.
type progressObserver struct {
	program *tea.Program
}

func (o progressObserver) StepStarted(step install.Step) {
	o.program.Send(StepStartMsg{
		Ordinal:     step.Ordinal(),
		ID:          step.ID(),
		Description: step.Description(),
	})
}

func (o progressObserver) StepFinished(result install.StepResult) {
	o.program.Send(StepFinishMsg{Result: result})
}

// stepRow is one rendered line of the progress display.
type stepRow struct {
	ordinal     int
	id          string
	description string
	outcome     install.Outcome
	running     bool
}

// installProgressModel is the Bubble Tea model for install progress.
type installProgressModel struct {
	spinner   spinner.Model
	styles    Styles
	rows      []stepRow
	report    *install.RunReport
	err       error
	done      bool
	cancelled bool
	width     int
}

// newInstallProgressModel creates a fresh progress model.
func newInstallProgressModel() installProgressModel {
	styles := DefaultStyles()
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.Spinner

	return installProgressModel{
		spinner: s,
		styles:  styles,
		width:   80,
	}
}

// Init starts the spinner.
func (m installProgressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages.
func (m installProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.cancelled = true
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case StepStartMsg:
		m.rows = append(m.rows, stepRow{
			ordinal:     msg.Ordinal,
			id:          msg.ID,
			description: msg.Description,
			running:     true,
		})
		return m, nil

	case StepFinishMsg:
		res := msg.Result
		for i := range m.rows {
			if m.rows[i].ordinal == res.Ordinal {
				m.rows[i].running = false
				m.rows[i].outcome = res.Outcome
				return m, nil
			}
		}
		// Skipped steps finish without ever starting.
		m.rows = append(m.rows, stepRow{
			ordinal:     res.Ordinal,
			id:          res.ID,
			description: res.Description,
			outcome:     res.Outcome,
		})
		return m, nil

	case InstallDoneMsg:
		m.done = true
		m.report = msg.Report
		m.err = msg.Err
		return m, tea.Quit
	}

	return m, nil
}

// View renders the model.
func (m installProgressModel) View() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("Provisioning Host"))
	b.WriteString("\n\n")

	for _, row := range m.rows {
		b.WriteString("  ")
		if row.running {
			b.WriteString(m.spinner.View())
		} else {
			b.WriteString(m.renderOutcome(row.outcome))
		}
		b.WriteString(" ")
		b.WriteString(DisplayName(row.id))
		if row.description != "" {
			b.WriteString("  ")
			b.WriteString(m.styles.Help.Render(row.description))
		}
		b.WriteString("\n")
	}

	if m.done {
		b.WriteString("\n")
		b.WriteString(m.summary())
		b.WriteString("\n")
	} else {
		b.WriteString("\n")
		b.WriteString(m.styles.Help.Render("Ctrl+C to cancel"))
	}

	return b.String()
}

// renderOutcome returns the styled icon for a finished step.
func (m installProgressModel) renderOutcome(o install.Outcome) string {
	icon := OutcomeIcon(o)
	switch o {
	case install.OutcomeApplied, install.OutcomeSatisfied:
		return m.styles.Success.Render(icon)
	case install.OutcomeFailed:
		return m.styles.Error.Render(icon)
	default:
		return m.styles.Help.Render(icon)
	}
}

// summary renders the closing line of a finished run.
func (m installProgressModel) summary() string {
	if m.err != nil {
		return m.styles.Error.Render(fmt.Sprintf("Install failed: %v", m.err))
	}
	if m.report == nil {
		return m.styles.Error.Render("Install finished without a report")
	}

	applied := m.report.AppliedCount()
	line := fmt.Sprintf("Install complete: %d step(s) applied, %d total", applied, len(m.report.Results))
	out := m.styles.Success.Render(line)

	if m.report.Probed {
		out += "\n"
		if m.report.Healthy {
			out += m.styles.Success.Render("Facilitator is answering its health endpoint")
		} else {
			out += m.styles.Warning.Render(fmt.Sprintf("Facilitator not healthy yet: %v", m.report.HealthErr))
		}
	}
	return out
}

// RunInstallProgress drives run under an interactive progress display.
// Ctrl+C cancels the run; the installer aborts at its next checkpoint
// and the durable step markers make the next invocation resume there.
func RunInstallProgress(ctx context.Context, run InstallRunner) (*install.RunReport, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := newInstallProgressModel()
	p := tea.NewProgram(model, tea.WithContext(ctx))

	done := make(chan InstallDoneMsg, 1)
	go func() {
		report, err := run(ctx, progressObserver{program: p})
		msg := InstallDoneMsg{Report: report, Err: err}
		done <- msg
		p.Send(msg)
	}()

	finalModel, err := p.Run()
	if err != nil {
		cancel()
		<-done
		return nil, fmt.Errorf("install progress failed: %w", err)
	}

	m, ok := finalModel.(installProgressModel)
	if !ok {
		return nil, fmt.Errorf("unexpected model type")
	}

	if m.cancelled {
		cancel()
		msg := <-done
		return msg.Report, msg.Err
	}
	return m.report, m.err
}
