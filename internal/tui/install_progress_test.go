package tui

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"

	"github.com/felixgeelhaar/fctl/internal/domain/install"
)

func TestInstallProgressModel_Init(t *testing.T) {
	t.Parallel()

	model := newInstallProgressModel()
	cmd := model.Init()
	assert.NotNil(t, cmd, "Init should start the spinner")
}

func TestInstallProgressModel_View(t *testing.T) {
	t.Parallel()

	model := newInstallProgressModel()
	view := model.View()

	assert.Contains(t, view, "Provisioning Host")
	assert.Contains(t, view, "Ctrl+C to cancel")
}

func TestInstallProgressModel_StepStart(t *testing.T) {
	t.Parallel()

	model := newInstallProgressModel()

	newModel, _ := model.Update(StepStartMsg{Ordinal: 1, ID: "system-update", Description: "Bring OS packages up to date"})
	m := newModel.(installProgressModel)

	assert.Len(t, m.rows, 1)
	assert.True(t, m.rows[0].running)
	assert.Contains(t, m.View(), "System Update")
	assert.Contains(t, m.View(), "Bring OS packages up to date")
}

func TestInstallProgressModel_StepFinish(t *testing.T) {
	t.Parallel()

	model := newInstallProgressModel()

	newModel, _ := model.Update(StepStartMsg{Ordinal: 1, ID: "system-update"})
	newModel, _ = newModel.(installProgressModel).Update(StepFinishMsg{Result: install.StepResult{
		Ordinal: 1,
		ID:      "system-update",
		Outcome: install.OutcomeSatisfied,
	}})
	m := newModel.(installProgressModel)

	assert.Len(t, m.rows, 1)
	assert.False(t, m.rows[0].running)
	assert.Equal(t, install.OutcomeSatisfied, m.rows[0].outcome)
}

func TestInstallProgressModel_SkippedStepAppendsRow(t *testing.T) {
	t.Parallel()

	model := newInstallProgressModel()

	// A step finishing without a start happens for marker skips.
	newModel, _ := model.Update(StepFinishMsg{Result: install.StepResult{
		Ordinal: 2,
		ID:      "install-runtime",
		Outcome: install.OutcomeSkipped,
	}})
	m := newModel.(installProgressModel)

	assert.Len(t, m.rows, 1)
	assert.Equal(t, install.OutcomeSkipped, m.rows[0].outcome)
	assert.Contains(t, m.View(), "Install Runtime")
}

func TestInstallProgressModel_Done(t *testing.T) {
	t.Parallel()

	model := newInstallProgressModel()
	report := &install.RunReport{
		Completed: true,
		Probed:    true,
		Healthy:   true,
		Results: []install.StepResult{
			{Ordinal: 1, ID: "system-update", Outcome: install.OutcomeSatisfied, Duration: time.Second},
			{Ordinal: 2, ID: "deploy-files", Outcome: install.OutcomeApplied, Duration: time.Second},
		},
	}

	newModel, cmd := model.Update(InstallDoneMsg{Report: report})
	m := newModel.(installProgressModel)

	assert.True(t, m.done)
	assert.NotNil(t, cmd, "should quit once the run is done")

	view := m.View()
	assert.Contains(t, view, "Install complete")
	assert.Contains(t, view, "1 step(s) applied")
	assert.Contains(t, view, "health endpoint")
	assert.NotContains(t, view, "Ctrl+C")
}

func TestInstallProgressModel_DoneWithError(t *testing.T) {
	t.Parallel()

	model := newInstallProgressModel()

	newModel, _ := model.Update(InstallDoneMsg{Err: errors.New("step pull-images failed")})
	m := newModel.(installProgressModel)

	assert.True(t, m.done)
	assert.Contains(t, m.View(), "Install failed")
	assert.Contains(t, m.View(), "pull-images")
}

func TestInstallProgressModel_UnhealthyWarning(t *testing.T) {
	t.Parallel()

	model := newInstallProgressModel()
	report := &install.RunReport{
		Completed: true,
		Probed:    true,
		HealthErr: errors.New("no answer after 30 attempts"),
	}

	newModel, _ := model.Update(InstallDoneMsg{Report: report})
	m := newModel.(installProgressModel)

	assert.Contains(t, m.View(), "not healthy yet")
}

func TestInstallProgressModel_Cancel(t *testing.T) {
	t.Parallel()

	model := newInstallProgressModel()

	newModel, cmd := model.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m := newModel.(installProgressModel)

	assert.True(t, m.cancelled)
	assert.NotNil(t, cmd, "should return quit command")
}

func TestInstallProgressModel_WindowResize(t *testing.T) {
	t.Parallel()

	model := newInstallProgressModel()

	newModel, _ := model.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m := newModel.(installProgressModel)

	assert.Equal(t, 120, m.width)
}
