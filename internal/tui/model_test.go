package tui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"junctionmirror/internal/domain"
)

func stalePlan() domain.MirrorPlan {
	action := domain.MirrorAction{Kind: domain.LinkWhole, Source: "/src/Engine/Content", Target: "/dst/Engine/Content"}
	return domain.MirrorPlan{
		SourceRoot: "/src",
		TargetRoot: "/dst",
		Actions:    []domain.MirrorAction{action},
		StaleLinks: []domain.StaleLink{{Action: action, CurrentDest: "/old/Engine/Content"}},
	}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model, cmd
}

func TestDryRunPlanGoesStraightToDone(t *testing.T) {
	m := NewModel(Config{DryRun: true})
	m, _ = update(t, m, PlanReadyMsg{Plan: stalePlan()})
	assert.Equal(t, PhaseDone, m.Phase)
	assert.Contains(t, m.View(), "Dry Run")
}

func TestStaleLinksAskForConfirmation(t *testing.T) {
	var gotRelink *bool
	m := NewModel(Config{Execute: func(plan domain.MirrorPlan, relink bool) tea.Cmd {
		gotRelink = &relink
		return nil
	}})

	m, _ = update(t, m, PlanReadyMsg{Plan: stalePlan()})
	require.Equal(t, PhaseConfirm, m.Phase)
	assert.Contains(t, m.View(), "Replace 1 stale links?")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")})
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	msg := cmd()
	require.Equal(t, ConfirmMsg{Confirmed: true}, msg)

	m, _ = update(t, m, msg)
	assert.Equal(t, PhaseExecuting, m.Phase)
	require.NotNil(t, gotRelink)
	assert.True(t, *gotRelink)
	assert.True(t, m.RelinkConfirmed)
}

func TestAssumeYesSkipsConfirmation(t *testing.T) {
	m := NewModel(Config{AssumeYes: true})
	m, _ = update(t, m, PlanReadyMsg{Plan: stalePlan()})
	assert.Equal(t, PhaseExecuting, m.Phase)
}

func TestExecutionProgressAndDone(t *testing.T) {
	plan := stalePlan()
	m := NewModel(Config{AssumeYes: true})
	m, _ = update(t, m, PlanReadyMsg{Plan: plan})

	m, _ = update(t, m, ExecProgressMsg{Current: 1, Total: 1, Action: plan.Actions[0]})
	assert.Contains(t, m.View(), "1/1 actions")
	assert.Contains(t, m.View(), "Engine/Content")

	m, _ = update(t, m, ExecDoneMsg{Report: domain.MirrorReport{Relinked: 1}})
	assert.Equal(t, PhaseDone, m.Phase)
	assert.Contains(t, m.View(), "Mirror completed successfully!")
}

func TestErrorMessageIsShown(t *testing.T) {
	m := NewModel(Config{})
	m, _ = update(t, m, ErrorMsg{Err: errors.New("boom")})
	assert.Equal(t, PhaseError, m.Phase)
	assert.Contains(t, m.View(), "boom")
}
