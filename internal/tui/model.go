package tui

import (
	"fmt"
	"os"
	"strings"
	"time"

	"junctionmirror/internal/domain"
	appErrors "junctionmirror/internal/errors"
	"junctionmirror/internal/presentation"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Phase represents the current state of the TUI
type Phase int

const (
	PhasePlanning Phase = iota
	PhaseConfirm
	PhaseExecuting
	PhaseDone
	PhaseError
)

// Messages for the TUI
type (
	PlanReadyMsg struct {
		Plan domain.MirrorPlan
	}
	PlanProgressMsg struct {
		Current int
		Total   int
	}
	ExecProgressMsg struct {
		Current int
		Total   int
		Action  domain.MirrorAction
	}
	ExecDoneMsg struct {
		Report domain.MirrorReport
	}
	ErrorMsg struct {
		Err error
	}
	ConfirmMsg struct{ Confirmed bool }
	tickMsg    time.Time
)

// ExecuteFunc starts applying the plan. It should run in a goroutine and send
// progress and done messages to the program.
type ExecuteFunc func(plan domain.MirrorPlan, relinkStale bool) tea.Cmd

type Config struct {
	SourceDir string
	TargetDir string
	DryRun    bool
	Verbose   bool
	AssumeYes bool
	Execute   ExecuteFunc
}

type Model struct {
	config           Config
	Phase            Phase
	Plan             domain.MirrorPlan
	Report           domain.MirrorReport
	RelinkConfirmed  bool
	spinner          spinner.Model
	progress         progress.Model
	planCurrent      int
	planTotal        int
	execCurrent      int
	execTotal        int
	currentAction    string
	confirmSelection bool // true = yes, false = no
	Err              error
	Quitting         bool
	width            int
	height           int
}

func NewModel(cfg Config) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	p := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(50),
		progress.WithoutPercentage(),
	)

	return Model{
		config:   cfg,
		Phase:    PhasePlanning,
		spinner:  s,
		progress: p,
		width:    80,
		height:   24,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = min(msg.Width-20, 60)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.Quitting = true
			return m, tea.Quit
		case "left", "h", "y", "Y":
			if m.Phase == PhaseConfirm {
				m.confirmSelection = true
			}
		case "right", "l", "n", "N":
			if m.Phase == PhaseConfirm {
				m.confirmSelection = false
			}
		case "enter":
			if m.Phase == PhaseConfirm {
				confirmed := m.confirmSelection
				return m, func() tea.Msg {
					return ConfirmMsg{Confirmed: confirmed}
				}
			}
			if m.Phase == PhaseDone || m.Phase == PhaseError {
				return m, tea.Quit
			}
		}

	case PlanProgressMsg:
		m.planCurrent = msg.Current
		m.planTotal = msg.Total
		return m, nil

	case PlanReadyMsg:
		m.Plan = msg.Plan
		switch {
		case m.config.DryRun:
			m.Phase = PhaseDone
		case len(m.Plan.StaleLinks) > 0 && !m.config.AssumeYes:
			m.Phase = PhaseConfirm
		default:
			return m.startExecution(m.config.AssumeYes)
		}
		return m, nil

	case ConfirmMsg:
		return m.startExecution(msg.Confirmed)

	case ExecProgressMsg:
		m.execCurrent = msg.Current
		m.execTotal = msg.Total
		m.currentAction = presentation.FormatAction(m.Plan.SourceRoot, msg.Action)
		return m, nil

	case ExecDoneMsg:
		m.Phase = PhaseDone
		m.Report = msg.Report
		return m, nil

	case ErrorMsg:
		m.Phase = PhaseError
		m.Err = msg.Err
		return m, nil

	case spinner.TickMsg:
		if m.Phase == PhasePlanning || m.Phase == PhaseExecuting {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd

	case tickMsg:
		if m.Phase == PhaseExecuting {
			var cmds []tea.Cmd
			if m.execTotal > 0 {
				cmds = append(cmds, m.progress.SetPercent(float64(m.execCurrent)/float64(m.execTotal)))
			}
			cmds = append(cmds, tickCmd(), m.spinner.Tick)
			return m, tea.Batch(cmds...)
		}
	}

	return m, nil
}

func (m Model) startExecution(relinkStale bool) (tea.Model, tea.Cmd) {
	m.RelinkConfirmed = relinkStale && len(m.Plan.StaleLinks) > 0
	m.Phase = PhaseExecuting
	m.execTotal = len(m.Plan.Actions)
	if m.config.Execute != nil {
		return m, tea.Batch(tickCmd(), m.spinner.Tick, m.config.Execute(m.Plan, relinkStale))
	}
	return m, nil
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*100, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) View() string {
	if m.Quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	switch m.Phase {
	case PhasePlanning:
		b.WriteString(m.renderPlanning())
	case PhaseConfirm:
		b.WriteString(m.renderPreview())
		b.WriteString("\n")
		b.WriteString(m.renderConfirmPrompt())
	case PhaseExecuting:
		b.WriteString(m.renderPreview())
		b.WriteString("\n")
		b.WriteString(m.renderExecution())
	case PhaseDone:
		b.WriteString(m.renderPreview())
		if !m.config.DryRun {
			b.WriteString("\n")
			b.WriteString(m.renderCompletion())
		}
	case PhaseError:
		b.WriteString(m.renderError())
	}

	b.WriteString("\n")
	b.WriteString(m.renderHelp())

	return b.String()
}

func (m Model) renderHeader() string {
	title := titleStyle.Render(iconLink + " junctionmirror")
	subtitle := subtitleStyle.Render("Linked mirror of an engine tree")

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		subtitle,
		"",
		dimStyle.Render(fmt.Sprintf("%s Source: %s", iconFolder, shortenPath(m.config.SourceDir))),
		dimStyle.Render(fmt.Sprintf("%s Target: %s", iconFolder, shortenPath(m.config.TargetDir))),
	)
}

func (m Model) renderPlanning() string {
	if m.planTotal > 0 {
		percent := float64(m.planCurrent) / float64(m.planTotal)
		countStyle := lipgloss.NewStyle().Foreground(primaryColor).Bold(true)

		return fmt.Sprintf("%s Selecting plugin strategies...\n\n  %s\n  %s %s",
			m.spinner.View(),
			m.progress.ViewAs(percent),
			countStyle.Render(fmt.Sprintf("%d/%d plugins", m.planCurrent, m.planTotal)),
			dimStyle.Render(fmt.Sprintf("(%.0f%%)", percent*100)),
		)
	}
	return fmt.Sprintf("%s Scanning source tree...", m.spinner.View())
}

func (m Model) renderPreview() string {
	var b strings.Builder

	b.WriteString(sectionStyle.Render("Plan"))
	b.WriteString("\n\n")

	if len(m.Plan.Actions) == 0 {
		b.WriteString(dimStyle.Render("  Nothing to mirror"))
		b.WriteString("\n")
	} else {
		for _, line := range formatActionList(m.Plan, 4) {
			b.WriteString("  ")
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	if len(m.Plan.StaleLinks) > 0 {
		b.WriteString("\n")
		b.WriteString(warningStyle.Render(fmt.Sprintf("%s Stale links (%d)", iconStale, len(m.Plan.StaleLinks))))
		b.WriteString("\n\n")
		for i, stale := range m.Plan.StaleLinks {
			if i >= 4 {
				b.WriteString(fmt.Sprintf("  ... and %d more\n", len(m.Plan.StaleLinks)-4))
				break
			}
			b.WriteString(fmt.Sprintf("  %s %s %s %s\n",
				warningStyle.Render(iconStale),
				pathStyle.Render(stale.Action.Target),
				iconArrow,
				dimStyle.Render(stale.Describe()),
			))
		}
	}

	b.WriteString("\n")
	b.WriteString(m.renderSummary())

	if m.config.Verbose && len(m.Plan.Warnings) > 0 {
		b.WriteString("\n\n")
		b.WriteString(warningStyle.Render("Warnings:"))
		b.WriteString("\n")
		for _, w := range m.Plan.Warnings {
			b.WriteString(fmt.Sprintf("  %s %s\n", iconStale, w))
		}
	}

	return b.String()
}

func (m Model) renderSummary() string {
	var b strings.Builder

	b.WriteString(sectionStyle.Render("Summary"))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("  %s  %s\n", statLabelStyle.Render("Plugins:"), statValueStyle.Render(fmt.Sprintf("%d", len(m.Plan.Plugins)))))
	b.WriteString(fmt.Sprintf("  %s  %s\n", statLabelStyle.Render("Links:"), linkStyle.Render(fmt.Sprintf("%s %d", iconLink, m.Plan.Count(domain.LinkWhole)))))
	b.WriteString(fmt.Sprintf("  %s  %s\n", statLabelStyle.Render("Directories:"), linkStyle.Render(fmt.Sprintf("%s %d", iconDir, m.Plan.Count(domain.MaterializeAndDescend)))))
	b.WriteString(fmt.Sprintf("  %s  %s\n", statLabelStyle.Render("File copies:"), copyStyle.Render(fmt.Sprintf("%s %d", iconCopy, m.Plan.Count(domain.CopyFile)))))
	b.WriteString(fmt.Sprintf("  %s  %s\n", statLabelStyle.Render("Extra trees:"), copyStyle.Render(fmt.Sprintf("%s %d", iconCopy, m.Plan.Count(domain.CopyTree)))))
	b.WriteString(fmt.Sprintf("  %s  %s\n", statLabelStyle.Render("Empty directories:"), dimStyle.Render(fmt.Sprintf("%s %d", iconSkipped, len(m.Plan.EmptyLeaves)))))

	if m.config.DryRun {
		b.WriteString("\n")
		b.WriteString(highlightBoxStyle.Render("Dry Run - nothing was linked or copied"))
	}

	return b.String()
}

func (m Model) renderConfirmPrompt() string {
	prompt := confirmPromptStyle.Render(fmt.Sprintf("Replace %d stale links?", len(m.Plan.StaleLinks)))

	var yesBtn, noBtn string
	if m.confirmSelection {
		yesBtn = highlightBoxStyle.
			Background(lipgloss.Color("#2D5A27")).
			Render(" Yes ")
		noBtn = boxStyle.Render(" No ")
	} else {
		yesBtn = boxStyle.Render(" Yes ")
		noBtn = highlightBoxStyle.
			Background(lipgloss.Color("#5A2727")).
			Render(" No ")
	}

	buttons := lipgloss.JoinHorizontal(lipgloss.Center, yesBtn, "  ", noBtn)

	return lipgloss.JoinVertical(lipgloss.Left, prompt, "", buttons)
}

func (m Model) renderExecution() string {
	var b strings.Builder

	b.WriteString(sectionStyle.Render("Mirroring"))
	b.WriteString("\n\n")

	percent := 0.0
	if m.execTotal > 0 {
		percent = float64(m.execCurrent) / float64(m.execTotal)
	}

	b.WriteString(fmt.Sprintf("  %s Applying actions...\n\n", m.spinner.View()))
	b.WriteString(fmt.Sprintf("  %s\n", m.progress.ViewAs(percent)))

	countStyle := lipgloss.NewStyle().Foreground(primaryColor).Bold(true)
	b.WriteString(fmt.Sprintf("  %s %s\n",
		countStyle.Render(fmt.Sprintf("%d/%d actions", m.execCurrent, m.execTotal)),
		dimStyle.Render(fmt.Sprintf("(%.0f%%)", percent*100)),
	))

	if m.currentAction != "" {
		b.WriteString(fmt.Sprintf("\n  %s %s\n", iconArrow, pathStyle.Render(m.currentAction)))
	}

	return b.String()
}

func (m Model) renderCompletion() string {
	var b strings.Builder
	r := m.Report

	b.WriteString(sectionStyle.Render("Mirror Complete"))
	b.WriteString("\n\n")

	if r.HasFailures() {
		b.WriteString(fmt.Sprintf("  %s %s\n\n", errorStyle.Render(iconError),
			errorStyle.Render(fmt.Sprintf("Finished with %d failures, run again to retry", len(r.Failures)))))
	} else {
		b.WriteString(fmt.Sprintf("  %s %s\n\n", successStyle.Render(iconSuccess), successStyle.Render("Mirror completed successfully!")))
	}

	b.WriteString(fmt.Sprintf("  %s  %s\n", statLabelStyle.Render("Linked:"), linkStyle.Render(fmt.Sprintf("%s %d", iconLink, r.Linked))))
	b.WriteString(fmt.Sprintf("  %s  %s\n", statLabelStyle.Render("Already linked:"), dimStyle.Render(fmt.Sprintf("%s %d", iconSkipped, r.AlreadyLinked))))
	b.WriteString(fmt.Sprintf("  %s  %s\n", statLabelStyle.Render("Directories created:"), linkStyle.Render(fmt.Sprintf("%s %d", iconDir, r.Materialized))))
	b.WriteString(fmt.Sprintf("  %s  %s\n", statLabelStyle.Render("Files copied:"), copyStyle.Render(fmt.Sprintf("%s %d", iconCopy, r.Copied))))
	b.WriteString(fmt.Sprintf("  %s  %s\n", statLabelStyle.Render("Unchanged:"), dimStyle.Render(fmt.Sprintf("%s %d", iconSkipped, r.Unchanged))))

	if m.RelinkConfirmed {
		b.WriteString(fmt.Sprintf("  %s  %s\n", statLabelStyle.Render("Links replaced:"), warningStyle.Render(fmt.Sprintf("%s %d", iconStale, r.Relinked))))
	}

	for i, failure := range r.Failures {
		if i >= 4 {
			b.WriteString(fmt.Sprintf("  ... and %d more\n", len(r.Failures)-4))
			break
		}
		b.WriteString(fmt.Sprintf("  %s %s\n", errorStyle.Render(iconError), appErrors.UserMessage(failure.Err)))
	}

	return b.String()
}

func (m Model) renderError() string {
	icon := errorStyle.Render(iconError)
	msg := errorStyle.Render(fmt.Sprintf("Error: %s", appErrors.UserMessage(m.Err)))

	return highlightBoxStyle.
		BorderForeground(palette.failure).
		Render(fmt.Sprintf("%s %s", icon, msg))
}

func (m Model) renderHelp() string {
	var help string
	switch m.Phase {
	case PhasePlanning:
		help = "Press q to quit"
	case PhaseConfirm:
		help = "← → or y/n to select • Enter to confirm • q to quit"
	case PhaseExecuting:
		help = "Mirroring... Please wait"
	case PhaseDone:
		help = "Press Enter to exit"
	case PhaseError:
		help = "Press Enter or q to exit"
	}
	return helpStyle.Render(help)
}

// formatActionList shows the first and last actions of the plan.
func formatActionList(plan domain.MirrorPlan, maxItems int) []string {
	actions := plan.Actions
	if len(actions) == 0 {
		return []string{}
	}

	lines := make([]string, 0, min(len(actions), maxItems+1))
	if len(actions) > maxItems {
		half := maxItems / 2
		for i := 0; i < half; i++ {
			lines = append(lines, formatActionItem(plan, actions[i]))
		}
		lines = append(lines, dimStyle.Render(fmt.Sprintf("... %d more actions ...", len(actions)-maxItems)))
		for i := len(actions) - half; i < len(actions); i++ {
			lines = append(lines, formatActionItem(plan, actions[i]))
		}
		return lines
	}

	for _, action := range actions {
		lines = append(lines, formatActionItem(plan, action))
	}
	return lines
}

func formatActionItem(plan domain.MirrorPlan, action domain.MirrorAction) string {
	icon, style := iconCopy, copyStyle
	switch action.Kind {
	case domain.LinkWhole:
		icon, style = iconLink, linkStyle
	case domain.MaterializeAndDescend:
		icon, style = iconDir, linkStyle
	}
	return fmt.Sprintf("%s %s", icon, style.Render(presentation.FormatAction(plan.SourceRoot, action)))
}

// shortenPath replaces the home directory prefix with ~ for display
func shortenPath(path string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if strings.HasPrefix(path, home) {
		return "~" + path[len(home):]
	}
	return path
}
