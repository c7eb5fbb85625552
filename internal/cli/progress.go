package cli

import (
	"context"
	"fmt"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"

	"github.com/minhle/prodcat/internal/catalog"
	"github.com/minhle/prodcat/internal/models"
)

// Theme holds the color scheme for the progress display.
type Theme struct {
	Status  lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Status:  lipgloss.Color("#5FAFD7"), // light blue
	Success: lipgloss.Color("#00D787"), // green
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) completedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// snapshotMsg carries a fresh product snapshot from the running engine.
type snapshotMsg []models.Product

// runDoneMsg signals the end of the processing run.
type runDoneMsg struct {
	result catalog.RunResult
	err    error
}

// processModel is the bubbletea model for a processing run.
type processModel struct {
	eligible map[string]bool
	total    int
	products []models.Product
	progress progress.Model
	theme    Theme
	done     bool
	quitting bool
	err      error
}

// newProcessModel creates a model tracking the given eligible set.
func newProcessModel(eligible []models.Product) processModel {
	prog := progress.New(
		progress.WithDefaultBlend(),
		progress.WithWidth(40),
	)

	return processModel{
		eligible: eligibleSet(eligible),
		total:    len(eligible),
		products: eligible,
		progress: prog,
		theme:    defaultTheme,
	}
}

// Init returns the initial command.
func (m processModel) Init() tea.Cmd {
	return m.progress.Init()
}

// Update handles messages and returns the updated model.
func (m processModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}

	case snapshotMsg:
		m.products = msg
		return m, nil

	case runDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the progress display.
func (m processModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m processModel) renderContent() string {
	if m.done {
		return m.finalView()
	}

	completed, failed := terminalCount(m.products, m.eligible)
	var pct float64
	if m.total > 0 {
		pct = float64(completed+failed) / float64(m.total)
	}

	status := m.theme.statusStyle().Render("[processing]")
	bar := m.progress.ViewAs(pct)
	counts := fmt.Sprintf("%d/%d products", completed+failed, m.total)

	out := fmt.Sprintf("%s %s %s\n\n", status, bar, counts)
	for _, p := range m.products {
		if !m.eligible[p.ID] {
			continue
		}
		out += fmt.Sprintf("  %s %s\n", m.itemMark(p), p.Name)
	}
	out += "\n" + m.theme.hintStyle().Render("Press Ctrl+C to stop watching (the run keeps going)") + "\n"
	return out
}

func (m processModel) itemMark(p models.Product) string {
	switch p.Status {
	case models.StatusCompleted:
		return m.theme.completedStyle().Render("✓")
	case models.StatusError:
		return m.theme.errorStyle().Render("✗")
	case models.StatusProcessing:
		return m.theme.statusStyle().Render("…")
	default:
		return "·"
	}
}

// finalView renders the completion message.
func (m processModel) finalView() string {
	completed, failed := terminalCount(m.products, m.eligible)

	var out string
	if failed == 0 && m.err == nil {
		out = m.theme.completedStyle().Render("✓ Completed") + "\n\n"
	} else {
		out = m.theme.errorStyle().Render("✗ Completed with errors") + "\n\n"
	}
	out += fmt.Sprintf("  Described: %d\n", completed)
	if failed > 0 {
		out += fmt.Sprintf("  Errors:    %d\n", failed)
		for _, p := range m.products {
			if m.eligible[p.ID] && p.Status == models.StatusError {
				out += fmt.Sprintf("  • %s: %s\n", p.Name, p.ErrorMessage)
			}
		}
	}
	return out
}

// runProcessProgress drives the engine in the background and renders its
// published snapshots in an interactive progress UI.
func runProcessProgress(ctx context.Context, sess *catalog.Session, proc *catalog.Processor, eligible []models.Product) error {
	model := newProcessModel(eligible)
	p := tea.NewProgram(model)

	go func() {
		result, err := sess.Process(ctx, proc, func(snapshot []models.Product) {
			p.Send(snapshotMsg(snapshot))
		})
		p.Send(runDoneMsg{result: result, err: err})
	}()

	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("progress UI error: %w", err)
	}

	if m, ok := finalModel.(processModel); ok {
		// Ctrl+C only stops watching; the run itself is not an error
		if m.quitting {
			return nil
		}
		if m.err != nil {
			return fmt.Errorf("processing finished with errors: %w", m.err)
		}
	}
	return nil
}
