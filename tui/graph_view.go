package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/pipedrive/viz"
)

func (m Model) renderGraphView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("GRAPH VIEW"))
	s.WriteString("\n\n")

	switch {
	case m.err != nil:
		s.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	case m.graphDOT == "":
		s.WriteString("Nothing to graph\n")
	default:
		s.WriteString(lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Render(m.graphDOT))
	}

	s.WriteString("\n\n")
	s.WriteString(m.renderGraphHelp())

	return s.String()
}

func (m Model) renderGraphHelp() string {
	help := []string{
		"Esc: Back",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleGraphKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if m.selected != nil {
			m.viewMode = ViewDetail
		} else {
			m.viewMode = ViewBoard
		}
		m.graphDOT = ""
		m.err = nil
	}

	return m, nil
}

// generateGraph renders the selected deal's organization when there is one,
// otherwise the current pipeline.
func (m *Model) generateGraph() error {
	generator := viz.NewGraphGenerator(m.reg)
	ctx := context.Background()

	var dot string
	var err error

	switch {
	case m.selected != nil && m.selected.Org() != nil:
		dot, err = generator.GenerateOrgGraph(ctx, m.selected.Org().ID())
	case len(m.pipelines) > 0:
		dot, err = generator.GeneratePipelineGraph(ctx, m.pipelines[m.pipelineIdx].ID())
	}

	if err != nil {
		return err
	}

	m.graphDOT = dot
	return nil
}
