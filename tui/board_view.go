package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/pipedrive/objects"
)

func (m Model) renderBoardView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("PIPEDRIVE"))
	s.WriteString("\n\n")

	if len(m.pipelines) == 0 {
		s.WriteString("No pipelines loaded\n")
		s.WriteString(m.renderBoardHelp())
		return s.String()
	}

	s.WriteString(m.renderTabs())
	s.WriteString("\n\n")

	s.WriteString(m.renderDealsTable())
	s.WriteString("\n")

	if m.status != "" {
		s.WriteString(statusStyle.Render(m.status))
		s.WriteString("\n")
	}

	s.WriteString(m.renderBoardHelp())

	return s.String()
}

func (m Model) renderTabs() string {
	var rendered []string
	for i, p := range m.pipelines {
		if i == m.pipelineIdx {
			rendered = append(rendered, tabActiveStyle.Render(p.Name()))
		} else {
			rendered = append(rendered, tabInactiveStyle.Render(p.Name()))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

// boardDeals returns the current pipeline's deals grouped by stage in stage order.
// A deal is listed under the stage it is in now, even if an older stage still holds
// it as a back-reference. Deals without a known stage come last.
func (m Model) boardDeals() []*objects.Record {
	if len(m.pipelines) == 0 {
		return nil
	}
	pipeline := m.pipelines[m.pipelineIdx]

	var deals []*objects.Record
	seen := make(map[int64]bool)
	for _, stage := range pipeline.Stages() {
		for _, deal := range stage.Deals() {
			if deal.Stage() != stage || seen[deal.ID()] {
				continue
			}
			seen[deal.ID()] = true
			deals = append(deals, deal)
		}
	}
	for _, deal := range pipeline.Deals() {
		if deal.Pipeline() != pipeline || seen[deal.ID()] {
			continue
		}
		seen[deal.ID()] = true
		deals = append(deals, deal)
	}
	return deals
}

func (m Model) renderDealsTable() string {
	columns := []table.Column{
		{Title: "Stage", Width: 18},
		{Title: "Deal", Width: 30},
		{Title: "Organization", Width: 22},
		{Title: "Person", Width: 18},
		{Title: "Value", Width: 12},
		{Title: "Status", Width: 8},
	}

	var rows []table.Row
	for _, deal := range m.boardDeals() {
		stageName := ""
		if stage := deal.Stage(); stage != nil {
			stageName = stage.Name()
		}
		value := deal.Text("value")
		if currency := deal.Text("currency"); value != "" && currency != "" {
			value += " " + currency
		}
		rows = append(rows, table.Row{
			stageName,
			deal.Name(),
			deal.OrgName(),
			deal.PersonName(),
			value,
			deal.Text("status"),
		})
	}

	height := m.height - 10
	if height < 3 {
		height = 3
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(height),
	)

	if m.selectedRow < len(rows) {
		t.SetCursor(m.selectedRow)
	}

	if len(rows) == 0 {
		return t.View() + "\n" + fmt.Sprintf("No deals loaded for %s", m.pipelines[m.pipelineIdx].Name())
	}
	return t.View()
}

func (m Model) renderBoardHelp() string {
	help := []string{
		"↑/↓: Navigate",
		"Tab: Next pipeline",
		"Enter: Deal details",
		"g: Pipeline graph",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleBoardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if len(m.pipelines) == 0 {
		return m, nil
	}

	switch msg.String() {
	case "up", "k":
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case "down", "j":
		if m.selectedRow < len(m.boardDeals())-1 {
			m.selectedRow++
		}
	case "tab", "right", "l":
		m.pipelineIdx = (m.pipelineIdx + 1) % len(m.pipelines)
		m.selectedRow = 0
	case "shift+tab", "left", "h":
		m.pipelineIdx = (m.pipelineIdx + len(m.pipelines) - 1) % len(m.pipelines)
		m.selectedRow = 0
	case "enter":
		deals := m.boardDeals()
		if m.selectedRow < len(deals) {
			m.selected = deals[m.selectedRow]
			m.status = ""
			m.viewMode = ViewDetail
		}
	case "g":
		m.selected = nil
		m.viewMode = ViewGraph
		if err := m.generateGraph(); err != nil {
			m.err = err
		}
	}

	return m, nil
}
