package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	fieldLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Width(24)

	fieldValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))
)

func (m Model) renderDetailView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("DEAL"))
	s.WriteString("\n\n")

	s.WriteString(m.renderDealDetail())
	s.WriteString("\n")

	if m.status != "" {
		s.WriteString(statusStyle.Render(m.status))
		s.WriteString("\n")
	}
	if m.err != nil {
		s.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		s.WriteString("\n")
	}

	s.WriteString(m.renderDetailHelp())

	return s.String()
}

func (m Model) renderDealDetail() string {
	deal := m.selected
	if deal == nil {
		return "No deal selected\n"
	}

	var s strings.Builder

	s.WriteString(m.renderField("Title", deal.Name()))
	s.WriteString(m.renderField("Organization", deal.OrgName()))
	s.WriteString(m.renderField("Person", deal.PersonName()))
	if owner := deal.Owner(); owner != nil {
		s.WriteString(m.renderField("Owner", owner.Name()))
	}
	if pipeline, stage := deal.Pipeline(), deal.Stage(); pipeline != nil && stage != nil {
		s.WriteString(m.renderField("Stage", stage.Name()))
		if next := pipeline.NextStage(stage); next != nil {
			s.WriteString(m.renderField("Next Stage", next.Name()))
		}
	}
	if deal.IsStub() {
		s.WriteString(m.renderField("Loaded", "partially (stub)"))
	}

	s.WriteString("\n")
	s.WriteString(lipgloss.NewStyle().Bold(true).Render("FIELDS"))
	s.WriteString("\n")

	names, err := deal.FieldNames()
	if err != nil {
		s.WriteString(fmt.Sprintf("Error: %v\n", err))
		return s.String()
	}
	for _, name := range names {
		v, err := deal.Get(name)
		if err != nil {
			s.WriteString(m.renderField(name, fmt.Sprintf("(%v)", err)))
			continue
		}
		s.WriteString(m.renderField(name, formatValue(v)))
	}

	notes := deal.Notes()
	if len(notes) > 0 {
		s.WriteString("\n")
		s.WriteString(lipgloss.NewStyle().Bold(true).Render("NOTES"))
		s.WriteString("\n")
		for _, note := range notes {
			s.WriteString(fmt.Sprintf("  • [%s] %s\n", note.Text("add_time"), note.Text("content")))
		}
	}

	return s.String()
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case map[string]any:
		if name, ok := val["name"]; ok {
			return fmt.Sprint(name)
		}
	}
	r := []rune(fmt.Sprint(v))
	if len(r) > 60 {
		return string(r[:60]) + "…"
	}
	return string(r)
}

func (m Model) renderField(label, value string) string {
	if value == "" {
		value = "-"
	}
	return fmt.Sprintf("%s %s\n",
		fieldLabelStyle.Render(label+":"),
		fieldValueStyle.Render(value))
}

func (m Model) renderDetailHelp() string {
	help := []string{
		"Esc: Back",
		"g: View graph",
		"q: Quit",
	}
	if m.saver != nil {
		help = append([]string{"e: Edit field"}, help...)
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.viewMode = ViewBoard
		m.err = nil
	case "e":
		if m.saver != nil && m.selected != nil {
			m.viewMode = ViewEdit
			m.err = nil
			m.initFormInputs()
		}
	case "g":
		m.viewMode = ViewGraph
		if err := m.generateGraph(); err != nil {
			m.err = err
		}
	}

	return m, nil
}
