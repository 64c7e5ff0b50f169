package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	inputField = iota
	inputValue
)

func (m Model) renderEditView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("EDIT " + m.selected.String()))
	s.WriteString("\n\n")

	for i, input := range m.formInputs {
		if i == m.focusIndex {
			s.WriteString("> ")
		} else {
			s.WriteString("  ")
		}
		s.WriteString(input.View())
		s.WriteString("\n")
	}

	if m.saving {
		s.WriteString("\nSaving...\n")
	}
	if m.err != nil {
		s.WriteString("\n")
		s.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		s.WriteString("\n")
	}

	s.WriteString("\n")
	s.WriteString(m.renderEditHelp())

	return s.String()
}

func (m Model) renderEditHelp() string {
	help := []string{
		"Tab: Next field",
		"Enter: Save",
		"Esc: Cancel",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleEditKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.saving {
		return m, nil
	}

	switch msg.String() {
	case "esc":
		m.viewMode = ViewDetail
		m.err = nil
		return m, nil
	case "tab", "shift+tab":
		m.focusIndex = (m.focusIndex + 1) % len(m.formInputs)
		m.updateFormFocus()
		return m, nil
	case "enter":
		field := strings.TrimSpace(m.formInputs[inputField].Value())
		value := m.formInputs[inputValue].Value()
		if field == "" {
			m.focusIndex = inputField
			m.updateFormFocus()
			return m, nil
		}
		if err := m.selected.Set(field, value); err != nil {
			m.err = err
			return m, nil
		}
		m.saving = true
		m.err = nil
		return m, m.saveCmd()
	}

	var cmd tea.Cmd
	m.formInputs[m.focusIndex], cmd = m.formInputs[m.focusIndex].Update(msg)
	return m, cmd
}

// saveCmd pushes the selected record's pending changes. Failed saves keep the
// change pending so it can be retried.
func (m Model) saveCmd() tea.Cmd {
	rec, saver := m.selected, m.saver
	return func() tea.Msg {
		saved, err := saver.SaveChanges(context.Background(), rec)
		return savedMsg{rec: saved, err: err}
	}
}

func (m *Model) initFormInputs() {
	inputs := make([]textinput.Model, 2)

	inputs[inputField] = textinput.New()
	inputs[inputField].Placeholder = "Field (e.g. title or a custom field name)"
	inputs[inputField].CharLimit = 100

	inputs[inputValue] = textinput.New()
	inputs[inputValue].Placeholder = "Value (option label for enumerated fields)"
	inputs[inputValue].CharLimit = 500

	m.formInputs = inputs
	m.focusIndex = inputField
	m.updateFormFocus()
}

func (m *Model) updateFormFocus() {
	for i := range m.formInputs {
		if i == m.focusIndex {
			m.formInputs[i].Focus()
			m.formInputs[i].PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("170"))
		} else {
			m.formInputs[i].Blur()
			m.formInputs[i].PromptStyle = lipgloss.NewStyle()
		}
	}
}
