// ABOUTME: Terminal User Interface using bubbletea framework
// ABOUTME: Pipeline board over the cached registry with deal detail, edit and graph views
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/pipedrive/objects"
)

// ViewMode represents the current TUI view
type ViewMode int

const (
	ViewBoard ViewMode = iota
	ViewDetail
	ViewEdit
	ViewGraph
)

// Saver pushes a record's pending field changes. *api.Client satisfies it.
type Saver interface {
	SaveChanges(ctx context.Context, rec *objects.Record) (*objects.Record, error)
}

// Model is the main bubbletea model
type Model struct {
	reg      *objects.Registry
	saver    Saver
	viewMode ViewMode

	// Board state
	pipelines   []*objects.Record
	pipelineIdx int
	selectedRow int

	// Detail view state
	selected *objects.Record

	// Edit view state
	formInputs []textinput.Model
	focusIndex int
	saving     bool

	// Graph view state
	graphDOT string

	// UI state
	status string
	width  int
	height int
	err    error
}

// savedMsg reports the outcome of a SaveChanges call.
type savedMsg struct {
	rec *objects.Record
	err error
}

// NewModel creates a board over the pipelines reg holds. saver may be nil, which
// makes the board read-only.
func NewModel(reg *objects.Registry, saver Saver) Model {
	pipelines := reg.Store(objects.KindPipeline).All()
	for _, p := range pipelines {
		p.SortStages()
	}
	return Model{
		reg:       reg,
		saver:     saver,
		viewMode:  ViewBoard,
		pipelines: pipelines,
		width:     80,
		height:    24,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case savedMsg:
		m.saving = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.selected = msg.rec
		m.status = "Saved " + msg.rec.String()
		m.viewMode = ViewDetail
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	switch m.viewMode {
	case ViewBoard:
		return m.renderBoardView()
	case ViewDetail:
		return m.renderDetailView()
	case ViewEdit:
		return m.renderEditView()
	case ViewGraph:
		return m.renderGraphView()
	}
	return ""
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "q":
		// q is text while editing
		if m.viewMode != ViewEdit {
			return m, tea.Quit
		}
	}

	switch m.viewMode {
	case ViewBoard:
		return m.handleBoardKeys(msg)
	case ViewDetail:
		return m.handleDetailKeys(msg)
	case ViewEdit:
		return m.handleEditKeys(msg)
	case ViewGraph:
		return m.handleGraphKeys(msg)
	}

	return m, nil
}

// Run starts the full-screen board.
func Run(reg *objects.Registry, saver Saver) error {
	p := tea.NewProgram(NewModel(reg, saver), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Background(lipgloss.Color("235")).
			Padding(0, 2)

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Padding(0, 2)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))
)
