package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/palettelabs/cmdpal/palette"
	"github.com/palettelabs/cmdpal/tui/styles"
)

// Theme type alias for convenience
type Theme = styles.Theme

// Model renders a palette controller as a terminal UI. All palette
// semantics live in the controller; the model owns cursor position,
// layout, and key routing only.
type Model struct {
	controller *palette.Controller

	// UI components
	input    textinput.Model
	chatView viewport.Model
	spinner  spinner.Model

	styles   *styles.Styles
	renderer *glamour.TermRenderer

	// Filtered list snapshot, rebuilt on every state change
	groups []palette.ItemGroup
	flat   []flatRef
	cursor int

	// Layout
	width  int
	height int
	ready  bool

	keys KeyMap
	now  func() time.Time
}

// flatRef addresses one item across the grouped list
type flatRef struct {
	group int
	item  int
}

// KeyMap defines key bindings
type KeyMap struct {
	Quit    key.Binding
	Close   key.Binding
	Select  key.Binding
	AskAI   key.Binding
	NewChat key.Binding
	Up      key.Binding
	Down    key.Binding
}

// DefaultKeyMap returns default key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "ctrl+d"),
			key.WithHelp("ctrl+c", "quit"),
		),
		Close: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back / close"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select / send"),
		),
		AskAI: key.NewBinding(
			key.WithKeys("alt+enter", "ctrl+j"),
			key.WithHelp("alt+enter", "ask AI"),
		),
		NewChat: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("ctrl+n", "new chat"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "ctrl+p"),
			key.WithHelp("↑", "previous item"),
		),
		Down: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("↓", "next item"),
		),
	}
}

// stateChangedMsg is delivered whenever the controller reports a change
type stateChangedMsg struct{}

// New creates a palette model around a controller
func New(controller *palette.Controller, theme Theme) *Model {
	ti := textinput.New()
	ti.Placeholder = "Type a command or search..."
	ti.Prompt = "> "
	ti.Focus()
	ti.CharLimit = 0

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	st := styles.NewStyles(theme)
	sp.Style = st.Spinner

	m := &Model{
		controller: controller,
		input:      ti,
		spinner:    sp,
		styles:     st,
		keys:       DefaultKeyMap(),
		now:        time.Now,
	}
	m.refresh()
	return m
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		textinput.Blink,
	)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		if !m.ready {
			m.chatView = viewport.New(msg.Width, msg.Height-5)
			m.ready = true
		} else {
			m.chatView.Width = msg.Width
			m.chatView.Height = msg.Height - 5
		}
		m.input.Width = msg.Width - 4
		m.rebuildRenderer()
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Close):
			if m.controller.RequestClose(palette.CloseEscape) {
				m.syncInput()
				m.refresh()
				return m, nil
			}
			return m, tea.Quit

		case key.Matches(msg, m.keys.AskAI):
			if m.controller.HandleSendAccelerator() {
				m.syncInput()
				m.refresh()
			}
			return m, nil

		case key.Matches(msg, m.keys.NewChat):
			if m.controller.Mode() == palette.ModeChat {
				m.controller.StartNewChat()
				m.refresh()
				return m, nil
			}

		case key.Matches(msg, m.keys.Up):
			if m.controller.Mode() == palette.ModeCommand && m.cursor > 0 {
				m.cursor--
			}
			return m, nil

		case key.Matches(msg, m.keys.Down):
			if m.controller.Mode() == palette.ModeCommand && m.cursor < len(m.flat)-1 {
				m.cursor++
			}
			return m, nil

		case key.Matches(msg, m.keys.Select):
			if m.controller.HandleEnter() {
				m.syncInput()
				m.refresh()
				return m, nil
			}
			m.selectCurrent()
			m.syncInput()
			m.refresh()
			return m, nil
		}

		// Everything else edits the input
		ti, cmd := m.input.Update(msg)
		m.input = ti
		cmds = append(cmds, cmd)
		m.controller.SetInput(m.input.Value())
		m.refresh()
		return m, tea.Batch(cmds...)

	case stateChangedMsg:
		m.syncInput()
		m.refresh()
		if m.controller.Status().Loading() {
			// Restart the tick chain; stale ticks are dropped by tag
			return m, m.spinner.Tick
		}
		return m, nil

	case spinner.TickMsg:
		// The chain dies when loading stops and is restarted by the
		// next loading state change
		if m.controller.Status().Loading() {
			sp, cmd := m.spinner.Update(msg)
			m.spinner = sp
			cmds = append(cmds, cmd)
		}
	}

	vp, cmd := m.chatView.Update(msg)
	m.chatView = vp
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// refresh rebuilds the filtered list snapshot and clamps the cursor
func (m *Model) refresh() {
	m.groups = m.controller.FilterGroups(m.controller.Input())

	m.flat = m.flat[:0]
	for gi, group := range m.groups {
		for ii := range group.Items {
			m.flat = append(m.flat, flatRef{group: gi, item: ii})
		}
	}
	if m.cursor >= len(m.flat) {
		m.cursor = len(m.flat) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}

	if m.controller.Mode() == palette.ModeChat && m.ready {
		m.chatView.SetContent(m.renderChat())
		m.chatView.GotoBottom()
	}
}

// syncInput pushes the controller's input value into the text input,
// needed after transitions that seed or clear it.
func (m *Model) syncInput() {
	if m.input.Value() != m.controller.Input() {
		m.input.SetValue(m.controller.Input())
		m.input.CursorEnd()
	}
}

func (m *Model) selectCurrent() {
	if m.cursor < 0 || m.cursor >= len(m.flat) {
		return
	}
	ref := m.flat[m.cursor]
	m.groups[ref.group].Items[ref.item].Select()
}

func (m *Model) rebuildRenderer() {
	width := m.width - 4
	if width < 20 {
		width = 20
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		m.renderer = nil
		return
	}
	m.renderer = renderer
}
