package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles holds all the styles for the palette
type Styles struct {
	Theme Theme

	// Layout
	App       lipgloss.Style
	InputArea lipgloss.Style
	StatusBar lipgloss.Style

	// Command list
	GroupHeading lipgloss.Style
	Item         lipgloss.Style
	ItemSelected lipgloss.Style
	ItemDisabled lipgloss.Style
	Shortcut     lipgloss.Style
	RelativeTime lipgloss.Style
	EmptyState   lipgloss.Style

	// Chat
	UserMessage      lipgloss.Style
	AssistantMessage lipgloss.Style
	ErrorMessage     lipgloss.Style
	Thinking         lipgloss.Style
	Spinner          lipgloss.Style

	// Forms
	FormTitle lipgloss.Style
	FormField lipgloss.Style

	// UI elements
	Help lipgloss.Style
}

// NewStyles creates a styles instance for the given theme
func NewStyles(theme Theme) *Styles {
	s := &Styles{
		Theme: theme,
	}

	s.App = lipgloss.NewStyle().
		Background(theme.Background)

	s.InputArea = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Primary).
		Padding(0, 1)

	s.StatusBar = lipgloss.NewStyle().
		Background(theme.Surface).
		Foreground(theme.Text).
		Padding(0, 1)

	s.GroupHeading = lipgloss.NewStyle().
		Foreground(theme.TextDim).
		Bold(true).
		MarginTop(1).
		PaddingLeft(1)

	s.Item = lipgloss.NewStyle().
		Foreground(theme.Text).
		PaddingLeft(2)

	s.ItemSelected = lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true).
		PaddingLeft(0)

	s.ItemDisabled = lipgloss.NewStyle().
		Foreground(theme.TextDim).
		Faint(true).
		PaddingLeft(2)

	s.Shortcut = lipgloss.NewStyle().
		Foreground(theme.Secondary)

	s.RelativeTime = lipgloss.NewStyle().
		Foreground(theme.TextDim).
		Italic(true)

	s.EmptyState = lipgloss.NewStyle().
		Foreground(theme.TextDim).
		Italic(true).
		Padding(1, 2)

	s.UserMessage = lipgloss.NewStyle().
		Foreground(theme.Primary).
		PaddingLeft(2).
		MarginBottom(1)

	s.AssistantMessage = lipgloss.NewStyle().
		Foreground(theme.Text).
		PaddingLeft(2).
		MarginBottom(1)

	s.ErrorMessage = lipgloss.NewStyle().
		Foreground(theme.Error).
		Bold(true).
		PaddingLeft(2)

	s.Thinking = lipgloss.NewStyle().
		Foreground(theme.TextDim).
		Italic(true).
		PaddingLeft(2)

	s.Spinner = lipgloss.NewStyle().
		Foreground(theme.Primary)

	s.FormTitle = lipgloss.NewStyle().
		Foreground(theme.Secondary).
		Bold(true).
		PaddingLeft(2)

	s.FormField = lipgloss.NewStyle().
		Foreground(theme.Text).
		PaddingLeft(4)

	s.Help = lipgloss.NewStyle().
		Foreground(theme.TextDim).
		Italic(true)

	return s
}
