package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/palettelabs/cmdpal/chat"
	"github.com/palettelabs/cmdpal/history"
	"github.com/palettelabs/cmdpal/palette"
	"github.com/palettelabs/cmdpal/tui/styles"
)

func newTestModel(t *testing.T, cfg palette.Config) *Model {
	t.Helper()
	if cfg.Storage == nil {
		cfg.Storage = history.NewMemoryStorage()
	}
	if cfg.Logger == nil {
		cfg.Logger = func(string, ...any) {}
	}
	controller, err := palette.NewController(cfg)
	if err != nil {
		t.Fatalf("NewController failed: %v", err)
	}

	m := New(controller, styles.GetTheme("dark"))
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return updated.(*Model)
}

func TestView_ListsCommandsWithHeadings(t *testing.T) {
	m := newTestModel(t, palette.Config{
		Commands: []palette.CommandDefinition{
			{Name: "copy-link", Label: "Copy link"},
			{Name: "settings", Label: "Open Settings", Group: "Navigation"},
		},
	})

	view := m.View()
	if !strings.Contains(view, "Copy link") || !strings.Contains(view, "Open Settings") {
		t.Fatalf("expected command labels rendered:\n%s", view)
	}
	if !strings.Contains(view, "Navigation") {
		t.Fatalf("expected group heading rendered:\n%s", view)
	}
}

func TestView_EmptyStateWhenNothingMatches(t *testing.T) {
	m := newTestModel(t, palette.Config{
		Commands: []palette.CommandDefinition{{Name: "settings", Label: "Open Settings"}},
	})

	m.controller.SetInput("zzzzzz")
	m.refresh()

	if view := m.View(); !strings.Contains(view, "No results found.") {
		t.Fatalf("expected empty state:\n%s", view)
	}
}

func TestCursor_MovesAndClamps(t *testing.T) {
	m := newTestModel(t, palette.Config{
		Commands: []palette.CommandDefinition{
			{Name: "one", Label: "One"},
			{Name: "two", Label: "Two"},
		},
	})

	if m.cursor != 0 {
		t.Fatalf("cursor should start at 0, got %d", m.cursor)
	}

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = updated.(*Model)
	if m.cursor != 1 {
		t.Fatalf("expected cursor 1, got %d", m.cursor)
	}

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = updated.(*Model)
	if m.cursor != 1 {
		t.Fatalf("cursor must clamp at last item, got %d", m.cursor)
	}

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = updated.(*Model)
	if m.cursor != 0 {
		t.Fatalf("expected cursor back at 0, got %d", m.cursor)
	}
}

func TestEnter_SelectsCurrentCommand(t *testing.T) {
	var ran bool
	m := newTestModel(t, palette.Config{
		Commands: []palette.CommandDefinition{
			{Name: "dark-mode", Label: "Toggle dark mode", OnSelect: func() { ran = true }},
		},
	})

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !ran {
		t.Fatalf("expected enter to select the highlighted command")
	}
}

func TestEscape_LeavesChatBeforeClosing(t *testing.T) {
	session := newStubSession()
	m := newTestModel(t, palette.Config{Session: session})

	m.controller.SwitchToChat("")
	m.syncInput()
	m.refresh()

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = updated.(*Model)
	if cmd != nil {
		t.Fatalf("escape in chat mode must not quit")
	}
	if m.controller.Mode() != palette.ModeCommand {
		t.Fatalf("expected command mode after escape, got %q", m.controller.Mode())
	}

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatalf("escape in command mode must quit")
	}
}

func TestChatView_EmptyAndThinkingStates(t *testing.T) {
	session := newStubSession()
	m := newTestModel(t, palette.Config{Session: session})

	m.controller.SwitchToChat("")
	m.refresh()
	if view := m.View(); !strings.Contains(view, "Start a conversation") {
		t.Fatalf("expected empty-chat affordance:\n%s", view)
	}

	session.status = chat.StatusSubmitted
	session.fire()
	m.refresh()
	if view := m.View(); !strings.Contains(view, "AI is thinking...") {
		t.Fatalf("expected thinking affordance:\n%s", view)
	}
}

// stubSession is a minimal scriptable chat source
type stubSession struct {
	status   chat.SessionStatus
	messages []chat.Message
	onChange func()
}

func newStubSession() *stubSession {
	return &stubSession{status: chat.StatusReady}
}

func (s *stubSession) Messages() []chat.Message { return chat.CloneMessages(s.messages) }
func (s *stubSession) SendMessage(text string) {
	s.messages = append(s.messages, chat.NewUserMessage(text))
	s.fire()
}
func (s *stubSession) Status() chat.SessionStatus { return s.status }
func (s *stubSession) Err() error                 { return nil }
func (s *stubSession) SetMessages(messages []chat.Message) {
	s.messages = chat.CloneMessages(messages)
	s.fire()
}
func (s *stubSession) OnChange(fn func()) { s.onChange = fn }
func (s *stubSession) fire() {
	if s.onChange != nil {
		s.onChange()
	}
}

func TestFormatRelativeTime(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		ago  time.Duration
		want string
	}{
		{30 * time.Second, "just now"},
		{5 * time.Minute, "5m ago"},
		{2 * time.Hour, "2h ago"},
		{3 * 24 * time.Hour, "3d ago"},
	}

	for _, tc := range cases {
		stamp := now.Add(-tc.ago).UnixMilli()
		if got := formatRelativeTime(stamp, now); got != tc.want {
			t.Fatalf("formatRelativeTime(-%v) = %q, want %q", tc.ago, got, tc.want)
		}
	}
}
