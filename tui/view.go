package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/palettelabs/cmdpal/chat"
	"github.com/palettelabs/cmdpal/forms"
	"github.com/palettelabs/cmdpal/palette"
)

func (m *Model) View() string {
	if !m.ready {
		return "\nInitializing..."
	}

	if m.controller.Mode() == palette.ModeChat {
		return m.viewChat()
	}
	return m.viewCommand()
}

func (m *Model) viewCommand() string {
	var b strings.Builder

	b.WriteString(m.styles.InputArea.Width(m.width - 2).Render(m.input.View()))
	b.WriteString("\n")

	if len(m.flat) == 0 {
		b.WriteString(m.styles.EmptyState.Render("No results found."))
		b.WriteString("\n")
	}

	now := m.now()
	index := 0
	for _, group := range m.groups {
		if group.Heading != "" {
			b.WriteString(m.styles.GroupHeading.Render(group.Heading))
			b.WriteString("\n")
		}
		for _, item := range group.Items {
			b.WriteString(m.renderItem(item, index == m.cursor, now))
			b.WriteString("\n")
			index++
		}
	}

	b.WriteString("\n")
	b.WriteString(m.styles.Help.Render("enter select · alt+enter ask AI · esc close"))
	return b.String()
}

func (m *Model) renderItem(item palette.Item, selected bool, now time.Time) string {
	label := item.Label
	if item.Icon != "" {
		label = item.Icon + " " + label
	}

	var line string
	switch {
	case item.Disabled:
		line = m.styles.ItemDisabled.Render(label)
	case selected:
		line = m.styles.ItemSelected.Render("▸ " + label)
	default:
		line = m.styles.Item.Render(label)
	}

	var suffix string
	if item.Kind == palette.ItemConversation && item.UpdatedAt > 0 {
		suffix = m.styles.RelativeTime.Render("  " + formatRelativeTime(item.UpdatedAt, now))
	} else if item.Shortcut != "" {
		suffix = m.styles.Shortcut.Render("  " + item.Shortcut)
	}

	return line + suffix
}

func (m *Model) viewChat() string {
	var b strings.Builder

	b.WriteString(m.chatView.View())
	b.WriteString("\n")

	status := m.controller.Status()
	switch {
	case status == palette.StatusError:
		if err := m.controller.Err(); err != nil {
			b.WriteString(m.styles.ErrorMessage.Render(fmt.Sprintf("Error: %v", err)))
		} else {
			b.WriteString(m.styles.ErrorMessage.Render("Something went wrong."))
		}
		b.WriteString("\n")
	case status.Loading():
		b.WriteString(m.styles.Thinking.Render(m.spinner.View() + " AI is thinking..."))
		b.WriteString("\n")
	}

	b.WriteString(m.styles.InputArea.Width(m.width - 2).Render(m.input.View()))
	b.WriteString("\n")
	b.WriteString(m.styles.Help.Render("enter send · ctrl+n new chat · esc back"))
	return b.String()
}

// renderChat renders the transcript for the chat viewport
func (m *Model) renderChat() string {
	messages := m.controller.Messages()
	if len(messages) == 0 {
		return m.styles.EmptyState.Render("Start a conversation")
	}

	var b strings.Builder
	for _, msg := range messages {
		switch msg.Role {
		case chat.RoleUser:
			b.WriteString(m.styles.UserMessage.Render("> " + msg.Text()))
			b.WriteString("\n")
		case chat.RoleAssistant:
			b.WriteString(m.renderAssistant(msg))
		}
	}
	return b.String()
}

func (m *Model) renderAssistant(msg chat.Message) string {
	var b strings.Builder
	for _, part := range msg.Parts {
		switch part.Type {
		case chat.PartText:
			b.WriteString(m.renderMarkdown(part.Text))
		case chat.PartUI:
			b.WriteString(m.renderForm(part.UI))
		}
	}
	return b.String()
}

func (m *Model) renderMarkdown(text string) string {
	if text == "" {
		return ""
	}
	if m.renderer != nil {
		if out, err := m.renderer.Render(text); err == nil {
			return out
		}
	}
	return m.styles.AssistantMessage.Render(text) + "\n"
}

// renderForm shows a structured form part as a read-only summary.
// Invalid elements are dropped by validation before anything renders.
func (m *Model) renderForm(raw []byte) string {
	el, err := forms.Decode(raw)
	if err != nil {
		return ""
	}
	validated, ok := forms.Validate(el, nil)
	if !ok {
		return ""
	}

	var b strings.Builder
	if meta, ok := forms.Meta(validated); ok {
		title := meta.Title
		if title == "" {
			title = meta.ID
		}
		b.WriteString(m.styles.FormTitle.Render("⌧ " + title))
		b.WriteString("\n")
	}
	for _, field := range forms.Fields(validated) {
		label := field.DisplayLabel()
		if field.Required {
			label += " *"
		}
		b.WriteString(m.styles.FormField.Render("• " + label))
		b.WriteString("\n")
	}
	return b.String()
}

// formatRelativeTime renders a unix-millis timestamp relative to now
func formatRelativeTime(unixMilli int64, now time.Time) string {
	diff := now.Sub(time.UnixMilli(unixMilli))
	if diff < 0 {
		diff = 0
	}

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	}
}
