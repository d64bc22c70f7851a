package chat

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
)

// Role identifies the author of a message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// PartType discriminates the kinds of message parts
type PartType string

const (
	PartText       PartType = "text"
	PartToolCall   PartType = "tool-call"
	PartToolResult PartType = "tool-result"
	PartUI         PartType = "ui"
)

// Part is one typed segment of a message. Only the fields matching the
// Type are populated; everything else stays at its zero value so the
// JSON form carries no noise.
type Part struct {
	Type PartType `json:"type"`

	// Text content (PartText)
	Text string `json:"text,omitempty"`

	// Tool invocation / result (PartToolCall, PartToolResult)
	ToolCallID string          `json:"tool_call_id,omitempty"`
	ToolName   string          `json:"tool_name,omitempty"`
	Args       json.RawMessage `json:"args,omitempty"`
	Output     json.RawMessage `json:"output,omitempty"`

	// Declarative UI payload (PartUI). Opaque at this layer; the forms
	// package validates it before anything renders.
	UI json.RawMessage `json:"ui,omitempty"`

	// raw preserves parts of unrecognized type verbatim so a stored
	// transcript round-trips without losing what a newer peer wrote
	raw json.RawMessage
}

func (p *Part) UnmarshalJSON(data []byte) error {
	type plain Part
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*p = Part(decoded)

	switch p.Type {
	case PartText, PartToolCall, PartToolResult, PartUI:
	default:
		p.raw = append(json.RawMessage(nil), data...)
	}
	return nil
}

func (p Part) MarshalJSON() ([]byte, error) {
	if len(p.raw) > 0 {
		return p.raw, nil
	}
	type plain Part
	return json.Marshal(plain(p))
}

// Message is a single entry in a conversation transcript
type Message struct {
	ID    string `json:"id"`
	Role  Role   `json:"role"`
	Parts []Part `json:"parts"`
}

// NewUserMessage creates a user message with a single text part
func NewUserMessage(text string) Message {
	return Message{
		ID:    uuid.NewString(),
		Role:  RoleUser,
		Parts: []Part{{Type: PartText, Text: text}},
	}
}

// NewAssistantMessage creates an empty assistant message ready to
// receive streamed parts
func NewAssistantMessage() Message {
	return Message{
		ID:    uuid.NewString(),
		Role:  RoleAssistant,
		Parts: []Part{},
	}
}

// Text concatenates the text parts of the message
func (m Message) Text() string {
	var b strings.Builder
	for _, p := range m.Parts {
		if p.Type == PartText {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

// AppendText adds text to the message, extending the trailing text part
// when one exists so streamed deltas accumulate into a single part
func (m *Message) AppendText(text string) {
	if n := len(m.Parts); n > 0 && m.Parts[n-1].Type == PartText {
		m.Parts[n-1].Text += text
		return
	}
	m.Parts = append(m.Parts, Part{Type: PartText, Text: text})
}

// CloneMessages returns a deep-enough copy of a transcript for handing
// across ownership boundaries. Parts are value types, so copying the
// slices is sufficient.
func CloneMessages(messages []Message) []Message {
	out := make([]Message, len(messages))
	for i, m := range messages {
		out[i] = m
		out[i].Parts = append([]Part(nil), m.Parts...)
	}
	return out
}
