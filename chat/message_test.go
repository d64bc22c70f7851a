package chat

import (
	"encoding/json"
	"testing"
)

func TestMessageText_ConcatenatesTextPartsOnly(t *testing.T) {
	m := Message{
		Role: RoleAssistant,
		Parts: []Part{
			{Type: PartText, Text: "Hello, "},
			{Type: PartToolCall, ToolName: "lookup", ToolCallID: "call_1"},
			{Type: PartText, Text: "world"},
		},
	}

	if got := m.Text(); got != "Hello, world" {
		t.Fatalf("expected %q, got %q", "Hello, world", got)
	}
}

func TestAppendText_ExtendsTrailingTextPart(t *testing.T) {
	m := NewAssistantMessage()
	m.AppendText("stream")
	m.AppendText("ed")

	if len(m.Parts) != 1 {
		t.Fatalf("expected deltas to merge into 1 part, got %d", len(m.Parts))
	}
	if m.Parts[0].Text != "streamed" {
		t.Fatalf("expected %q, got %q", "streamed", m.Parts[0].Text)
	}
}

func TestAppendText_StartsNewPartAfterNonText(t *testing.T) {
	m := NewAssistantMessage()
	m.AppendText("before")
	m.Parts = append(m.Parts, Part{Type: PartToolCall, ToolName: "lookup"})
	m.AppendText("after")

	if len(m.Parts) != 3 {
		t.Fatalf("expected 3 parts, got %d", len(m.Parts))
	}
	if m.Parts[2].Text != "after" {
		t.Fatalf("expected trailing text part %q, got %q", "after", m.Parts[2].Text)
	}
}

func TestMessageJSON_PreservesPartTypes(t *testing.T) {
	m := Message{
		ID:   "msg_1",
		Role: RoleAssistant,
		Parts: []Part{
			{Type: PartText, Text: "done"},
			{Type: PartUI, UI: json.RawMessage(`{"type":"form","props":{"id":"refund"}}`)},
		},
	}

	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var back Message
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if back.Parts[0].Type != PartText || back.Parts[1].Type != PartUI {
		t.Fatalf("part types not preserved: %+v", back.Parts)
	}
	if string(back.Parts[1].UI) != `{"type":"form","props":{"id":"refund"}}` {
		t.Fatalf("ui payload not preserved: %s", back.Parts[1].UI)
	}
}

func TestPartJSON_UnknownTypeRoundTrips(t *testing.T) {
	raw := `{"type":"reasoning","reasoning":"thinking hard","signature":"abc"}`

	var p Part
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if p.Type != "reasoning" {
		t.Fatalf("expected unknown type kept, got %q", p.Type)
	}

	back, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(back) != raw {
		t.Fatalf("unknown part not preserved verbatim: %s", back)
	}
}

func TestCloneMessages_IsolatesParts(t *testing.T) {
	orig := []Message{NewUserMessage("hi")}
	clone := CloneMessages(orig)

	clone[0].Parts[0].Text = "changed"
	if orig[0].Parts[0].Text != "hi" {
		t.Fatalf("clone mutated the original transcript")
	}
}
