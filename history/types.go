package history

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/palettelabs/cmdpal/chat"
)

const (
	// StorageVersion is the persisted payload version. Anything else
	// on disk is discarded wholesale on load.
	StorageVersion = 1

	// DefaultStorageKey is the storage key used when none is configured
	DefaultStorageKey = "cmdk-chat-history"

	// DefaultMaxConversations bounds the persisted history length
	DefaultMaxConversations = 50

	// fallbackTitle is used when a conversation has no user message
	fallbackTitle = "New conversation"

	maxTitleLen = 50
)

// Conversation is a persisted, named transcript of a past session.
// Replace-by-id semantics: a conversation is never mutated in place
// once stored, only superseded by a newer version under the same id.
type Conversation struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Messages  []chat.Message `json:"messages"`
	CreatedAt int64          `json:"createdAt"`
	UpdatedAt int64          `json:"updatedAt"`
}

// StoredHistory is the durable form of the conversation list
type StoredHistory struct {
	Version       int            `json:"version"`
	Conversations []Conversation `json:"conversations"`
}

// validateStored parses a persisted payload, failing closed: a payload
// missing version 1 or a conversations array is rejected entirely and
// never partially trusted.
func validateStored(data []byte) (*StoredHistory, bool) {
	var probe struct {
		Version       *int            `json:"version"`
		Conversations json.RawMessage `json:"conversations"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, false
	}
	if probe.Version == nil || *probe.Version != StorageVersion {
		return nil, false
	}
	trimmed := bytes.TrimSpace(probe.Conversations)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, false
	}

	var stored StoredHistory
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, false
	}
	if stored.Conversations == nil {
		stored.Conversations = []Conversation{}
	}
	return &stored, true
}

// deriveTitle builds a conversation title from the first user message:
// its text parts joined by spaces, cut at 50 characters with a
// trailing ellipsis when longer.
func deriveTitle(messages []chat.Message) string {
	for _, m := range messages {
		if m.Role != chat.RoleUser {
			continue
		}
		var texts []string
		for _, p := range m.Parts {
			if p.Type == chat.PartText && p.Text != "" {
				texts = append(texts, p.Text)
			}
		}
		text := strings.Join(texts, " ")
		if text == "" {
			return fallbackTitle
		}
		if runes := []rune(text); len(runes) > maxTitleLen {
			return string(runes[:maxTitleLen]) + "..."
		}
		return text
	}
	return fallbackTitle
}
