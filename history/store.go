package history

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/palettelabs/cmdpal/chat"
)

// MessageList is the live transcript the store saves from and restores
// into. The session adapter provides it; the store never interprets
// message internals beyond title derivation.
type MessageList interface {
	Messages() []chat.Message
	SetMessages(messages []chat.Message)
}

// Store persists a bounded list of named conversations. Durability is
// best-effort: storage failures are logged and the store degrades to
// in-memory for the rest of the session, never surfacing errors to the
// caller.
type Store struct {
	mu      sync.Mutex
	storage Storage
	key     string
	max     int
	live    MessageList
	now     func() int64
	logf    func(format string, args ...any)

	conversations []Conversation
	currentID     string
	loaded        bool
}

// StoreOption configures a Store
type StoreOption func(*Store)

// WithStorageKey overrides the default storage key
func WithStorageKey(key string) StoreOption {
	return func(s *Store) {
		s.key = key
	}
}

// WithMaxConversations overrides the history bound
func WithMaxConversations(max int) StoreOption {
	return func(s *Store) {
		if max > 0 {
			s.max = max
		}
	}
}

// WithClock overrides the timestamp source (unix millis)
func WithClock(now func() int64) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

// WithLogger overrides where swallowed storage errors go
func WithLogger(logf func(format string, args ...any)) StoreOption {
	return func(s *Store) {
		s.logf = logf
	}
}

// NewStore creates a store bound to the given live message list and
// loads any persisted history. A payload that fails validation is
// discarded entirely; load errors leave the store empty but usable.
func NewStore(storage Storage, live MessageList, opts ...StoreOption) *Store {
	s := &Store{
		storage: storage,
		key:     DefaultStorageKey,
		max:     DefaultMaxConversations,
		live:    live,
		now:     func() int64 { return time.Now().UnixMilli() },
		logf:    log.Printf,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.load()
	return s
}

// Conversations returns the stored conversations, most recent first
func (s *Store) Conversations() []Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Conversation(nil), s.conversations...)
}

// CurrentID returns the id of the active conversation, "" when no chat
// has been started yet
func (s *Store) CurrentID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentID
}

// StartNewChat persists the active conversation when it has messages,
// clears the live transcript, and assigns a fresh conversation id.
// The transcript is replaced outside the store lock: replacing it
// notifies session subscribers, and those may call back into the
// store.
func (s *Store) StartNewChat() {
	s.mu.Lock()
	if s.currentID != "" && len(s.live.Messages()) > 0 {
		s.save()
		s.persist()
	}
	s.currentID = uuid.NewString()
	s.mu.Unlock()

	s.live.SetMessages([]chat.Message{})
}

// LoadConversation persists the active conversation first, then
// replaces the live transcript with the stored one. An unknown id is
// silently ignored.
func (s *Store) LoadConversation(id string) {
	s.mu.Lock()
	if s.currentID != "" && len(s.live.Messages()) > 0 {
		s.save()
		s.persist()
	}
	var restored []chat.Message
	found := false
	for _, c := range s.conversations {
		if c.ID == id {
			restored = chat.CloneMessages(c.Messages)
			s.currentID = id
			found = true
			break
		}
	}
	s.mu.Unlock()

	if found {
		s.live.SetMessages(restored)
	}
}

// SaveCurrentConversation upserts the active conversation into the
// list and persists. No-op without an active id or with an empty live
// transcript.
func (s *Store) SaveCurrentConversation() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.save() {
		s.persist()
	}
}

func (s *Store) save() bool {
	msgs := s.live.Messages()
	if s.currentID == "" || len(msgs) == 0 {
		return false
	}

	now := s.now()
	for i, c := range s.conversations {
		if c.ID == s.currentID {
			s.conversations[i] = Conversation{
				ID:        c.ID,
				Title:     deriveTitle(msgs),
				Messages:  chat.CloneMessages(msgs),
				CreatedAt: c.CreatedAt,
				UpdatedAt: now,
			}
			return true
		}
	}

	conversation := Conversation{
		ID:        s.currentID,
		Title:     deriveTitle(msgs),
		Messages:  chat.CloneMessages(msgs),
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.conversations = append([]Conversation{conversation}, s.conversations...)
	if len(s.conversations) > s.max {
		s.conversations = s.conversations[:s.max]
	}
	return true
}

func (s *Store) persist() {
	if !s.loaded {
		return
	}
	data, err := json.Marshal(StoredHistory{
		Version:       StorageVersion,
		Conversations: s.conversations,
	})
	if err != nil {
		s.logf("chat history: failed to marshal: %v", err)
		return
	}
	if err := s.storage.Save(s.key, data); err != nil {
		s.logf("chat history: failed to save: %v", err)
	}
}

func (s *Store) load() {
	defer func() { s.loaded = true }()

	data, err := s.storage.Load(s.key)
	if err != nil {
		s.logf("chat history: failed to load: %v", err)
		return
	}
	if data == nil {
		return
	}

	stored, ok := validateStored(data)
	if !ok {
		s.logf("chat history: stored data failed validation, discarding")
		if err := s.storage.Delete(s.key); err != nil {
			s.logf("chat history: failed to delete invalid data: %v", err)
		}
		return
	}
	s.conversations = stored.Conversations
}
