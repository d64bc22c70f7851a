package palette

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/palettelabs/cmdpal/chat"
	"github.com/palettelabs/cmdpal/history"
)

func quietLog(format string, args ...any) {}

// countingStorage wraps MemoryStorage and counts writes
type countingStorage struct {
	*history.MemoryStorage
	saves atomic.Int64
}

func newCountingStorage() *countingStorage {
	return &countingStorage{MemoryStorage: history.NewMemoryStorage()}
}

func (c *countingStorage) Save(key string, data []byte) error {
	c.saves.Add(1)
	return c.MemoryStorage.Save(key, data)
}

func newTestController(t *testing.T, cfg Config) *Controller {
	t.Helper()
	if cfg.Storage == nil {
		cfg.Storage = history.NewMemoryStorage()
	}
	if cfg.Logger == nil {
		cfg.Logger = quietLog
	}
	c, err := NewController(cfg)
	if err != nil {
		t.Fatalf("NewController failed: %v", err)
	}
	return c
}

func TestNewController_RejectsDuplicateCommandNames(t *testing.T) {
	_, err := NewController(Config{
		Commands: []CommandDefinition{{Name: "a"}, {Name: "a"}},
		Storage:  history.NewMemoryStorage(),
		Logger:   quietLog,
	})
	if err == nil {
		t.Fatalf("expected duplicate command name to fail construction")
	}
}

func TestSwitchToChat_NoopWhenDisabled(t *testing.T) {
	c := newTestController(t, Config{})

	c.SwitchToChat("")
	if c.Mode() != ModeCommand {
		t.Fatalf("mode must stay command when chat is disabled, got %q", c.Mode())
	}

	c.SwitchToChat("seed query")
	if c.Mode() != ModeCommand || c.Input() != "" {
		t.Fatalf("disabled switchToChat must not touch state: mode=%q input=%q", c.Mode(), c.Input())
	}
}

func TestSwitchToChat_SeedsInput(t *testing.T) {
	c := newTestController(t, Config{Session: newFakeSession()})

	c.SwitchToChat("refund order 123")
	if c.Mode() != ModeChat {
		t.Fatalf("expected chat mode, got %q", c.Mode())
	}
	if c.Input() != "refund order 123" {
		t.Fatalf("expected seeded input, got %q", c.Input())
	}
}

func TestSwitchToCommand_ResetsInputStatusError(t *testing.T) {
	session := newFakeSession()
	c := newTestController(t, Config{Session: session})

	c.SwitchToChat("stuck question")
	session.setStatus(chat.StatusError, context.DeadlineExceeded)

	c.SwitchToCommand()

	if c.Mode() != ModeCommand || c.Input() != "" {
		t.Fatalf("expected command mode with cleared input, got %q %q", c.Mode(), c.Input())
	}
	if c.Status() != StatusIdle || c.Err() != nil {
		t.Fatalf("expected idle status and nil error, got %q %v", c.Status(), c.Err())
	}
}

func TestRequestClose_EscapeInChatModeIsIntercepted(t *testing.T) {
	var closed atomic.Int64
	c := newTestController(t, Config{
		Session:      newFakeSession(),
		OnOpenChange: func(open bool) { closed.Add(1) },
	})

	c.SwitchToChat("")
	if handled := c.RequestClose(CloseEscape); !handled {
		t.Fatalf("escape in chat mode must be intercepted")
	}
	if c.Mode() != ModeCommand {
		t.Fatalf("expected escape to fall back to command mode, got %q", c.Mode())
	}
	if closed.Load() != 0 {
		t.Fatalf("escape in chat mode must not close the palette")
	}

	// Now in command mode, escape closes normally
	if handled := c.RequestClose(CloseEscape); handled {
		t.Fatalf("escape in command mode must propagate")
	}
	if closed.Load() != 1 {
		t.Fatalf("expected one close notification, got %d", closed.Load())
	}
}

func TestRequestClose_OutsideClickClosesEvenInChat(t *testing.T) {
	var closed atomic.Int64
	c := newTestController(t, Config{
		Session:      newFakeSession(),
		OnOpenChange: func(open bool) { closed.Add(1) },
	})

	c.SwitchToChat("")
	if handled := c.RequestClose(CloseOutsideClick); handled {
		t.Fatalf("only escape is intercepted in chat mode")
	}
	if closed.Load() != 1 {
		t.Fatalf("expected close notification, got %d", closed.Load())
	}
}

func TestAutoSave_EdgeTriggeredOnCompletion(t *testing.T) {
	session := newFakeSession()
	storage := newCountingStorage()
	c := newTestController(t, Config{Session: session, Storage: storage})

	c.StartNewChat()
	savesAfterSetup := storage.saves.Load()

	session.SendMessage("refund order 123")

	// idle -> submitted -> streaming -> idle, messages present at the end
	session.setStatus(chat.StatusSubmitted, nil)
	session.setStatus(chat.StatusStreaming, nil)
	if len(c.Conversations()) != 0 {
		t.Fatalf("no save may fire before the stream settles")
	}
	session.setStatus(chat.StatusReady, nil)

	convs := c.Conversations()
	if len(convs) != 1 {
		t.Fatalf("expected exactly one saved conversation, got %d", len(convs))
	}
	if got := storage.saves.Load() - savesAfterSetup; got != 1 {
		t.Fatalf("expected exactly one persist for the transition, got %d", got)
	}

	// Unrelated notifications at idle must not re-fire the save
	session.notify()
	session.notify()
	if got := storage.saves.Load() - savesAfterSetup; got != 1 {
		t.Fatalf("auto-save re-fired on level, not edge: %d persists", got)
	}
}

func TestAutoSave_SkippedWhenTranscriptEmpty(t *testing.T) {
	session := newFakeSession()
	storage := newCountingStorage()
	c := newTestController(t, Config{Session: session, Storage: storage})

	c.StartNewChat()
	session.setStatus(chat.StatusSubmitted, nil)
	session.SetMessages(nil)
	session.setStatus(chat.StatusReady, nil)

	if len(c.Conversations()) != 0 {
		t.Fatalf("empty transcript must not be saved")
	}
}

func TestSelectAskAI_DispatchesWhenNothingElseMatches(t *testing.T) {
	session := newFakeSession()
	c := newTestController(t, Config{
		Session: session,
		Commands: []CommandDefinition{
			{Name: "settings", Label: "Open Settings"},
			{Name: "dashboard", Label: "Go to Dashboard"},
		},
	})

	c.SetInput("refund order 123")
	c.SelectAskAI()

	if c.Mode() != ModeChat {
		t.Fatalf("expected chat mode, got %q", c.Mode())
	}
	if c.CurrentConversationID() == "" {
		t.Fatalf("expected a fresh conversation id")
	}
	sent := session.sentMessages()
	if len(sent) != 1 || sent[0] != "refund order 123" {
		t.Fatalf("expected input sent as first message, got %v", sent)
	}
}

func TestSelectAskAI_OnlySwitchesWhenItemsMatch(t *testing.T) {
	session := newFakeSession()
	c := newTestController(t, Config{
		Session:  session,
		Commands: []CommandDefinition{{Name: "settings", Label: "Open Settings"}},
	})

	c.SetInput("settings")
	c.SelectAskAI()

	if c.Mode() != ModeChat {
		t.Fatalf("expected chat mode, got %q", c.Mode())
	}
	if c.Input() != "" {
		t.Fatalf("expected input cleared, got %q", c.Input())
	}
	if sent := session.sentMessages(); len(sent) != 0 {
		t.Fatalf("browsing input must not be sent, got %v", sent)
	}
}

func TestSelectAskAI_EmptyInputJustSwitches(t *testing.T) {
	session := newFakeSession()
	c := newTestController(t, Config{Session: session})

	c.SelectAskAI()
	if c.Mode() != ModeChat {
		t.Fatalf("expected chat mode, got %q", c.Mode())
	}
	if sent := session.sentMessages(); len(sent) != 0 {
		t.Fatalf("nothing to send on empty input, got %v", sent)
	}
}

func TestSelectAskAI_NoopWhenDisabled(t *testing.T) {
	c := newTestController(t, Config{Commands: []CommandDefinition{{Name: "settings"}}})

	c.SetInput("refund order 123")
	c.SelectAskAI()

	if c.Mode() != ModeCommand {
		t.Fatalf("disabled ask-AI must not change mode, got %q", c.Mode())
	}
}

func TestHandleSendAccelerator_FromCommandModeStartsChat(t *testing.T) {
	session := newFakeSession()
	c := newTestController(t, Config{Session: session})

	c.SetInput("summarize my week")
	if !c.HandleSendAccelerator() {
		t.Fatalf("accelerator with input must be consumed")
	}

	if c.Mode() != ModeChat {
		t.Fatalf("expected chat mode, got %q", c.Mode())
	}
	if c.CurrentConversationID() == "" {
		t.Fatalf("expected a new conversation before sending")
	}
	sent := session.sentMessages()
	if len(sent) != 1 || sent[0] != "summarize my week" {
		t.Fatalf("expected input sent, got %v", sent)
	}
	if c.Input() != "" {
		t.Fatalf("expected input cleared after send, got %q", c.Input())
	}
}

func TestHandleSendAccelerator_InChatModeJustSends(t *testing.T) {
	session := newFakeSession()
	c := newTestController(t, Config{Session: session})

	c.SwitchToChat("")
	first := c.CurrentConversationID()
	c.SetInput("and another thing")
	c.HandleSendAccelerator()

	if c.CurrentConversationID() != first {
		t.Fatalf("accelerator in chat mode must not start a new conversation")
	}
	if sent := session.sentMessages(); len(sent) != 1 || sent[0] != "and another thing" {
		t.Fatalf("expected message sent, got %v", sent)
	}
}

func TestHandleEnter_SendsOnlyInChatMode(t *testing.T) {
	session := newFakeSession()
	c := newTestController(t, Config{Session: session})

	c.SetInput("pick me")
	if c.HandleEnter() {
		t.Fatalf("enter in command mode belongs to the list")
	}
	if sent := session.sentMessages(); len(sent) != 0 {
		t.Fatalf("nothing should be sent from command mode, got %v", sent)
	}

	c.SwitchToChat("")
	c.SetInput("pick me")
	if !c.HandleEnter() {
		t.Fatalf("enter in chat mode must be consumed")
	}
	if sent := session.sentMessages(); len(sent) != 1 || sent[0] != "pick me" {
		t.Fatalf("expected message sent, got %v", sent)
	}
}

func TestGroups_RecentConversationsTopFiveAndLoad(t *testing.T) {
	session := newFakeSession()
	c := newTestController(t, Config{Session: session})

	for i := 0; i < 7; i++ {
		c.StartNewChat()
		session.SetMessages([]chat.Message{chat.NewUserMessage("question number " + string(rune('a'+i)))})
		session.setStatus(chat.StatusSubmitted, nil)
		session.setStatus(chat.StatusReady, nil)
	}

	var recent *ItemGroup
	for _, g := range c.Groups() {
		if g.Heading == "Recent Chats" {
			g := g
			recent = &g
		}
	}
	if recent == nil {
		t.Fatalf("expected a Recent Chats group")
	}
	if len(recent.Items) != 5 {
		t.Fatalf("expected top 5 conversations, got %d", len(recent.Items))
	}
	if recent.Items[0].Label != "question number g" {
		t.Fatalf("expected most recent first, got %q", recent.Items[0].Label)
	}

	recent.Items[1].Select()
	if c.Mode() != ModeChat {
		t.Fatalf("selecting a conversation must force chat mode, got %q", c.Mode())
	}
	if got := session.Messages(); len(got) == 0 || got[0].Text() != "question number f" {
		t.Fatalf("expected transcript restored, got %+v", got)
	}
}

func TestGroups_CommandSelectRunsAndCloses(t *testing.T) {
	var ran, closed atomic.Int64
	c := newTestController(t, Config{
		Commands: []CommandDefinition{
			{Name: "dark-mode", Label: "Toggle dark mode", OnSelect: func() { ran.Add(1) }},
		},
		OnOpenChange: func(open bool) {
			if !open {
				closed.Add(1)
			}
		},
	})

	groups := c.Groups()
	if len(groups) != 1 || len(groups[0].Items) != 1 {
		t.Fatalf("expected a single command item, got %+v", groups)
	}
	groups[0].Items[0].Select()

	if ran.Load() != 1 {
		t.Fatalf("expected OnSelect to run once, got %d", ran.Load())
	}
	if closed.Load() != 1 {
		t.Fatalf("expected palette close after select, got %d", closed.Load())
	}
}

func TestGroups_DisabledItemIsInert(t *testing.T) {
	var ran atomic.Int64
	c := newTestController(t, Config{
		Commands: []CommandDefinition{
			{Name: "locked", Disabled: true, OnSelect: func() { ran.Add(1) }},
		},
	})

	c.Groups()[0].Items[0].Select()
	if ran.Load() != 0 {
		t.Fatalf("disabled item must not run")
	}
}

func TestGroups_ActionsFromSourceStartChat(t *testing.T) {
	session := newFakeSession()
	session.actions = []chat.Action{
		{Name: "create-invoice", Label: "Create invoice", Execute: func(map[string]any) {}},
		{Name: "not-executable"},
	}
	c := newTestController(t, Config{Session: session})

	var actions *ItemGroup
	for _, g := range c.Groups() {
		if g.Heading == "Actions" {
			g := g
			actions = &g
		}
	}
	if actions == nil || len(actions.Items) != 1 {
		t.Fatalf("expected only executable actions listed, got %+v", actions)
	}

	actions.Items[0].Select()
	if c.Mode() != ModeChat {
		t.Fatalf("selecting an action must enter chat mode")
	}
	if sent := session.sentMessages(); len(sent) != 1 || sent[0] != "Create invoice" {
		t.Fatalf("expected action label sent, got %v", sent)
	}
}

func TestFilterGroups_AskAISurvivesAnyQuery(t *testing.T) {
	c := newTestController(t, Config{
		Session:  newFakeSession(),
		Commands: []CommandDefinition{{Name: "settings"}},
	})

	groups := c.FilterGroups("zzzzzz")
	if len(groups) != 1 || groups[0].Items[0].Kind != ItemAskAI {
		t.Fatalf("expected only the pinned ask-AI item, got %+v", groups)
	}
}

func TestEndToEnd_AskAIWithStreamingTransport(t *testing.T) {
	transport := &replayTransport{events: []chat.StreamEvent{
		{Type: chat.EventTextDelta, Delta: "Refund for order 123 "},
		{Type: chat.EventTextDelta, Delta: "has been initiated."},
	}}
	storage := newCountingStorage()

	c := newTestController(t, Config{
		Endpoint:  "https://example.com/api/chat",
		Transport: transport,
		Storage:   storage,
	})

	changes := make(chan struct{}, 64)
	c.OnChange(func() {
		select {
		case changes <- struct{}{}:
		default:
		}
	})

	c.SetInput("refund order 123")
	c.SelectAskAI()

	if c.Mode() != ModeChat {
		t.Fatalf("expected chat mode, got %q", c.Mode())
	}
	if c.CurrentConversationID() == "" {
		t.Fatalf("expected a conversation id assigned")
	}

	deadline := time.After(2 * time.Second)
	for {
		if c.Status() == StatusIdle && len(c.Conversations()) > 0 {
			break
		}
		select {
		case <-changes:
		case <-deadline:
			t.Fatalf("stream never settled: status=%q conversations=%d", c.Status(), len(c.Conversations()))
		}
	}

	convs := c.Conversations()
	if convs[0].Title != "refund order 123" {
		t.Fatalf("expected conversation titled from first user message, got %q", convs[0].Title)
	}

	messages := c.Messages()
	if len(messages) != 2 {
		t.Fatalf("expected user + assistant message, got %d", len(messages))
	}
	if messages[1].Text() != "Refund for order 123 has been initiated." {
		t.Fatalf("unexpected assistant text: %q", messages[1].Text())
	}

	if storage.saves.Load() == 0 {
		t.Fatalf("expected the completed conversation persisted to storage")
	}
}

// replayTransport emits a fixed script for every send
type replayTransport struct {
	mu     sync.Mutex
	events []chat.StreamEvent
}

func (r *replayTransport) Stream(ctx context.Context, _ []chat.Message) (<-chan chat.StreamEvent, error) {
	r.mu.Lock()
	events := append([]chat.StreamEvent(nil), r.events...)
	r.mu.Unlock()

	ch := make(chan chat.StreamEvent)
	go func() {
		defer close(ch)
		for _, ev := range events {
			select {
			case ch <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}
