package palette

import (
	"log"
	"strings"
	"sync"

	"github.com/palettelabs/cmdpal/chat"
	"github.com/palettelabs/cmdpal/filter"
	"github.com/palettelabs/cmdpal/history"
)

// AskAIValue is the match value of the built-in "Ask AI" affordance
const AskAIValue = "ask-ai"

const defaultAskAILabel = "Ask AI"

// recentConversationLimit caps how many past chats surface in the list
const recentConversationLimit = 5

// FilterFunc decides whether a query matches an item's search terms.
// The default is the fuzzy matcher from the filter package.
type FilterFunc func(query string, targets ...string) bool

// CloseReason says why the host wants to close the palette
type CloseReason string

const (
	CloseEscape       CloseReason = "escape-key"
	CloseSelection    CloseReason = "select"
	CloseOutsideClick CloseReason = "outside-click"
	CloseRequest      CloseReason = "request"
)

// Config wires a Controller. Configure at most one of Session and
// Endpoint; when neither is set the palette runs command-only.
type Config struct {
	// Commands is the declarative command list. Names must be unique.
	Commands []CommandDefinition

	// Session is a caller-owned message source
	Session chat.Session

	// Endpoint makes the controller manage its own streaming session
	Endpoint string

	// Transport overrides the endpoint transport, mainly for tests
	Transport chat.Transport

	// Storage backs chat history. Defaults to file storage under the
	// user's home, degrading to in-memory when that fails.
	Storage          history.Storage
	StorageKey       string
	MaxConversations int

	// AskAILabel overrides the "Ask AI" affordance label
	AskAILabel string

	// OnModeChange is notified after every mode transition
	OnModeChange func(Mode)

	// OnOpenChange is notified when the palette asks its host to open
	// or close
	OnOpenChange func(open bool)

	// Filter overrides the matching function
	Filter FilterFunc

	// Logger receives swallowed storage errors
	Logger func(format string, args ...any)

	// Clock overrides the history timestamp source (unix millis)
	Clock func() int64
}

// Controller is the palette's single source of truth: mode, input,
// normalized status, the active message source, and chat history. All
// methods are safe for the UI goroutine while a stream completes in
// the background.
type Controller struct {
	mu     sync.Mutex
	mode   Mode
	input  string
	status Status
	err    error

	adapter *Adapter
	store   *history.Store
	groups  []commandGroup

	askAILabel   string
	filter       FilterFunc
	onModeChange func(Mode)
	onOpenChange func(bool)
	onChange     func()
}

// NewController validates the configuration and builds the controller.
// Duplicate command names and double message sources fail here, loudly:
// they are integration bugs, not runtime conditions.
func NewController(cfg Config) (*Controller, error) {
	if err := validateCommands(cfg.Commands); err != nil {
		return nil, err
	}

	adapter, err := newAdapter(cfg.Session, cfg.Endpoint, cfg.Transport)
	if err != nil {
		return nil, err
	}

	logf := cfg.Logger
	if logf == nil {
		logf = log.Printf
	}

	storage := cfg.Storage
	if storage == nil {
		fs, err := history.DefaultFileStorage()
		if err != nil {
			logf("palette: durable storage unavailable, history is in-memory: %v", err)
			storage = history.NewMemoryStorage()
		} else {
			storage = fs
		}
	}

	storeOpts := []history.StoreOption{history.WithLogger(logf)}
	if cfg.StorageKey != "" {
		storeOpts = append(storeOpts, history.WithStorageKey(cfg.StorageKey))
	}
	if cfg.MaxConversations > 0 {
		storeOpts = append(storeOpts, history.WithMaxConversations(cfg.MaxConversations))
	}
	if cfg.Clock != nil {
		storeOpts = append(storeOpts, history.WithClock(cfg.Clock))
	}

	askAILabel := cfg.AskAILabel
	if askAILabel == "" {
		askAILabel = defaultAskAILabel
	}

	filterFn := cfg.Filter
	if filterFn == nil {
		filterFn = filter.Matches
	}

	c := &Controller{
		mode:         ModeCommand,
		status:       StatusIdle,
		adapter:      adapter,
		store:        history.NewStore(storage, adapter, storeOpts...),
		groups:       groupCommands(cfg.Commands),
		askAILabel:   askAILabel,
		filter:       filterFn,
		onModeChange: cfg.OnModeChange,
		onOpenChange: cfg.OnOpenChange,
	}

	adapter.subscribe(c.handleSessionChange)

	return c, nil
}

// OnChange registers a callback fired after every observable state
// change; presentation layers use it to re-render.
func (c *Controller) OnChange(fn func()) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

func (c *Controller) notifyChange() {
	c.mu.Lock()
	fn := c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// handleSessionChange re-derives the normalized status every time the
// active source reports a change, in emission order. The auto-save
// trigger is edge-based: it fires exactly once when a loading status
// settles to idle with messages present.
func (c *Controller) handleSessionChange() {
	status := c.adapter.Status()
	err := c.adapter.Err()

	c.mu.Lock()
	prev := c.status
	c.status = status
	c.err = err
	c.mu.Unlock()

	if prev.Loading() && status == StatusIdle && len(c.adapter.Messages()) > 0 {
		c.store.SaveCurrentConversation()
	}

	c.notifyChange()
}

// Mode returns the current palette mode
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// SetMode transitions to the given mode and notifies the host
func (c *Controller) SetMode(mode Mode) {
	c.mu.Lock()
	c.mode = mode
	notify := c.onModeChange
	c.mu.Unlock()

	if notify != nil {
		notify(mode)
	}
	c.notifyChange()
}

// Input returns the current input value
func (c *Controller) Input() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.input
}

// SetInput sets the input value. Fully controlled: every keystroke
// lands here synchronously, filtering is the consumer's concern.
func (c *Controller) SetInput(value string) {
	c.mu.Lock()
	c.input = value
	c.mu.Unlock()
	c.notifyChange()
}

// Status returns the normalized status
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Err returns the error behind StatusError, nil otherwise
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// IsEnabled reports whether a chat source is configured
func (c *Controller) IsEnabled() bool {
	return c.adapter.IsEnabled()
}

// Messages returns the live transcript, never nil
func (c *Controller) Messages() []chat.Message {
	return c.adapter.Messages()
}

// Conversations returns the persisted history, most recent first
func (c *Controller) Conversations() []history.Conversation {
	return c.store.Conversations()
}

// CurrentConversationID returns the active conversation id
func (c *Controller) CurrentConversationID() string {
	return c.store.CurrentID()
}

// SwitchToChat enters chat mode, optionally seeding the input. No-op
// when chat is not enabled.
func (c *Controller) SwitchToChat(initialQuery string) {
	if !c.adapter.IsEnabled() {
		return
	}
	c.SetMode(ModeChat)
	if initialQuery != "" {
		c.SetInput(initialQuery)
	}
}

// SwitchToCommand returns to command mode, clearing input, resetting
// status to idle, and dropping any error. This is the escape path out
// of chat.
func (c *Controller) SwitchToCommand() {
	c.mu.Lock()
	c.mode = ModeCommand
	c.input = ""
	c.status = StatusIdle
	c.err = nil
	notify := c.onModeChange
	c.mu.Unlock()

	if notify != nil {
		notify(ModeCommand)
	}
	c.notifyChange()
}

// SendMessage trims and sends the content through the active source,
// clearing the input. Empty content is a no-op.
func (c *Controller) SendMessage(content string) {
	if strings.TrimSpace(content) == "" {
		return
	}

	c.mu.Lock()
	c.input = ""
	c.mu.Unlock()

	c.adapter.SendMessage(content)
	c.notifyChange()
}

// StartNewChat persists the current conversation (when non-empty),
// clears the live transcript, and assigns a fresh conversation id.
func (c *Controller) StartNewChat() {
	c.store.StartNewChat()
	c.notifyChange()
}

// SelectConversation loads a stored conversation and forces chat mode
func (c *Controller) SelectConversation(id string) {
	c.store.LoadConversation(id)
	c.SwitchToChat("")
}

// AddToolApprovalResponse forwards a tool approval to the source
func (c *Controller) AddToolApprovalResponse(id string, approved bool) {
	c.adapter.AddToolApprovalResponse(id, approved)
}

// RequestClose handles a close request from the host. In chat mode an
// escape is intercepted and converted into SwitchToCommand; the
// returned true means the close was cancelled. Everything else
// propagates to OnOpenChange.
func (c *Controller) RequestClose(reason CloseReason) bool {
	c.mu.Lock()
	mode := c.mode
	notify := c.onOpenChange
	c.mu.Unlock()

	if mode == ModeChat && reason == CloseEscape {
		c.SwitchToCommand()
		return true
	}
	if notify != nil {
		notify(false)
	}
	return false
}

// HandleSendAccelerator handles the modifier+Enter "send" shortcut.
// From command mode with input it starts a new chat, switches to chat
// mode, and sends the input as the first message, in that order. In
// chat mode it just sends. Returns whether the key was consumed.
func (c *Controller) HandleSendAccelerator() bool {
	c.mu.Lock()
	mode := c.mode
	input := c.input
	c.mu.Unlock()

	if strings.TrimSpace(input) == "" {
		return false
	}

	switch mode {
	case ModeCommand:
		if !c.adapter.IsEnabled() {
			return false
		}
		c.StartNewChat()
		c.SwitchToChat("")
		c.SendMessage(input)
		return true
	case ModeChat:
		c.SendMessage(input)
		return true
	}
	return false
}

// HandleEnter handles plain Enter. In chat mode it sends the input;
// in command mode the list collaborator owns Enter (item selection),
// so false is returned.
func (c *Controller) HandleEnter() bool {
	c.mu.Lock()
	mode := c.mode
	input := c.input
	c.mu.Unlock()

	if mode != ModeChat {
		return false
	}
	if strings.TrimSpace(input) != "" {
		c.SendMessage(input)
	}
	return true
}

// SelectAskAI handles selection of the "Ask AI" affordance. With a
// non-empty input that matches neither the affordance itself nor any
// other item, the user was asking, not browsing: start a new chat and
// send the input immediately. Otherwise just enter chat mode.
func (c *Controller) SelectAskAI() {
	if !c.adapter.IsEnabled() {
		return
	}

	c.mu.Lock()
	input := c.input
	c.mu.Unlock()

	query := strings.TrimSpace(input)
	if query == "" {
		c.SwitchToChat("")
		return
	}

	matchesAskAI := c.filter(query, AskAIValue, c.askAILabel)
	if c.matchCount(query) == 0 && !matchesAskAI {
		c.StartNewChat()
		c.SwitchToChat("")
		c.SendMessage(input)
		return
	}

	c.SwitchToChat("")
	c.SetInput("")
}

// matchCount counts the regular items (everything but the Ask AI
// affordance) matching the query.
func (c *Controller) matchCount(query string) int {
	count := 0
	for _, group := range c.Groups() {
		for _, item := range group.Items {
			if item.Kind == ItemAskAI {
				continue
			}
			if c.filter(query, item.matchTerms()...) {
				count++
			}
		}
	}
	return count
}
