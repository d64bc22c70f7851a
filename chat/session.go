package chat

// SessionStatus is the vocabulary emitted by message sources. Both the
// internal streaming session and externally supplied sessions speak it;
// the palette adapter maps it onto the normalized palette status.
type SessionStatus string

const (
	StatusReady     SessionStatus = "ready"
	StatusSubmitted SessionStatus = "submitted"
	StatusStreaming SessionStatus = "streaming"
	StatusError     SessionStatus = "error"
)

// Session is the capability every message source must provide. The
// palette depends only on this interface, so a caller-owned session and
// the internal streaming session behave identically downstream.
type Session interface {
	// Messages returns the current transcript. Never nil.
	Messages() []Message

	// SendMessage appends a user message and kicks off a response.
	// The session reports progress through Status/Err.
	SendMessage(text string)

	// Status reports the session's own status vocabulary.
	Status() SessionStatus

	// Err returns the error behind StatusError, nil otherwise.
	Err() error
}

// MessageSetter is implemented by sessions whose transcript can be
// replaced wholesale, which history restoration requires.
type MessageSetter interface {
	SetMessages(messages []Message)
}

// ToolApprover is implemented by sessions that support interactive
// tool-call approval.
type ToolApprover interface {
	AddToolApprovalResponse(id string, approved bool)
}

// Action is an executable operation advertised by an external session
type Action struct {
	Name    string
	Label   string
	Execute func(options map[string]any)
}

// DisplayLabel returns the label, falling back to the name
func (a Action) DisplayLabel() string {
	if a.Label != "" {
		return a.Label
	}
	return a.Name
}

// ActionProvider is implemented by sessions that advertise executable
// actions for the palette to surface.
type ActionProvider interface {
	AvailableActions() []Action
}

// Notifier is implemented by sessions that can push change
// notifications. The controller subscribes to drive status
// normalization and auto-save in source emission order.
type Notifier interface {
	OnChange(fn func())
}
