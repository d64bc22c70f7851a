package palette

import (
	"errors"
	"strings"

	"github.com/palettelabs/cmdpal/chat"
)

// ErrBothSources is returned when both an external session and an
// endpoint are configured. Exactly one message source may be active.
var ErrBothSources = errors.New("palette: configure either an external session or a chat endpoint, not both")

// Adapter unifies the two possible message sources, an externally
// supplied session or an internally managed streaming session, behind
// one surface so everything downstream is source-agnostic.
type Adapter struct {
	external chat.Session
	internal *chat.StreamingSession
}

// newAdapter builds the adapter for the configured source. transport
// overrides the endpoint-derived transport when non-nil (tests inject
// scripted fakes this way).
func newAdapter(external chat.Session, endpoint string, transport chat.Transport) (*Adapter, error) {
	if external != nil && (endpoint != "" || transport != nil) {
		return nil, ErrBothSources
	}

	a := &Adapter{external: external}
	if external == nil {
		if transport == nil && endpoint != "" {
			transport = chat.NewHTTPTransport(endpoint)
		}
		if transport != nil {
			a.internal = chat.NewStreamingSession(transport)
		}
	}
	return a, nil
}

// source returns the active session, nil when chat is not configured
func (a *Adapter) source() chat.Session {
	if a.external != nil {
		return a.external
	}
	if a.internal != nil {
		return a.internal
	}
	return nil
}

// IsEnabled reports whether any message source is configured. Every
// chat-entry action checks this and no-ops when false.
func (a *Adapter) IsEnabled() bool {
	return a.source() != nil
}

// Messages returns the active source's transcript, never nil
func (a *Adapter) Messages() []chat.Message {
	if s := a.source(); s != nil {
		if msgs := s.Messages(); msgs != nil {
			return msgs
		}
	}
	return []chat.Message{}
}

// SetMessages replaces the active source's transcript when the source
// supports it. History restoration depends on this.
func (a *Adapter) SetMessages(messages []chat.Message) {
	if setter, ok := a.source().(chat.MessageSetter); ok {
		setter.SetMessages(messages)
	}
}

// SendMessage trims and forwards the content to the active source.
// Empty content after trimming is a no-op. An external session
// communicates its own status; the internal session walks
// submitted -> streaming -> ready itself.
func (a *Adapter) SendMessage(content string) {
	content = strings.TrimSpace(content)
	if content == "" {
		return
	}
	if s := a.source(); s != nil {
		s.SendMessage(content)
	}
}

// Status returns the normalized status of the active source
func (a *Adapter) Status() Status {
	if s := a.source(); s != nil {
		return normalizeStatus(s.Status())
	}
	return StatusIdle
}

// Err returns the active source's error, nil outside StatusError
func (a *Adapter) Err() error {
	if s := a.source(); s != nil {
		return s.Err()
	}
	return nil
}

// AddToolApprovalResponse forwards a tool approval to sources that
// support it
func (a *Adapter) AddToolApprovalResponse(id string, approved bool) {
	if approver, ok := a.source().(chat.ToolApprover); ok {
		approver.AddToolApprovalResponse(id, approved)
	}
}

// AvailableActions returns the executable actions advertised by the
// active source
func (a *Adapter) AvailableActions() []chat.Action {
	if provider, ok := a.source().(chat.ActionProvider); ok {
		return provider.AvailableActions()
	}
	return nil
}

// subscribe registers for source change notifications when supported
func (a *Adapter) subscribe(fn func()) {
	if notifier, ok := a.source().(chat.Notifier); ok {
		notifier.OnChange(fn)
	}
}
