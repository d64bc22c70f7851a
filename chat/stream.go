package chat

import (
	"context"
	"errors"
	"sync"
)

// StreamingSession is the internally managed message source. It owns
// the live transcript, forwards sends to the transport, and walks its
// status through submitted -> streaming -> ready (or error) in the
// order the transport emits events. Every observable mutation fires
// the change callback so subscribers see each intermediate state.
type StreamingSession struct {
	mu        sync.Mutex
	transport Transport
	messages  []Message
	status    SessionStatus
	err       error
	onChange  func()
}

// NewStreamingSession creates a session backed by the given transport
func NewStreamingSession(transport Transport) *StreamingSession {
	return &StreamingSession{
		transport: transport,
		messages:  []Message{},
		status:    StatusReady,
	}
}

// OnChange registers the change callback. Only one subscriber is
// supported; the controller fans out from there.
func (s *StreamingSession) OnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Messages returns a snapshot of the transcript
func (s *StreamingSession) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return CloneMessages(s.messages)
}

// SetMessages replaces the transcript wholesale
func (s *StreamingSession) SetMessages(messages []Message) {
	s.mu.Lock()
	s.messages = CloneMessages(messages)
	notify := s.onChange
	s.mu.Unlock()

	if notify != nil {
		notify()
	}
}

// Status reports the session status
func (s *StreamingSession) Status() SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Err returns the error behind StatusError, nil otherwise
func (s *StreamingSession) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// SendMessage appends a user message and streams the response. The
// call returns immediately; progress is reported through Status and
// the change callback. There is no cancellation for an in-flight send:
// a completion always lands on whatever transcript is live when it
// arrives.
func (s *StreamingSession) SendMessage(text string) {
	s.mu.Lock()
	s.messages = append(s.messages, NewUserMessage(text))
	s.status = StatusSubmitted
	s.err = nil
	snapshot := CloneMessages(s.messages)
	notify := s.onChange
	s.mu.Unlock()

	if notify != nil {
		notify()
	}

	go s.run(context.Background(), snapshot)
}

// run consumes the transport's event stream. Single consumer, so the
// transcript and status mutate in exact emission order.
func (s *StreamingSession) run(ctx context.Context, transcript []Message) {
	events, err := s.transport.Stream(ctx, transcript)
	if err != nil {
		s.fail(err)
		return
	}

	for event := range events {
		switch event.Type {
		case EventTextDelta:
			s.applyDelta(event.Delta)
		case EventToolCall, EventToolResult, EventUI:
			if event.Part != nil {
				s.applyPart(*event.Part)
			}
		case EventError:
			s.fail(errors.New(event.Error))
			return
		}
	}

	s.complete()
}

func (s *StreamingSession) applyDelta(delta string) {
	s.mu.Lock()
	s.ensureAssistantLocked()
	s.messages[len(s.messages)-1].AppendText(delta)
	s.status = StatusStreaming
	notify := s.onChange
	s.mu.Unlock()

	if notify != nil {
		notify()
	}
}

func (s *StreamingSession) applyPart(part Part) {
	s.mu.Lock()
	s.ensureAssistantLocked()
	last := len(s.messages) - 1
	s.messages[last].Parts = append(s.messages[last].Parts, part)
	s.status = StatusStreaming
	notify := s.onChange
	s.mu.Unlock()

	if notify != nil {
		notify()
	}
}

func (s *StreamingSession) complete() {
	s.mu.Lock()
	if s.status == StatusError {
		s.mu.Unlock()
		return
	}
	s.status = StatusReady
	notify := s.onChange
	s.mu.Unlock()

	if notify != nil {
		notify()
	}
}

func (s *StreamingSession) fail(err error) {
	s.mu.Lock()
	s.status = StatusError
	s.err = err
	notify := s.onChange
	s.mu.Unlock()

	if notify != nil {
		notify()
	}
}

// ensureAssistantLocked guarantees the transcript ends with an
// assistant message to receive streamed output. Caller holds the lock.
func (s *StreamingSession) ensureAssistantLocked() {
	if n := len(s.messages); n > 0 && s.messages[n-1].Role == RoleAssistant {
		return
	}
	s.messages = append(s.messages, NewAssistantMessage())
}
