package palette

import "github.com/palettelabs/cmdpal/chat"

// Mode is the palette's current surface: browsing commands or chatting
// with the AI. Exactly one value at a time.
type Mode string

const (
	ModeCommand Mode = "command"
	ModeChat    Mode = "chat"
)

// Status is the normalized request status shared by all message
// sources, whatever vocabulary the underlying session speaks.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusSubmitted Status = "submitted"
	StatusStreaming Status = "streaming"
	StatusError     Status = "error"
)

// Loading reports whether a request is currently in flight
func (s Status) Loading() bool {
	return s == StatusSubmitted || s == StatusStreaming
}

// normalizeStatus collapses the session vocabulary onto the palette's.
// Unknown values map to idle so a misbehaving source can never wedge
// the palette in a loading state.
func normalizeStatus(status chat.SessionStatus) Status {
	switch status {
	case chat.StatusStreaming:
		return StatusStreaming
	case chat.StatusSubmitted:
		return StatusSubmitted
	case chat.StatusError:
		return StatusError
	default:
		return StatusIdle
	}
}
