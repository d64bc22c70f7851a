package chat

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 120 * time.Second

// EventType discriminates streamed transport events
type EventType string

const (
	EventTextDelta  EventType = "text-delta"
	EventToolCall   EventType = "tool-call"
	EventToolResult EventType = "tool-result"
	EventUI         EventType = "ui"
	EventError      EventType = "error"
)

// StreamEvent is one incremental update from the transport
type StreamEvent struct {
	Type  EventType `json:"type"`
	Delta string    `json:"delta,omitempty"`
	Part  *Part     `json:"part,omitempty"`
	Error string    `json:"error,omitempty"`
}

// Transport streams assistant output for a conversation. Implementations
// must close the returned channel when the response is complete.
type Transport interface {
	Stream(ctx context.Context, messages []Message) (<-chan StreamEvent, error)
}

// HTTPTransport talks to a chat endpoint over server-sent events. The
// endpoint receives the full transcript and streams back incremental
// events until it emits [DONE].
type HTTPTransport struct {
	endpoint   string
	httpClient *http.Client
	headers    map[string]string
}

// TransportOption configures an HTTPTransport
type TransportOption func(*HTTPTransport)

// WithHTTPClient overrides the default HTTP client
func WithHTTPClient(client *http.Client) TransportOption {
	return func(t *HTTPTransport) {
		t.httpClient = client
	}
}

// WithHeader adds a header to every request
func WithHeader(key, value string) TransportOption {
	return func(t *HTTPTransport) {
		t.headers[key] = value
	}
}

// NewHTTPTransport creates a transport for the given endpoint
func NewHTTPTransport(endpoint string, opts ...TransportOption) *HTTPTransport {
	t := &HTTPTransport{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: defaultTimeout},
		headers:    make(map[string]string),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Stream posts the transcript and returns a channel of incremental events
func (t *HTTPTransport) Stream(ctx context.Context, messages []Message) (<-chan StreamEvent, error) {
	body, err := json.Marshal(struct {
		Messages []Message `json:"messages"`
	}{Messages: messages})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", t.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("chat endpoint error: status %d, body: %s", resp.StatusCode, string(respBody))
	}

	events := make(chan StreamEvent)

	go func() {
		defer close(events)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			if line == "" {
				continue
			}
			if !strings.HasPrefix(line, "data: ") {
				continue
			}

			data := strings.TrimPrefix(line, "data: ")
			if data == "[DONE]" {
				return
			}

			var event StreamEvent
			if err := json.Unmarshal([]byte(data), &event); err != nil {
				// Skip malformed events rather than aborting the stream
				continue
			}

			select {
			case events <- event:
			case <-ctx.Done():
				return
			}
		}

		if err := scanner.Err(); err != nil {
			select {
			case events <- StreamEvent{Type: EventError, Error: err.Error()}:
			case <-ctx.Done():
			}
		}
	}()

	return events, nil
}
