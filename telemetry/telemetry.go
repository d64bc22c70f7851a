// Package telemetry reports errors and timed operations to an
// opt-in collection endpoint. Reporting is fire-and-forget: a failed
// or slow delivery never blocks or breaks the palette.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DisableEnvVar switches telemetry off regardless of configuration
const DisableEnvVar = "CMDPAL_TELEMETRY_DISABLED"

const sendTimeout = 5 * time.Second

// Event is the wire payload. It deliberately carries no user content,
// transcript text, or request data.
type Event struct {
	Type      string            `json:"type"`
	Name      string            `json:"name"`
	Op        string            `json:"op,omitempty"`
	Status    string            `json:"status,omitempty"`
	Error     string            `json:"error,omitempty"`
	TraceID   string            `json:"trace_id"`
	StartedAt int64             `json:"started_at,omitempty"`
	EndedAt   int64             `json:"ended_at,omitempty"`
	Tags      map[string]string `json:"tags,omitempty"`
	Version   string            `json:"version,omitempty"`
}

// Reporter delivers events over HTTP. The zero value and a nil
// Reporter are both safe no-ops, so callers never need to guard.
type Reporter struct {
	endpoint string
	version  string
	client   *http.Client
	logf     func(format string, args ...any)
	wg       sync.WaitGroup
}

// Option configures a Reporter
type Option func(*Reporter)

// WithHTTPClient overrides the transport client
func WithHTTPClient(client *http.Client) Option {
	return func(r *Reporter) {
		r.client = client
	}
}

// WithVersion stamps every event with the embedding app's version
func WithVersion(version string) Option {
	return func(r *Reporter) {
		r.version = version
	}
}

// WithLogger overrides where delivery failures go. Default is silence;
// telemetry trouble is not the user's problem.
func WithLogger(logf func(format string, args ...any)) Option {
	return func(r *Reporter) {
		r.logf = logf
	}
}

// New creates a reporter posting to the given endpoint. An empty
// endpoint or the disable env var yields a disabled reporter.
func New(endpoint string, opts ...Option) *Reporter {
	if endpoint == "" || os.Getenv(DisableEnvVar) == "1" {
		return nil
	}
	r := &Reporter{
		endpoint: endpoint,
		client:   &http.Client{Timeout: sendTimeout},
		logf:     func(string, ...any) {},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Enabled reports whether events will actually be sent
func (r *Reporter) Enabled() bool {
	return r != nil
}

// CaptureError reports an error with optional tags. Tag values must be
// categorical (command names, status words), never user input.
func (r *Reporter) CaptureError(err error, tags map[string]string) {
	if r == nil || err == nil {
		return
	}
	r.send(Event{
		Type:    "error",
		Name:    "error",
		Status:  "internal_error",
		Error:   err.Error(),
		TraceID: newTraceID(),
		EndedAt: time.Now().UnixMilli(),
		Tags:    tags,
	})
}

// Span times fn and reports it as a transaction, carrying the error
// status through. The fn result is returned unchanged.
func (r *Reporter) Span(name, op string, fn func() error) error {
	if r == nil {
		return fn()
	}

	start := time.Now()
	err := fn()

	status := "ok"
	if err != nil {
		status = "internal_error"
	}
	r.send(Event{
		Type:      "transaction",
		Name:      name,
		Op:        op,
		Status:    status,
		TraceID:   newTraceID(),
		StartedAt: start.UnixMilli(),
		EndedAt:   time.Now().UnixMilli(),
	})
	return err
}

// Close waits for in-flight deliveries, bounded by the send timeout.
// Call it on shutdown so short-lived processes do not drop the tail.
func (r *Reporter) Close() {
	if r == nil {
		return
	}
	r.wg.Wait()
}

func (r *Reporter) send(event Event) {
	event.Version = r.version

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		body, err := json.Marshal(event)
		if err != nil {
			r.logf("telemetry: marshal failed: %v", err)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
		if err != nil {
			r.logf("telemetry: request failed: %v", err)
			return
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := r.client.Do(req)
		if err != nil {
			r.logf("telemetry: delivery failed: %v", err)
			return
		}
		resp.Body.Close()
	}()
}

func newTraceID() string {
	return uuid.NewString()
}
