// Package relay delivers fire-and-forget outbound integrations: lead
// capture, vitals sync, clinical-report sync, workflow triggers, and dose
// reminders. Delivery is best-effort by contract: failures are logged and
// dropped, never retried, and never surfaced to the caller.
package relay

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Kind selects the destination endpoint for an event.
type Kind string

const (
	KindLeadCapture     Kind = "lead-capture"
	KindVitalsSync      Kind = "vitals-sync"
	KindReportSync      Kind = "report-sync"
	KindWorkflowTrigger Kind = "workflow-trigger"
	KindDoseReminder    Kind = "dose-reminder"
)

// Event is one outbound message: a flat field set plus role context.
type Event struct {
	ID        string            `json:"id"`
	Kind      Kind              `json:"kind"`
	Role      string            `json:"role"`
	Fields    map[string]string `json:"fields"`
	Timestamp time.Time         `json:"timestamp"`
}

// SignPayload returns the hex HMAC-SHA256 of payload under secret.
func SignPayload(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithHTTPClient overrides the default HTTP client used for deliveries.
func WithHTTPClient(c *http.Client) Option {
	return func(d *Dispatcher) { d.client = c }
}

// WithQueueSize overrides the dispatch queue capacity.
func WithQueueSize(n int) Option {
	return func(d *Dispatcher) { d.queue = make(chan Event, n) }
}

// Dispatcher owns a buffered queue and a single worker goroutine. Dispatch
// never blocks the caller: when the queue is full the event is dropped
// with a log line, matching the best-effort contract.
type Dispatcher struct {
	endpoints map[Kind]string
	secret    string
	client    *http.Client
	queue     chan Event
	logger    zerolog.Logger
	wg        sync.WaitGroup
	stopOnce  sync.Once
}

// NewDispatcher creates a stopped Dispatcher. Kinds without a configured
// endpoint are silently skipped at dispatch time.
func NewDispatcher(logger zerolog.Logger, endpoints map[Kind]string, secret string, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		endpoints: endpoints,
		secret:    secret,
		client:    &http.Client{Timeout: 10 * time.Second},
		queue:     make(chan Event, 64),
		logger:    logger.With().Str("component", "relay").Logger(),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Start launches the delivery worker.
func (d *Dispatcher) Start() {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for ev := range d.queue {
			d.deliver(ev)
		}
	}()
}

// Stop drains the queue and waits for in-flight deliveries.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() { close(d.queue) })
	d.wg.Wait()
}

// Dispatch enqueues an event and returns immediately.
func (d *Dispatcher) Dispatch(kind Kind, role string, fields map[string]string) {
	if _, ok := d.endpoints[kind]; !ok {
		return
	}
	ev := Event{
		ID:        uuid.New().String(),
		Kind:      kind,
		Role:      role,
		Fields:    fields,
		Timestamp: time.Now().UTC(),
	}
	select {
	case d.queue <- ev:
	default:
		d.logger.Warn().Str("event_id", ev.ID).Str("kind", string(kind)).
			Msg("relay queue full, event dropped")
	}
}

func (d *Dispatcher) deliver(ev Event) {
	endpoint := d.endpoints[ev.Kind]

	payload, err := json.Marshal(ev)
	if err != nil {
		d.logger.Error().Err(err).Str("event_id", ev.ID).Msg("relay payload marshal failed")
		return
	}

	req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		d.logger.Error().Err(err).Str("event_id", ev.ID).Msg("relay request build failed")
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Relay-Event", string(ev.Kind))
	if d.secret != "" {
		req.Header.Set("X-Relay-Signature", SignPayload(payload, d.secret))
	}

	start := time.Now()
	resp, err := d.client.Do(req)
	if err != nil {
		d.logger.Error().Err(err).Str("event_id", ev.ID).Str("kind", string(ev.Kind)).
			Msg("relay delivery failed")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		d.logger.Error().Int("status", resp.StatusCode).Str("event_id", ev.ID).
			Str("kind", string(ev.Kind)).Msg("relay delivery rejected")
		return
	}
	d.logger.Debug().Str("event_id", ev.ID).Str("kind", string(ev.Kind)).
		Dur("latency", time.Since(start)).Msg("relay delivered")
}
