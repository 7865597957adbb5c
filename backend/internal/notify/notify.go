// Package notify delivers domain events to their consumers without ever
// blocking the operation that produced them.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/practix/practix/shared/logger"
	"github.com/practix/practix/shared/middleware/metrics"
)

// Event types emitted by the marketplace.
const (
	ApplicationReceived  = "application_received"
	ApplicationApproved  = "application_approved"
	ApplicationRejected  = "application_rejected"
	ParticipantCancelled = "participant_cancelled"
	EventCancelled       = "event_cancelled"
	ChatMessage          = "chat_message"
)

// RecipientKey is present in every payload.
const RecipientKey = "recipient_id"

type Event struct {
	Seq     int64             `json:"seq"`
	Type    string            `json:"type"`
	Payload map[string]string `json:"payload"`
	At      time.Time         `json:"at"`
}

func (e Event) Recipient() string {
	return e.Payload[RecipientKey]
}

// Sink is one consumer of events. Deliver may block; the dispatcher bounds
// it with a timeout.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, event Event) error
}

const defaultDeliverTimeout = 10 * time.Second

// Dispatcher is a bounded queue drained by a fixed set of workers.
type Dispatcher struct {
	queue          chan Event
	sinks          []Sink
	workers        int
	deliverTimeout time.Duration
	now            func() time.Time
	log            *slog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewDispatcher(queueSize, workers int, sinks ...Sink) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	return &Dispatcher{
		queue:          make(chan Event, queueSize),
		sinks:          sinks,
		workers:        workers,
		deliverTimeout: defaultDeliverTimeout,
		now:            time.Now,
		log:            logger.Component("notify"),
	}
}

// Notify enqueues an event and returns immediately. When the queue is full
// or the dispatcher is closed the event is dropped and counted.
func (d *Dispatcher) Notify(eventType string, payload map[string]string) {
	event := Event{Type: eventType, Payload: maps.Clone(payload), At: d.now()}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.drop(event, "dispatcher closed")
		return
	}
	select {
	case d.queue <- event:
		metrics.Notifications.WithLabelValues(eventType, "queued").Inc()
	default:
		d.drop(event, "queue full")
	}
}

func (d *Dispatcher) drop(event Event, reason string) {
	metrics.Notifications.WithLabelValues(event.Type, "dropped").Inc()
	d.log.Warn("notification dropped", "type", event.Type, "recipient", event.Recipient(), "reason", reason)
}

// Start launches the workers. ctx bounds deliveries; cancelling it makes
// in-flight sinks give up, Close still drains the queue.
func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for event := range d.queue {
				d.deliver(ctx, event)
			}
		}()
	}
	d.log.Info("notification dispatcher started", "workers", d.workers, "sinks", len(d.sinks))
}

// Close stops accepting events and waits for queued ones to be delivered.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
	d.log.Info("notification dispatcher stopped")
}

func (d *Dispatcher) deliver(ctx context.Context, event Event) {
	for _, sink := range d.sinks {
		if err := d.deliverTo(ctx, sink, event); err != nil {
			metrics.Notifications.WithLabelValues(event.Type, "failed").Inc()
			d.log.Error("notification delivery failed",
				"sink", sink.Name(), "type", event.Type, "recipient", event.Recipient(), "error", err)
			continue
		}
		metrics.Notifications.WithLabelValues(event.Type, "delivered").Inc()
	}
}

// deliverTo isolates one sink: a panic is turned into an error.
func (d *Dispatcher) deliverTo(ctx context.Context, sink Sink, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sink panicked: %v", r)
		}
	}()
	ctx, cancel := context.WithTimeout(ctx, d.deliverTimeout)
	defer cancel()
	return sink.Deliver(ctx, event)
}

// LogSink writes every event to the structured log.
type LogSink struct {
	log *slog.Logger
}

func NewLogSink() *LogSink {
	return &LogSink{log: logger.Component("notify")}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Deliver(_ context.Context, event Event) error {
	args := make([]any, 0, 2+2*len(event.Payload))
	args = append(args, "type", event.Type)
	for k, v := range event.Payload {
		args = append(args, k, v)
	}
	s.log.Info("notification", args...)
	return nil
}
