package notify

import (
	"context"
	"sync"
)

const (
	defaultBacklog     = 50
	subscriptionBuffer = 16
)

// Broker keeps a short per-recipient backlog for polling and fans events out
// to live subscribers. Slow subscribers miss events rather than stall workers.
type Broker struct {
	mu      sync.Mutex
	seq     int64
	backlog int
	recent  map[string][]Event
	subs    map[string]map[chan Event]struct{}
	closed  bool
}

func NewBroker(backlog int) *Broker {
	if backlog < 1 {
		backlog = defaultBacklog
	}
	return &Broker{
		backlog: backlog,
		recent:  make(map[string][]Event),
		subs:    make(map[string]map[chan Event]struct{}),
	}
}

func (b *Broker) Name() string { return "broker" }

func (b *Broker) Deliver(_ context.Context, event Event) error {
	recipient := event.Recipient()
	if recipient == "" {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq++
	event.Seq = b.seq
	events := append(b.recent[recipient], event)
	if len(events) > b.backlog {
		events = events[len(events)-b.backlog:]
	}
	b.recent[recipient] = events

	for ch := range b.subs[recipient] {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

// Poll returns the recipient's retained events with Seq greater than after.
func (b *Broker) Poll(recipient string, after int64) []Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	result := []Event{}
	for _, e := range b.recent[recipient] {
		if e.Seq > after {
			result = append(result, e)
		}
	}
	return result
}

// Subscribe returns a channel of the recipient's future events and a
// function that releases it. The channel is closed on release or when the
// broker is closed.
func (b *Broker) Subscribe(recipient string) (<-chan Event, func()) {
	ch := make(chan Event, subscriptionBuffer)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	if b.subs[recipient] == nil {
		b.subs[recipient] = make(map[chan Event]struct{})
	}
	b.subs[recipient][ch] = struct{}{}

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[recipient][ch]; !ok {
			return
		}
		delete(b.subs[recipient], ch)
		if len(b.subs[recipient]) == 0 {
			delete(b.subs, recipient)
		}
		close(ch)
	}
}

// Close ends every live subscription. Polling keeps working.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for recipient, chans := range b.subs {
		for ch := range chans {
			close(ch)
		}
		delete(b.subs, recipient)
	}
}
