package store

import (
	"sync"
	"time"

	"clearway-backend/models"
)

// ChangeEvent describes one successful store mutation.
type ChangeEvent struct {
	JobID       string           `json:"jobID"`
	ReferenceID string           `json:"referenceID"`
	Operation   string           `json:"operation"`
	Status      models.JobStatus `json:"status"`
	OccurredAt  time.Time        `json:"occurredAt"`
}

// Subscriber receives batches of change events. A batch holds one event per
// mutation unless a coalescing window is configured, in which case mutations
// landing within the window arrive together.
type Subscriber func(events []ChangeEvent)

// Notifier publishes store changes to subscribers. Publication is explicit,
// after each successful mutation; the optional coalescing window only batches
// deliveries and never defers business logic.
type Notifier struct {
	mu      sync.Mutex
	subs    map[int]Subscriber
	nextID  int
	window  time.Duration
	pending []ChangeEvent
	timer   *time.Timer
}

func NewNotifier(window time.Duration) *Notifier {
	return &Notifier{
		subs:   make(map[int]Subscriber),
		window: window,
	}
}

// Subscribe registers a subscriber and returns an unsubscribe function.
func (n *Notifier) Subscribe(sub Subscriber) func() {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	n.subs[id] = sub

	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.subs, id)
	}
}

// Publish records an event and delivers it, immediately or at the end of the
// coalescing window.
func (n *Notifier) Publish(event ChangeEvent) {
	n.mu.Lock()
	n.pending = append(n.pending, event)

	if n.window > 0 {
		if n.timer == nil {
			n.timer = time.AfterFunc(n.window, n.Flush)
		}
		n.mu.Unlock()
		return
	}
	n.mu.Unlock()
	n.Flush()
}

// Flush delivers all pending events now, synchronously. Tests call it to
// avoid waiting for the coalescing window.
func (n *Notifier) Flush() {
	n.mu.Lock()
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	if len(n.pending) == 0 {
		n.mu.Unlock()
		return
	}
	batch := n.pending
	n.pending = nil
	subs := make([]Subscriber, 0, len(n.subs))
	for _, s := range n.subs {
		subs = append(subs, s)
	}
	n.mu.Unlock()

	// Deliver outside the lock so a subscriber may re-enter the store or the
	// notifier.
	for _, s := range subs {
		s(batch)
	}
}
