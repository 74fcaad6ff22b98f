package store

import (
	"sync"

	"clearway-backend/utils/logger"
)

// FollowUp is an explicit queued action: the replacement for timer-driven
// auto-advances. Each one runs through the store's normal validated
// operations when executed.
type FollowUp struct {
	JobID     string
	Operation string
	Run       func() error
}

// FollowUpRunner executes queued follow-ups in order. Production code calls
// Start to process asynchronously; tests call Drain to process synchronously.
type FollowUpRunner struct {
	mu     sync.Mutex
	queue  []FollowUp
	signal chan struct{}
	stop   chan struct{}
	once   sync.Once
	logger logger.Logger
}

func NewFollowUpRunner(log logger.Logger) *FollowUpRunner {
	return &FollowUpRunner{
		signal: make(chan struct{}, 1),
		stop:   make(chan struct{}),
		logger: log,
	}
}

// Enqueue appends a follow-up and wakes the runner.
func (r *FollowUpRunner) Enqueue(f FollowUp) {
	r.mu.Lock()
	r.queue = append(r.queue, f)
	r.mu.Unlock()

	select {
	case r.signal <- struct{}{}:
	default:
	}
}

// Start launches the background loop.
func (r *FollowUpRunner) Start() {
	go func() {
		for {
			select {
			case <-r.stop:
				return
			case <-r.signal:
				r.Drain()
			}
		}
	}()
}

// Stop shuts down the background loop. Queued follow-ups that have not run
// yet stay queued.
func (r *FollowUpRunner) Stop() {
	r.once.Do(func() { close(r.stop) })
}

// Drain runs every queued follow-up, including ones enqueued by follow-ups
// themselves, and returns when the queue is empty.
func (r *FollowUpRunner) Drain() {
	for {
		r.mu.Lock()
		if len(r.queue) == 0 {
			r.mu.Unlock()
			return
		}
		next := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()

		if err := next.Run(); err != nil {
			r.logger.Warnf("follow-up %s for job %s failed: %v", next.Operation, next.JobID, err)
		}
	}
}

// Pending reports how many follow-ups are queued.
func (r *FollowUpRunner) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queue)
}
