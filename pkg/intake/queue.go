package intake

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/jrcode-ui/alchemy-discord-bot/pkg/alchemy"
	"github.com/jrcode-ui/alchemy-discord-bot/pkg/metrics"
)

// Delivery wraps one accepted payload with receipt metadata.
type Delivery struct {
	ID         string
	ReceivedAt time.Time
	Payload    *alchemy.Payload
}

// Handler processes one delivery pulled off the queue.
type Handler func(ctx context.Context, d Delivery)

// Queue is the bounded hand-off buffer between the HTTP gate and the
// processing workers. Accepted deliveries are drained by a fixed pool
// of workers; a full buffer rejects instead of blocking the gate.
type Queue struct {
	tasks    chan Delivery
	handler  Handler
	wg       sync.WaitGroup
	closed   bool
	closedMu sync.Mutex
}

// NewQueue builds the queue and starts its workers.
func NewQueue(depth, workers int, handler Handler) *Queue {
	if depth <= 0 {
		depth = 100
	}
	if workers <= 0 {
		workers = 1
	}

	q := &Queue{
		tasks:   make(chan Delivery, depth),
		handler: handler,
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	return q
}

// Submit offers a delivery without blocking. It reports false when the
// buffer is full or the queue is already closed.
func (q *Queue) Submit(d Delivery) bool {
	q.closedMu.Lock()
	defer q.closedMu.Unlock()
	if q.closed {
		return false
	}
	select {
	case q.tasks <- d:
		metrics.QueueDepth.Set(float64(len(q.tasks)))
		return true
	default:
		return false
	}
}

// Pending returns the number of queued, unprocessed deliveries.
func (q *Queue) Pending() int { return len(q.tasks) }

// Depth returns the buffer capacity.
func (q *Queue) Depth() int { return cap(q.tasks) }

func (q *Queue) worker() {
	defer q.wg.Done()
	for d := range q.tasks {
		metrics.QueueDepth.Set(float64(len(q.tasks)))
		q.process(d)
	}
}

// process runs the handler behind a panic guard so one bad payload
// cannot take a worker down with it.
func (q *Queue) process(d Delivery) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("Panic while processing delivery", "id", d.ID, "panic", r)
		}
	}()
	q.handler(context.Background(), d)
}

// Close stops intake, drains the queued deliveries and waits for the
// workers to finish.
func (q *Queue) Close() {
	q.closedMu.Lock()
	if !q.closed {
		q.closed = true
		close(q.tasks)
	}
	q.closedMu.Unlock()
	q.wg.Wait()
}
