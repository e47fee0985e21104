package pipeline

import (
	"context"
	"errors"
	"sync"

	"github.com/citypulse/enrichment/internal/logger"
	"github.com/citypulse/enrichment/internal/telemetry"
)

const defaultQueueWorkers = 5

// Queue dispatches pipeline runs for report ids to a worker pool. Submission
// is fire-and-forget: it returns immediately and each submitted id is
// attempted at least once. At-most-once completion per report is enforced by
// the processing stage marker, not by the queue.
type Queue struct {
	pipeline *Pipeline
	workers  int
	logger   logger.Logger
	metrics  *telemetry.Metrics // may be nil

	jobs     chan string
	wg       sync.WaitGroup
	submitWG sync.WaitGroup
	stopOnce sync.Once
	mu       sync.Mutex
	running  bool
	stopping bool
}

// NewQueue creates a queue with the given worker count and buffer size.
func NewQueue(p *Pipeline, workers, queueSize int, metrics *telemetry.Metrics, log logger.Logger) *Queue {
	if workers <= 0 {
		workers = defaultQueueWorkers
	}
	if queueSize <= 0 {
		queueSize = workers * 8
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Queue{
		pipeline: p,
		workers:  workers,
		logger:   log,
		metrics:  metrics,
		jobs:     make(chan string, queueSize),
	}
}

// Start launches the worker pool. Workers exit when the context is cancelled
// or Stop closes the job channel.
func (q *Queue) Start(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running {
		return errors.New("queue is already running")
	}
	q.running = true

	q.logger.Info("pipeline queue starting", logger.Int("workers", q.workers))

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, i)
	}

	return nil
}

// Submit enqueues a report id for processing and returns immediately. When
// the buffer is full, handoff is deferred to a goroutine so the caller never
// blocks. Submissions after Stop are dropped; the report stays unfinished
// and the poller re-triggers it.
func (q *Queue) Submit(reportID string) {
	q.mu.Lock()
	if q.stopping {
		q.mu.Unlock()
		q.logger.Warn("queue stopping, dropping submission", logger.String("report_id", reportID))
		return
	}
	select {
	case q.jobs <- reportID:
	default:
		q.submitWG.Add(1)
		go func() {
			defer q.submitWG.Done()
			q.jobs <- reportID
		}()
	}
	q.mu.Unlock()

	if q.metrics != nil {
		q.metrics.SetQueueDepth(len(q.jobs))
	}
}

// Stop closes the queue and waits for in-flight runs to drain. The stopping
// flag is flipped under the same lock Submit holds for its handoff, so every
// accepted submission reaches the channel before it closes.
func (q *Queue) Stop() {
	q.stopOnce.Do(func() {
		q.logger.Info("pipeline queue stopping")
		q.mu.Lock()
		q.stopping = true
		q.mu.Unlock()
		q.submitWG.Wait()
		close(q.jobs)
	})
	q.wg.Wait()

	q.mu.Lock()
	q.running = false
	q.mu.Unlock()
}

// Depth returns the number of queued report ids.
func (q *Queue) Depth() int {
	return len(q.jobs)
}

func (q *Queue) worker(ctx context.Context, id int) {
	defer q.wg.Done()

	q.logger.Debug("queue worker started", logger.Int("worker_id", id))

	for reportID := range q.jobs {
		select {
		case <-ctx.Done():
			q.logger.Warn("queue worker stopping, context cancelled", logger.Int("worker_id", id))
			return
		default:
		}

		if err := q.pipeline.Process(ctx, reportID); err != nil {
			q.logger.Error("pipeline run failed",
				logger.String("report_id", reportID),
				logger.Error(err),
			)
		}
		if q.metrics != nil {
			q.metrics.SetQueueDepth(len(q.jobs))
		}
	}

	q.logger.Debug("queue worker finished", logger.Int("worker_id", id))
}
