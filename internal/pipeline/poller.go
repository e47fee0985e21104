package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/citypulse/enrichment/internal/logger"
)

const (
	defaultRetriggerInterval = time.Minute
	defaultStaleAge          = 5 * time.Minute
	defaultRetriggerBatch    = 100
)

// UnfinishedLister finds reports stuck below stage 2.
type UnfinishedLister interface {
	// ListUnfinishedReports returns ids of reports with processing < 2
	// created before the cutoff, oldest first, up to limit.
	ListUnfinishedReports(ctx context.Context, cutoff time.Time, limit int) ([]string, error)
}

// Poller periodically rescans for stuck reports and re-submits them to the
// queue. It is the external retry actor: a run that aborted mid-stage left
// the processing marker unchanged, so a re-triggered run resumes from the
// last completed stage.
type Poller struct {
	lister   UnfinishedLister
	queue    *Queue
	logger   logger.Logger
	interval time.Duration
	staleAge time.Duration
	batch    int

	running  bool
	stopChan chan struct{}
}

// PollerConfig holds poller configuration.
type PollerConfig struct {
	Interval time.Duration
	StaleAge time.Duration
	Batch    int
}

// NewPoller creates a re-trigger poller.
func NewPoller(lister UnfinishedLister, queue *Queue, cfg PollerConfig, log logger.Logger) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultRetriggerInterval
	}
	if cfg.StaleAge <= 0 {
		cfg.StaleAge = defaultStaleAge
	}
	if cfg.Batch <= 0 {
		cfg.Batch = defaultRetriggerBatch
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Poller{
		lister:   lister,
		queue:    queue,
		logger:   log,
		interval: cfg.Interval,
		staleAge: cfg.StaleAge,
		batch:    cfg.Batch,
		stopChan: make(chan struct{}),
	}
}

// Start starts the poller loop.
func (p *Poller) Start(ctx context.Context) error {
	if p.running {
		return errors.New("poller is already running")
	}
	p.running = true

	p.logger.Info("re-trigger poller starting",
		logger.Duration("interval", p.interval),
		logger.Duration("stale_age", p.staleAge),
	)

	go p.run(ctx)
	return nil
}

// Stop stops the poller.
func (p *Poller) Stop() {
	if !p.running {
		return
	}
	p.logger.Info("re-trigger poller stopping")
	close(p.stopChan)
	p.running = false
}

func (p *Poller) run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("re-trigger poller stopped, context cancelled")
			return
		case <-p.stopChan:
			return
		case <-ticker.C:
			if err := p.retriggerStale(ctx); err != nil {
				p.logger.Error("failed to re-trigger stale reports", logger.Error(err))
			}
		}
	}
}

func (p *Poller) retriggerStale(ctx context.Context) error {
	cutoff := time.Now().Add(-p.staleAge)

	ids, err := p.lister.ListUnfinishedReports(ctx, cutoff, p.batch)
	if err != nil {
		return fmt.Errorf("list unfinished reports: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	p.logger.Info("re-triggering stale reports", logger.Int("count", len(ids)))
	for _, id := range ids {
		p.queue.Submit(id)
	}
	return nil
}
