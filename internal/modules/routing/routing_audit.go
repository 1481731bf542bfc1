package routing

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"eco-route-planner/internal/events"
	"eco-route-planner/internal/metrics"
	"eco-route-planner/internal/models"
)

const (
	defaultAuditQueue   = 256
	defaultAuditTimeout = 3 * time.Second
)

// auditor stores and publishes runs on its own goroutine so a slow database
// or broker never holds up an optimisation. A full queue drops the run.
type auditor struct {
	repo      RepositoryInterface
	publisher events.Publisher
	metrics   *metrics.Collector
	log       *zap.Logger
	timeout   time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan *models.OptimizationRun
	done   chan struct{}
}

func newAuditor(repo RepositoryInterface, pub events.Publisher, m *metrics.Collector, log *zap.Logger, size int, timeout time.Duration) *auditor {
	if size <= 0 {
		size = defaultAuditQueue
	}
	if timeout <= 0 {
		timeout = defaultAuditTimeout
	}
	a := &auditor{
		repo:      repo,
		publisher: pub,
		metrics:   m,
		log:       log,
		timeout:   timeout,
		queue:     make(chan *models.OptimizationRun, size),
		done:      make(chan struct{}),
	}
	go a.loop()
	return a
}

// enqueue never blocks. It reports whether the run was accepted.
func (a *auditor) enqueue(run *models.OptimizationRun) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		a.metrics.Audit("dropped")
		return false
	}
	select {
	case a.queue <- run:
		return true
	default:
		a.metrics.Audit("dropped")
		a.log.Warn("audit queue full, dropping run",
			zap.String("start", run.StartNode),
			zap.String("end", run.EndNode),
			zap.Int("capacity", cap(a.queue)))
		return false
	}
}

func (a *auditor) loop() {
	defer close(a.done)
	for run := range a.queue {
		a.record(run)
	}
}

// record saves first so the published event carries the stored id.
func (a *auditor) record(run *models.OptimizationRun) {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	if err := a.repo.SaveRun(ctx, run); err != nil {
		a.metrics.Audit("save_failed")
		a.log.Warn("failed to save optimisation run", zap.Error(err), zap.String("start", run.StartNode), zap.String("end", run.EndNode))
	} else {
		a.metrics.Audit("saved")
	}
	if err := a.publisher.PublishRun(ctx, run); err != nil {
		a.metrics.Audit("publish_failed")
		a.log.Warn("failed to publish optimisation run", zap.Error(err), zap.String("run_id", run.ID))
		return
	}
	a.metrics.Audit("published")
}

// close stops accepting runs and waits until the queued ones are recorded or
// ctx ends.
func (a *auditor) close(ctx context.Context) error {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()

	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
