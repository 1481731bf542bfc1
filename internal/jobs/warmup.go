// Package jobs runs the periodic background work of the server.
package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"eco-route-planner/internal/metrics"
	"eco-route-planner/internal/modules/routing"
)

// DefaultPairs are the origin/destination pairs most requested on the
// reference network.
var DefaultPairs = []routing.Pair{
	{Start: "A", End: "J"},
	{Start: "D", End: "J"},
	{Start: "B", End: "I"},
}

const defaultRunTimeout = 30 * time.Second

// Warmer precomputes routes into the cache.
type Warmer interface {
	WarmUp(ctx context.Context, pairs []routing.Pair, alpha float64) (int, error)
}

// Pruner drops expired cache entries.
type Pruner interface {
	PruneExpired() int
}

// WarmupConfig configures a WarmupJob.
type WarmupConfig struct {
	// Schedule is a standard cron expression or descriptor such as "@every 5m".
	Schedule       string
	Pairs          []routing.Pair
	Alpha          float64
	RunImmediately bool
}

// WarmupJob keeps the common pairs in the route cache.
type WarmupJob struct {
	cronScheduler *cron.Cron
	cfg           WarmupConfig
	warmer        Warmer
	pruner        Pruner
	metrics       *metrics.Collector
	log           *zap.Logger
	jobID         cron.EntryID

	mu      sync.Mutex
	running bool
}

// NewWarmupJob builds the job. pruner and m may be nil.
func NewWarmupJob(cfg WarmupConfig, warmer Warmer, pruner Pruner, m *metrics.Collector, log *zap.Logger) *WarmupJob {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Pairs == nil {
		cfg.Pairs = DefaultPairs
	}
	if cfg.Alpha <= 0 {
		cfg.Alpha = routing.DefaultAlpha
	}
	cl := cronLogger{log.Sugar()}
	return &WarmupJob{
		cronScheduler: cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		cfg:           cfg,
		warmer:        warmer,
		pruner:        pruner,
		metrics:       m,
		log:           log,
	}
}

// Start schedules the job and, when configured, runs it once right away.
func (j *WarmupJob) Start(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.running {
		return nil
	}
	id, err := j.cronScheduler.AddFunc(j.cfg.Schedule, func() { j.Run(ctx) })
	if err != nil {
		return fmt.Errorf("error scheduling warm-up job: %w", err)
	}
	j.jobID = id

	if j.cfg.RunImmediately {
		j.Run(ctx)
	}
	j.cronScheduler.Start()
	j.running = true
	j.log.Info("warm-up scheduler started", zap.String("schedule", j.cfg.Schedule), zap.Int("pairs", len(j.cfg.Pairs)))
	return nil
}

// Stop halts the scheduler and waits for a running warm-up to finish.
func (j *WarmupJob) Stop() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if !j.running {
		return
	}
	<-j.cronScheduler.Stop().Done()
	j.cronScheduler.Remove(j.jobID)
	j.running = false
	j.log.Info("warm-up scheduler stopped")
}

// Run performs one warm-up cycle.
func (j *WarmupJob) Run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, defaultRunTimeout)
	defer cancel()

	start := time.Now()
	pruned := 0
	if j.pruner != nil {
		pruned = j.pruner.PruneExpired()
	}
	warmed, err := j.warmer.WarmUp(ctx, j.cfg.Pairs, j.cfg.Alpha)
	j.metrics.Warmup(err == nil)
	if err != nil {
		j.log.Error("warm-up cycle failed", zap.Error(err), zap.Int("warmed", warmed))
		return
	}
	j.log.Info("warm-up cycle done",
		zap.Int("warmed", warmed),
		zap.Int("pruned", pruned),
		zap.Duration("took", time.Since(start)))
}

// cronLogger routes cron's own messages to zap.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
