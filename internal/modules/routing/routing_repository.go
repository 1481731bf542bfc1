package routing

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"eco-route-planner/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryInterface stores the audit trail of optimisation runs.
type RepositoryInterface interface {
	// SaveRun persists run and fills in ID and CreatedAt when they are empty.
	SaveRun(ctx context.Context, run *models.OptimizationRun) error
	// ListRuns returns the most recent runs, newest first.
	ListRuns(ctx context.Context, limit int) ([]*models.OptimizationRun, error)
}

// Schema creates the optimization_runs table used by Repository.
const Schema = `
CREATE TABLE IF NOT EXISTS optimization_runs (
    id                 UUID PRIMARY KEY,
    start_node         TEXT NOT NULL,
    end_node           TEXT NOT NULL,
    alpha              DOUBLE PRECISION NOT NULL,
    route_count        INTEGER NOT NULL,
    recommendation     TEXT NOT NULL,
    best_path          TEXT[] NOT NULL DEFAULT '{}',
    cache_hit          BOOLEAN NOT NULL DEFAULT FALSE,
    processing_time_ms DOUBLE PRECISION NOT NULL,
    created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS optimization_runs_created_at_idx ON optimization_runs (created_at DESC);`

// Repository implements RepositoryInterface on PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

// Migrate applies Schema.
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("Migrate failed: %w", err)
	}
	return nil
}

func (r *Repository) SaveRun(ctx context.Context, run *models.OptimizationRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	const query = `
        INSERT INTO optimization_runs
            (id, start_node, end_node, alpha, route_count, recommendation,
             best_path, cache_hit, processing_time_ms)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING created_at`
	bestPath := run.BestPath
	if bestPath == nil {
		bestPath = []string{}
	}
	err := r.db.QueryRow(ctx, query,
		run.ID, run.StartNode, run.EndNode, run.Alpha, run.RouteCount,
		run.Recommendation, bestPath, run.CacheHit, run.ProcessingTimeMs,
	).Scan(&run.CreatedAt)
	if err != nil {
		return fmt.Errorf("SaveRun failed: %w", err)
	}
	return nil
}

func (r *Repository) ListRuns(ctx context.Context, limit int) ([]*models.OptimizationRun, error) {
	const query = `
        SELECT id, start_node, end_node, alpha, route_count, recommendation,
               best_path, cache_hit, processing_time_ms, created_at
        FROM optimization_runs
        ORDER BY created_at DESC
        LIMIT $1`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("ListRuns failed: %w", err)
	}
	runs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.OptimizationRun, error) {
		run := &models.OptimizationRun{}
		err := row.Scan(
			&run.ID, &run.StartNode, &run.EndNode, &run.Alpha, &run.RouteCount,
			&run.Recommendation, &run.BestPath, &run.CacheHit, &run.ProcessingTimeMs,
			&run.CreatedAt,
		)
		return run, err
	})
	if err != nil {
		return nil, fmt.Errorf("ListRuns scan failed: %w", err)
	}
	return runs, nil
}

// MemoryRepository keeps the newest runs in process memory. It backs the
// service when no database is configured.
type MemoryRepository struct {
	mu       sync.RWMutex
	runs     []*models.OptimizationRun
	capacity int
	now      func() time.Time
}

// NewMemoryRepository keeps at most capacity runs; older ones are dropped.
func NewMemoryRepository(capacity int) *MemoryRepository {
	if capacity <= 0 {
		capacity = 1000
	}
	return &MemoryRepository{capacity: capacity, now: time.Now}
}

func (m *MemoryRepository) SaveRun(ctx context.Context, run *models.OptimizationRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = m.now()
	}
	cp := *run
	cp.BestPath = append([]string(nil), run.BestPath...)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, &cp)
	if over := len(m.runs) - m.capacity; over > 0 {
		m.runs = append(m.runs[:0:0], m.runs[over:]...)
	}
	return nil
}

func (m *MemoryRepository) ListRuns(ctx context.Context, limit int) ([]*models.OptimizationRun, error) {
	m.mu.RLock()
	out := make([]*models.OptimizationRun, 0, len(m.runs))
	for i := len(m.runs) - 1; i >= 0; i-- {
		cp := *m.runs[i]
		out = append(out, &cp)
	}
	m.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
