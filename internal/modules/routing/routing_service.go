package routing

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"eco-route-planner/internal/events"
	"eco-route-planner/internal/metrics"
	"eco-route-planner/internal/models"
	"eco-route-planner/internal/modules/traffic"
	"eco-route-planner/pkg/diversity"
	"eco-route-planner/pkg/graph"
	"eco-route-planner/pkg/pathfind"
)

const (
	DefaultAlpha = 1.0

	// reported for replays instead of the measured computation time
	replayProcessingMs = 0.5
	maxSustainability  = 100
	defaultRunsLimit   = 50
	maxRunsLimit       = 500
)

// Pair is an origin and destination to precompute.
type Pair struct {
	Start string
	End   string
}

// ServiceInterface is the optimiser facade used by the HTTP layer, the CLI and
// the warm-up job.
type ServiceInterface interface {
	OptimizeRoutes(ctx context.Context, start, end string, alpha float64) ([]models.RouteResult, error)
	Optimize(ctx context.Context, req models.OptimizeRequest) (*models.OptimizeResponse, error)
	OptimalRoute(ctx context.Context, start, end string, alpha float64) (*models.RouteResult, error)
	Locations(ctx context.Context) []models.LocationView
	Metrics(ctx context.Context) models.ServiceMetrics
	WarmUp(ctx context.Context, pairs []Pair, alpha float64) (int, error)
	ListRuns(ctx context.Context, limit int) ([]*models.OptimizationRun, error)
	// Close flushes pending audit runs, giving up when ctx ends.
	Close(ctx context.Context) error
}

// RouteCache memoises optimisation results. cache.TTL satisfies it.
type RouteCache interface {
	Get(key string) ([]models.RouteResult, bool)
	// Peek reads without counting a hit or a miss.
	Peek(key string) ([]models.RouteResult, bool)
	Set(key string, value []models.RouteResult, ttl time.Duration)
	Len() int
}

// Options carries the tunables read from configuration.
type Options struct {
	AlphaMin           float64
	AlphaMax           float64
	CacheTTL           time.Duration
	MaxExpansions      int
	UseHeuristic       bool
	LiveTraffic        bool
	TrafficSensitivity float64
	// AuditQueueSize bounds the runs waiting to be stored and published.
	AuditQueueSize int
	AuditTimeout   time.Duration
}

// Deps are the collaborators of the service. Only the graph is required.
type Deps struct {
	Repo      RepositoryInterface
	Cache     RouteCache
	Publisher events.Publisher
	Traffic   traffic.ServiceInterface
	Metrics   *metrics.Collector
	Logger    *zap.Logger
}

type stats struct {
	calls       atomic.Int64
	totalMicros atomic.Int64
	hits        atomic.Int64
	misses      atomic.Int64
}

type service struct {
	graph    *graph.Graph
	strategy *diversity.Strategy
	opts     Options

	repo    RepositoryInterface
	cache   RouteCache
	audit   *auditor
	traffic traffic.ServiceInterface
	metrics *metrics.Collector
	log     *zap.Logger

	stats stats
	now   func() time.Time
}

// NewService wires the optimiser around g. Missing collaborators fall back to
// an in-memory run store, no cache and no event publishing.
func NewService(g *graph.Graph, deps Deps, opts Options) ServiceInterface {
	if opts.AlphaMin <= 0 {
		opts.AlphaMin = 0.1
	}
	if opts.AlphaMax < opts.AlphaMin {
		opts.AlphaMax = 2.0
	}
	cfg := diversity.DefaultConfig()
	if opts.MaxExpansions > 0 {
		cfg.MaxExpansions = opts.MaxExpansions
	}
	if opts.UseHeuristic {
		cfg.Heuristic = pathfind.GreatCircleHeuristic(g, pathfind.DefaultMaxKmPerMinute)
	}

	s := &service{
		graph:    g,
		strategy: diversity.New(cfg),
		opts:     opts,
		repo:     deps.Repo,
		cache:    deps.Cache,
		traffic:  deps.Traffic,
		metrics:  deps.Metrics,
		log:      deps.Logger,
		now:      time.Now,
	}
	if s.repo == nil {
		s.repo = NewMemoryRepository(0)
	}
	publisher := deps.Publisher
	if publisher == nil {
		publisher = events.Nop{}
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	s.audit = newAuditor(s.repo, publisher, s.metrics, s.log, opts.AuditQueueSize, opts.AuditTimeout)
	return s
}

// OptimizeRoutes validates the request, serves it from the cache when
// possible and otherwise plans up to three distinct routes. The run is
// queued for the audit trail and never waited on.
func (s *service) OptimizeRoutes(ctx context.Context, start, end string, alpha float64) ([]models.RouteResult, error) {
	routes, hit, elapsed, err := s.optimize(ctx, start, end, alpha, false)
	if err != nil {
		return nil, err
	}
	s.audit.enqueue(newRun(start, end, alpha, routes, hit, elapsed))
	return routes, nil
}

// Optimize wraps OptimizeRoutes in the API envelope.
func (s *service) Optimize(ctx context.Context, req models.OptimizeRequest) (*models.OptimizeResponse, error) {
	alpha := DefaultAlpha
	if req.Alpha != nil {
		alpha = *req.Alpha
	}
	begin := s.now()
	routes, err := s.OptimizeRoutes(ctx, req.StartNode, req.EndNode, alpha)
	if err != nil {
		return nil, err
	}
	return &models.OptimizeResponse{
		Routes:                routes,
		Recommendation:        recommendation(routes),
		TotalProcessingTimeMs: millis(s.now().Sub(begin)),
		SustainabilityScore:   sustainability(routes),
	}, nil
}

// OptimalRoute runs one search at alpha without diversification or caching.
func (s *service) OptimalRoute(ctx context.Context, start, end string, alpha float64) (*models.RouteResult, error) {
	if err := s.validate(start, end, alpha); err != nil {
		return nil, err
	}
	begin := s.now()
	g, _ := s.graphFor(ctx)
	rt, ok, err := s.strategy.Best(g, start, end, alpha)
	if err != nil {
		return nil, fmt.Errorf("OptimalRoute: %w", err)
	}
	if !ok {
		return nil, models.ErrNotFound
	}
	res := s.toResult(rt, millis(s.now().Sub(begin)))
	return &res, nil
}

// optimize serves one request. Warm-up calls (warm=true) read the cache
// without touching the hit statistics and are not counted as optimisations.
func (s *service) optimize(ctx context.Context, start, end string, alpha float64, warm bool) ([]models.RouteResult, bool, time.Duration, error) {
	begin := s.now()
	if err := s.validate(start, end, alpha); err != nil {
		if !warm {
			s.metrics.Optimization("invalid", 0, 0)
		}
		return nil, false, 0, err
	}

	g, suffix := s.graphFor(ctx)
	key := cacheKey(start, end, alpha) + suffix
	if s.cache != nil {
		if cached, ok := s.lookup(key, warm); ok {
			elapsed := s.now().Sub(begin)
			if !warm {
				s.record(elapsed, true)
				s.metrics.Optimization(outcome(cached), elapsed, len(cached))
			}
			return replay(cached), true, elapsed, nil
		}
	}

	planned, err := s.strategy.Plan(g, start, end, alpha)
	elapsed := s.now().Sub(begin)
	if err != nil {
		if !warm {
			s.metrics.Optimization("error", elapsed, 0)
		}
		return nil, false, elapsed, fmt.Errorf("OptimizeRoutes %s->%s: %w", start, end, err)
	}

	ms := millis(elapsed)
	routes := make([]models.RouteResult, 0, len(planned))
	for _, rt := range planned {
		routes = append(routes, s.toResult(rt, ms))
	}
	if s.cache != nil {
		s.cache.Set(key, routes, s.opts.CacheTTL)
	}
	if !warm {
		s.record(elapsed, false)
		s.metrics.Optimization(outcome(routes), elapsed, len(routes))
	}
	if len(routes) == 0 {
		s.log.Info("no route found", zap.String("start", start), zap.String("end", end), zap.Float64("alpha", alpha))
	}
	return replayCopy(routes, false, 0), false, elapsed, nil
}

func (s *service) lookup(key string, warm bool) ([]models.RouteResult, bool) {
	if warm {
		return s.cache.Peek(key)
	}
	return s.cache.Get(key)
}

func (s *service) validate(start, end string, alpha float64) error {
	if !s.graph.Has(start) {
		return fmt.Errorf("%w: %q", models.ErrUnknownLocation, start)
	}
	if !s.graph.Has(end) {
		return fmt.Errorf("%w: %q", models.ErrUnknownLocation, end)
	}
	if start == end {
		return fmt.Errorf("%w: %q", models.ErrSameEndpoints, start)
	}
	// written so that NaN fails
	if !(alpha >= s.opts.AlphaMin && alpha <= s.opts.AlphaMax) {
		return fmt.Errorf("%w: %v not in [%v, %v]", models.ErrAlphaOutOfRange, alpha, s.opts.AlphaMin, s.opts.AlphaMax)
	}
	return nil
}

// graphFor returns the graph to plan on and the cache key suffix that
// identifies its traffic level.
func (s *service) graphFor(ctx context.Context) (*graph.Graph, string) {
	if !s.opts.LiveTraffic || s.traffic == nil {
		return s.graph, ""
	}
	m := traffic.Multiplier(s.traffic.Current(ctx), s.opts.TrafficSensitivity)
	return s.graph.WithTrafficFactor(m), fmt.Sprintf(":t%.2f", m)
}

func (s *service) toResult(rt diversity.Route, ms float64) models.RouteResult {
	names := make([]string, len(rt.Path))
	for i, id := range rt.Path {
		names[i] = id
		if loc, ok := s.graph.Location(id); ok && loc.Name != "" {
			names[i] = loc.Name
		}
	}
	return models.RouteResult{
		ID:               uuid.NewString(),
		Path:             []string(rt.Path.Clone()),
		PathNames:        names,
		TotalTime:        rt.Totals.TimeMinutes,
		TotalDistance:    rt.Totals.DistanceKm,
		TotalEmissions:   rt.Totals.EmissionsGrams,
		GreenPointsScore: rt.GreenPoints,
		RouteType:        rt.Type,
		Alpha:            rt.Alpha,
		ProcessingTimeMs: ms,
	}
}

func (s *service) record(elapsed time.Duration, hit bool) {
	s.stats.calls.Add(1)
	s.stats.totalMicros.Add(elapsed.Microseconds())
	if hit {
		s.stats.hits.Add(1)
	} else {
		s.stats.misses.Add(1)
	}
}

func newRun(start, end string, alpha float64, routes []models.RouteResult, hit bool, elapsed time.Duration) *models.OptimizationRun {
	run := &models.OptimizationRun{
		StartNode:        start,
		EndNode:          end,
		Alpha:            alpha,
		RouteCount:       len(routes),
		Recommendation:   recommendation(routes),
		CacheHit:         hit,
		ProcessingTimeMs: millis(elapsed),
	}
	if len(routes) > 0 {
		run.BestPath = append([]string(nil), routes[0].Path...)
	}
	return run
}

func (s *service) Locations(ctx context.Context) []models.LocationView {
	locs := s.graph.Locations()
	out := make([]models.LocationView, 0, len(locs))
	for _, loc := range locs {
		v := models.LocationView{ID: loc.ID, Name: loc.Name}
		if loc.Coord != nil {
			lat, lng := loc.Coord.Lat, loc.Coord.Lng
			v.Lat, v.Lng = &lat, &lng
		}
		out = append(out, v)
	}
	return out
}

func (s *service) Metrics(ctx context.Context) models.ServiceMetrics {
	calls := s.stats.calls.Load()
	hits := s.stats.hits.Load()
	misses := s.stats.misses.Load()
	m := models.ServiceMetrics{
		ServiceStatus:      "operational",
		TotalOptimizations: calls,
		CacheHits:          hits,
		CacheMisses:        misses,
		NodesCount:         s.graph.LocationCount(),
		LinksCount:         s.graph.LinkCount(),
		LiveTraffic:        s.opts.LiveTraffic,
	}
	if calls > 0 {
		m.AvgOptimizationTimeMs = round2(float64(s.stats.totalMicros.Load()) / 1000 / float64(calls))
	}
	if hits+misses > 0 {
		m.CacheHitRate = round2(float64(hits) / float64(hits+misses))
	}
	if s.cache != nil {
		m.CacheSize = s.cache.Len()
	}
	return m
}

// WarmUp computes pairs into the cache without recording audit runs or
// touching the optimisation statistics. Pairs that name unknown locations are
// skipped. It returns how many pairs were
// computed and the first failure.
func (s *service) WarmUp(ctx context.Context, pairs []Pair, alpha float64) (int, error) {
	var (
		warmed   int
		firstErr error
	)
	for _, p := range pairs {
		if err := ctx.Err(); err != nil {
			return warmed, err
		}
		if !s.graph.Has(p.Start) || !s.graph.Has(p.End) {
			s.log.Warn("skipping warm-up pair", zap.String("start", p.Start), zap.String("end", p.End))
			continue
		}
		routes, _, _, err := s.optimize(ctx, p.Start, p.End, alpha, true)
		if err != nil {
			s.log.Error("warm-up failed", zap.Error(err), zap.String("start", p.Start), zap.String("end", p.End))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		warmed++
		s.log.Debug("warmed route", zap.String("start", p.Start), zap.String("end", p.End), zap.Int("routes", len(routes)))
	}
	return warmed, firstErr
}

func (s *service) ListRuns(ctx context.Context, limit int) ([]*models.OptimizationRun, error) {
	if limit <= 0 {
		limit = defaultRunsLimit
	}
	if limit > maxRunsLimit {
		limit = maxRunsLimit
	}
	runs, err := s.repo.ListRuns(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("ListRuns: %w", err)
	}
	return runs, nil
}

func (s *service) Close(ctx context.Context) error {
	return s.audit.close(ctx)
}

// cacheKey rounds alpha to two decimals so float noise maps to one entry.
func cacheKey(start, end string, alpha float64) string {
	return fmt.Sprintf("%s:%s:%.2f", start, end, alpha)
}

func replay(cached []models.RouteResult) []models.RouteResult {
	return replayCopy(cached, true, replayProcessingMs)
}

// replayCopy deep-copies routes so callers never alias cache entries.
func replayCopy(routes []models.RouteResult, hit bool, ms float64) []models.RouteResult {
	out := make([]models.RouteResult, len(routes))
	for i, r := range routes {
		r.Path = append([]string(nil), r.Path...)
		r.PathNames = append([]string(nil), r.PathNames...)
		r.CacheHit = hit
		if hit {
			r.ProcessingTimeMs = ms
		}
		out[i] = r
	}
	return out
}

func recommendation(routes []models.RouteResult) string {
	if len(routes) == 0 {
		return models.NoRouteFound
	}
	return routes[0].RouteType
}

// sustainability is the mean green score of the routes, capped at 100.
func sustainability(routes []models.RouteResult) int {
	if len(routes) == 0 {
		return 0
	}
	sum := 0
	for _, r := range routes {
		sum += r.GreenPointsScore
	}
	mean := sum / len(routes)
	if mean > maxSustainability {
		return maxSustainability
	}
	return mean
}

func outcome(routes []models.RouteResult) string {
	if len(routes) == 0 {
		return "no_route"
	}
	return "ok"
}

func millis(d time.Duration) float64 {
	return round2(float64(d.Microseconds()) / 1000)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
