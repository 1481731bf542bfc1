// Package server assembles the HTTP application from configuration.
package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"eco-route-planner/internal/cache"
	"eco-route-planner/internal/config"
	"eco-route-planner/internal/events"
	"eco-route-planner/internal/jobs"
	"eco-route-planner/internal/logging"
	"eco-route-planner/internal/metrics"
	"eco-route-planner/internal/models"
	"eco-route-planner/internal/modules/auth"
	"eco-route-planner/internal/modules/routing"
	"eco-route-planner/internal/modules/traffic"
	"eco-route-planner/pkg/graph"
)

const shutdownTimeout = 10 * time.Second

// App owns every long-lived component of the server process.
type App struct {
	cfg       *config.Config
	log       *zap.Logger
	echo      *echo.Echo
	db        *pgxpool.Pool
	publisher events.Publisher
	warmup    *jobs.WarmupJob
	routing   routing.ServiceInterface
}

// LoadGraph reads the graph file, or returns the Pune reference network when
// path is empty.
func LoadGraph(path string) (*graph.Graph, error) {
	if path == "" {
		return graph.PuneCity()
	}
	return graph.LoadFile(path)
}

// RoutingOptions maps configuration onto the optimiser's options.
func RoutingOptions(cfg *config.Config) routing.Options {
	return routing.Options{
		AlphaMin:           cfg.AlphaMin,
		AlphaMax:           cfg.AlphaMax,
		CacheTTL:           cfg.CacheTTL,
		MaxExpansions:      cfg.MaxExpansions,
		UseHeuristic:       cfg.UseHeuristic,
		LiveTraffic:        cfg.LiveTraffic,
		TrafficSensitivity: cfg.TrafficSensitivity,
		AuditQueueSize:     cfg.AuditQueueSize,
		AuditTimeout:       cfg.AuditTimeout,
	}
}

// New builds the application. A configured database is connected and
// migrated here; an unreachable one is a startup error.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	g, err := LoadGraph(cfg.GraphFile)
	if err != nil {
		return nil, fmt.Errorf("server: load graph: %w", err)
	}

	m := metrics.New()
	routeCache, err := cache.New[string, []models.RouteResult](cfg.CacheSize, m)
	if err != nil {
		return nil, fmt.Errorf("server: route cache: %w", err)
	}

	a := &App{cfg: cfg, log: log}

	var repo routing.RepositoryInterface
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("server: connect database: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("server: ping database: %w", err)
		}
		a.db = pool
		pg := routing.NewRepository(pool).(*routing.Repository)
		if err := pg.Migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("server: %w", err)
		}
		repo = pg
	} else {
		log.Info("DATABASE_URL not set, keeping optimisation runs in memory")
		repo = routing.NewMemoryRepository(0)
	}

	a.publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, log)
	trafficSvc := traffic.NewService(time.Local)

	a.routing = routing.NewService(g, routing.Deps{
		Repo:      repo,
		Cache:     routeCache,
		Publisher: a.publisher,
		Traffic:   trafficSvc,
		Metrics:   m,
		Logger:    log.Named("routing"),
	}, RoutingOptions(cfg))

	secret := cfg.JWTSecret
	if secret == "" {
		log.Warn("JWT_SECRET not set, using an ephemeral signing key")
		if secret, err = ephemeralSecret(); err != nil {
			return nil, fmt.Errorf("server: %w", err)
		}
	}
	authSvc := auth.NewService(cfg.AdminUsername, cfg.AdminPasswordHash, secret)

	a.warmup = jobs.NewWarmupJob(jobs.WarmupConfig{
		Schedule:       cfg.WarmupSchedule,
		RunImmediately: true,
	}, a.routing, routeCache, m, log.Named("warmup"))

	a.echo = newEcho(cfg, log, m, a.routing, trafficSvc, authSvc)
	log.Info("application ready",
		zap.Int("locations", g.LocationCount()),
		zap.Int("links", g.LinkCount()),
		zap.Bool("live_traffic", cfg.LiveTraffic),
		zap.Bool("database", a.db != nil),
		zap.Strings("kafka_brokers", cfg.KafkaBrokers))
	return a, nil
}

func newEcho(cfg *config.Config, log *zap.Logger, m *metrics.Collector,
	routingSvc routing.ServiceInterface, trafficSvc traffic.ServiceInterface, authSvc auth.ServiceInterface) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestID())
	e.Use(logging.RequestLogger(log.Named("http")))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{cfg.ClientOrigin},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(m.Middleware())

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(m.Handler()))

	api := e.Group("/api")
	routingHandler := routing.NewHandler(routingSvc, log.Named("routing"))
	routingHandler.RegisterRoutes(api)
	traffic.NewHandler(trafficSvc).RegisterRoutes(api)
	auth.NewHandler(authSvc, log.Named("auth")).RegisterRoutes(api)

	admin := api.Group("/admin", auth.RequireAdmin(authSvc))
	routingHandler.RegisterAdminRoutes(admin)
	return e
}

// Handler exposes the HTTP handler, mainly for tests.
func (a *App) Handler() http.Handler { return a.echo }

// Routing returns the optimiser service.
func (a *App) Routing() routing.ServiceInterface { return a.routing }

// Run serves HTTP and the warm-up job until ctx is cancelled, then shuts
// down gracefully.
func (a *App) Run(ctx context.Context) error {
	if err := a.warmup.Start(ctx); err != nil {
		return err
	}
	defer a.warmup.Stop()

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + a.cfg.ServerPort
		a.log.Info("http server listening", zap.String("addr", addr))
		if err := a.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	a.log.Info("shutting down")
	if err := a.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}

// Close flushes the audit trail, then releases the event publisher and the
// database pool.
func (a *App) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var err error
	if a.routing != nil {
		if ferr := a.routing.Close(ctx); ferr != nil {
			a.log.Warn("audit trail not fully flushed", zap.Error(ferr))
		}
	}
	if a.publisher != nil {
		err = a.publisher.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
	return err
}

func ephemeralSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate signing key: %w", err)
	}
	return hex.EncodeToString(b), nil
}
