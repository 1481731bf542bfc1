package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"eco-route-planner/internal/config"
	"eco-route-planner/internal/logging"
	"eco-route-planner/internal/models"
	"eco-route-planner/internal/modules/routing"
	"eco-route-planner/internal/server"
)

func runServe(ctx context.Context, configDir, port string) error {
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if port != "" {
		cfg.ServerPort = port
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := server.New(ctx, cfg, log)
	if err != nil {
		log.Error("startup failed", zap.Error(err))
		return err
	}
	defer func() {
		if cerr := app.Close(); cerr != nil {
			log.Error("close failed", zap.Error(cerr))
		}
	}()

	if err := app.Run(ctx); err != nil {
		log.Error("server terminated", zap.Error(err))
		return err
	}
	log.Info("server stopped")
	return nil
}

// newRoutingService builds an optimiser for one-shot CLI use: no cache and
// no event publishing.
func newRoutingService(configDir string) (routing.ServiceInterface, error) {
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	g, err := server.LoadGraph(cfg.GraphFile)
	if err != nil {
		return nil, fmt.Errorf("loading graph: %w", err)
	}
	return routing.NewService(g, routing.Deps{}, server.RoutingOptions(cfg)), nil
}

func runOptimize(cmd *cobra.Command, configDir, start, end string, alpha float64, single, asJSON bool) error {
	svc, err := newRoutingService(configDir)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	defer func() { _ = svc.Close(ctx) }()

	var routes []models.RouteResult
	if single {
		r, err := svc.OptimalRoute(ctx, start, end, alpha)
		if err != nil {
			return err
		}
		routes = []models.RouteResult{*r}
	} else {
		routes, err = svc.OptimizeRoutes(ctx, start, end, alpha)
		if err != nil {
			return err
		}
	}

	if asJSON {
		return printJSON(cmd.OutOrStdout(), routes)
	}
	printRoutes(cmd.OutOrStdout(), start, end, alpha, routes)
	return nil
}

func runLocations(cmd *cobra.Command, configDir string) error {
	svc, err := newRoutingService(configDir)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close(cmd.Context()) }()
	printLocations(cmd.OutOrStdout(), svc.Locations(cmd.Context()))
	return nil
}

func runHashPassword(cmd *cobra.Command, password string, cost int) error {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return fmt.Errorf("cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(hashed))
	return nil
}
