// Authzgate - Authorization Gateway and Edge Policy Enforcement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authzgate

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/authzgate/internal/config"
	"github.com/tomtom215/authzgate/internal/logging"
	"github.com/tomtom215/authzgate/internal/metrics"
	"github.com/tomtom215/authzgate/internal/supervisor"
	"github.com/tomtom215/authzgate/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Default logger: config is not available yet
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("authzgate stopped with error")
	}
}

func run(cfg *config.Config) error {
	logging.Info().
		Str("version", version).
		Str("mode", cfg.Server.Mode).
		Str("addr", cfg.Server.Addr()).
		Msg("Starting authzgate")
	metrics.AppInfo.WithLabelValues(version, cfg.Server.Mode).Set(1)

	c, err := build(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := c.decisions.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing decision log")
		}
	}()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	if c.load != nil {
		tree.AddPolicyService(services.NewPolicyLoaderService(c.holder, c.load))
	}

	mainServer := newHTTPServer(cfg.Server.Addr(), c.main, cfg.Server)
	tree.AddAPIService(services.NewHTTPServerService(cfg.Server.Mode+"-http", mainServer, cfg.Server.ShutdownTimeout))

	if c.admin != nil {
		adminServer := newHTTPServer(cfg.Server.AdminAddr(), c.admin, cfg.Server)
		tree.AddAPIService(services.NewHTTPServerService("admin-http", adminServer, cfg.Server.ShutdownTimeout))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	// ServeBackground delivers exactly one value and never closes the channel.
	var serveErr error
	if err := <-tree.ServeBackground(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
		serveErr = err
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("authzgate stopped")
	return serveErr
}
