// Gigline - Music Artist & Event Data Pipeline
// Copyright 2026 Eva Martin (evamartin1240)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/evamartin1240/gigline

// Package main is the entry point for the Gigline server.
//
// Gigline is the backend of a music-data management dashboard. It ingests
// artist profiles and concert-event listings from two upstream APIs and
// moves their snapshots through a medallion pipeline (raw, temporal and
// persistent landing, formatted, trusted) ending in two canonical DuckDB
// tables (artist_profile, event_listing) that downstream profiling and
// modelling read.
//
// Every pipeline stage is an independent POST endpoint triggered manually
// from the dashboard; there is no scheduler. The server initializes in
// order:
//
//  1. Configuration (Koanf v2: defaults, optional YAML file, GIGLINE_* env)
//  2. Logging (zerolog)
//  3. Trusted store (DuckDB)
//  4. Trusted-zone engine (currency table, genre corrections)
//  5. HTTP server under a suture supervision tree
//
// Shutdown on SIGINT/SIGTERM is graceful: in-flight stage runs complete
// before the store closes.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/evamartin1240/gigline/internal/api"
	"github.com/evamartin1240/gigline/internal/config"
	"github.com/evamartin1240/gigline/internal/database"
	"github.com/evamartin1240/gigline/internal/logging"
	"github.com/evamartin1240/gigline/internal/supervisor"
	"github.com/evamartin1240/gigline/internal/trusted"
)

func main() {
	if err := run(); err != nil {
		logging.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().Str("database", cfg.Database.Path).Msg("starting gigline")

	db, err := database.New(&cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			logging.Error().Err(cerr).Msg("failed to close database")
		}
	}()

	engine, err := trusted.New(db, &cfg.Formatting)
	if err != nil {
		return err
	}

	handler := api.NewHandler(db, cfg, engine)
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      api.NewRouter(handler, &cfg.Server),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	supCfg := supervisor.DefaultConfig()
	supCfg.ShutdownTimeout = cfg.Server.ShutdownTimeout
	tree := supervisor.NewTree(logging.NewSlogLogger(), supCfg)
	tree.Add(supervisor.NewHTTPService(server, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Str("addr", server.Addr).Msg("listening")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervision tree failed: %w", err)
	}
	logging.Info().Msg("shutdown complete")
	return nil
}
