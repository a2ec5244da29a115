// Skooldata - Community Platform Extraction and Revenue Analytics
// Copyright 2026 Patrick O. (PATRICK079)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/PATRICK079/skool-data

// Package main is the entry point for the Skooldata sync service.
//
// Skooldata extracts membership, content, and engagement data from a
// community platform's private API, reconciles it into a local DuckDB
// store, and derives recurring-revenue and churn metrics used for
// member segmentation.
//
// Startup order:
//
//  1. Configuration: defaults, optional YAML file, SKOOLSYNC_* env vars
//  2. Logging: zerolog, JSON or console format
//  3. Store: DuckDB with schema initialization
//  4. Upstream API client: retries, proxy pool, circuit breaker
//  5. Supervisor tree: one worker per organization plus the metrics
//     listener, restarted independently on failure
//
// The service shuts down gracefully on SIGINT and SIGTERM.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/semaphore"

	"github.com/PATRICK079/skool-data/internal/config"
	"github.com/PATRICK079/skool-data/internal/identity"
	"github.com/PATRICK079/skool-data/internal/logging"
	"github.com/PATRICK079/skool-data/internal/skool"
	"github.com/PATRICK079/skool-data/internal/store"
	"github.com/PATRICK079/skool-data/internal/supervisor"
	"github.com/PATRICK079/skool-data/internal/syncer"
)

func main() {
	cfg, err := config.Load(os.Getenv("SKOOLSYNC_CONFIG"))
	if err != nil {
		logging.Fatal().Err(err).Msg("configuration failed")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: cfg.Logging.Timestamp,
	})

	db, err := store.New(cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("opening store failed")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("closing store failed")
		}
	}()

	api, err := skool.NewAPI(cfg.Skool, cfg.Sync.PageConcurrency)
	if err != nil {
		logging.Fatal().Err(err).Msg("building upstream client failed")
	}

	ident := identity.NewClient(cfg.Identity)
	selector := skool.NewCredentialSelector(cfg.Accounts, api, ident)
	engine := syncer.New(db, api, selector, cfg.Segmentation, cfg.Sync.StatusBatchSize)

	tree := supervisor.NewTree(
		slog.New(slog.NewJSONHandler(os.Stderr, nil)),
		supervisor.DefaultTreeConfig(),
	)
	tree.AddOps(&supervisor.MetricsServer{Addr: cfg.Server.MetricsAddr})

	sem := semaphore.NewWeighted(int64(cfg.Sync.MaxConcurrentOrgs))
	for _, orgID := range cfg.Organizations {
		tree.AddWorker(&supervisor.OrgWorker{
			OrgID:    orgID,
			Interval: cfg.Sync.Interval,
			Engine:   engine,
			Resolver: ident,
			Store:    db,
			Sem:      sem,
		})
	}
	if len(cfg.Organizations) == 0 {
		logging.Warn().Msg("no organizations configured, only the metrics listener will run")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().
		Int("organizations", len(cfg.Organizations)).
		Str("metrics_addr", cfg.Server.MetricsAddr).
		Msg("skooldata starting")
	if err := tree.Serve(ctx); err != nil && ctx.Err() == nil {
		logging.Fatal().Err(err).Msg("supervisor tree failed")
	}
	logging.Info().Msg("skooldata stopped")
}
