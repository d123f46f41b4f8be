package cmd

import (
	"context"
	"errors"

	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"

	"github.com/handlescope/handlescope/internal/config"
	"github.com/handlescope/handlescope/internal/core/directory"
	"github.com/handlescope/handlescope/internal/core/engine"
	"github.com/handlescope/handlescope/internal/core/registry"
	"github.com/handlescope/handlescope/internal/core/store"
	"github.com/handlescope/handlescope/internal/observability"
)

// openStore opens and migrates the configured store. A broken store is not
// fatal for checking; callers degrade to catalog-only resolution without
// persistence when this returns nil.
func openStore(ctx context.Context, logger *logging.Logger) *store.Store {
	cfg := config.GetConfig()
	if cfg == nil {
		return nil
	}

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		if logger != nil {
			logger.Warn("Store unavailable, checks will not be persisted", zap.Error(err))
		}
		return nil
	}

	if err := st.Migrate(ctx); err != nil {
		if logger != nil {
			logger.Warn("Store migration failed, checks will not be persisted", zap.Error(err))
		}
		_ = st.Close()
		return nil
	}

	return st
}

// buildOrchestrator assembles the checking engine over the given store. The
// returned sink is non-nil when persistence is active; callers should Wait on
// it before exiting so fire-and-forget writes land.
func buildOrchestrator(st *store.Store, logger *logging.Logger) (*engine.Orchestrator, *engine.AsyncSink, error) {
	cfg := config.GetConfig()
	if cfg == nil {
		return nil, nil, errors.New("config not loaded")
	}

	checks := cfg.Checks.WithDefaults()

	reg := registry.New(registry.Options{
		CacheTTL:    checks.CacheTTL,
		Timeout:     checks.Timeout,
		Concurrency: checks.PerPlatformConcurrency,
		MaxRPS:      checks.PerPlatformMaxRPS,
		UserAgent:   checks.UserAgent,
	})

	var dir directory.Directory
	var sink *engine.AsyncSink
	if st != nil {
		dir = directory.NewMerged(st)
		sink = engine.NewAsyncSink(st, logger, 0)
	} else {
		dir = directory.NewStatic()
	}

	orch := engine.New(checks, reg, dir, sinkOrNil(sink))
	orch.Logger = logger

	return orch, sink, nil
}

// sinkOrNil avoids handing the engine a typed-nil Sink interface.
func sinkOrNil(sink *engine.AsyncSink) engine.Sink {
	if sink == nil {
		return nil
	}
	return sink
}

// cliLogger returns the CLI logger, which is always initialized by the time
// a command runs.
func cliLogger() *logging.Logger {
	return observability.CLILogger
}
