package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/ventas-sync/internal/application/ingest"
	"github.com/jhoicas/ventas-sync/internal/infrastructure/bsale"
	"github.com/jhoicas/ventas-sync/internal/infrastructure/cache"
	"github.com/jhoicas/ventas-sync/internal/infrastructure/postgres"
	"github.com/jhoicas/ventas-sync/pkg/config"
	"github.com/jhoicas/ventas-sync/pkg/logger"
)

// importMaxConns la importación usa una sola conexión a la vez (tx por página);
// se deja una extra para el registro de ejecuciones.
const importMaxConns = 2

// pipeline componentes cableados de la importación.
type pipeline struct {
	orchestrator *ingest.Orchestrator
	runs         *postgres.SyncRunRepo
	pool         *pgxpool.Pool
	closeCache   func() error
}

func (p *pipeline) Close() {
	if p.closeCache != nil {
		_ = p.closeCache()
	}
	if p.pool != nil {
		p.pool.Close()
	}
}

// buildPipeline conecta Postgres, el cliente Bsale, la cache de variantes y el orquestador.
func buildPipeline(ctx context.Context, cfg *config.Config, log *logger.Logger) (*pipeline, error) {
	pool, err := postgres.NewPool(ctx, cfg.DB, importMaxConns)
	if err != nil {
		return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
	}

	variantCache, closeCache, err := cache.NewVariantCache(cfg.Cache)
	if err != nil {
		// Sin Redis la importación sigue, solo pierde la cache entre ejecuciones.
		log.Warn().Err(err).Msg("cache de variantes no disponible, se continúa sin ella")
		variantCache, closeCache = cache.NewNoopVariantCache(), nil
	}

	client := bsale.NewClient(bsale.Config{
		BaseURL:    cfg.Bsale.BaseURL,
		Timeout:    cfg.Bsale.Timeout,
		RatePerSec: cfg.Bsale.RatePerSec,
		Burst:      cfg.Bsale.Burst,
	})

	retry := ingest.DefaultRetryPolicy(bsale.IsTransient)
	if cfg.Bsale.RetryAttempts > 0 {
		retry.Attempts = cfg.Bsale.RetryAttempts
	}
	if cfg.Bsale.RetryBase > 0 {
		retry.BaseDelay = cfg.Bsale.RetryBase
	}

	zl := log.Component("ingest")
	enricher := ingest.NewEnricher(client, variantCache, ingest.EnricherConfig{
		Workers:  cfg.Bsale.EnrichWorkers,
		CacheTTL: cfg.Cache.TTL,
		Retry:    retry,
	}, zl)

	runs := postgres.NewSyncRunRepository(pool)
	orch := ingest.NewOrchestrator(ingest.OrchestratorDeps{
		Companies:   cfg.Bsale.Companies,
		Documents:   client,
		Enricher:    enricher,
		Persister:   ingest.NewPersister(postgres.NewTxRunner(pool), zl),
		Schema:      postgres.NewSalesRepository(pool),
		Checkpoints: postgres.NewCheckpointRepository(pool),
		Runs:        runs,
		PageSize:    bsale.PageSize,
		Logger:      zl,
	})

	return &pipeline{
		orchestrator: orch,
		runs:         runs,
		pool:         pool,
		closeCache:   closeCache,
	}, nil
}
