package ingest

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/ventas-sync/internal/domain/entity"
	"github.com/jhoicas/ventas-sync/internal/domain/ventas"
)

// EnricherConfig parámetros del enriquecimiento de variantes.
type EnricherConfig struct {
	Workers  int           // lookups de variantes en paralelo por página
	CacheTTL time.Duration // vigencia en la cache compartida
	Retry    RetryPolicy
}

// Enricher resuelve producto, tipo de producto y costo promedio de las variantes vendidas.
// Cada variante se consulta una sola vez por ejecución (memo) y los lookups de una página
// corren en un pool acotado. Un lookup fallido se registra y su campo queda en blanco/cero.
type Enricher struct {
	src    VariantSource
	shared VariantCache
	cfg    EnricherConfig
	log    zerolog.Logger
}

// NewEnricher construye el enriquecedor. shared puede ser nil (sin cache entre ejecuciones).
func NewEnricher(src VariantSource, shared VariantCache, cfg EnricherConfig, log zerolog.Logger) *Enricher {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Enricher{
		src:    src,
		shared: shared,
		cfg:    cfg,
		log:    log.With().Str("componente", "enricher").Logger(),
	}
}

type memoKey struct {
	token     string
	variantID int64
}

// EnrichmentStats contadores de una ejecución.
type EnrichmentStats struct {
	Variants        int64 // variantes resueltas (lookups efectivos o cache compartida)
	SharedHits      int64
	ProductFailures int64
	CostFailures    int64
}

// EnrichmentRun memo de variantes de una ejecución. No se comparte entre ejecuciones.
type EnrichmentRun struct {
	e     *Enricher
	mu    sync.Mutex
	memo  map[memoKey]entity.VariantData
	stats EnrichmentStats
}

// Begin inicia una ejecución con memo vacío.
func (e *Enricher) Begin() *EnrichmentRun {
	return &EnrichmentRun{e: e, memo: make(map[memoKey]entity.VariantData)}
}

// Stats devuelve una copia de los contadores.
func (r *EnrichmentRun) Stats() EnrichmentStats {
	return EnrichmentStats{
		Variants:        atomic.LoadInt64(&r.stats.Variants),
		SharedHits:      atomic.LoadInt64(&r.stats.SharedHits),
		ProductFailures: atomic.LoadInt64(&r.stats.ProductFailures),
		CostFailures:    atomic.LoadInt64(&r.stats.CostFailures),
	}
}

// ResolvePage resuelve todas las variantes de los documentos de una página.
// Solo devuelve error si el contexto se cancela; las fallas de lookup quedan en VariantData.
func (r *EnrichmentRun) ResolvePage(ctx context.Context, token string, docs []entity.SalesDocument) (map[int64]entity.VariantData, error) {
	pending := r.pendingIDs(token, docs)

	if len(pending) > 0 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(r.e.cfg.Workers)
		for _, id := range pending {
			g.Go(func() error {
				data, err := r.e.resolve(gctx, token, id, &r.stats)
				if err != nil {
					return err
				}
				r.mu.Lock()
				r.memo[memoKey{token, id}] = data
				r.mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	out := make(map[int64]entity.VariantData)
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, doc := range docs {
		for _, line := range doc.Details {
			if line.VariantID == 0 {
				continue
			}
			out[line.VariantID] = r.memo[memoKey{token, line.VariantID}]
		}
	}
	return out, nil
}

func (r *EnrichmentRun) pendingIDs(token string, docs []entity.SalesDocument) []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[int64]struct{})
	var ids []int64
	for _, doc := range docs {
		for _, line := range doc.Details {
			id := line.VariantID
			if id == 0 {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			if _, ok := r.memo[memoKey{token, id}]; ok {
				continue
			}
			ids = append(ids, id)
		}
	}
	return ids
}

// resolve consulta producto y costo por separado; cada uno puede fallar sin afectar al otro.
func (e *Enricher) resolve(ctx context.Context, token string, id int64, stats *EnrichmentStats) (entity.VariantData, error) {
	atomic.AddInt64(&stats.Variants, 1)

	if e.shared != nil {
		data, ok, err := e.shared.Get(ctx, token, id)
		if err != nil {
			e.log.Warn().Err(err).Int64("variante", id).Msg("cache de variantes no disponible")
		} else if ok {
			atomic.AddInt64(&stats.SharedHits, 1)
			return data, nil
		}
	}

	var data entity.VariantData

	err := e.cfg.Retry.Do(ctx, func(ctx context.Context) error {
		info, err := e.src.GetVariant(ctx, token, id)
		if err == nil {
			data.Info = info
		}
		return err
	})
	if err != nil {
		if ctx.Err() != nil {
			return data, ctx.Err()
		}
		atomic.AddInt64(&stats.ProductFailures, 1)
		e.log.Warn().Err(err).Int64("variante", id).Msg("error obteniendo producto de la variante")
	} else {
		data.ProductOK = true
	}

	err = e.cfg.Retry.Do(ctx, func(ctx context.Context) error {
		raw, err := e.src.GetVariantCost(ctx, token, id)
		if err == nil {
			data.AverageCost = ventas.AverageCost(raw)
		}
		return err
	})
	if err != nil {
		if ctx.Err() != nil {
			return data, ctx.Err()
		}
		atomic.AddInt64(&stats.CostFailures, 1)
		e.log.Warn().Err(err).Int64("variante", id).Msg("error obteniendo costo de la variante")
	} else {
		data.CostOK = true
	}

	if e.shared != nil && data.ProductOK && data.CostOK {
		if err := e.shared.Set(ctx, token, id, data, e.cfg.CacheTTL); err != nil {
			e.log.Warn().Err(err).Int64("variante", id).Msg("no se pudo guardar la variante en cache")
		}
	}
	return data, nil
}
