package ingest

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jhoicas/ventas-sync/internal/domain/entity"
	"github.com/jhoicas/ventas-sync/internal/domain/repository"
)

// progressEvery cada cuántas filas insertadas se registra avance.
const progressEvery = 1000

// PageResult filas insertadas y duplicadas de una página ya commiteada.
type PageResult struct {
	Inserted   int
	Duplicates int
}

// Persister guarda una página completa en una sola transacción. Si cualquier fila falla
// (con un error distinto de duplicado) se descarta la página entera, incluido el checkpoint.
type Persister struct {
	tx       TxRunner
	log      zerolog.Logger
	inserted int
}

// NewPersister crea el persistidor sobre un TxRunner.
func NewPersister(tx TxRunner, log zerolog.Logger) *Persister {
	return &Persister{tx: tx, log: log.With().Str("componente", "persister").Logger()}
}

// PersistPage inserta las filas ignorando conflictos en (id_detalle, sucursal) y, en la misma
// transacción, guarda el checkpoint cp (si no es nil). Los contadores solo se devuelven tras el commit.
func (p *Persister) PersistPage(ctx context.Context, rows []entity.SalesRow, cp *entity.SyncCheckpoint) (PageResult, error) {
	var res PageResult
	err := p.tx.Run(ctx, func(sales repository.SalesRepository, checkpoints repository.CheckpointRepository) error {
		for _, row := range rows {
			inserted, err := sales.InsertIgnore(ctx, row)
			if err != nil {
				return fmt.Errorf("insertar id_detalle=%d sucursal=%q: %w", row.IDDetalle, row.Sucursal, err)
			}
			if inserted {
				res.Inserted++
			} else {
				res.Duplicates++
			}
		}
		if cp != nil {
			if err := checkpoints.Save(ctx, cp); err != nil {
				return fmt.Errorf("guardar checkpoint: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return PageResult{}, err
	}

	before := p.inserted
	p.inserted += res.Inserted
	if before/progressEvery != p.inserted/progressEvery {
		p.log.Info().Int("insertadas", p.inserted).Msg("avance de inserción")
	}
	return res, nil
}

// Inserted total acumulado de filas insertadas por este persistidor.
func (p *Persister) Inserted() int { return p.inserted }
