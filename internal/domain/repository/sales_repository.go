package repository

import (
	"context"

	"github.com/jhoicas/ventas-sync/internal/domain/entity"
)

// SalesRepository define el puerto de escritura de la tabla ventas.
// La implementación vive en infrastructure (pool o tx).
type SalesRepository interface {
	// EnsureSchema crea las tablas si no existen (idempotente). Se invoca una vez por ejecución.
	EnsureSchema(ctx context.Context) error
	// InsertIgnore inserta la fila o no hace nada si (id_detalle, sucursal) ya existe.
	// inserted=false indica duplicado; nunca actualiza la fila existente.
	InsertIgnore(ctx context.Context, row entity.SalesRow) (inserted bool, err error)
}

// CheckpointRepository persiste la posición de avance de una importación por ventana.
type CheckpointRepository interface {
	// Get devuelve nil, nil si la ventana no tiene checkpoint.
	Get(ctx context.Context, windowStart, windowEnd int64) (*entity.SyncCheckpoint, error)
	Save(ctx context.Context, cp *entity.SyncCheckpoint) error
}

// SyncRunRepository registra cada ejecución de la importación.
type SyncRunRepository interface {
	Create(ctx context.Context, run *entity.SyncRun) error
	Finish(ctx context.Context, run *entity.SyncRun) error
	ListRecent(ctx context.Context, limit int) ([]*entity.SyncRun, error)
}
