package ingest

import (
	"context"
	"time"

	"github.com/jhoicas/ventas-sync/internal/domain/entity"
	"github.com/jhoicas/ventas-sync/internal/domain/repository"
	"github.com/jhoicas/ventas-sync/internal/domain/ventas"
)

// DocumentSource obtiene páginas de documentos de venta (API Bsale).
type DocumentSource interface {
	ListDocuments(ctx context.Context, token string, w ventas.DateWindow, offset, limit int) (entity.DocumentPage, error)
}

// VariantSource lookups secundarios por variante.
type VariantSource interface {
	GetVariant(ctx context.Context, token string, variantID int64) (entity.VariantInfo, error)
	GetVariantCost(ctx context.Context, token string, variantID int64) (float64, error)
}

// VariantCache cache compartida entre ejecuciones (Redis o noop).
// Solo se guardan lookups exitosos.
type VariantCache interface {
	Get(ctx context.Context, token string, variantID int64) (entity.VariantData, bool, error)
	Set(ctx context.Context, token string, variantID int64, data entity.VariantData, ttl time.Duration) error
}

// TxRunner ejecuta fn dentro de una transacción de BD con repositorios atados a esa tx.
// Commit si fn devuelve nil; rollback completo en cualquier otro caso.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		sales repository.SalesRepository,
		checkpoints repository.CheckpointRepository,
	) error) error
}
