package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/ventas-sync/internal/domain"
	"github.com/jhoicas/ventas-sync/internal/domain/entity"
	"github.com/jhoicas/ventas-sync/internal/domain/repository"
)

var _ repository.SalesRepository = (*SalesRepo)(nil)

// schemaStatements DDL idempotente de la importación. Se ejecuta en orden.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS ventas (
		id SERIAL PRIMARY KEY,
		id_bsale BIGINT,
		id_detalle BIGINT,
		empresa VARCHAR(100),
		sucursal VARCHAR(100),
		fecha TIMESTAMP WITH TIME ZONE,
		sku VARCHAR(100),
		producto_servicio VARCHAR(255),
		tipo_producto_servicio VARCHAR(100),
		variante VARCHAR(255),
		descripcion_completa TEXT,
		subtotal_bruto NUMERIC,
		subtotal_neto NUMERIC,
		margen_neto NUMERIC,
		costo_neto NUMERIC,
		impuestos NUMERIC,
		cantidad NUMERIC,
		vendedor VARCHAR(100),
		plataforma VARCHAR(100),
		tipo_documento VARCHAR(100),
		nro_documento VARCHAR(50),
		fecha_creacion TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(id_detalle, sucursal)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_ventas_fecha ON ventas (fecha)`,
	`CREATE TABLE IF NOT EXISTS sync_checkpoints (
		window_start BIGINT NOT NULL,
		window_end BIGINT NOT NULL,
		company_index INTEGER NOT NULL,
		company_name VARCHAR(100),
		next_offset INTEGER NOT NULL DEFAULT 0,
		completed BOOLEAN NOT NULL DEFAULT FALSE,
		updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		PRIMARY KEY (window_start, window_end)
	)`,
	`CREATE TABLE IF NOT EXISTS sync_runs (
		id UUID PRIMARY KEY,
		trigger_type VARCHAR(20) NOT NULL,
		window_start BIGINT NOT NULL,
		window_end BIGINT NOT NULL,
		status VARCHAR(20) NOT NULL,
		documents INTEGER NOT NULL DEFAULT 0,
		line_items INTEGER NOT NULL DEFAULT 0,
		inserted INTEGER NOT NULL DEFAULT 0,
		duplicates INTEGER NOT NULL DEFAULT 0,
		error TEXT,
		started_at TIMESTAMP WITH TIME ZONE NOT NULL,
		finished_at TIMESTAMP WITH TIME ZONE
	)`,
}

const insertVentaSQL = `
	INSERT INTO ventas (
		id_bsale, id_detalle, empresa, sucursal, fecha, sku, producto_servicio, tipo_producto_servicio,
		variante, descripcion_completa, subtotal_bruto, subtotal_neto,
		margen_neto, costo_neto, impuestos, cantidad,
		vendedor, plataforma, tipo_documento, nro_documento
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	ON CONFLICT (id_detalle, sucursal) DO NOTHING`

// SalesRepo implementación sobre PostgreSQL de la tabla ventas (usable con pool o tx).
type SalesRepo struct {
	q Querier
}

// NewSalesRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSalesRepository(q Querier) *SalesRepo {
	return &SalesRepo{q: q}
}

// EnsureSchema crea ventas, sync_checkpoints y sync_runs si no existen.
func (r *SalesRepo) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := r.q.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// InsertIgnore inserta la fila; un conflicto en (id_detalle, sucursal) no hace nada y devuelve false.
// Una violación de unicidad sobre otra restricción no es un duplicado de negocio: se devuelve
// como error envolviendo domain.ErrDuplicate.
func (r *SalesRepo) InsertIgnore(ctx context.Context, row entity.SalesRow) (bool, error) {
	tag, err := r.q.Exec(ctx, insertVentaSQL, row.Args()...)
	if err != nil {
		if isUniqueViolation(err) {
			return false, fmt.Errorf("insert venta: %w: %w", domain.ErrDuplicate, err)
		}
		return false, fmt.Errorf("insert venta: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
