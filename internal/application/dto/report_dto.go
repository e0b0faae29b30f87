package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ── Query parameters ──────────────────────────────────────────────────────────

// ReportFilter filtros comunes de los reportes. Cada clave puede repetirse
// (?sucursal=Centro&sucursal=Norte); los valores de una misma clave se combinan con OR.
type ReportFilter struct {
	TipoDocumento []string `query:"tipoDocumento"`
	Empresa       []string `query:"empresa"`
	Sucursal      []string `query:"sucursal"`
	Plataforma    []string `query:"plataforma"`
	Anios         []int    `query:"anios"`
	Meses         []int    `query:"meses"`
	Limit         int      `query:"limit"` // solo top-productos y export
}

// ── Respuestas ────────────────────────────────────────────────────────────────

// SummaryDTO resumen general de ventas.
type SummaryDTO struct {
	TotalRegistros      int64           `json:"total_registros"`
	TotalDocumentos     int64           `json:"total_documentos"`
	ProductosDiferentes int64           `json:"productos_diferentes"`
	SucursalesActivas   int64           `json:"sucursales_activas"`
	VentasTotales       decimal.Decimal `json:"ventas_totales"`
	RegistrosConMargen  int64           `json:"registros_con_margen"`
	RegistrosSinMargen  int64           `json:"registros_sin_margen"`
	VentasConCosto      decimal.Decimal `json:"ventas_con_costo"`
	MargenTotal         decimal.Decimal `json:"margen_total"`
	PorcentajeMargen    decimal.Decimal `json:"porcentaje_margen"`     // margen / ventas con costo * 100
	PorcentajeSinMargen decimal.Decimal `json:"porcentaje_sin_margen"` // registros sin costo / total * 100
}

// BranchSalesDTO ventas de una sucursal en un año.
type BranchSalesDTO struct {
	Sucursal       string          `json:"sucursal"`
	Anio           int             `json:"anio"`
	Ventas         decimal.Decimal `json:"ventas"`
	Documentos     int64           `json:"documentos"`
	TicketPromedio decimal.Decimal `json:"ticket_promedio"`
}

// TopProductDTO fila del ranking de productos.
type TopProductDTO struct {
	Ranking          int             `json:"ranking"`
	SKU              string          `json:"sku"`
	ProductoServicio string          `json:"producto_servicio"`
	TotalVentas      decimal.Decimal `json:"total_ventas"`
	TotalUnidades    decimal.Decimal `json:"total_unidades"`
}

// DocumentTypeDTO tipo de documento con su cantidad.
type DocumentTypeDTO struct {
	TipoDocumento   string `json:"tipo_documento"`
	TotalDocumentos int64  `json:"total_documentos"`
}

// BranchDTO sucursal y empresa.
type BranchDTO struct {
	Sucursal string `json:"sucursal"`
	Empresa  string `json:"empresa"`
}

// SyncRunDTO ejecución de la importación.
type SyncRunDTO struct {
	ID          string     `json:"id"`
	Trigger     string     `json:"trigger"`
	Status      string     `json:"status"`
	Desde       time.Time  `json:"desde"`
	Hasta       time.Time  `json:"hasta"`
	Documentos  int        `json:"documentos"`
	Filas       int        `json:"filas"`
	Insertadas  int        `json:"insertadas"`
	Duplicadas  int        `json:"duplicadas"`
	Error       string     `json:"error,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
	DurationSec float64    `json:"duration_sec,omitempty"`
}
