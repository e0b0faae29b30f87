package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/ventas-sync/internal/domain/entity"
)

// SalesFilter filtros de los reportes sobre ventas. Cada lista vacía no filtra;
// dentro de una lista los valores se combinan con OR y entre listas con AND.
type SalesFilter struct {
	TipoDocumento []string
	Empresa       []string
	Sucursal      []string
	Plataforma    []string
	Anios         []int
	Meses         []int
}

// SalesSummary resumen general. Los porcentajes de margen consideran solo filas con margen.
type SalesSummary struct {
	TotalRegistros      int64
	TotalDocumentos     int64
	ProductosDiferentes int64
	SucursalesActivas   int64
	VentasTotales       decimal.Decimal
	RegistrosConMargen  int64
	RegistrosSinMargen  int64
	VentasConCosto      decimal.Decimal
	MargenTotal         decimal.Decimal
	PorcentajeMargen    decimal.Decimal
	PorcentajeSinMargen decimal.Decimal
}

// BranchYearSales ventas netas de una sucursal en un año.
type BranchYearSales struct {
	Sucursal       string
	Anio           int
	Ventas         decimal.Decimal
	Documentos     int64
	TicketPromedio decimal.Decimal
}

// TopProduct producto en el ranking por venta neta.
type TopProduct struct {
	Ranking          int
	SKU              string
	ProductoServicio string
	TotalVentas      decimal.Decimal
	TotalUnidades    decimal.Decimal
}

// DocumentTypeCount documentos distintos por tipo.
type DocumentTypeCount struct {
	TipoDocumento   string
	TotalDocumentos int64
}

// Branch sucursal y la empresa a la que pertenece.
type Branch struct {
	Sucursal string
	Empresa  string
}

// ReportRepository consultas de solo lectura sobre la tabla ventas.
type ReportRepository interface {
	Summary(ctx context.Context, f SalesFilter) (*SalesSummary, error)
	SalesByBranch(ctx context.Context, f SalesFilter) ([]BranchYearSales, error)
	TopProducts(ctx context.Context, f SalesFilter, limit int) ([]TopProduct, error)
	DocumentTypes(ctx context.Context, f SalesFilter) ([]DocumentTypeCount, error)
	Companies(ctx context.Context) ([]string, error)
	Branches(ctx context.Context) ([]Branch, error)
	// ListSales filas detalladas para exportación, más recientes primero.
	ListSales(ctx context.Context, f SalesFilter, limit int) ([]entity.SalesRow, error)
}
