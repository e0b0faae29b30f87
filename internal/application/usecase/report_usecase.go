package usecase

import (
	"context"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/jhoicas/ventas-sync/internal/application/dto"
	"github.com/jhoicas/ventas-sync/internal/domain"
	"github.com/jhoicas/ventas-sync/internal/domain/entity"
	"github.com/jhoicas/ventas-sync/internal/domain/repository"
)

const (
	defaultTopProducts = 10
	maxTopProducts     = 100
	defaultExportRows  = 50000
	maxExportRows      = 200000
	defaultRunsListed  = 20
	maxRunsListed      = 200
)

// SalesExporter escribe filas de ventas en un formato descargable.
type SalesExporter interface {
	WriteSales(w io.Writer, rows []entity.SalesRow) error
}

// ReportUseCase reportes de solo lectura sobre la tabla ventas y el historial de importaciones.
type ReportUseCase struct {
	reports  repository.ReportRepository
	runs     repository.SyncRunRepository
	exporter SalesExporter
}

// NewReportUseCase construye el caso de uso. runs y exporter pueden ser nil si el
// despliegue no expone el historial o la exportación.
func NewReportUseCase(reports repository.ReportRepository, runs repository.SyncRunRepository, exporter SalesExporter) *ReportUseCase {
	return &ReportUseCase{reports: reports, runs: runs, exporter: exporter}
}

// Summary resumen general con los filtros aplicados.
func (uc *ReportUseCase) Summary(ctx context.Context, req dto.ReportFilter) (*dto.SummaryDTO, error) {
	f, err := toSalesFilter(req)
	if err != nil {
		return nil, err
	}
	s, err := uc.reports.Summary(ctx, f)
	if err != nil {
		return nil, err
	}
	return &dto.SummaryDTO{
		TotalRegistros:      s.TotalRegistros,
		TotalDocumentos:     s.TotalDocumentos,
		ProductosDiferentes: s.ProductosDiferentes,
		SucursalesActivas:   s.SucursalesActivas,
		VentasTotales:       s.VentasTotales,
		RegistrosConMargen:  s.RegistrosConMargen,
		RegistrosSinMargen:  s.RegistrosSinMargen,
		VentasConCosto:      s.VentasConCosto,
		MargenTotal:         s.MargenTotal,
		PorcentajeMargen:    s.PorcentajeMargen,
		PorcentajeSinMargen: s.PorcentajeSinMargen,
	}, nil
}

// SalesByBranch ventas por sucursal y año.
func (uc *ReportUseCase) SalesByBranch(ctx context.Context, req dto.ReportFilter) ([]dto.BranchSalesDTO, error) {
	f, err := toSalesFilter(req)
	if err != nil {
		return nil, err
	}
	rows, err := uc.reports.SalesByBranch(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]dto.BranchSalesDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.BranchSalesDTO{
			Sucursal:       r.Sucursal,
			Anio:           r.Anio,
			Ventas:         r.Ventas,
			Documentos:     r.Documentos,
			TicketPromedio: r.TicketPromedio,
		})
	}
	return out, nil
}

// TopProducts ranking por venta neta (limit por defecto 10, máximo 100).
func (uc *ReportUseCase) TopProducts(ctx context.Context, req dto.ReportFilter) ([]dto.TopProductDTO, error) {
	f, err := toSalesFilter(req)
	if err != nil {
		return nil, err
	}
	limit := clampLimit(req.Limit, defaultTopProducts, maxTopProducts)
	rows, err := uc.reports.TopProducts(ctx, f, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.TopProductDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.TopProductDTO{
			Ranking:          r.Ranking,
			SKU:              r.SKU,
			ProductoServicio: r.ProductoServicio,
			TotalVentas:      r.TotalVentas,
			TotalUnidades:    r.TotalUnidades,
		})
	}
	return out, nil
}

// DocumentTypes catálogo de tipos de documento dentro del filtro.
func (uc *ReportUseCase) DocumentTypes(ctx context.Context, req dto.ReportFilter) ([]dto.DocumentTypeDTO, error) {
	f, err := toSalesFilter(req)
	if err != nil {
		return nil, err
	}
	rows, err := uc.reports.DocumentTypes(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]dto.DocumentTypeDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.DocumentTypeDTO{TipoDocumento: r.TipoDocumento, TotalDocumentos: r.TotalDocumentos})
	}
	return out, nil
}

// Companies catálogo de empresas con ventas cargadas.
func (uc *ReportUseCase) Companies(ctx context.Context) ([]string, error) {
	return uc.reports.Companies(ctx)
}

// Branches catálogo de sucursales.
func (uc *ReportUseCase) Branches(ctx context.Context) ([]dto.BranchDTO, error) {
	rows, err := uc.reports.Branches(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.BranchDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.BranchDTO{Sucursal: r.Sucursal, Empresa: r.Empresa})
	}
	return out, nil
}

// ExportSales escribe las filas filtradas en w y devuelve cuántas se exportaron.
func (uc *ReportUseCase) ExportSales(ctx context.Context, req dto.ReportFilter, w io.Writer) (int, error) {
	if uc.exporter == nil {
		return 0, fmt.Errorf("%w: exportación no configurada", domain.ErrInvalidInput)
	}
	f, err := toSalesFilter(req)
	if err != nil {
		return 0, err
	}
	rows, err := uc.reports.ListSales(ctx, f, clampLimit(req.Limit, defaultExportRows, maxExportRows))
	if err != nil {
		return 0, err
	}
	if err := uc.exporter.WriteSales(w, rows); err != nil {
		return 0, fmt.Errorf("exportar ventas: %w", err)
	}
	return len(rows), nil
}

// RecentRuns últimas ejecuciones de la importación, más recientes primero.
func (uc *ReportUseCase) RecentRuns(ctx context.Context, limit int) ([]dto.SyncRunDTO, error) {
	if uc.runs == nil {
		return []dto.SyncRunDTO{}, nil
	}
	runs, err := uc.runs.ListRecent(ctx, clampLimit(limit, defaultRunsListed, maxRunsListed))
	if err != nil {
		return nil, err
	}
	out := make([]dto.SyncRunDTO, 0, len(runs))
	for _, r := range runs {
		d := dto.SyncRunDTO{
			ID:         r.ID,
			Trigger:    r.Trigger,
			Status:     r.Status,
			Desde:      time.Unix(r.WindowStart, 0).UTC(),
			Hasta:      time.Unix(r.WindowEnd, 0).UTC(),
			Documentos: r.Documents,
			Filas:      r.Rows,
			Insertadas: r.Inserted,
			Duplicadas: r.Duplicates,
			Error:      r.Error,
			StartedAt:  r.StartedAt,
			FinishedAt: r.FinishedAt,
		}
		if r.FinishedAt != nil {
			d.DurationSec = r.FinishedAt.Sub(r.StartedAt).Seconds()
		}
		out = append(out, d)
	}
	return out, nil
}

// RestrictCompanies limita el filtro de empresa a las permitidas por el token.
// Sin restricción (allowed vacío) el filtro queda igual; sin empresas pedidas se usan
// todas las permitidas. Pedir cualquier empresa fuera del alcance devuelve ErrUnauthorized.
func RestrictCompanies(req *dto.ReportFilter, allowed []string) error {
	if len(allowed) == 0 {
		return nil
	}
	if len(req.Empresa) == 0 {
		req.Empresa = slices.Clone(allowed)
		return nil
	}
	for _, e := range req.Empresa {
		if !slices.Contains(allowed, e) {
			return fmt.Errorf("%w: empresa fuera del alcance del token: %s", domain.ErrUnauthorized, e)
		}
	}
	return nil
}

func toSalesFilter(req dto.ReportFilter) (repository.SalesFilter, error) {
	for _, m := range req.Meses {
		if m < 1 || m > 12 {
			return repository.SalesFilter{}, fmt.Errorf("%w: mes fuera de rango: %d", domain.ErrInvalidInput, m)
		}
	}
	for _, y := range req.Anios {
		if y < 2000 || y > 2100 {
			return repository.SalesFilter{}, fmt.Errorf("%w: año fuera de rango: %d", domain.ErrInvalidInput, y)
		}
	}
	return repository.SalesFilter{
		TipoDocumento: compact(req.TipoDocumento),
		Empresa:       compact(req.Empresa),
		Sucursal:      compact(req.Sucursal),
		Plataforma:    compact(req.Plataforma),
		Anios:         req.Anios,
		Meses:         req.Meses,
	}, nil
}

// compact descarta valores vacíos (?sucursal= sin valor).
func compact(values []string) []string {
	out := values[:0:0]
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func clampLimit(v, def, max int) int {
	if v <= 0 {
		return def
	}
	if v > max {
		return max
	}
	return v
}
