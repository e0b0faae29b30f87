package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/ventas-sync/internal/domain/entity"
	"github.com/jhoicas/ventas-sync/internal/domain/repository"
)

var _ repository.ReportRepository = (*ReportRepo)(nil)

// ReportRepo consultas de solo lectura para los reportes de ventas.
type ReportRepo struct {
	q Querier
}

// NewReportRepository construye el adaptador de reportes.
func NewReportRepository(q Querier) *ReportRepo {
	return &ReportRepo{q: q}
}

// whereBuilder arma la cláusula WHERE con placeholders numerados.
type whereBuilder struct {
	conds []string
	args  []any
}

func (b *whereBuilder) add(cond string, args ...any) {
	for _, a := range args {
		b.args = append(b.args, a)
		cond = strings.Replace(cond, "?", fmt.Sprintf("$%d", len(b.args)), 1)
	}
	b.conds = append(b.conds, cond)
}

func addIn[T any](b *whereBuilder, expr string, values []T) {
	if len(values) == 0 {
		return
	}
	marks := make([]string, len(values))
	args := make([]any, len(values))
	for i, v := range values {
		marks[i] = "?"
		args[i] = v
	}
	b.add(fmt.Sprintf("%s IN (%s)", expr, strings.Join(marks, ", ")), args...)
}

func (b *whereBuilder) sql() string {
	return "WHERE " + strings.Join(b.conds, " AND ")
}

// buildWhere traduce el filtro a SQL parametrizado. Siempre excluye filas sin fecha.
func buildWhere(f repository.SalesFilter) *whereBuilder {
	b := &whereBuilder{conds: []string{"fecha IS NOT NULL"}}
	addIn(b, "tipo_documento", f.TipoDocumento)
	addIn(b, "empresa", f.Empresa)
	addIn(b, "sucursal", f.Sucursal)
	addIn(b, "plataforma", f.Plataforma)
	addIn(b, "EXTRACT(YEAR FROM fecha)", f.Anios)
	addIn(b, "EXTRACT(MONTH FROM fecha)", f.Meses)
	return b
}

// Summary totales generales. El porcentaje de margen usa solo ventas con margen registrado.
func (r *ReportRepo) Summary(ctx context.Context, f repository.SalesFilter) (*repository.SalesSummary, error) {
	w := buildWhere(f)
	query := `
	SELECT
	    COUNT(*)                                                                  AS total_registros,
	    COUNT(DISTINCT nro_documento)                                             AS total_documentos,
	    COUNT(DISTINCT sku)                                                       AS productos_diferentes,
	    COUNT(DISTINCT sucursal)                                                  AS sucursales_activas,
	    COALESCE(ROUND(SUM(subtotal_neto)), 0)                                    AS ventas_totales,
	    COUNT(*) FILTER (WHERE margen_neto IS NOT NULL)                           AS registros_con_margen,
	    COUNT(*) FILTER (WHERE margen_neto IS NULL)                               AS registros_sin_margen,
	    COALESCE(ROUND(SUM(subtotal_neto) FILTER (WHERE margen_neto IS NOT NULL)), 0) AS ventas_con_costo,
	    COALESCE(ROUND(SUM(margen_neto)), 0)                                      AS margen_total,
	    CASE
	        WHEN COALESCE(SUM(subtotal_neto) FILTER (WHERE margen_neto IS NOT NULL), 0) > 0
	        THEN ROUND(SUM(margen_neto) / SUM(subtotal_neto) FILTER (WHERE margen_neto IS NOT NULL) * 100, 2)
	        ELSE 0
	    END                                                                       AS porcentaje_margen,
	    CASE
	        WHEN COUNT(*) > 0
	        THEN ROUND(COUNT(*) FILTER (WHERE margen_neto IS NULL)::numeric / COUNT(*) * 100, 2)
	        ELSE 0
	    END                                                                       AS porcentaje_sin_margen
	FROM ventas
	` + w.sql()

	var s repository.SalesSummary
	err := r.q.QueryRow(ctx, query, w.args...).Scan(
		&s.TotalRegistros,
		&s.TotalDocumentos,
		&s.ProductosDiferentes,
		&s.SucursalesActivas,
		&s.VentasTotales,
		&s.RegistrosConMargen,
		&s.RegistrosSinMargen,
		&s.VentasConCosto,
		&s.MargenTotal,
		&s.PorcentajeMargen,
		&s.PorcentajeSinMargen,
	)
	if err != nil {
		return nil, fmt.Errorf("reports.Summary: %w", err)
	}
	return &s, nil
}

// SalesByBranch ventas por sucursal y año. Al comparar varios años sin filtro de mes,
// todos los años se cortan en el mismo día del año que la última venta del año más reciente.
func (r *ReportRepo) SalesByBranch(ctx context.Context, f repository.SalesFilter) ([]repository.BranchYearSales, error) {
	w := buildWhere(f)
	if len(f.Anios) > 1 && len(f.Meses) == 0 {
		latest := f.Anios[0]
		for _, y := range f.Anios[1:] {
			latest = max(latest, y)
		}
		var lastDay *time.Time
		if err := r.q.QueryRow(ctx,
			`SELECT MAX(fecha) FROM ventas WHERE EXTRACT(YEAR FROM fecha) = $1`, latest,
		).Scan(&lastDay); err != nil {
			return nil, fmt.Errorf("reports.SalesByBranch último día: %w", err)
		}
		if lastDay != nil {
			w.add("EXTRACT(DOY FROM fecha) <= ?", lastDay.YearDay())
		}
	}

	query := `
	SELECT
	    sucursal,
	    EXTRACT(YEAR FROM fecha)::int                                 AS anio,
	    COALESCE(ROUND(SUM(subtotal_neto)), 0)                        AS ventas,
	    COUNT(DISTINCT nro_documento)                                 AS documentos,
	    CASE
	        WHEN COUNT(DISTINCT nro_documento) > 0
	        THEN ROUND(COALESCE(SUM(subtotal_neto), 0) / COUNT(DISTINCT nro_documento))
	        ELSE 0
	    END                                                           AS ticket_promedio
	FROM ventas
	` + w.sql() + `
	GROUP BY sucursal, EXTRACT(YEAR FROM fecha)
	ORDER BY sucursal, anio DESC`

	rows, err := r.q.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("reports.SalesByBranch: %w", err)
	}
	defer rows.Close()

	var out []repository.BranchYearSales
	for rows.Next() {
		var b repository.BranchYearSales
		if err := rows.Scan(&b.Sucursal, &b.Anio, &b.Ventas, &b.Documentos, &b.TicketPromedio); err != nil {
			return nil, fmt.Errorf("reports.SalesByBranch scan: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// TopProducts ranking de productos por venta neta.
func (r *ReportRepo) TopProducts(ctx context.Context, f repository.SalesFilter, limit int) ([]repository.TopProduct, error) {
	w := buildWhere(f)
	w.add("sku IS NOT NULL")
	w.add("producto_servicio IS NOT NULL")
	args := append(w.args, limit)

	query := fmt.Sprintf(`
	SELECT
	    ROW_NUMBER() OVER (ORDER BY SUM(subtotal_neto) DESC NULLS LAST)::int AS ranking,
	    sku,
	    producto_servicio,
	    COALESCE(ROUND(SUM(subtotal_neto)), 0)                             AS total_ventas,
	    COALESCE(SUM(cantidad), 0)                                         AS total_unidades
	FROM ventas
	%s
	GROUP BY sku, producto_servicio
	ORDER BY ranking
	LIMIT $%d`, w.sql(), len(args))

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("reports.TopProducts: %w", err)
	}
	defer rows.Close()

	var out []repository.TopProduct
	for rows.Next() {
		var p repository.TopProduct
		if err := rows.Scan(&p.Ranking, &p.SKU, &p.ProductoServicio, &p.TotalVentas, &p.TotalUnidades); err != nil {
			return nil, fmt.Errorf("reports.TopProducts scan: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// DocumentTypes tipos de documento con la cantidad de documentos distintos dentro del filtro.
func (r *ReportRepo) DocumentTypes(ctx context.Context, f repository.SalesFilter) ([]repository.DocumentTypeCount, error) {
	w := buildWhere(f)
	w.add("tipo_documento IS NOT NULL")
	query := `
	SELECT tipo_documento, COUNT(DISTINCT nro_documento) AS total_documentos
	FROM ventas
	` + w.sql() + `
	GROUP BY tipo_documento
	ORDER BY total_documentos DESC`
	rows, err := r.q.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("reports.DocumentTypes: %w", err)
	}
	defer rows.Close()

	var out []repository.DocumentTypeCount
	for rows.Next() {
		var d repository.DocumentTypeCount
		if err := rows.Scan(&d.TipoDocumento, &d.TotalDocumentos); err != nil {
			return nil, fmt.Errorf("reports.DocumentTypes scan: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Companies empresas con ventas registradas.
func (r *ReportRepo) Companies(ctx context.Context) ([]string, error) {
	rows, err := r.q.Query(ctx, `
		SELECT DISTINCT empresa FROM ventas
		WHERE fecha IS NOT NULL AND empresa IS NOT NULL AND empresa <> ''
		ORDER BY empresa`)
	if err != nil {
		return nil, fmt.Errorf("reports.Companies: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("reports.Companies scan: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Branches pares sucursal/empresa con ventas registradas.
func (r *ReportRepo) Branches(ctx context.Context) ([]repository.Branch, error) {
	rows, err := r.q.Query(ctx, `
		SELECT DISTINCT sucursal, empresa FROM ventas
		WHERE fecha IS NOT NULL AND sucursal IS NOT NULL AND empresa IS NOT NULL
		ORDER BY empresa, sucursal`)
	if err != nil {
		return nil, fmt.Errorf("reports.Branches: %w", err)
	}
	defer rows.Close()

	var out []repository.Branch
	for rows.Next() {
		var b repository.Branch
		if err := rows.Scan(&b.Sucursal, &b.Empresa); err != nil {
			return nil, fmt.Errorf("reports.Branches scan: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ListSales filas de ventas filtradas para exportar.
func (r *ReportRepo) ListSales(ctx context.Context, f repository.SalesFilter, limit int) ([]entity.SalesRow, error) {
	w := buildWhere(f)
	args := append(w.args, limit)
	query := fmt.Sprintf(`
	SELECT id_bsale, id_detalle, COALESCE(empresa, ''), COALESCE(sucursal, ''), fecha,
	       sku, producto_servicio, tipo_producto_servicio, variante, descripcion_completa,
	       subtotal_bruto, subtotal_neto, margen_neto, costo_neto, impuestos, cantidad,
	       vendedor, plataforma, tipo_documento, nro_documento
	FROM ventas
	%s
	ORDER BY fecha DESC, id_detalle
	LIMIT $%d`, w.sql(), len(args))

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("reports.ListSales: %w", err)
	}
	defer rows.Close()

	var out []entity.SalesRow
	for rows.Next() {
		var s entity.SalesRow
		if err := rows.Scan(
			&s.IDBsale, &s.IDDetalle, &s.Empresa, &s.Sucursal, &s.Fecha,
			&s.SKU, &s.ProductoServicio, &s.TipoProductoServicio, &s.Variante, &s.DescripcionCompleta,
			&s.SubtotalBruto, &s.SubtotalNeto, &s.MargenNeto, &s.CostoNeto, &s.Impuestos, &s.Cantidad,
			&s.Vendedor, &s.Plataforma, &s.TipoDocumento, &s.NroDocumento,
		); err != nil {
			return nil, fmt.Errorf("reports.ListSales scan: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
