package export

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/ventas-sync/internal/domain/entity"
	"github.com/jhoicas/ventas-sync/internal/domain/ventas"
)

const (
	// SheetName hoja única del libro exportado.
	SheetName = "Ventas"
	// ContentType MIME del xlsx.
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var salesHeaders = []any{
	"ID Bsale", "ID Detalle", "Empresa", "Sucursal", "Fecha",
	"SKU", "Producto/Servicio", "Tipo Producto/Servicio", "Variante", "Descripción",
	"Subtotal Bruto", "Subtotal Neto", "Margen Neto", "Costo Neto", "Impuestos", "Cantidad",
	"Vendedor", "Plataforma", "Tipo Documento", "Nro Documento",
}

// ExcelExporter escribe ventas en un libro xlsx usando el stream writer de excelize,
// que no mantiene todas las celdas en memoria.
type ExcelExporter struct{}

// NewExcelExporter construye el exportador.
func NewExcelExporter() *ExcelExporter {
	return &ExcelExporter{}
}

// WriteSales escribe encabezado + una fila por venta en w.
func (ExcelExporter) WriteSales(w io.Writer, rows []entity.SalesRow) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}
	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("stream writer: %w", err)
	}
	if err := sw.SetPanes(&excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return err
	}
	if err := sw.SetRow("A1", salesHeaders); err != nil {
		return err
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, salesCells(r)); err != nil {
			return fmt.Errorf("fila %d: %w", i+2, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}
	return f.Write(w)
}

// salesCells valores de una fila; la fecha se muestra en hora de negocio.
func salesCells(r entity.SalesRow) []any {
	return []any{
		r.IDBsale, r.IDDetalle, r.Empresa, r.Sucursal,
		r.Fecha.Add(ventas.BusinessOffset).Format(ventas.DateLayout),
		text(r.SKU), text(r.ProductoServicio), text(r.TipoProductoServicio), text(r.Variante), text(r.DescripcionCompleta),
		number(r.SubtotalBruto), number(r.SubtotalNeto), number(r.MargenNeto), number(r.CostoNeto),
		number(r.Impuestos), number(r.Cantidad),
		text(r.Vendedor), text(r.Plataforma), text(r.TipoDocumento), text(r.NroDocumento),
	}
}

func text(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// number celdas numéricas como float64 para que Excel pueda sumarlas; NULL queda vacío.
func number(d decimal.NullDecimal) any {
	if !d.Valid {
		return nil
	}
	return d.Decimal.InexactFloat64()
}
