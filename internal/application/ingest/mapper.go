package ingest

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/ventas-sync/internal/domain/entity"
	"github.com/jhoicas/ventas-sync/internal/domain/ventas"
)

// MapDocument proyecta las líneas de detalle de un documento a filas de la tabla ventas.
// variants contiene el enriquecimiento ya resuelto por variante; una variante ausente
// deja producto, tipo y costo en NULL y el margen igual al valor neto unitario.
func MapDocument(doc entity.SalesDocument, variants map[int64]entity.VariantData, company string) []entity.SalesRow {
	office := doc.Office
	if office == "" {
		office = company
	}
	var seller string
	if len(doc.Sellers) > 0 {
		seller = doc.Sellers[0].FullName()
	}
	var payment string
	if len(doc.Payments) > 0 {
		payment = doc.Payments[0]
	}
	var number string
	if doc.Number != 0 {
		number = strconv.FormatInt(doc.Number, 10)
	}
	fecha := ventas.RowTimestamp(doc.EmissionDate)

	rows := make([]entity.SalesRow, 0, len(doc.Details))
	for _, line := range doc.Details {
		var data entity.VariantData
		if line.VariantID != 0 {
			data = variants[line.VariantID]
		}
		product := data.Info.ProductName

		rows = append(rows, entity.SalesRow{
			IDBsale:              doc.ID,
			IDDetalle:            line.ID,
			Empresa:              company,
			Sucursal:             office,
			Fecha:                fecha,
			SKU:                  ventas.NullIfEmpty(line.VariantCode),
			ProductoServicio:     ventas.NullIfEmpty(product),
			TipoProductoServicio: ventas.NullIfEmpty(data.Info.ProductTypeName),
			Variante:             ventas.NullIfEmpty(line.VariantDescription),
			DescripcionCompleta:  ventas.NullIfEmpty(strings.TrimSpace(product + " " + line.VariantDescription)),
			SubtotalBruto:        line.TotalAmount,
			SubtotalNeto:         line.NetAmount,
			MargenNeto:           decimal.NewNullDecimal(ventas.NetMargin(line.NetUnitValue, data.AverageCost)),
			CostoNeto:            data.AverageCost,
			Impuestos:            line.TaxAmount,
			Cantidad:             line.Quantity,
			Vendedor:             ventas.NullIfEmpty(seller),
			Plataforma:           ventas.NullIfEmpty(payment),
			TipoDocumento:        ventas.NullIfEmpty(doc.DocumentType),
			NroDocumento:         ventas.NullIfEmpty(number),
		})
	}
	return rows
}
