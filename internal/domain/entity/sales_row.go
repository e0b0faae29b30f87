package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// SalesRow es la fila persistida en la tabla ventas: una por línea de detalle y sucursal.
// Los campos numéricos usan NullDecimal para distinguir "sin dato" (NULL) de un monto cero.
// Los textos vacíos se guardan como NULL (*string nil).
type SalesRow struct {
	IDBsale              int64
	IDDetalle            int64
	Empresa              string
	Sucursal             string
	Fecha                time.Time
	SKU                  *string
	ProductoServicio     *string
	TipoProductoServicio *string
	Variante             *string
	DescripcionCompleta  *string
	SubtotalBruto        decimal.NullDecimal
	SubtotalNeto         decimal.NullDecimal
	MargenNeto           decimal.NullDecimal
	CostoNeto            decimal.NullDecimal
	Impuestos            decimal.NullDecimal
	Cantidad             decimal.NullDecimal
	Vendedor             *string
	Plataforma           *string
	TipoDocumento        *string
	NroDocumento         *string
}

// Args devuelve los valores en el orden de las columnas del INSERT.
func (r SalesRow) Args() []any {
	return []any{
		r.IDBsale, r.IDDetalle, r.Empresa, r.Sucursal, r.Fecha,
		r.SKU, r.ProductoServicio, r.TipoProductoServicio, r.Variante, r.DescripcionCompleta,
		r.SubtotalBruto, r.SubtotalNeto, r.MargenNeto, r.CostoNeto, r.Impuestos, r.Cantidad,
		r.Vendedor, r.Plataforma, r.TipoDocumento, r.NroDocumento,
	}
}

// Key es la clave de idempotencia (id_detalle, sucursal).
type Key struct {
	IDDetalle int64
	Sucursal  string
}

// Key devuelve la clave natural de la fila.
func (r SalesRow) Key() Key {
	return Key{IDDetalle: r.IDDetalle, Sucursal: r.Sucursal}
}
