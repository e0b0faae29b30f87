package entity

import (
	"strings"

	"github.com/shopspring/decimal"
)

// SalesDocument documento de venta remoto (boleta, factura, nota de crédito...).
// Es de solo lectura: nunca se persiste completo, solo se proyectan sus líneas de detalle.
type SalesDocument struct {
	ID           int64
	EmissionDate int64 // epoch segundos
	Number       int64
	DocumentType string
	Office       string
	Sellers      []Seller
	Payments     []string // nombres de los medios de pago, en el orden de Bsale
	Details      []DetailLine
}

// Seller vendedor asociado al documento.
type Seller struct {
	FirstName string
	LastName  string
}

// FullName "nombre apellido" sin espacios sobrantes.
func (s Seller) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// DetailLine línea de detalle (producto y cantidad) de un documento. Unidad de persistencia.
type DetailLine struct {
	ID                 int64
	VariantID          int64 // 0 si la línea no trae variante
	VariantDescription string
	VariantCode        string // SKU
	Quantity           decimal.NullDecimal
	NetUnitValue       decimal.Decimal
	TotalAmount        decimal.NullDecimal
	NetAmount          decimal.NullDecimal
	TaxAmount          decimal.NullDecimal
}

// DocumentPage una página del listado de documentos.
// Count es el total informado por la API (solo se usa para el porcentaje de avance).
type DocumentPage struct {
	Count int
	Items []SalesDocument
}

// VariantInfo producto y tipo de producto resueltos para una variante.
type VariantInfo struct {
	ProductName     string
	ProductTypeName string
}

// VariantData resultado del enriquecimiento de una variante.
// ProductOK / CostOK indican si el lookup respectivo respondió correctamente.
type VariantData struct {
	Info        VariantInfo
	AverageCost decimal.NullDecimal
	ProductOK   bool
	CostOK      bool
}
