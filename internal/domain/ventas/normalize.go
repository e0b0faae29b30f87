package ventas

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ParseCLP convierte un monto en formato chileno ("1.234.567") a número.
// Quita los separadores de miles; vacío o no numérico devuelve NULL, nunca cero,
// para distinguir "sin dato" de "monto cero".
func ParseCLP(s string) decimal.NullDecimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ".", ""))
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// FromFloat convierte un monto numérico; nil, NaN o infinito devuelven NULL.
func FromFloat(f *float64) decimal.NullDecimal {
	if f == nil || math.IsNaN(*f) || math.IsInf(*f, 0) {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.NewFromFloat(*f))
}

// RowTimestamp convierte la fecha de emisión de Bsale (epoch) al timestamp de la fila.
// Bsale entrega la medianoche local como epoch UTC, por eso se suma el desfase fijo de negocio.
func RowTimestamp(emissionDate int64) time.Time {
	return time.Unix(emissionDate, 0).UTC().Add(-BusinessOffset)
}

// NullIfEmpty devuelve nil para strings vacíos (columna NULL).
func NullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
