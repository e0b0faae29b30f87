package ventas

import "github.com/shopspring/decimal"

// NetMargin calcula el margen neto unitario: valor neto unitario - costo promedio.
// Un costo ausente (lookup fallido o inválido) se trata como cero.
func NetMargin(netUnitValue decimal.Decimal, averageCost decimal.NullDecimal) decimal.Decimal {
	if !averageCost.Valid {
		return netUnitValue
	}
	return netUnitValue.Sub(averageCost.Decimal)
}

// AverageCost normaliza el costo promedio informado por Bsale: se redondea a pesos enteros
// y un costo cero se considera "sin costo" (NULL).
func AverageCost(raw float64) decimal.NullDecimal {
	cost := decimal.NewFromFloat(raw).Round(0)
	if cost.IsZero() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(cost)
}
