package bsale

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/ventas-sync/internal/domain/entity"
	"github.com/jhoicas/ventas-sync/internal/domain/ventas"
)

// ── Estructuras del protocolo de la API Bsale v1 ──────────────────────────────

type documentList struct {
	Count int        `json:"count"`
	Items []document `json:"items"`
}

type document struct {
	ID           int64    `json:"id"`
	EmissionDate int64    `json:"emissionDate"`
	Number       int64    `json:"number"`
	DocumentType *named   `json:"document_type"`
	Office       *named   `json:"office"`
	Sellers      sellers  `json:"sellers"`
	Payments     payments `json:"payments"`
	Details      details  `json:"details"`
}

type named struct {
	Name string `json:"name"`
}

type sellers struct {
	Items []struct {
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
	} `json:"items"`
}

type details struct {
	Items []detail `json:"items"`
}

type detail struct {
	ID           int64    `json:"id"`
	Quantity     float64  `json:"quantity"`
	NetUnitValue float64  `json:"netUnitValue"`
	TotalAmount  Amount   `json:"totalAmount"`
	NetAmount    Amount   `json:"netAmount"`
	TaxAmount    Amount   `json:"taxAmount"`
	Variant      *variant `json:"variant"`
}

type variant struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
	Code        string `json:"code"`
}

// payments Bsale expande los pagos a veces como arreglo y a veces como {items: [...]}.
type payments []named

func (p *payments) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*p = nil
		return nil
	}
	if b[0] == '[' {
		var list []named
		if err := json.Unmarshal(b, &list); err != nil {
			return err
		}
		*p = list
		return nil
	}
	var wrapped struct {
		Items []named `json:"items"`
	}
	if err := json.Unmarshal(b, &wrapped); err != nil {
		return err
	}
	*p = wrapped.Items
	return nil
}

type variantDetail struct {
	Product *struct {
		Name        string `json:"name"`
		ProductType *named `json:"product_type"`
	} `json:"product"`
}

type variantCost struct {
	AverageCost *float64 `json:"averageCost"`
}

// Amount monto tal como lo entrega la API: número JSON o string con formato chileno.
type Amount struct {
	raw    string
	quoted bool
}

// UnmarshalJSON acepta número, string o null.
func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*a = Amount{}
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		s, err := strconv.Unquote(string(b))
		if err != nil {
			return err
		}
		*a = Amount{raw: s, quoted: true}
		return nil
	}
	*a = Amount{raw: string(b)}
	return nil
}

// NullDecimal normaliza el monto. Los strings pasan por ventas.ParseCLP (separador de miles);
// los números se parsean tal cual. Vacío o inválido es NULL.
func (a Amount) NullDecimal() decimal.NullDecimal {
	if a.quoted {
		return ventas.ParseCLP(a.raw)
	}
	if a.raw == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(a.raw)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

func (d document) toEntity() entity.SalesDocument {
	doc := entity.SalesDocument{
		ID:           d.ID,
		EmissionDate: d.EmissionDate,
		Number:       d.Number,
	}
	if d.DocumentType != nil {
		doc.DocumentType = d.DocumentType.Name
	}
	if d.Office != nil {
		doc.Office = d.Office.Name
	}
	for _, s := range d.Sellers.Items {
		doc.Sellers = append(doc.Sellers, entity.Seller{FirstName: s.FirstName, LastName: s.LastName})
	}
	for _, p := range d.Payments {
		doc.Payments = append(doc.Payments, p.Name)
	}
	for _, it := range d.Details.Items {
		line := entity.DetailLine{
			ID:           it.ID,
			NetUnitValue: decimal.NewFromFloat(it.NetUnitValue),
			TotalAmount:  it.TotalAmount.NullDecimal(),
			NetAmount:    it.NetAmount.NullDecimal(),
			TaxAmount:    it.TaxAmount.NullDecimal(),
		}
		if it.Quantity != 0 {
			line.Quantity = decimal.NewNullDecimal(decimal.NewFromFloat(it.Quantity))
		}
		if it.Variant != nil {
			line.VariantID = it.Variant.ID
			line.VariantDescription = it.Variant.Description
			line.VariantCode = it.Variant.Code
		}
		doc.Details = append(doc.Details, line)
	}
	return doc
}
