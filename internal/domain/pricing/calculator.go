// Package pricing calcula subtotales, descuento, impuesto y total de una venta.
// Es puro: la configuración (tasa, precisión) llega como parámetro en cada llamada.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/barberia-api/internal/domain"
	"github.com/jhoicas/barberia-api/internal/domain/entity"
)

var hundred = decimal.NewFromInt(100)

// Line línea a tasar: ítem, cantidad pedida y precio vigente del catálogo (nil = sin precio).
type Line struct {
	Item      entity.StockItem
	Quantity  int64
	UnitPrice *decimal.Decimal
}

// Discount descuento pedido. Type vacío = sin descuento.
type Discount struct {
	Type  string // entity.DiscountFlat | entity.DiscountPercent
	Value decimal.Decimal
}

// Params configuración por llamada.
type Params struct {
	Discount Discount
	TaxRate  decimal.Decimal // porcentaje sobre el subtotal ya descontado (19 = 19%)
	// Precision decimales de la moneda para el redondeo final (COP = 0 o 2).
	Precision int32
}

// LineTotal subtotal calculado por línea.
type LineTotal struct {
	Item      entity.StockItem
	Quantity  int64
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
}

// Totals resultado de la tasación.
type Totals struct {
	Lines    []LineTotal
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// Calculate tasa las líneas. No redondea por línea; solo el total, half-up, a Params.Precision.
func Calculate(lines []Line, p Params) (Totals, error) {
	if len(lines) == 0 {
		return Totals{}, fmt.Errorf("%w: la venta no tiene líneas", domain.ErrInvalidPricingInput)
	}
	if p.TaxRate.IsNegative() {
		return Totals{}, fmt.Errorf("%w: tasa de impuesto negativa", domain.ErrInvalidPricingInput)
	}

	out := Totals{Lines: make([]LineTotal, 0, len(lines))}
	subtotal := decimal.Zero
	for _, l := range lines {
		if l.Quantity <= 0 {
			return Totals{}, fmt.Errorf("%w: cantidad %d para %s", domain.ErrInvalidPricingInput, l.Quantity, l.Item)
		}
		if l.UnitPrice == nil || l.UnitPrice.IsNegative() {
			return Totals{}, fmt.Errorf("%w: %s sin precio vigente", domain.ErrInvalidPricingInput, l.Item)
		}
		lineSubtotal := l.UnitPrice.Mul(decimal.NewFromInt(l.Quantity))
		subtotal = subtotal.Add(lineSubtotal)
		out.Lines = append(out.Lines, LineTotal{
			Item:      l.Item,
			Quantity:  l.Quantity,
			UnitPrice: *l.UnitPrice,
			Subtotal:  lineSubtotal,
		})
	}

	discount, err := discountAmount(subtotal, p.Discount)
	if err != nil {
		return Totals{}, err
	}
	tax := subtotal.Sub(discount).Mul(p.TaxRate).Div(hundred)

	out.Subtotal = subtotal
	out.Discount = discount
	out.Tax = tax
	// Total nunca es negativo: el redondeo "away from zero" de decimal coincide con half-up.
	out.Total = subtotal.Sub(discount).Add(tax).Round(p.Precision)
	return out, nil
}

// discountAmount devuelve el monto de descuento acotado a [0, subtotal].
func discountAmount(subtotal decimal.Decimal, d Discount) (decimal.Decimal, error) {
	var amount decimal.Decimal
	switch d.Type {
	case "":
		return decimal.Zero, nil
	case entity.DiscountFlat:
		amount = d.Value
	case entity.DiscountPercent:
		amount = subtotal.Mul(d.Value).Div(hundred)
	default:
		return decimal.Zero, fmt.Errorf("%w: tipo de descuento %q", domain.ErrInvalidPricingInput, d.Type)
	}
	if amount.IsNegative() {
		return decimal.Zero, nil
	}
	if amount.GreaterThan(subtotal) {
		return subtotal, nil
	}
	return amount, nil
}
