package pricing_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/barberia-api/internal/domain"
	"github.com/jhoicas/barberia-api/internal/domain/entity"
	"github.com/jhoicas/barberia-api/internal/domain/pricing"
)

func price(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func line(id string, qty int64, unit string) pricing.Line {
	return pricing.Line{Item: entity.NewStockItem(entity.StockItemProduct, id), Quantity: qty, UnitPrice: price(unit)}
}

func TestCalculate_VentaSimpleConIVA(t *testing.T) {
	out, err := pricing.Calculate([]pricing.Line{line("P1", 3, "25000")}, pricing.Params{
		TaxRate:   decimal.NewFromInt(19),
		Precision: 2,
	})
	require.NoError(t, err)

	assert.True(t, out.Subtotal.Equal(decimal.NewFromInt(75000)))
	assert.True(t, out.Discount.IsZero())
	assert.True(t, out.Tax.Equal(decimal.NewFromInt(14250)))
	assert.True(t, out.Total.Equal(decimal.NewFromInt(89250)), "total = %s", out.Total)
	require.Len(t, out.Lines, 1)
	assert.True(t, out.Lines[0].Subtotal.Equal(decimal.NewFromInt(75000)))
}

func TestCalculate_DescuentoPorcentualAntesDeImpuesto(t *testing.T) {
	out, err := pricing.Calculate([]pricing.Line{line("P1", 2, "30000"), line("P2", 1, "40000")}, pricing.Params{
		Discount:  pricing.Discount{Type: entity.DiscountPercent, Value: decimal.NewFromInt(10)},
		TaxRate:   decimal.NewFromInt(19),
		Precision: 2,
	})
	require.NoError(t, err)

	assert.True(t, out.Subtotal.Equal(decimal.NewFromInt(100000)))
	assert.True(t, out.Discount.Equal(decimal.NewFromInt(10000)))
	assert.True(t, out.Tax.Equal(decimal.NewFromInt(17100)))
	assert.True(t, out.Total.Equal(decimal.NewFromInt(107100)), "total = %s", out.Total)
}

func TestCalculate_DescuentoFijoMayorAlSubtotalSeAcota(t *testing.T) {
	out, err := pricing.Calculate([]pricing.Line{line("P1", 1, "5000")}, pricing.Params{
		Discount:  pricing.Discount{Type: entity.DiscountFlat, Value: decimal.NewFromInt(8000)},
		TaxRate:   decimal.NewFromInt(19),
		Precision: 0,
	})
	require.NoError(t, err)

	assert.True(t, out.Discount.Equal(decimal.NewFromInt(5000)))
	assert.True(t, out.Total.IsZero(), "el total nunca es negativo")
}

func TestCalculate_RedondeaSoloElTotal(t *testing.T) {
	// Redondeando por línea daría 0.68.
	out, err := pricing.Calculate([]pricing.Line{line("P1", 1, "0.335"), line("P2", 1, "0.335")}, pricing.Params{
		TaxRate:   decimal.Zero,
		Precision: 2,
	})
	require.NoError(t, err)

	assert.Equal(t, "0.67", out.Total.StringFixed(2))
	assert.True(t, out.Lines[0].Subtotal.Equal(decimal.RequireFromString("0.335")), "las líneas no se redondean")
}

func TestCalculate_RedondeoMitadHaciaArriba(t *testing.T) {
	cases := []struct {
		name      string
		unit      string
		precision int32
		want      string
	}{
		{"dos decimales", "10.005", 2, "10.01"},
		{"sin decimales", "1234.5", 0, "1235"},
		{"por debajo de la mitad", "1234.49", 0, "1234"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := pricing.Calculate([]pricing.Line{line("P1", 1, tc.unit)}, pricing.Params{Precision: tc.precision})
			require.NoError(t, err)
			assert.True(t, out.Total.Equal(decimal.RequireFromString(tc.want)), "total = %s", out.Total)
		})
	}
}

func TestCalculate_EntradasInvalidas(t *testing.T) {
	cases := []struct {
		name   string
		lines  []pricing.Line
		params pricing.Params
	}{
		{"sin líneas", nil, pricing.Params{}},
		{"cantidad cero", []pricing.Line{line("P1", 0, "1000")}, pricing.Params{}},
		{"cantidad negativa", []pricing.Line{line("P1", -2, "1000")}, pricing.Params{}},
		{"sin precio", []pricing.Line{{Item: entity.NewStockItem(entity.StockItemSupply, "S1"), Quantity: 1}}, pricing.Params{}},
		{"precio negativo", []pricing.Line{line("P1", 1, "-1")}, pricing.Params{}},
		{"tasa negativa", []pricing.Line{line("P1", 1, "1000")}, pricing.Params{TaxRate: decimal.NewFromInt(-1)}},
		{"tipo de descuento desconocido", []pricing.Line{line("P1", 1, "1000")}, pricing.Params{Discount: pricing.Discount{Type: "2X1"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := pricing.Calculate(tc.lines, tc.params)
			assert.ErrorIs(t, err, domain.ErrInvalidPricingInput)
		})
	}
}
