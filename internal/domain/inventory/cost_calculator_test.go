package inventory_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/barberia-api/internal/domain/inventory"
)

func TestCostCalculator_PromedioPonderado(t *testing.T) {
	got := inventory.CostCalculator(10, decimal.NewFromInt(100), 10, decimal.NewFromInt(200))
	assert.True(t, got.Equal(decimal.NewFromInt(150)), "costo = %s", got)

	got = inventory.CostCalculator(3, decimal.NewFromInt(10), 1, decimal.NewFromInt(11))
	assert.True(t, got.Equal(decimal.RequireFromString("10.25")), "costo = %s", got)
}

func TestCostCalculator_SinStockUsaCostoDeEntrada(t *testing.T) {
	got := inventory.CostCalculator(0, decimal.NewFromInt(999), 5, decimal.NewFromInt(42))
	assert.True(t, got.Equal(decimal.NewFromInt(42)))

	got = inventory.CostCalculator(-2, decimal.NewFromInt(999), 5, decimal.NewFromInt(42))
	assert.True(t, got.Equal(decimal.NewFromInt(42)))
}

func TestCostCalculator_RedondeaACuatroDecimales(t *testing.T) {
	got := inventory.CostCalculator(1, decimal.NewFromInt(1), 2, decimal.NewFromInt(2))
	assert.Equal(t, "1.6667", got.String())
}
