package pdf

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoneyFormatter_UsaCodigoDeMoneda(t *testing.T) {
	f, err := newMoneyFormatter("COP", 0)
	require.NoError(t, err)

	out := f.format(decimal.NewFromInt(25000))
	assert.Contains(t, out, "COP")
	assert.Contains(t, out, "25")
}

func TestMoneyFormatter_MonedaInvalida(t *testing.T) {
	_, err := newMoneyFormatter("XX1", 2)
	assert.Error(t, err)
}

func TestMoneyFormatter_MonedaPorDefecto(t *testing.T) {
	f, err := newMoneyFormatter("", 2)
	require.NoError(t, err)
	assert.Equal(t, "COP", f.unit.String())
}
