package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Categorías contables generadas por el motor de ventas.
const (
	AccountingCategorySale         = "VENTA"
	AccountingCategorySaleReversal = "ANULACION_VENTA"
)

// AccountingEntry asiento contable inmutable. Amount positivo = ingreso, negativo = reverso/gasto.
type AccountingEntry struct {
	ID        string
	BranchID  string
	OriginRef string // ID de la venta
	Amount    decimal.Decimal
	Category  string
	Date      time.Time
	CreatedAt time.Time
}
