package entity

import "github.com/shopspring/decimal"

// SaleItem línea de venta. UnitPrice se captura al crear la venta y no cambia.
type SaleItem struct {
	ID        string
	SaleID    string
	Line      int
	Item      StockItem
	Quantity  int64
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal // UnitPrice * Quantity, sin redondeo
}
