package entity

import "time"

// StockRecord existencias actuales de un ítem en una sucursal.
// Solo el StockLedger la modifica.
type StockRecord struct {
	Item      StockItem
	BranchID  string
	Quantity  int64
	UpdatedAt time.Time
}
