package entity

import "time"

// MovementType tipo de movimiento de kardex.
type MovementType string

// Tipos de movimiento de inventario.
const (
	MovementSaleOut             MovementType = "SALE_OUT"              // salida por venta
	MovementSaleReversalIn      MovementType = "SALE_REVERSAL_IN"      // reingreso por anulación de venta
	MovementPurchaseIn          MovementType = "PURCHASE_IN"           // entrada por compra
	MovementManualAdjustmentIn  MovementType = "MANUAL_ADJUSTMENT_IN"  // ajuste manual positivo
	MovementManualAdjustmentOut MovementType = "MANUAL_ADJUSTMENT_OUT" // ajuste manual negativo
)

// Valid indica si el tipo es conocido.
func (t MovementType) Valid() bool {
	switch t {
	case MovementSaleOut, MovementSaleReversalIn, MovementPurchaseIn,
		MovementManualAdjustmentIn, MovementManualAdjustmentOut:
		return true
	}
	return false
}

// Inbound indica si el movimiento suma existencias.
func (t MovementType) Inbound() bool {
	return t == MovementSaleReversalIn || t == MovementPurchaseIn || t == MovementManualAdjustmentIn
}

// InventoryMovement registro inmutable del kardex. Las correcciones son movimientos nuevos.
type InventoryMovement struct {
	ID           string
	Item         StockItem
	BranchID     string
	Delta        int64 // positivo entrada, negativo salida
	Type         MovementType
	OriginRef    string // ID de venta o compra; vacío en ajustes manuales
	BalanceAfter int64  // saldo resultante tras aplicar Delta
	Note         string
	Date         time.Time
	CreatedAt    time.Time
	CreatedBy    string
}
