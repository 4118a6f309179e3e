package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados persistidos de una venta.
const (
	SaleStatusCompleted = "COMPLETED"
	SaleStatusAnnulled  = "ANNULLED"
)

// Tipos de descuento aplicables a una venta.
const (
	DiscountFlat    = "FLAT"    // valor absoluto
	DiscountPercent = "PERCENT" // porcentaje del subtotal
)

// Sale cabecera de una venta con sus líneas congeladas.
// Total = Subtotal - Discount + Tax, siempre recalculado en el servidor.
type Sale struct {
	ID              string
	BranchID        string
	CustomerID      string // vacío = consumidor final
	PaymentMethodID string
	Date            time.Time
	Items           []SaleItem
	Subtotal        decimal.Decimal
	DiscountType    string
	DiscountValue   decimal.Decimal // valor pedido por el cliente (monto o porcentaje)
	Discount        decimal.Decimal // monto efectivamente descontado
	TaxRate         decimal.Decimal // porcentaje (19 = 19%)
	Tax             decimal.Decimal
	Total           decimal.Decimal
	Status          string
	AnnulReason     string
	AnnulledAt      *time.Time
	CreatedBy       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsAnnulled indica si la venta ya fue anulada.
func (s *Sale) IsAnnulled() bool {
	return s.Status == SaleStatusAnnulled
}
