package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/barberia-api/internal/domain/entity"
)

// SaleItemRequest línea pedida. Exactamente un ítem por línea.
type SaleItemRequest struct {
	ItemKind string `json:"item_kind" validate:"required,oneof=PRODUCT VARIANT SUPPLY"`
	ItemID   string `json:"item_id" validate:"required"`
	Quantity int64  `json:"quantity" validate:"required,gt=0"`
}

// DiscountRequest descuento opcional (monto fijo o porcentaje).
type DiscountRequest struct {
	Type  string          `json:"type" validate:"required,oneof=FLAT PERCENT"`
	Value decimal.Decimal `json:"value"`
}

// CreateSaleRequest body para POST /api/sales. Los totales siempre se recalculan en el servidor.
type CreateSaleRequest struct {
	BranchID        string            `json:"branch_id" validate:"required"`
	CustomerID      string            `json:"customer_id,omitempty"`
	PaymentMethodID string            `json:"payment_method_id" validate:"required"`
	Items           []SaleItemRequest `json:"items" validate:"required,min=1,dive"`
	Discount        *DiscountRequest  `json:"discount,omitempty"`
	TaxRate         *decimal.Decimal  `json:"tax_rate,omitempty"`
}

// AnnulSaleRequest body para POST /api/sales/:id/annul.
type AnnulSaleRequest struct {
	Reason string `json:"reason" validate:"required,max=255"`
}

// SaleItemResponse línea de venta.
type SaleItemResponse struct {
	Line      int             `json:"line"`
	ItemKind  string          `json:"item_kind"`
	ItemID    string          `json:"item_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// SaleResponse venta con sus líneas.
type SaleResponse struct {
	ID              string             `json:"id"`
	BranchID        string             `json:"branch_id"`
	CustomerID      string             `json:"customer_id,omitempty"`
	PaymentMethodID string             `json:"payment_method_id"`
	Date            time.Time          `json:"date"`
	Items           []SaleItemResponse `json:"items"`
	Subtotal        decimal.Decimal    `json:"subtotal"`
	DiscountType    string             `json:"discount_type,omitempty"`
	DiscountValue   decimal.Decimal    `json:"discount_value"`
	Discount        decimal.Decimal    `json:"discount"`
	TaxRate         decimal.Decimal    `json:"tax_rate"`
	Tax             decimal.Decimal    `json:"tax"`
	Total           decimal.Decimal    `json:"total"`
	Status          string             `json:"status"`
	AnnulReason     string             `json:"annul_reason,omitempty"`
	AnnulledAt      *time.Time         `json:"annulled_at,omitempty"`
}

// SaleListResponse página de ventas.
type SaleListResponse struct {
	Items []SaleResponse `json:"items"`
	Page  PageResponse   `json:"page"`
}

// NewSaleResponse mapea la entidad.
func NewSaleResponse(s *entity.Sale) SaleResponse {
	out := SaleResponse{
		ID:              s.ID,
		BranchID:        s.BranchID,
		CustomerID:      s.CustomerID,
		PaymentMethodID: s.PaymentMethodID,
		Date:            s.Date,
		Items:           make([]SaleItemResponse, 0, len(s.Items)),
		Subtotal:        s.Subtotal,
		DiscountType:    s.DiscountType,
		DiscountValue:   s.DiscountValue,
		Discount:        s.Discount,
		TaxRate:         s.TaxRate,
		Tax:             s.Tax,
		Total:           s.Total,
		Status:          s.Status,
		AnnulReason:     s.AnnulReason,
		AnnulledAt:      s.AnnulledAt,
	}
	for _, it := range s.Items {
		out.Items = append(out.Items, SaleItemResponse{
			Line:      it.Line,
			ItemKind:  string(it.Item.Kind),
			ItemID:    it.Item.ID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Subtotal:  it.Subtotal,
		})
	}
	return out
}

// NewSaleResponses mapea una lista.
func NewSaleResponses(list []*entity.Sale) []SaleResponse {
	out := make([]SaleResponse, 0, len(list))
	for _, s := range list {
		out = append(out, NewSaleResponse(s))
	}
	return out
}
