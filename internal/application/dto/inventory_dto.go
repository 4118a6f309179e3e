package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/barberia-api/internal/domain/entity"
)

// RegisterMovementRequest body para POST /api/inventory/movements (compras y ajustes manuales).
type RegisterMovementRequest struct {
	BranchID   string           `json:"branch_id" validate:"required"`
	ItemKind   string           `json:"item_kind" validate:"required,oneof=PRODUCT VARIANT SUPPLY"`
	ItemID     string           `json:"item_id" validate:"required"`
	Type       string           `json:"type" validate:"required,oneof=PURCHASE_IN MANUAL_ADJUSTMENT_IN MANUAL_ADJUSTMENT_OUT"`
	Quantity   int64            `json:"quantity" validate:"required,gt=0"`
	UnitCost   *decimal.Decimal `json:"unit_cost,omitempty"`
	PurchaseID string           `json:"purchase_id,omitempty" validate:"required_if=Type PURCHASE_IN"`
	Note       string           `json:"note,omitempty" validate:"max=255"`
}

// StockQuery parámetros de consulta de saldo y kardex.
type StockQuery struct {
	BranchID string `query:"branch_id" validate:"required"`
	ItemKind string `query:"item_kind" validate:"required,oneof=PRODUCT VARIANT SUPPLY"`
	ItemID   string `query:"item_id" validate:"required"`
}

// MovementResponse movimiento del kardex.
type MovementResponse struct {
	ID           string    `json:"id"`
	ItemKind     string    `json:"item_kind"`
	ItemID       string    `json:"item_id"`
	BranchID     string    `json:"branch_id"`
	Delta        int64     `json:"delta"`
	Type         string    `json:"type"`
	OriginRef    string    `json:"origin_ref,omitempty"`
	BalanceAfter int64     `json:"balance_after"`
	Note         string    `json:"note,omitempty"`
	Date         time.Time `json:"date"`
	CreatedBy    string    `json:"created_by,omitempty"`
}

// BalanceResponse saldo actual.
type BalanceResponse struct {
	ItemKind string `json:"item_kind"`
	ItemID   string `json:"item_id"`
	BranchID string `json:"branch_id"`
	Quantity int64  `json:"quantity"`
}

// KardexResponse historial con el resultado de la conciliación.
type KardexResponse struct {
	Movements     []MovementResponse `json:"movements"`
	ReplayedTotal int64              `json:"replayed_total"`
	LedgerBalance int64              `json:"ledger_balance"`
	Consistent    bool               `json:"consistent"`
}

// NewMovementResponse mapea la entidad.
func NewMovementResponse(m *entity.InventoryMovement) MovementResponse {
	return MovementResponse{
		ID:           m.ID,
		ItemKind:     string(m.Item.Kind),
		ItemID:       m.Item.ID,
		BranchID:     m.BranchID,
		Delta:        m.Delta,
		Type:         string(m.Type),
		OriginRef:    m.OriginRef,
		BalanceAfter: m.BalanceAfter,
		Note:         m.Note,
		Date:         m.Date,
		CreatedBy:    m.CreatedBy,
	}
}

// NewMovementResponses mapea una lista.
func NewMovementResponses(list []*entity.InventoryMovement) []MovementResponse {
	out := make([]MovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, NewMovementResponse(m))
	}
	return out
}
