package repository

import (
	"context"
	"time"

	"github.com/jhoicas/barberia-api/internal/domain/entity"
)

// MovementFilter filtros para listar movimientos del kardex.
type MovementFilter struct {
	BranchID string
	Type     entity.MovementType
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}

// InventoryMovementRepository define el puerto de persistencia para movimientos de inventario (solo inserción).
type InventoryMovementRepository interface {
	Create(ctx context.Context, movement *entity.InventoryMovement) error
	GetByID(ctx context.Context, id string) (*entity.InventoryMovement, error)
	// ListByItem devuelve el kardex cronológico (más antiguo primero) de un ítem en una sucursal.
	ListByItem(ctx context.Context, item entity.StockItem, branchID string) ([]*entity.InventoryMovement, error)
	ListByOrigin(ctx context.Context, originRef string, movementType entity.MovementType) ([]*entity.InventoryMovement, error)
	List(ctx context.Context, filter MovementFilter) ([]*entity.InventoryMovement, error)
}
