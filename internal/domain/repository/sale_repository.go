package repository

import (
	"context"
	"time"

	"github.com/jhoicas/barberia-api/internal/domain/entity"
)

// SaleRepository define el puerto de persistencia para ventas y sus líneas.
type SaleRepository interface {
	// Create persiste cabecera y líneas.
	Create(ctx context.Context, sale *entity.Sale) error
	GetByID(ctx context.Context, id string) (*entity.Sale, error)
	// GetForUpdate bloquea la venta hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.Sale, error)
	// MarkAnnulled cambia COMPLETED -> ANNULLED. ok=false si la venta ya no estaba COMPLETED.
	MarkAnnulled(ctx context.Context, id, reason string, at time.Time) (ok bool, err error)
	ListPaged(ctx context.Context, limit, offset int) ([]*entity.Sale, int, error)
	ListByBranch(ctx context.Context, branchID string) ([]*entity.Sale, error)
	ListByDateRange(ctx context.Context, from, to time.Time) ([]*entity.Sale, error)
}
