package repository

import (
	"context"
	"time"

	"github.com/jhoicas/barberia-api/internal/domain/entity"
)

// AccountingEntryRepository puerto de asientos contables (solo inserción).
type AccountingEntryRepository interface {
	Create(ctx context.Context, entry *entity.AccountingEntry) error
	ListByOrigin(ctx context.Context, originRef string) ([]*entity.AccountingEntry, error)
	// ListByBranchAndDateRange branchID vacío = todas las sucursales.
	ListByBranchAndDateRange(ctx context.Context, branchID string, from, to time.Time) ([]*entity.AccountingEntry, error)
}
