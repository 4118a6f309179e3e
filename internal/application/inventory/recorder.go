package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/barberia-api/internal/domain"
	"github.com/jhoicas/barberia-api/internal/domain/entity"
	"github.com/jhoicas/barberia-api/internal/domain/repository"
)

// RecordInput datos de un movimiento ya aplicado en el ledger.
type RecordInput struct {
	Item         entity.StockItem
	BranchID     string
	Delta        int64
	Type         entity.MovementType
	OriginRef    string
	BalanceAfter int64
	Note         string
	UserID       string
	Date         time.Time
}

// ReconcileResult compara el kardex contra el saldo del ledger.
type ReconcileResult struct {
	Item          entity.StockItem
	BranchID      string
	ReplayedTotal int64
	LedgerBalance int64
	Movements     int
	Consistent    bool
}

// MovementRecorder agrega entradas inmutables al kardex. Nunca modifica existencias.
type MovementRecorder struct {
	movements repository.InventoryMovementRepository
	stock     repository.StockRepository
}

// NewMovementRecorder construye el recorder. stock solo se usa en Reconcile.
func NewMovementRecorder(movements repository.InventoryMovementRepository, stock repository.StockRepository) *MovementRecorder {
	return &MovementRecorder{movements: movements, stock: stock}
}

// Record persiste el movimiento. El signo de Delta debe coincidir con el tipo.
func (r *MovementRecorder) Record(ctx context.Context, in RecordInput) (*entity.InventoryMovement, error) {
	if !in.Item.Valid() || in.BranchID == "" || !in.Type.Valid() || in.Delta == 0 {
		return nil, domain.ErrInvalidInput
	}
	if in.Type.Inbound() != (in.Delta > 0) {
		return nil, fmt.Errorf("%w: delta %d no corresponde a %s", domain.ErrInvalidInput, in.Delta, in.Type)
	}
	now := time.Now()
	date := in.Date
	if date.IsZero() {
		date = now
	}
	mov := &entity.InventoryMovement{
		ID:           uuid.New().String(),
		Item:         in.Item,
		BranchID:     in.BranchID,
		Delta:        in.Delta,
		Type:         in.Type,
		OriginRef:    in.OriginRef,
		BalanceAfter: in.BalanceAfter,
		Note:         in.Note,
		Date:         date,
		CreatedAt:    now,
		CreatedBy:    in.UserID,
	}
	if err := r.movements.Create(ctx, mov); err != nil {
		return nil, err
	}
	return mov, nil
}

// Kardex historial cronológico completo de un ítem en una sucursal.
func (r *MovementRecorder) Kardex(ctx context.Context, item entity.StockItem, branchID string) ([]*entity.InventoryMovement, error) {
	if !item.Valid() || branchID == "" {
		return nil, domain.ErrInvalidInput
	}
	return r.movements.ListByItem(ctx, item, branchID)
}

// List movimientos filtrados por sucursal, tipo y rango de fechas (más recientes primero).
func (r *MovementRecorder) List(ctx context.Context, filter repository.MovementFilter) ([]*entity.InventoryMovement, error) {
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, domain.ErrInvalidInput
	}
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 100
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return r.movements.List(ctx, filter)
}

// Reconcile reproduce los deltas del kardex y los compara con el saldo actual.
// También verifica que cada BalanceAfter coincida con la suma acumulada.
func (r *MovementRecorder) Reconcile(ctx context.Context, item entity.StockItem, branchID string) (ReconcileResult, error) {
	movs, err := r.Kardex(ctx, item, branchID)
	if err != nil {
		return ReconcileResult{}, err
	}
	res := ReconcileResult{Item: item, BranchID: branchID, Movements: len(movs), Consistent: true}
	for _, m := range movs {
		res.ReplayedTotal += m.Delta
		if m.BalanceAfter != res.ReplayedTotal {
			res.Consistent = false
		}
	}
	rec, err := r.stock.Get(ctx, item, branchID)
	if err != nil {
		return ReconcileResult{}, err
	}
	if rec != nil {
		res.LedgerBalance = rec.Quantity
	}
	if res.LedgerBalance != res.ReplayedTotal {
		res.Consistent = false
	}
	return res, nil
}
