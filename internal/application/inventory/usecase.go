package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/barberia-api/internal/domain"
	"github.com/jhoicas/barberia-api/internal/domain/entity"
	"github.com/jhoicas/barberia-api/internal/domain/inventory"
	"github.com/jhoicas/barberia-api/internal/domain/repository"
)

// RegisterMovementUseCase registra entradas por compra y ajustes manuales de forma transaccional.
// Las salidas y reingresos por venta los genera el orquestador de ventas.
type RegisterMovementUseCase struct {
	txRunner    TxRunner
	catalogRepo repository.CatalogRepository
	branchRepo  repository.BranchRepository
}

// NewRegisterMovementUseCase construye el caso de uso.
func NewRegisterMovementUseCase(
	txRunner TxRunner,
	catalogRepo repository.CatalogRepository,
	branchRepo repository.BranchRepository,
) *RegisterMovementUseCase {
	return &RegisterMovementUseCase{
		txRunner:    txRunner,
		catalogRepo: catalogRepo,
		branchRepo:  branchRepo,
	}
}

// MovementInput entrada para registrar un movimiento manual o de compra.
// PURCHASE_IN: PurchaseID y UnitCost obligatorios.
// MANUAL_ADJUSTMENT_IN / MANUAL_ADJUSTMENT_OUT: sin origen.
type MovementInput struct {
	UserID     string
	BranchID   string
	Item       entity.StockItem
	Type       entity.MovementType
	Quantity   int64
	UnitCost   *decimal.Decimal
	PurchaseID string
	Note       string
}

// RegisterMovement valida referencias, aplica la operación del ledger y registra el kardex en una
// sola unidad de trabajo.
func (uc *RegisterMovementUseCase) RegisterMovement(ctx context.Context, input MovementInput) (*entity.InventoryMovement, error) {
	if !input.Item.Valid() || input.BranchID == "" || input.Quantity <= 0 {
		return nil, domain.ErrInvalidInput
	}
	switch input.Type {
	case entity.MovementPurchaseIn:
		if input.PurchaseID == "" || input.UnitCost == nil || input.UnitCost.IsNegative() {
			return nil, domain.ErrInvalidInput
		}
	case entity.MovementManualAdjustmentIn, entity.MovementManualAdjustmentOut:
		if input.PurchaseID != "" {
			return nil, fmt.Errorf("%w: un ajuste manual no lleva origen", domain.ErrInvalidInput)
		}
	default:
		return nil, domain.ErrInvalidInput
	}

	branch, err := uc.branchRepo.GetByID(ctx, input.BranchID)
	if err != nil {
		return nil, err
	}
	if branch == nil {
		return nil, domain.NotFound("sucursal", input.BranchID)
	}
	if !branch.Active {
		return nil, domain.Inactive("sucursal", input.BranchID)
	}
	item, err := uc.catalogRepo.GetItem(ctx, input.Item)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.NotFound("ítem", input.Item.String())
	}

	var mov *entity.InventoryMovement
	err = uc.txRunner.Run(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		ledger := NewStockLedger(repos.Stock)
		recorder := NewMovementRecorder(repos.Movements, repos.Stock)
		record := RecordInput{
			Item:     input.Item,
			BranchID: input.BranchID,
			Type:     input.Type,
			Note:     input.Note,
			UserID:   input.UserID,
		}
		switch input.Type {
		case entity.MovementPurchaseIn:
			// El costo vigente se relee con la fila bloqueada; compras concurrentes se serializan aquí.
			locked, err := repos.Catalog.GetItemForUpdate(ctx, input.Item)
			if err != nil {
				return err
			}
			if locked == nil {
				return domain.NotFound("ítem", input.Item.String())
			}
			balance, err := ledger.Increment(ctx, input.Item, input.BranchID, input.Quantity)
			if err != nil {
				return err
			}
			newCost := inventory.CostCalculator(balance-input.Quantity, locked.Cost, input.Quantity, *input.UnitCost)
			if err := repos.Catalog.UpdateCost(ctx, input.Item, newCost); err != nil {
				return uc.undo(ctx, err, ledger, RecordInput{Item: input.Item, BranchID: input.BranchID, Delta: input.Quantity})
			}
			record.Delta = input.Quantity
			record.OriginRef = input.PurchaseID
			record.BalanceAfter = balance
		case entity.MovementManualAdjustmentIn:
			balance, err := ledger.Increment(ctx, input.Item, input.BranchID, input.Quantity)
			if err != nil {
				return err
			}
			record.Delta = input.Quantity
			record.BalanceAfter = balance
		case entity.MovementManualAdjustmentOut:
			balance, err := ledger.ReserveAndDecrement(ctx, input.Item, input.BranchID, input.Quantity)
			if err != nil {
				return err
			}
			record.Delta = -input.Quantity
			record.BalanceAfter = balance
		}
		// Fecha tomada con el saldo ya aplicado: el orden del kardex sigue al del ledger.
		record.Date = time.Now()
		var err error
		if mov, err = recorder.Record(ctx, record); err != nil {
			return uc.undo(ctx, err, ledger, record)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return mov, nil
}

// undo revierte la operación del ledger cuando el runner no lo hace por sí mismo (store en memoria).
func (uc *RegisterMovementUseCase) undo(ctx context.Context, cause error, ledger *StockLedger, record RecordInput) error {
	if RollsBackStock(uc.txRunner) {
		return cause
	}
	return errors.Join(cause, undoLedger(context.WithoutCancel(ctx), ledger, record))
}

// undoLedger aplica la operación inversa de record.Delta sobre el ledger.
func undoLedger(ctx context.Context, ledger *StockLedger, record RecordInput) error {
	if record.Delta > 0 {
		_, err := ledger.ReserveAndDecrement(ctx, record.Item, record.BranchID, record.Delta)
		return err
	}
	_, err := ledger.Increment(ctx, record.Item, record.BranchID, -record.Delta)
	return err
}
