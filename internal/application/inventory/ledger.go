package inventory

import (
	"context"
	"fmt"

	"github.com/jhoicas/barberia-api/internal/domain"
	"github.com/jhoicas/barberia-api/internal/domain/entity"
	"github.com/jhoicas/barberia-api/internal/domain/repository"
)

// StockLedger contador protegido de existencias por (ítem, sucursal). No sabe nada de ventas.
type StockLedger struct {
	stock repository.StockRepository
}

// NewStockLedger construye el ledger sobre un repositorio (del pool o de una transacción).
func NewStockLedger(stock repository.StockRepository) *StockLedger {
	return &StockLedger{stock: stock}
}

// ReserveAndDecrement resta qty en un solo paso atómico. Si el saldo no alcanza retorna
// *domain.InsufficientStockError y el saldo queda intacto.
func (l *StockLedger) ReserveAndDecrement(ctx context.Context, item entity.StockItem, branchID string, qty int64) (int64, error) {
	if err := validateKey(item, branchID, qty); err != nil {
		return 0, err
	}
	balance, ok, err := l.stock.DecrementIfAvailable(ctx, item, branchID, qty)
	if err != nil {
		return 0, err
	}
	if !ok {
		return balance, &domain.InsufficientStockError{
			Item:      item,
			BranchID:  branchID,
			Requested: qty,
			Available: balance,
		}
	}
	return balance, nil
}

// Increment suma qty (sin tope superior) y devuelve el nuevo saldo.
func (l *StockLedger) Increment(ctx context.Context, item entity.StockItem, branchID string, qty int64) (int64, error) {
	if err := validateKey(item, branchID, qty); err != nil {
		return 0, err
	}
	return l.stock.Increment(ctx, item, branchID, qty)
}

// CurrentBalance saldo actual; 0 si el ítem nunca tuvo existencias en la sucursal.
func (l *StockLedger) CurrentBalance(ctx context.Context, item entity.StockItem, branchID string) (int64, error) {
	if !item.Valid() || branchID == "" {
		return 0, domain.ErrInvalidInput
	}
	rec, err := l.stock.Get(ctx, item, branchID)
	if err != nil {
		return 0, err
	}
	if rec == nil {
		return 0, nil
	}
	return rec.Quantity, nil
}

func validateKey(item entity.StockItem, branchID string, qty int64) error {
	if !item.Valid() || branchID == "" {
		return domain.ErrInvalidInput
	}
	if qty <= 0 {
		return fmt.Errorf("%w: cantidad %d", domain.ErrInvalidInput, qty)
	}
	return nil
}
