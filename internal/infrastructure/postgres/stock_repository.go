package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/barberia-api/internal/domain/entity"
	"github.com/jhoicas/barberia-api/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
// La tabla stock tiene CHECK (quantity >= 0).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

// Get obtiene el stock actual de un ítem en una sucursal; nil si nunca tuvo existencias.
func (r *StockRepo) Get(ctx context.Context, item entity.StockItem, branchID string) (*entity.StockRecord, error) {
	query := `
		SELECT quantity, updated_at
		FROM stock WHERE item_kind = $1 AND item_id = $2 AND branch_id = $3`
	s := entity.StockRecord{Item: item, BranchID: branchID}
	err := r.q.QueryRow(ctx, query, item.Kind, item.ID, branchID).Scan(&s.Quantity, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("get stock", err)
	}
	return &s, nil
}

// DecrementIfAvailable resta qty con un UPDATE condicional: la fila queda bloqueada por la tx
// y dos ventas concurrentes sobre la última unidad no pueden ambas tener éxito.
func (r *StockRepo) DecrementIfAvailable(ctx context.Context, item entity.StockItem, branchID string, qty int64) (int64, bool, error) {
	query := `
		UPDATE stock SET quantity = quantity - $4, updated_at = now()
		WHERE item_kind = $1 AND item_id = $2 AND branch_id = $3 AND quantity >= $4
		RETURNING quantity`
	var balance int64
	err := r.q.QueryRow(ctx, query, item.Kind, item.ID, branchID, qty).Scan(&balance)
	if err == nil {
		return balance, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, false, wrapErr("decrement stock", err)
	}
	current, err := r.Get(ctx, item, branchID)
	if err != nil {
		return 0, false, err
	}
	if current == nil {
		return 0, false, nil
	}
	return current.Quantity, false, nil
}

// Increment suma qty creando la fila si no existe.
func (r *StockRepo) Increment(ctx context.Context, item entity.StockItem, branchID string, qty int64) (int64, error) {
	query := `
		INSERT INTO stock (item_kind, item_id, branch_id, quantity, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (item_kind, item_id, branch_id)
		DO UPDATE SET quantity = stock.quantity + EXCLUDED.quantity, updated_at = now()
		RETURNING quantity`
	var balance int64
	if err := r.q.QueryRow(ctx, query, item.Kind, item.ID, branchID, qty).Scan(&balance); err != nil {
		return 0, wrapErr("increment stock", err)
	}
	return balance, nil
}
