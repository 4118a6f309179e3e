package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/barberia-api/internal/domain/entity"
	"github.com/jhoicas/barberia-api/internal/domain/repository"
)

var _ repository.AccountingEntryRepository = (*AccountingEntryRepo)(nil)

// AccountingEntryRepo asientos contables sobre PostgreSQL (solo inserción).
type AccountingEntryRepo struct {
	q Querier
}

// NewAccountingEntryRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAccountingEntryRepository(q Querier) *AccountingEntryRepo {
	return &AccountingEntryRepo{q: q}
}

// Create persiste un asiento.
func (r *AccountingEntryRepo) Create(ctx context.Context, e *entity.AccountingEntry) error {
	query := `
		INSERT INTO accounting_entries (id, branch_id, origin_ref, amount, category, date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query, e.ID, e.BranchID, e.OriginRef, e.Amount, e.Category, e.Date, e.CreatedAt)
	if err != nil {
		return wrapErr("create accounting entry", err)
	}
	return nil
}

// ListByOrigin asientos de una venta en orden de registro.
func (r *AccountingEntryRepo) ListByOrigin(ctx context.Context, originRef string) ([]*entity.AccountingEntry, error) {
	query := `
		SELECT id, branch_id, origin_ref, amount, category, date, created_at
		FROM accounting_entries WHERE origin_ref = $1 ORDER BY created_at`
	return r.list(ctx, "list entries by origin", query, originRef)
}

// ListByBranchAndDateRange asientos con fecha en [from, to]; branchID vacío = todas las sucursales.
func (r *AccountingEntryRepo) ListByBranchAndDateRange(ctx context.Context, branchID string, from, to time.Time) ([]*entity.AccountingEntry, error) {
	query := `
		SELECT id, branch_id, origin_ref, amount, category, date, created_at
		FROM accounting_entries
		WHERE ($1 = '' OR branch_id = $1) AND date >= $2 AND date <= $3
		ORDER BY date, created_at`
	return r.list(ctx, "list entries by range", query, branchID, from, to)
}

func (r *AccountingEntryRepo) list(ctx context.Context, op, query string, args ...any) ([]*entity.AccountingEntry, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer rows.Close()
	var list []*entity.AccountingEntry
	for rows.Next() {
		var e entity.AccountingEntry
		if err := rows.Scan(&e.ID, &e.BranchID, &e.OriginRef, &e.Amount, &e.Category, &e.Date, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan accounting entry: %w", err)
		}
		list = append(list, &e)
	}
	return list, wrapErr(op, rows.Err())
}
