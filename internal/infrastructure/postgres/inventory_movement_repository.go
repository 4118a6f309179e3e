package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/barberia-api/internal/domain/entity"
	"github.com/jhoicas/barberia-api/internal/domain/repository"
)

var _ repository.InventoryMovementRepository = (*InventoryMovementRepo)(nil)

const movementColumns = `id, item_kind, item_id, branch_id, delta, type, origin_ref, balance_after, note, date, created_at, created_by`

// InventoryMovementRepo implementación sobre PostgreSQL (usable con pool o tx).
// seq (BIGSERIAL) desempata movimientos con la misma fecha.
type InventoryMovementRepo struct {
	q Querier
}

// NewInventoryMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryMovementRepository(q Querier) *InventoryMovementRepo {
	return &InventoryMovementRepo{q: q}
}

// Create persiste un movimiento de inventario.
func (r *InventoryMovementRepo) Create(ctx context.Context, m *entity.InventoryMovement) error {
	query := `
		INSERT INTO inventory_movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.Item.Kind, m.Item.ID, m.BranchID, m.Delta, m.Type,
		nullString(m.OriginRef), m.BalanceAfter, m.Note, m.Date, m.CreatedAt, nullString(m.CreatedBy),
	)
	if err != nil {
		return wrapErr("create inventory movement", err)
	}
	return nil
}

// GetByID obtiene un movimiento por ID.
func (r *InventoryMovementRepo) GetByID(ctx context.Context, id string) (*entity.InventoryMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM inventory_movements WHERE id = $1`
	m, err := scanMovement(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("get movement", err)
	}
	return m, nil
}

// ListByItem kardex de un ítem en una sucursal en orden de registro. seq se asigna con la fila de
// stock bloqueada, así que sigue el mismo orden que balance_after aunque los relojes difieran.
func (r *InventoryMovementRepo) ListByItem(ctx context.Context, item entity.StockItem, branchID string) ([]*entity.InventoryMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM inventory_movements
		WHERE item_kind = $1 AND item_id = $2 AND branch_id = $3
		ORDER BY seq`
	return r.list(ctx, "list by item", query, item.Kind, item.ID, branchID)
}

// ListByOrigin movimientos de un tipo generados por una venta o compra, en orden de registro.
func (r *InventoryMovementRepo) ListByOrigin(ctx context.Context, originRef string, movementType entity.MovementType) ([]*entity.InventoryMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM inventory_movements
		WHERE origin_ref = $1 AND type = $2
		ORDER BY seq`
	return r.list(ctx, "list by origin", query, originRef, movementType)
}

// List movimientos filtrados, más recientes primero.
func (r *InventoryMovementRepo) List(ctx context.Context, f repository.MovementFilter) ([]*entity.InventoryMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM inventory_movements WHERE 1=1`
	args := []any{}
	pos := 1
	if f.BranchID != "" {
		query += fmt.Sprintf(" AND branch_id = $%d", pos)
		args = append(args, f.BranchID)
		pos++
	}
	if f.Type != "" {
		query += fmt.Sprintf(" AND type = $%d", pos)
		args = append(args, f.Type)
		pos++
	}
	if f.From != nil {
		query += fmt.Sprintf(" AND date >= $%d", pos)
		args = append(args, *f.From)
		pos++
	}
	if f.To != nil {
		query += fmt.Sprintf(" AND date <= $%d", pos)
		args = append(args, *f.To)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY date DESC, seq DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, f.Limit, f.Offset)
	return r.list(ctx, "list movements", query, args...)
}

func (r *InventoryMovementRepo) list(ctx context.Context, op, query string, args ...any) ([]*entity.InventoryMovement, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer rows.Close()
	var list []*entity.InventoryMovement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, m)
	}
	return list, wrapErr(op, rows.Err())
}

func scanMovement(row pgx.Row) (*entity.InventoryMovement, error) {
	var m entity.InventoryMovement
	var originRef, createdBy *string
	err := row.Scan(&m.ID, &m.Item.Kind, &m.Item.ID, &m.BranchID, &m.Delta, &m.Type,
		&originRef, &m.BalanceAfter, &m.Note, &m.Date, &m.CreatedAt, &createdBy)
	if err != nil {
		return nil, err
	}
	m.OriginRef = derefString(originRef)
	m.CreatedBy = derefString(createdBy)
	return &m, nil
}
