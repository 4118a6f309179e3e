package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/barberia-api/internal/domain/entity"
	"github.com/jhoicas/barberia-api/internal/domain/repository"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

const saleColumns = `id, branch_id, customer_id, payment_method_id, date, subtotal, discount_type, discount_value,
	discount, tax_rate, tax, total, status, annul_reason, annulled_at, created_by, created_at, updated_at`

// SaleRepo ventas y líneas sobre PostgreSQL (usable con pool o tx).
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

// Create inserta cabecera y líneas. Debe llamarse dentro de una tx.
func (r *SaleRepo) Create(ctx context.Context, s *entity.Sale) error {
	query := `INSERT INTO sales (` + saleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`
	_, err := r.q.Exec(ctx, query,
		s.ID, s.BranchID, nullString(s.CustomerID), s.PaymentMethodID, s.Date, s.Subtotal,
		nullString(s.DiscountType), s.DiscountValue, s.Discount, s.TaxRate, s.Tax, s.Total,
		s.Status, nullString(s.AnnulReason), s.AnnulledAt, nullString(s.CreatedBy), s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return wrapErr("insert sale", err)
	}
	itemQuery := `
		INSERT INTO sale_items (id, sale_id, line, item_kind, item_id, quantity, unit_price, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	for _, it := range s.Items {
		if _, err := r.q.Exec(ctx, itemQuery,
			it.ID, s.ID, it.Line, it.Item.Kind, it.Item.ID, it.Quantity, it.UnitPrice, it.Subtotal,
		); err != nil {
			return wrapErr("insert sale item", err)
		}
	}
	return nil
}

// GetByID obtiene la venta con sus líneas; nil si no existe.
func (r *SaleRepo) GetByID(ctx context.Context, id string) (*entity.Sale, error) {
	return r.getOne(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id)
}

// GetForUpdate como GetByID pero bloquea la cabecera hasta el fin de la tx.
func (r *SaleRepo) GetForUpdate(ctx context.Context, id string) (*entity.Sale, error) {
	return r.getOne(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1 FOR UPDATE`, id)
}

// MarkAnnulled cambia COMPLETED -> ANNULLED en un UPDATE condicional.
func (r *SaleRepo) MarkAnnulled(ctx context.Context, id, reason string, at time.Time) (bool, error) {
	query := `
		UPDATE sales SET status = $2, annul_reason = $3, annulled_at = $4, updated_at = $4
		WHERE id = $1 AND status = $5`
	tag, err := r.q.Exec(ctx, query, id, entity.SaleStatusAnnulled, nullString(reason), at, entity.SaleStatusCompleted)
	if err != nil {
		return false, wrapErr("annul sale", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListPaged ventas más recientes primero, con el total de registros.
func (r *SaleRepo) ListPaged(ctx context.Context, limit, offset int) ([]*entity.Sale, int, error) {
	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM sales`).Scan(&total); err != nil {
		return nil, 0, wrapErr("count sales", err)
	}
	list, err := r.list(ctx, `SELECT `+saleColumns+` FROM sales ORDER BY date DESC, id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// ListByBranch ventas de una sucursal, más recientes primero.
func (r *SaleRepo) ListByBranch(ctx context.Context, branchID string) ([]*entity.Sale, error) {
	return r.list(ctx, `SELECT `+saleColumns+` FROM sales WHERE branch_id = $1 ORDER BY date DESC, id`, branchID)
}

// ListByDateRange ventas con fecha en [from, to], en orden cronológico.
func (r *SaleRepo) ListByDateRange(ctx context.Context, from, to time.Time) ([]*entity.Sale, error) {
	return r.list(ctx, `SELECT `+saleColumns+` FROM sales WHERE date >= $1 AND date <= $2 ORDER BY date, id`, from, to)
}

func (r *SaleRepo) getOne(ctx context.Context, query, id string) (*entity.Sale, error) {
	s, err := scanSale(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("get sale", err)
	}
	if err := r.loadItems(ctx, []*entity.Sale{s}); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *SaleRepo) list(ctx context.Context, query string, args ...any) ([]*entity.Sale, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("list sales", err)
	}
	var list []*entity.Sale
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		list = append(list, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list sales", err)
	}
	if err := r.loadItems(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

// loadItems carga las líneas de todas las ventas en una sola consulta.
func (r *SaleRepo) loadItems(ctx context.Context, sales []*entity.Sale) error {
	if len(sales) == 0 {
		return nil
	}
	ids := make([]string, len(sales))
	byID := make(map[string]*entity.Sale, len(sales))
	for i, s := range sales {
		ids[i] = s.ID
		byID[s.ID] = s
	}
	rows, err := r.q.Query(ctx, `
		SELECT id, sale_id, line, item_kind, item_id, quantity, unit_price, subtotal
		FROM sale_items WHERE sale_id = ANY($1) ORDER BY sale_id, line`, ids)
	if err != nil {
		return wrapErr("list sale items", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it entity.SaleItem
		if err := rows.Scan(&it.ID, &it.SaleID, &it.Line, &it.Item.Kind, &it.Item.ID,
			&it.Quantity, &it.UnitPrice, &it.Subtotal); err != nil {
			return fmt.Errorf("scan sale item: %w", err)
		}
		if s, ok := byID[it.SaleID]; ok {
			s.Items = append(s.Items, it)
		}
	}
	return wrapErr("list sale items", rows.Err())
}

func scanSale(row pgx.Row) (*entity.Sale, error) {
	var s entity.Sale
	var customerID, discountType, annulReason, createdBy *string
	err := row.Scan(&s.ID, &s.BranchID, &customerID, &s.PaymentMethodID, &s.Date, &s.Subtotal,
		&discountType, &s.DiscountValue, &s.Discount, &s.TaxRate, &s.Tax, &s.Total,
		&s.Status, &annulReason, &s.AnnulledAt, &createdBy, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	s.CustomerID = derefString(customerID)
	s.DiscountType = derefString(discountType)
	s.AnnulReason = derefString(annulReason)
	s.CreatedBy = derefString(createdBy)
	return &s, nil
}
