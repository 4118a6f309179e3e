package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/barberia-api/internal/domain/entity"
	"github.com/jhoicas/barberia-api/internal/domain/repository"
)

var (
	_ repository.BranchRepository        = (*BranchRepo)(nil)
	_ repository.PaymentMethodRepository = (*PaymentMethodRepo)(nil)
)

// BranchRepo consulta de sucursales.
type BranchRepo struct {
	q Querier
}

// NewBranchRepository construye el adaptador.
func NewBranchRepository(q Querier) *BranchRepo {
	return &BranchRepo{q: q}
}

// GetByID obtiene una sucursal; nil si no existe.
func (r *BranchRepo) GetByID(ctx context.Context, id string) (*entity.Branch, error) {
	query := `SELECT id, name, address, active, created_at, updated_at FROM branches WHERE id = $1`
	var b entity.Branch
	var address *string
	err := r.q.QueryRow(ctx, query, id).Scan(&b.ID, &b.Name, &address, &b.Active, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("get branch", err)
	}
	b.Address = derefString(address)
	return &b, nil
}

// PaymentMethodRepo consulta de medios de pago.
type PaymentMethodRepo struct {
	q Querier
}

// NewPaymentMethodRepository construye el adaptador.
func NewPaymentMethodRepository(q Querier) *PaymentMethodRepo {
	return &PaymentMethodRepo{q: q}
}

// GetByID obtiene un medio de pago; nil si no existe.
func (r *PaymentMethodRepo) GetByID(ctx context.Context, id string) (*entity.PaymentMethod, error) {
	var pm entity.PaymentMethod
	err := r.q.QueryRow(ctx, `SELECT id, name, active FROM payment_methods WHERE id = $1`, id).Scan(&pm.ID, &pm.Name, &pm.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("get payment method", err)
	}
	return &pm, nil
}
