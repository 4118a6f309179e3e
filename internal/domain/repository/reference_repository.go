package repository

import (
	"context"

	"github.com/jhoicas/barberia-api/internal/domain/entity"
)

// BranchRepository consulta de sucursales (el CRUD vive fuera de este servicio).
type BranchRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Branch, error)
}

// CustomerRepository consulta de clientes.
type CustomerRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Customer, error)
}

// PaymentMethodRepository consulta de medios de pago.
type PaymentMethodRepository interface {
	GetByID(ctx context.Context, id string) (*entity.PaymentMethod, error)
}
