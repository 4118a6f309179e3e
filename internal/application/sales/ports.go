package sales

import (
	"context"

	"github.com/jhoicas/barberia-api/internal/domain/repository"
)

// References consultas de existencia y estado de las entidades referenciadas por una venta.
type References struct {
	Branches       repository.BranchRepository
	Customers      repository.CustomerRepository
	PaymentMethods repository.PaymentMethodRepository
	Catalog        repository.CatalogRepository
}

// ReceiptRenderer genera el comprobante (PDF) de una venta.
type ReceiptRenderer interface {
	RenderSaleReceipt(ctx context.Context, data ReceiptData) ([]byte, error)
}
