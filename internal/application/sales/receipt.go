package sales

import (
	"context"

	"github.com/jhoicas/barberia-api/internal/domain"
	"github.com/jhoicas/barberia-api/internal/domain/entity"
	"github.com/jhoicas/barberia-api/internal/domain/repository"
)

// ReceiptLine línea del comprobante con el nombre de catálogo resuelto.
type ReceiptLine struct {
	entity.SaleItem
	Name string
}

// ReceiptData datos que necesita el renderizador.
type ReceiptData struct {
	Sale          *entity.Sale
	Branch        *entity.Branch
	Customer      *entity.Customer // nil = consumidor final
	PaymentMethod *entity.PaymentMethod
	Lines         []ReceiptLine
	Currency      string
}

// ReceiptUseCase genera el comprobante de una venta. No contiene reglas de negocio más allá de
// reunir el agregado y sus referencias.
type ReceiptUseCase struct {
	saleRepo repository.SaleRepository
	refs     References
	renderer ReceiptRenderer
	currency string
}

// NewReceiptUseCase construye el caso de uso.
func NewReceiptUseCase(saleRepo repository.SaleRepository, refs References, renderer ReceiptRenderer, currency string) *ReceiptUseCase {
	return &ReceiptUseCase{saleRepo: saleRepo, refs: refs, renderer: renderer, currency: currency}
}

// GenerateReceipt devuelve el PDF del comprobante. Las ventas anuladas también lo generan.
func (uc *ReceiptUseCase) GenerateReceipt(ctx context.Context, saleID string) ([]byte, error) {
	if saleID == "" {
		return nil, domain.ErrInvalidInput
	}
	sale, err := uc.saleRepo.GetByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, domain.NotFound("venta", saleID)
	}

	data := ReceiptData{Sale: sale, Currency: uc.currency}
	if data.Branch, err = uc.refs.Branches.GetByID(ctx, sale.BranchID); err != nil {
		return nil, err
	}
	if sale.CustomerID != "" {
		if data.Customer, err = uc.refs.Customers.GetByID(ctx, sale.CustomerID); err != nil {
			return nil, err
		}
	}
	if data.PaymentMethod, err = uc.refs.PaymentMethods.GetByID(ctx, sale.PaymentMethodID); err != nil {
		return nil, err
	}
	data.Lines = make([]ReceiptLine, 0, len(sale.Items))
	for _, it := range sale.Items {
		name := it.Item.String()
		cat, err := uc.refs.Catalog.GetItem(ctx, it.Item)
		if err != nil {
			return nil, err
		}
		if cat != nil && cat.Name != "" {
			name = cat.Name
		}
		data.Lines = append(data.Lines, ReceiptLine{SaleItem: it, Name: name})
	}
	return uc.renderer.RenderSaleReceipt(ctx, data)
}
