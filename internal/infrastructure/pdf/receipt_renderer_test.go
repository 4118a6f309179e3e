package pdf

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/barberia-api/internal/application/sales"
	"github.com/jhoicas/barberia-api/internal/domain/entity"
)

func sampleReceipt() sales.ReceiptData {
	item := entity.NewStockItem(entity.StockItemProduct, "P1")
	sale := &entity.Sale{
		ID:              "0b7f3c1e-8a2d-4f5e-9c1a-2b3c4d5e6f70",
		BranchID:        "B1",
		PaymentMethodID: "M1",
		Date:            time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC),
		Items: []entity.SaleItem{
			{Line: 1, Item: item, Quantity: 3, UnitPrice: decimal.NewFromInt(25000), Subtotal: decimal.NewFromInt(75000)},
		},
		Subtotal: decimal.NewFromInt(75000),
		Discount: decimal.Zero,
		TaxRate:  decimal.NewFromInt(19),
		Tax:      decimal.NewFromInt(14250),
		Total:    decimal.NewFromInt(89250),
		Status:   entity.SaleStatusCompleted,
	}
	return sales.ReceiptData{
		Sale:          sale,
		Branch:        &entity.Branch{ID: "B1", Name: "Barbería Centro", Address: "Cra 7 # 12-30"},
		PaymentMethod: &entity.PaymentMethod{ID: "M1", Name: "Efectivo"},
		Lines:         []sales.ReceiptLine{{SaleItem: sale.Items[0], Name: "Cera para cabello"}},
		Currency:      "COP",
	}
}

func TestReceiptRenderer_GeneraPDF(t *testing.T) {
	r := NewReceiptRenderer(2)

	out, err := r.RenderSaleReceipt(context.Background(), sampleReceipt())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestReceiptRenderer_VentaAnulada(t *testing.T) {
	data := sampleReceipt()
	at := data.Sale.Date.Add(time.Hour)
	data.Sale.Status = entity.SaleStatusAnnulled
	data.Sale.AnnulledAt = &at
	data.Sale.AnnulReason = "error de caja"

	out, err := NewReceiptRenderer(0).RenderSaleReceipt(context.Background(), data)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestReceiptRenderer_SinVenta(t *testing.T) {
	_, err := NewReceiptRenderer(2).RenderSaleReceipt(context.Background(), sales.ReceiptData{})
	assert.Error(t, err)
}
