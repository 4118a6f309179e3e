package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/jhoicas/barberia-api/internal/domain/entity"
)

// CatalogRepository resuelve productos, variantes e insumos por referencia.
type CatalogRepository interface {
	GetItem(ctx context.Context, item entity.StockItem) (*entity.CatalogItem, error)
	// GetItemForUpdate igual que GetItem pero bloquea la fila hasta el fin de la transacción.
	GetItemForUpdate(ctx context.Context, item entity.StockItem) (*entity.CatalogItem, error)
	UpdateCost(ctx context.Context, item entity.StockItem, cost decimal.Decimal) error
}
