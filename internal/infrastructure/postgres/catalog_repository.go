package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/barberia-api/internal/domain"
	"github.com/jhoicas/barberia-api/internal/domain/entity"
	"github.com/jhoicas/barberia-api/internal/domain/repository"
)

var _ repository.CatalogRepository = (*CatalogRepo)(nil)

// CatalogRepo resuelve productos, variantes e insumos (usable con pool o tx).
// Una variante hereda el precio del producto padre si no define uno y solo está activa si el padre también.
type CatalogRepo struct {
	q Querier
}

// NewCatalogRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCatalogRepository(q Querier) *CatalogRepo {
	return &CatalogRepo{q: q}
}

// GetItem obtiene la vista de catálogo del ítem; nil si no existe.
func (r *CatalogRepo) GetItem(ctx context.Context, item entity.StockItem) (*entity.CatalogItem, error) {
	return r.getItem(ctx, item, "")
}

// GetItemForUpdate bloquea la fila del ítem (la variante, no su producto padre).
func (r *CatalogRepo) GetItemForUpdate(ctx context.Context, item entity.StockItem) (*entity.CatalogItem, error) {
	lock := " FOR UPDATE"
	if item.Kind == entity.StockItemVariant {
		lock = " FOR UPDATE OF v"
	}
	return r.getItem(ctx, item, lock)
}

func (r *CatalogRepo) getItem(ctx context.Context, item entity.StockItem, lock string) (*entity.CatalogItem, error) {
	var query string
	switch item.Kind {
	case entity.StockItemProduct:
		query = `SELECT name, sku, active, price, cost FROM products WHERE id = $1`
	case entity.StockItemVariant:
		query = `
			SELECT p.name || ' ' || v.name, v.sku, v.active AND p.active, COALESCE(v.price, p.price), v.cost
			FROM product_variants v JOIN products p ON p.id = v.product_id
			WHERE v.id = $1`
	case entity.StockItemSupply:
		query = `SELECT name, sku, active, price, cost FROM supplies WHERE id = $1`
	default:
		return nil, fmt.Errorf("%w: tipo de ítem %q", domain.ErrInvalidInput, item.Kind)
	}
	c := entity.CatalogItem{Item: item}
	var price decimal.NullDecimal
	err := r.q.QueryRow(ctx, query+lock, item.ID).Scan(&c.Name, &c.SKU, &c.Active, &price, &c.Cost)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("get catalog item", err)
	}
	if price.Valid {
		c.UnitPrice = &price.Decimal
	}
	return &c, nil
}

// UpdateCost actualiza el costo promedio ponderado del ítem.
func (r *CatalogRepo) UpdateCost(ctx context.Context, item entity.StockItem, cost decimal.Decimal) error {
	var table string
	switch item.Kind {
	case entity.StockItemProduct:
		table = "products"
	case entity.StockItemVariant:
		table = "product_variants"
	case entity.StockItemSupply:
		table = "supplies"
	default:
		return fmt.Errorf("%w: tipo de ítem %q", domain.ErrInvalidInput, item.Kind)
	}
	tag, err := r.q.Exec(ctx, `UPDATE `+table+` SET cost = $2, updated_at = now() WHERE id = $1`, item.ID, cost)
	if err != nil {
		return wrapErr("update cost", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("ítem", item.String())
	}
	return nil
}
