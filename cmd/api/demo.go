package main

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/barberia-api/internal/application/inventory"
	"github.com/jhoicas/barberia-api/internal/domain/entity"
	"github.com/jhoicas/barberia-api/internal/infrastructure/memory"
)

// Datos de arranque del modo en memoria.
const (
	demoBranchID = "b-centro"
	demoCashID   = "pm-efectivo"
	demoCardID   = "pm-tarjeta"
	demoUserID   = "seed"
)

type demoItem struct {
	item  entity.StockItem
	name  string
	sku   string
	price string
	cost  string
	qty   int64
}

var demoCatalog = []demoItem{
	{entity.NewStockItem(entity.StockItemProduct, "p-cera"), "Cera moldeadora 100g", "CERA-100", "35000", "18000", 20},
	{entity.NewStockItem(entity.StockItemProduct, "p-shampoo"), "Shampoo anticaspa 400ml", "SHAM-400", "42000", "21000", 12},
	{entity.NewStockItem(entity.StockItemVariant, "v-aceite-sandalo"), "Aceite para barba sándalo 30ml", "ACEI-30-SAN", "28000", "12500", 15},
	{entity.NewStockItem(entity.StockItemSupply, "s-cuchillas"), "Cuchillas desechables x10", "CUCH-10", "9000", "4000", 50},
}

// seedDemo carga una sucursal, medios de pago y catálogo, y registra las existencias iniciales
// como compras para que el kardex concilie desde el primer movimiento.
func seedDemo(ctx context.Context, store *memory.Store, register *inventory.RegisterMovementUseCase) error {
	now := time.Now()
	store.AddBranch(entity.Branch{ID: demoBranchID, Name: "Sede Centro", Address: "Cra 7 # 12-40", Active: true, CreatedAt: now, UpdatedAt: now})
	store.AddPaymentMethod(entity.PaymentMethod{ID: demoCashID, Name: "Efectivo", Active: true})
	store.AddPaymentMethod(entity.PaymentMethod{ID: demoCardID, Name: "Tarjeta", Active: true})

	for _, d := range demoCatalog {
		price := decimal.RequireFromString(d.price)
		store.AddCatalogItem(entity.CatalogItem{Item: d.item, Name: d.name, SKU: d.sku, Active: true, UnitPrice: &price})
		cost := decimal.RequireFromString(d.cost)
		if _, err := register.RegisterMovement(ctx, inventory.MovementInput{
			UserID:     demoUserID,
			BranchID:   demoBranchID,
			Item:       d.item,
			Type:       entity.MovementPurchaseIn,
			Quantity:   d.qty,
			UnitCost:   &cost,
			PurchaseID: "compra-inicial",
			Note:       "inventario inicial",
		}); err != nil {
			return err
		}
	}
	return nil
}
