package entity

import "github.com/shopspring/decimal"

// CatalogItem vista de catálogo de un ítem con stock (producto, variante o insumo).
type CatalogItem struct {
	Item      StockItem
	Name      string
	SKU       string
	Active    bool
	UnitPrice *decimal.Decimal // nil si no tiene precio vigente
	Cost      decimal.Decimal  // costo promedio ponderado
}
