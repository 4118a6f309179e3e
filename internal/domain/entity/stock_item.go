package entity

import "fmt"

// StockItemKind identifica el tipo de ítem con existencias (producto, variante o insumo).
type StockItemKind string

// Tipos de ítem con stock por sucursal.
const (
	StockItemProduct StockItemKind = "PRODUCT" // producto de venta
	StockItemVariant StockItemKind = "VARIANT" // variante de un producto (talla, presentación)
	StockItemSupply  StockItemKind = "SUPPLY"  // insumo de la barbería
)

// Valid indica si el tipo es uno de los soportados.
func (k StockItemKind) Valid() bool {
	switch k {
	case StockItemProduct, StockItemVariant, StockItemSupply:
		return true
	}
	return false
}

// StockItem referencia un ítem con existencias. Ledger y kardex lo consumen sin
// distinguir el catálogo de origen.
type StockItem struct {
	Kind StockItemKind
	ID   string
}

// NewStockItem construye la referencia.
func NewStockItem(kind StockItemKind, id string) StockItem {
	return StockItem{Kind: kind, ID: id}
}

// Valid indica si la referencia está completa.
func (i StockItem) Valid() bool {
	return i.Kind.Valid() && i.ID != ""
}

// Key devuelve la llave estable "KIND:id" usada en mapas y candados.
func (i StockItem) Key() string {
	return string(i.Kind) + ":" + i.ID
}

func (i StockItem) String() string {
	return fmt.Sprintf("%s %s", i.Kind, i.ID)
}
