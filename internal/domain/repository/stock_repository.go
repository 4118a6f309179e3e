package repository

import (
	"context"

	"github.com/jhoicas/barberia-api/internal/domain/entity"
)

// StockRepository define el puerto de existencias por ítem y sucursal.
// Cada operación es una única lectura-modificación-escritura atómica sobre la llave (ítem, sucursal).
type StockRepository interface {
	Get(ctx context.Context, item entity.StockItem, branchID string) (*entity.StockRecord, error)
	// DecrementIfAvailable resta qty solo si el saldo es >= qty, en un paso.
	// ok=false indica saldo insuficiente; balance es entonces el saldo actual.
	DecrementIfAvailable(ctx context.Context, item entity.StockItem, branchID string, qty int64) (balance int64, ok bool, err error)
	// Increment suma qty (crea el registro si no existe) y devuelve el nuevo saldo.
	Increment(ctx context.Context, item entity.StockItem, branchID string, qty int64) (int64, error)
}
