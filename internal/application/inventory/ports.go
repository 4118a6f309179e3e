package inventory

import (
	"context"

	"github.com/jhoicas/barberia-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una unidad de trabajo, pasando repositorios atados a ella.
// Si fn retorna error nada de lo escrito por los repositorios queda visible.
type TxRunner interface {
	Run(ctx context.Context, fn func(ctx context.Context, repos repository.TxRepositories) error) error
}

// StockRollback lo implementan los runners cuyo rollback también revierte las existencias.
// Con ellos no se aplican operaciones inversas sobre el ledger: la transacción abortada las rechazaría.
type StockRollback interface {
	RollsBackStock() bool
}

// RollsBackStock indica si el runner revierte las existencias al descartar la unidad de trabajo.
func RollsBackStock(r TxRunner) bool {
	sr, ok := r.(StockRollback)
	return ok && sr.RollsBackStock()
}
