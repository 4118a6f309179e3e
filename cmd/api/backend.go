package main

import (
	"context"
	"fmt"

	"github.com/jhoicas/barberia-api/internal/application/inventory"
	"github.com/jhoicas/barberia-api/internal/domain/repository"
	"github.com/jhoicas/barberia-api/internal/infrastructure/memory"
	"github.com/jhoicas/barberia-api/internal/infrastructure/postgres"
	"github.com/jhoicas/barberia-api/pkg/config"
)

// backend agrupa los puertos de persistencia que consumen los casos de uso.
type backend struct {
	txRunner       inventory.TxRunner
	stock          repository.StockRepository
	movements      repository.InventoryMovementRepository
	accounting     repository.AccountingEntryRepository
	sales          repository.SaleRepository
	catalog        repository.CatalogRepository
	branches       repository.BranchRepository
	customers      repository.CustomerRepository
	paymentMethods repository.PaymentMethodRepository
	memory         *memory.Store // nil con PostgreSQL
	close          func()
}

func newPostgresBackend(ctx context.Context, cfg config.DBConfig) (*backend, error) {
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("esquema: %w", err)
	}
	return &backend{
		txRunner:       postgres.NewTxRunner(pool),
		stock:          postgres.NewStockRepository(pool),
		movements:      postgres.NewInventoryMovementRepository(pool),
		accounting:     postgres.NewAccountingEntryRepository(pool),
		sales:          postgres.NewSaleRepository(pool),
		catalog:        postgres.NewCatalogRepository(pool),
		branches:       postgres.NewBranchRepository(pool),
		customers:      postgres.NewCustomerRepository(pool),
		paymentMethods: postgres.NewPaymentMethodRepository(pool),
		close:          pool.Close,
	}, nil
}

func newMemoryBackend() *backend {
	store := memory.New()
	return &backend{
		txRunner:       store,
		stock:          store.Stock(),
		movements:      store.Movements(),
		accounting:     store.Accounting(),
		sales:          store.Sales(),
		catalog:        store.Catalog(),
		branches:       store.Branches(),
		customers:      store.Customers(),
		paymentMethods: store.PaymentMethods(),
		memory:         store,
		close:          func() {},
	}
}
