// Package memory implementa todos los puertos de persistencia en memoria. Se usa cuando no hay
// DATABASE_URL configurada y en las pruebas.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/barberia-api/internal/application/inventory"
	"github.com/jhoicas/barberia-api/internal/domain/entity"
	"github.com/jhoicas/barberia-api/internal/domain/repository"
)

var _ inventory.TxRunner = (*Store)(nil)

type storedMovement struct {
	seq int64
	m   entity.InventoryMovement
}

type annulment struct {
	reason string
	at     time.Time
}

// Store base en memoria. Run serializa las unidades de trabajo con el candado de escritura;
// las lecturas fuera de Run toman el de lectura y nunca ven el estado intermedio.
type Store struct {
	mu sync.RWMutex

	branches       map[string]entity.Branch
	customers      map[string]entity.Customer
	paymentMethods map[string]entity.PaymentMethod
	catalog        map[string]entity.CatalogItem // llave StockItem.Key()
	stock          map[string]entity.StockRecord // llave stockKey
	movements      []storedMovement
	entries        []entity.AccountingEntry
	sales          map[string]*entity.Sale
	seq            int64
}

// New crea un store vacío.
func New() *Store {
	return &Store{
		branches:       make(map[string]entity.Branch),
		customers:      make(map[string]entity.Customer),
		paymentMethods: make(map[string]entity.PaymentMethod),
		catalog:        make(map[string]entity.CatalogItem),
		stock:          make(map[string]entity.StockRecord),
		sales:          make(map[string]*entity.Sale),
	}
}

// pending escrituras de una unidad de trabajo; se aplican en commit.
// Las existencias se modifican en el acto y las revierte la pila de compensación del llamador.
type pending struct {
	movements  []entity.InventoryMovement
	entries    []entity.AccountingEntry
	sales      []*entity.Sale
	annulments map[string]annulment
	costs      map[string]decimal.Decimal
}

// Run ejecuta fn con repositorios transaccionales. Si fn falla las escrituras pendientes se descartan.
func (s *Store) Run(ctx context.Context, fn func(ctx context.Context, repos repository.TxRepositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	v := &view{s: s, tx: &pending{
		annulments: make(map[string]annulment),
		costs:      make(map[string]decimal.Decimal),
	}}
	if err := fn(ctx, v.repos()); err != nil {
		return err
	}
	s.commit(v.tx)
	return nil
}

func (s *Store) commit(p *pending) {
	for _, m := range p.movements {
		s.seq++
		s.movements = append(s.movements, storedMovement{seq: s.seq, m: m})
	}
	s.entries = append(s.entries, p.entries...)
	for _, sale := range p.sales {
		s.sales[sale.ID] = sale
	}
	for id, a := range p.annulments {
		sale := s.sales[id]
		at := a.at
		sale.Status = entity.SaleStatusAnnulled
		sale.AnnulReason = a.reason
		sale.AnnulledAt = &at
		sale.UpdatedAt = at
	}
	for key, cost := range p.costs {
		item := s.catalog[key]
		item.Cost = cost
		s.catalog[key] = item
	}
}

// repos fuera de transacción (lecturas y escrituras autocommit).
func (s *Store) readView() *view {
	return &view{s: s}
}

// Stock repositorio de existencias fuera de transacción.
func (s *Store) Stock() repository.StockRepository { return &stockRepo{s.readView()} }

// Movements repositorio de kardex fuera de transacción.
func (s *Store) Movements() repository.InventoryMovementRepository {
	return &movementRepo{s.readView()}
}

// Accounting repositorio de asientos fuera de transacción.
func (s *Store) Accounting() repository.AccountingEntryRepository {
	return &accountingRepo{s.readView()}
}

// Sales repositorio de ventas fuera de transacción.
func (s *Store) Sales() repository.SaleRepository { return &saleRepo{s.readView()} }

// Catalog repositorio de catálogo fuera de transacción.
func (s *Store) Catalog() repository.CatalogRepository { return &catalogRepo{s.readView()} }

// Branches consulta de sucursales.
func (s *Store) Branches() repository.BranchRepository { return &branchRepo{s.readView()} }

// Customers consulta de clientes.
func (s *Store) Customers() repository.CustomerRepository { return &customerRepo{s.readView()} }

// PaymentMethods consulta de medios de pago.
func (s *Store) PaymentMethods() repository.PaymentMethodRepository {
	return &paymentMethodRepo{s.readView()}
}

// AddBranch registra o reemplaza una sucursal.
func (s *Store) AddBranch(b entity.Branch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.branches[b.ID] = b
}

// AddCustomer registra o reemplaza un cliente.
func (s *Store) AddCustomer(c entity.Customer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers[c.ID] = c
}

// AddPaymentMethod registra o reemplaza un medio de pago.
func (s *Store) AddPaymentMethod(pm entity.PaymentMethod) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paymentMethods[pm.ID] = pm
}

// AddCatalogItem registra o reemplaza un producto, variante o insumo.
func (s *Store) AddCatalogItem(c entity.CatalogItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.UnitPrice != nil {
		p := *c.UnitPrice
		c.UnitPrice = &p
	}
	s.catalog[c.Item.Key()] = c
}

// SetActive activa o desactiva una entidad de referencia. kind: "branch", "customer", "payment_method" o "item".
func (s *Store) SetActive(kind, id string, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch kind {
	case "branch":
		if b, ok := s.branches[id]; ok {
			b.Active = active
			s.branches[id] = b
		}
	case "customer":
		if c, ok := s.customers[id]; ok {
			c.Active = active
			s.customers[id] = c
		}
	case "payment_method":
		if pm, ok := s.paymentMethods[id]; ok {
			pm.Active = active
			s.paymentMethods[id] = pm
		}
	case "item":
		if c, ok := s.catalog[id]; ok {
			c.Active = active
			s.catalog[id] = c
		}
	}
}

func stockKey(item entity.StockItem, branchID string) string {
	return item.Key() + "@" + branchID
}
