package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/barberia-api/internal/domain"
	"github.com/jhoicas/barberia-api/internal/domain/entity"
	"github.com/jhoicas/barberia-api/internal/domain/repository"
)

var (
	_ repository.StockRepository             = (*stockRepo)(nil)
	_ repository.InventoryMovementRepository = (*movementRepo)(nil)
	_ repository.AccountingEntryRepository   = (*accountingRepo)(nil)
	_ repository.SaleRepository              = (*saleRepo)(nil)
	_ repository.CatalogRepository           = (*catalogRepo)(nil)
	_ repository.BranchRepository            = (*branchRepo)(nil)
	_ repository.CustomerRepository          = (*customerRepo)(nil)
	_ repository.PaymentMethodRepository     = (*paymentMethodRepo)(nil)
)

// view acceso al store. Con tx != nil el candado ya lo tiene Run y las escrituras quedan pendientes.
type view struct {
	s  *Store
	tx *pending
}

func (v *view) repos() repository.TxRepositories {
	return repository.TxRepositories{
		Stock:      &stockRepo{v},
		Movements:  &movementRepo{v},
		Accounting: &accountingRepo{v},
		Sales:      &saleRepo{v},
		Catalog:    &catalogRepo{v},
	}
}

func (v *view) read() func() {
	if v.tx != nil {
		return func() {}
	}
	v.s.mu.RLock()
	return v.s.mu.RUnlock
}

func (v *view) write() func() {
	if v.tx != nil {
		return func() {}
	}
	v.s.mu.Lock()
	return v.s.mu.Unlock
}

// ── Stock ───────────────────────────────────────────────────────────────────

type stockRepo struct{ v *view }

func (r *stockRepo) Get(_ context.Context, item entity.StockItem, branchID string) (*entity.StockRecord, error) {
	defer r.v.read()()
	rec, ok := r.v.s.stock[stockKey(item, branchID)]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (r *stockRepo) DecrementIfAvailable(_ context.Context, item entity.StockItem, branchID string, qty int64) (int64, bool, error) {
	defer r.v.write()()
	key := stockKey(item, branchID)
	rec, ok := r.v.s.stock[key]
	if !ok {
		return 0, false, nil
	}
	if rec.Quantity < qty {
		return rec.Quantity, false, nil
	}
	rec.Quantity -= qty
	rec.UpdatedAt = time.Now()
	r.v.s.stock[key] = rec
	return rec.Quantity, true, nil
}

func (r *stockRepo) Increment(_ context.Context, item entity.StockItem, branchID string, qty int64) (int64, error) {
	defer r.v.write()()
	key := stockKey(item, branchID)
	rec, ok := r.v.s.stock[key]
	if !ok {
		rec = entity.StockRecord{Item: item, BranchID: branchID}
	}
	rec.Quantity += qty
	rec.UpdatedAt = time.Now()
	r.v.s.stock[key] = rec
	return rec.Quantity, nil
}

// ── Movimientos ─────────────────────────────────────────────────────────────

type movementRepo struct{ v *view }

func (r *movementRepo) Create(_ context.Context, m *entity.InventoryMovement) error {
	defer r.v.write()()
	if r.v.tx != nil {
		r.v.tx.movements = append(r.v.tx.movements, *m)
		return nil
	}
	r.v.s.seq++
	r.v.s.movements = append(r.v.s.movements, storedMovement{seq: r.v.s.seq, m: *m})
	return nil
}

// all devuelve movimientos confirmados más los pendientes de la tx, con seq provisional para estos.
func (r *movementRepo) all() []storedMovement {
	out := make([]storedMovement, 0, len(r.v.s.movements))
	out = append(out, r.v.s.movements...)
	if r.v.tx != nil {
		for i, m := range r.v.tx.movements {
			out = append(out, storedMovement{seq: r.v.s.seq + int64(i) + 1, m: m})
		}
	}
	return out
}

func (r *movementRepo) GetByID(_ context.Context, id string) (*entity.InventoryMovement, error) {
	defer r.v.read()()
	for _, sm := range r.all() {
		if sm.m.ID == id {
			m := sm.m
			return &m, nil
		}
	}
	return nil, nil
}

func (r *movementRepo) ListByItem(_ context.Context, item entity.StockItem, branchID string) ([]*entity.InventoryMovement, error) {
	defer r.v.read()()
	return r.collect(func(m *entity.InventoryMovement) bool {
		return m.Item == item && m.BranchID == branchID
	}, bySeq), nil
}

func (r *movementRepo) ListByOrigin(_ context.Context, originRef string, movementType entity.MovementType) ([]*entity.InventoryMovement, error) {
	defer r.v.read()()
	return r.collect(func(m *entity.InventoryMovement) bool {
		return m.OriginRef == originRef && m.Type == movementType
	}, bySeq), nil
}

func (r *movementRepo) List(_ context.Context, f repository.MovementFilter) ([]*entity.InventoryMovement, error) {
	defer r.v.read()()
	list := r.collect(func(m *entity.InventoryMovement) bool {
		if f.BranchID != "" && m.BranchID != f.BranchID {
			return false
		}
		if f.Type != "" && m.Type != f.Type {
			return false
		}
		if f.From != nil && m.Date.Before(*f.From) {
			return false
		}
		if f.To != nil && m.Date.After(*f.To) {
			return false
		}
		return true
	}, byDateDesc)
	return page(list, f.Limit, f.Offset), nil
}

// bySeq orden de registro, el mismo en que se aplicaron los saldos.
func bySeq(a, b storedMovement) bool { return a.seq < b.seq }

// byDateDesc más recientes primero; a igual fecha, el último registrado.
func byDateDesc(a, b storedMovement) bool {
	if !a.m.Date.Equal(b.m.Date) {
		return a.m.Date.After(b.m.Date)
	}
	return a.seq > b.seq
}

func (r *movementRepo) collect(match func(*entity.InventoryMovement) bool, less func(a, b storedMovement) bool) []*entity.InventoryMovement {
	all := r.all()
	sort.SliceStable(all, func(i, j int) bool { return less(all[i], all[j]) })
	var out []*entity.InventoryMovement
	for i := range all {
		m := all[i].m
		if match(&m) {
			out = append(out, &m)
		}
	}
	return out
}

// ── Contabilidad ────────────────────────────────────────────────────────────

type accountingRepo struct{ v *view }

func (r *accountingRepo) Create(_ context.Context, e *entity.AccountingEntry) error {
	defer r.v.write()()
	if r.v.tx != nil {
		r.v.tx.entries = append(r.v.tx.entries, *e)
		return nil
	}
	r.v.s.entries = append(r.v.s.entries, *e)
	return nil
}

func (r *accountingRepo) all() []entity.AccountingEntry {
	out := append([]entity.AccountingEntry(nil), r.v.s.entries...)
	if r.v.tx != nil {
		out = append(out, r.v.tx.entries...)
	}
	return out
}

func (r *accountingRepo) ListByOrigin(_ context.Context, originRef string) ([]*entity.AccountingEntry, error) {
	defer r.v.read()()
	var out []*entity.AccountingEntry
	for _, e := range r.all() {
		if e.OriginRef == originRef {
			e := e
			out = append(out, &e)
		}
	}
	return out, nil
}

func (r *accountingRepo) ListByBranchAndDateRange(_ context.Context, branchID string, from, to time.Time) ([]*entity.AccountingEntry, error) {
	defer r.v.read()()
	var out []*entity.AccountingEntry
	for _, e := range r.all() {
		if branchID != "" && e.BranchID != branchID {
			continue
		}
		if e.Date.Before(from) || e.Date.After(to) {
			continue
		}
		e := e
		out = append(out, &e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// ── Ventas ──────────────────────────────────────────────────────────────────

type saleRepo struct{ v *view }

func (r *saleRepo) Create(_ context.Context, sale *entity.Sale) error {
	defer r.v.write()()
	if r.find(sale.ID) != nil {
		return domain.ErrConflict
	}
	c := cloneSale(sale)
	if r.v.tx != nil {
		r.v.tx.sales = append(r.v.tx.sales, c)
		return nil
	}
	r.v.s.sales[c.ID] = c
	return nil
}

// find busca en confirmadas y pendientes, aplicando una anulación pendiente. Devuelve una copia.
func (r *saleRepo) find(id string) *entity.Sale {
	var found *entity.Sale
	if s, ok := r.v.s.sales[id]; ok {
		found = s
	}
	if r.v.tx != nil {
		for _, s := range r.v.tx.sales {
			if s.ID == id {
				found = s
			}
		}
	}
	if found == nil {
		return nil
	}
	out := cloneSale(found)
	if r.v.tx != nil {
		if a, ok := r.v.tx.annulments[id]; ok {
			at := a.at
			out.Status = entity.SaleStatusAnnulled
			out.AnnulReason = a.reason
			out.AnnulledAt = &at
		}
	}
	return out
}

func (r *saleRepo) GetByID(_ context.Context, id string) (*entity.Sale, error) {
	defer r.v.read()()
	return r.find(id), nil
}

// GetForUpdate dentro de Run el candado global ya serializa la unidad de trabajo.
func (r *saleRepo) GetForUpdate(ctx context.Context, id string) (*entity.Sale, error) {
	return r.GetByID(ctx, id)
}

func (r *saleRepo) MarkAnnulled(_ context.Context, id, reason string, at time.Time) (bool, error) {
	defer r.v.write()()
	current := r.find(id)
	if current == nil || current.Status != entity.SaleStatusCompleted {
		return false, nil
	}
	if r.v.tx != nil {
		r.v.tx.annulments[id] = annulment{reason: reason, at: at}
		return true, nil
	}
	s := r.v.s.sales[id]
	s.Status = entity.SaleStatusAnnulled
	s.AnnulReason = reason
	s.AnnulledAt = &at
	s.UpdatedAt = at
	return true, nil
}

func (r *saleRepo) ListPaged(_ context.Context, limit, offset int) ([]*entity.Sale, int, error) {
	defer r.v.read()()
	all := r.filter(func(*entity.Sale) bool { return true }, true)
	return page(all, limit, offset), len(all), nil
}

func (r *saleRepo) ListByBranch(_ context.Context, branchID string) ([]*entity.Sale, error) {
	defer r.v.read()()
	return r.filter(func(s *entity.Sale) bool { return s.BranchID == branchID }, true), nil
}

func (r *saleRepo) ListByDateRange(_ context.Context, from, to time.Time) ([]*entity.Sale, error) {
	defer r.v.read()()
	return r.filter(func(s *entity.Sale) bool {
		return !s.Date.Before(from) && !s.Date.After(to)
	}, false), nil
}

func (r *saleRepo) filter(match func(*entity.Sale) bool, desc bool) []*entity.Sale {
	ids := make(map[string]struct{}, len(r.v.s.sales))
	for id := range r.v.s.sales {
		ids[id] = struct{}{}
	}
	if r.v.tx != nil {
		for _, s := range r.v.tx.sales {
			ids[s.ID] = struct{}{}
		}
	}
	var out []*entity.Sale
	for id := range ids {
		if s := r.find(id); s != nil && match(s) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			if desc {
				return out[i].Date.After(out[j].Date)
			}
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func cloneSale(s *entity.Sale) *entity.Sale {
	c := *s
	c.Items = append([]entity.SaleItem(nil), s.Items...)
	if s.AnnulledAt != nil {
		at := *s.AnnulledAt
		c.AnnulledAt = &at
	}
	return &c
}

// ── Catálogo y referencias ──────────────────────────────────────────────────

type catalogRepo struct{ v *view }

func (r *catalogRepo) GetItem(_ context.Context, item entity.StockItem) (*entity.CatalogItem, error) {
	defer r.v.read()()
	c, ok := r.v.s.catalog[item.Key()]
	if !ok {
		return nil, nil
	}
	if r.v.tx != nil {
		if cost, ok := r.v.tx.costs[item.Key()]; ok {
			c.Cost = cost
		}
	}
	if c.UnitPrice != nil {
		p := *c.UnitPrice
		c.UnitPrice = &p
	}
	return &c, nil
}

// GetItemForUpdate dentro de Run el candado global ya serializa la unidad de trabajo.
func (r *catalogRepo) GetItemForUpdate(ctx context.Context, item entity.StockItem) (*entity.CatalogItem, error) {
	return r.GetItem(ctx, item)
}

func (r *catalogRepo) UpdateCost(_ context.Context, item entity.StockItem, cost decimal.Decimal) error {
	defer r.v.write()()
	c, ok := r.v.s.catalog[item.Key()]
	if !ok {
		return domain.NotFound("ítem", item.String())
	}
	if r.v.tx != nil {
		r.v.tx.costs[item.Key()] = cost
		return nil
	}
	c.Cost = cost
	r.v.s.catalog[item.Key()] = c
	return nil
}

type branchRepo struct{ v *view }

func (r *branchRepo) GetByID(_ context.Context, id string) (*entity.Branch, error) {
	defer r.v.read()()
	b, ok := r.v.s.branches[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

type customerRepo struct{ v *view }

func (r *customerRepo) GetByID(_ context.Context, id string) (*entity.Customer, error) {
	defer r.v.read()()
	c, ok := r.v.s.customers[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

type paymentMethodRepo struct{ v *view }

func (r *paymentMethodRepo) GetByID(_ context.Context, id string) (*entity.PaymentMethod, error) {
	defer r.v.read()()
	pm, ok := r.v.s.paymentMethods[id]
	if !ok {
		return nil, nil
	}
	return &pm, nil
}

func page[T any](list []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(list) {
		return nil
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}
