// Package accounting registra los asientos originados por ventas y anulaciones y expone
// los reportes de lectura sobre ellos.
package accounting

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/jhoicas/barberia-api/internal/domain"
	"github.com/jhoicas/barberia-api/internal/domain/entity"
	"github.com/jhoicas/barberia-api/internal/domain/repository"
)

// PostInput datos de un asiento.
type PostInput struct {
	SaleRef  string
	BranchID string
	Amount   decimal.Decimal
	Category string
	Date     time.Time
}

// Summary totales agregados de un rango de fechas.
type Summary struct {
	BranchID   string                     `json:"branch_id,omitempty"`
	From       time.Time                  `json:"from"`
	To         time.Time                  `json:"to"`
	ByCategory map[string]decimal.Decimal `json:"by_category"`
	Income     decimal.Decimal            `json:"income"`
	Reversals  decimal.Decimal            `json:"reversals"`
	Net        decimal.Decimal            `json:"net"`
	Entries    int                        `json:"entries"`
}

// Recorder escribe asientos (solo inserción) y calcula resúmenes.
type Recorder struct {
	repo  repository.AccountingEntryRepository
	cache *SummaryCache
	group singleflight.Group
}

// NewRecorder construye el recorder. cache puede ser nil.
func NewRecorder(repo repository.AccountingEntryRepository, cache *SummaryCache) *Recorder {
	return &Recorder{repo: repo, cache: cache}
}

// Post agrega un asiento y devuelve su ID.
func (r *Recorder) Post(ctx context.Context, in PostInput) (string, error) {
	if in.SaleRef == "" || in.BranchID == "" || in.Category == "" {
		return "", domain.ErrInvalidInput
	}
	now := time.Now()
	date := in.Date
	if date.IsZero() {
		date = now
	}
	entry := &entity.AccountingEntry{
		ID:        uuid.New().String(),
		BranchID:  in.BranchID,
		OriginRef: in.SaleRef,
		Amount:    in.Amount,
		Category:  in.Category,
		Date:      date,
		CreatedAt: now,
	}
	if err := r.repo.Create(ctx, entry); err != nil {
		return "", err
	}
	return entry.ID, nil
}

// ListByBranchAndDateRange asientos de una sucursal (vacío = todas) en [from, to].
func (r *Recorder) ListByBranchAndDateRange(ctx context.Context, branchID string, from, to time.Time) ([]*entity.AccountingEntry, error) {
	if err := validateRange(from, to); err != nil {
		return nil, err
	}
	return r.repo.ListByBranchAndDateRange(ctx, branchID, from, to)
}

// ListByOrigin asientos originados por una venta.
func (r *Recorder) ListByOrigin(ctx context.Context, saleRef string) ([]*entity.AccountingEntry, error) {
	if saleRef == "" {
		return nil, domain.ErrInvalidInput
	}
	return r.repo.ListByOrigin(ctx, saleRef)
}

// SummaryByDateRange agrega los asientos del rango. Usa el caché versionado cuando está configurado.
func (r *Recorder) SummaryByDateRange(ctx context.Context, branchID string, from, to time.Time) (Summary, error) {
	if err := validateRange(from, to); err != nil {
		return Summary{}, err
	}
	key, err := r.cache.BuildKey(ctx, summaryKey(branchID, from, to))
	if err != nil {
		return Summary{}, err
	}
	v, err, _ := r.group.Do(key, func() (interface{}, error) {
		var out Summary
		err := r.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (interface{}, error) {
			entries, err := r.repo.ListByBranchAndDateRange(ctx, branchID, from, to)
			if err != nil {
				return nil, err
			}
			return Summarize(branchID, from, to, entries), nil
		})
		return out, err
	})
	if err != nil {
		return Summary{}, err
	}
	return v.(Summary), nil
}

// Invalidate descarta los resúmenes cacheados. Se llama después de cada commit que escribe asientos.
func (r *Recorder) Invalidate(ctx context.Context) error {
	return r.cache.Bump(ctx)
}

// Summarize agrega entradas ya cargadas. Montos positivos suman a Income y negativos a Reversals.
func Summarize(branchID string, from, to time.Time, entries []*entity.AccountingEntry) Summary {
	s := Summary{
		BranchID:   branchID,
		From:       from,
		To:         to,
		ByCategory: make(map[string]decimal.Decimal),
		Income:     decimal.Zero,
		Reversals:  decimal.Zero,
		Net:        decimal.Zero,
	}
	for _, e := range entries {
		s.ByCategory[e.Category] = s.ByCategory[e.Category].Add(e.Amount)
		if e.Amount.IsNegative() {
			s.Reversals = s.Reversals.Add(e.Amount)
		} else {
			s.Income = s.Income.Add(e.Amount)
		}
		s.Net = s.Net.Add(e.Amount)
		s.Entries++
	}
	return s
}

// Categories devuelve las categorías del resumen en orden alfabético.
func (s Summary) Categories() []string {
	out := make([]string, 0, len(s.ByCategory))
	for c := range s.ByCategory {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func validateRange(from, to time.Time) error {
	if from.IsZero() || to.IsZero() || to.Before(from) {
		return fmt.Errorf("%w: rango de fechas", domain.ErrInvalidInput)
	}
	return nil
}

func summaryKey(branchID string, from, to time.Time) string {
	if branchID == "" {
		branchID = "all"
	}
	return fmt.Sprintf("accounting:summary:%s:%s:%s", branchID, from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339))
}
