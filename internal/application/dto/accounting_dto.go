package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/barberia-api/internal/domain/entity"
)

// AccountingEntryResponse asiento contable.
type AccountingEntryResponse struct {
	ID        string          `json:"id"`
	BranchID  string          `json:"branch_id"`
	OriginRef string          `json:"origin_ref"`
	Amount    decimal.Decimal `json:"amount"`
	Category  string          `json:"category"`
	Date      time.Time       `json:"date"`
}

// AccountingSummaryResponse resumen por rango de fechas.
type AccountingSummaryResponse struct {
	BranchID   string                     `json:"branch_id,omitempty"`
	From       time.Time                  `json:"from"`
	To         time.Time                  `json:"to"`
	ByCategory map[string]decimal.Decimal `json:"by_category"`
	Income     decimal.Decimal            `json:"income"`
	Reversals  decimal.Decimal            `json:"reversals"`
	Net        decimal.Decimal            `json:"net"`
	Entries    int                        `json:"entries"`
}

// NewAccountingEntryResponses mapea una lista.
func NewAccountingEntryResponses(list []*entity.AccountingEntry) []AccountingEntryResponse {
	out := make([]AccountingEntryResponse, 0, len(list))
	for _, e := range list {
		out = append(out, AccountingEntryResponse{
			ID:        e.ID,
			BranchID:  e.BranchID,
			OriginRef: e.OriginRef,
			Amount:    e.Amount,
			Category:  e.Category,
			Date:      e.Date,
		})
	}
	return out
}
