package report

import (
	"github.com/finovate/healthcheck-go/internal/domain"
)

// CreditNoteSide is the sale or purchase half of the credit note section.
type CreditNoteSide struct {
	Count      int             `json:"count"`
	TotalValue float64         `json:"total_value"`
	Recent     []domain.Record `json:"recent"`
}

// CreditNoteMetrics is the aggregated credit note section.
type CreditNoteMetrics struct {
	Sales     CreditNoteSide `json:"sales"`
	Purchases CreditNoteSide `json:"purchases"`
}

// AggregateCreditNotes counts and totals credit notes for both sides,
// keeping the ten most recent of each for display. The API returns credit
// notes newest first, so the head of the list is the recent slice.
func AggregateCreditNotes(saleNotes, purchaseNotes []domain.Record) CreditNoteMetrics {
	return CreditNoteMetrics{
		Sales:     creditNoteSide(saleNotes),
		Purchases: creditNoteSide(purchaseNotes),
	}
}

func creditNoteSide(notes []domain.Record) CreditNoteSide {
	side := CreditNoteSide{
		Count:  len(notes),
		Recent: capRecords(notes),
	}
	for _, n := range notes {
		side.TotalValue += n.Float("Total")
	}
	return side
}
