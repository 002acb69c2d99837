package report

import (
	"time"
)

// Report is the unified output of one report run. Every section is optional:
// a section the caller did not request, or whose fetch failed, stays nil and
// is simply omitted downstream. Errors records the per-section fetch error
// messages for failed sections.
type Report struct {
	Client      string    `json:"client"`
	Year        int       `json:"year"`
	Month       int       `json:"month"`
	GeneratedAt time.Time `json:"generated_at"`

	Sales             *DomainMetrics     `json:"sales,omitempty"`
	Purchases         *DomainMetrics     `json:"purchases,omitempty"`
	StockAdjustments  *AdjustmentMetrics `json:"stock_adjustments,omitempty"`
	StockTakes        *StockTakeMetrics  `json:"stock_takes,omitempty"`
	Transfers         *DomainMetrics     `json:"transfers,omitempty"`
	Assemblies        *DomainMetrics     `json:"assemblies,omitempty"`
	Production        *DomainMetrics     `json:"production,omitempty"`
	StockAvailability *StockMetrics      `json:"stock_availability,omitempty"`
	DataHygiene       *HygieneMetrics    `json:"data_hygiene,omitempty"`
	CreditNotes       *CreditNoteMetrics `json:"credit_notes,omitempty"`
	SyncErrors        *SyncErrorMetrics  `json:"sync_errors,omitempty"`

	Errors map[string]string `json:"errors,omitempty"`

	Summary ReportSummary `json:"summary"`
}

// ReportSummary carries the cross-section roll-up flags.
type ReportSummary struct {
	HasAnomalies     bool `json:"has_anomalies"`
	HasNegativeStock bool `json:"has_negative_stock"`
	TotalIssues      int  `json:"total_issues"`
}

// Finalize recomputes the summary flags from whichever sections are present.
// Call it once after all sections have been populated.
func (r *Report) Finalize() {
	var s ReportSummary

	for _, dm := range []*DomainMetrics{r.Sales, r.Purchases} {
		if dm == nil {
			continue
		}
		if dm.Summary.HasAnomalies {
			s.HasAnomalies = true
		}
		for _, bucket := range dm.Anomalies {
			s.TotalIssues += bucket.Count
		}
	}

	if r.StockAvailability != nil {
		if r.StockAvailability.Summary.HasNegativeStock {
			s.HasNegativeStock = true
			s.HasAnomalies = true
		}
		s.TotalIssues += r.StockAvailability.Summary.TotalNegativeItems
	}

	if r.DataHygiene != nil {
		s.TotalIssues += r.DataHygiene.Summary.TotalIssues
	}

	if r.SyncErrors != nil {
		if r.SyncErrors.Summary.HasCriticalErrors {
			s.HasAnomalies = true
		}
		s.TotalIssues += r.SyncErrors.Summary.FailedCount
	}

	r.Summary = s
}

// FailSection records a per-section fetch error, leaving the section absent.
func (r *Report) FailSection(section string, err error) {
	if r.Errors == nil {
		r.Errors = make(map[string]string)
	}
	r.Errors[section] = err.Error()
}
