package report

import (
	"time"

	"github.com/finovate/healthcheck-go/internal/domain"
)

// recordCap limits how many full records an anomaly bucket carries for
// display. Bucket counts always reflect the true total.
const recordCap = 10

// Options tells the aggregation pass which keys to read for a domain.
type Options struct {
	// StatusKeys is the fallback chain for the primary status field that
	// status_counts and oldest_by_status group on.
	StatusKeys []string
	// DateKeys is the fallback chain for the record date used by the
	// activity filter and oldest calculations.
	DateKeys []string
	// RefKeys is the fallback chain for the external record identity
	// (OrderNumber, TaskID).
	RefKeys []string
	// PartyKeys names the counterparty field surfaced in oldest summaries.
	PartyKeys []string
	// Now anchors age calculations; zero means the current time.
	Now time.Time
}

// Oldest summarizes the minimum-dated record of a bucket.
type Oldest struct {
	Ref     string `json:"ref"`
	Party   string `json:"party,omitempty"`
	Date    string `json:"date"`
	AgeDays int    `json:"age_days"`
}

// AnomalyBucket is one anomaly category's result: the exact match count, the
// oldest matching record, and at most recordCap full records for drill-down.
type AnomalyBucket struct {
	Name    string          `json:"name"`
	Count   int             `json:"count"`
	Oldest  *Oldest         `json:"oldest,omitempty"`
	Records []domain.Record `json:"records"`
}

// DomainSummary carries the roll-up flags for one domain section.
type DomainSummary struct {
	Total          int  `json:"total"`
	UniqueStatuses int  `json:"unique_statuses"`
	HasAnomalies   bool `json:"has_anomalies"`
}

// DomainMetrics is the aggregated output for one transactional domain.
type DomainMetrics struct {
	StatusCounts   map[string]int           `json:"status_counts"`
	BucketCounts   map[string]int           `json:"bucket_counts,omitempty"`
	OldestByStatus map[string]Oldest        `json:"oldest_by_status"`
	Anomalies      map[string]AnomalyBucket `json:"anomalies,omitempty"`
	Summary        DomainSummary            `json:"summary"`
}

// Active reports whether a record participates in any bucket: not in a
// terminal status, and not older than the activity cutoff. Records without a
// parseable date pass the date test so that standing inconsistencies on
// undated records still surface.
func Active(r domain.Record, p domain.Period, dateKeys []string) bool {
	if domain.IsTerminalStatus(r.Str("Status")) {
		return false
	}
	if d, ok := r.Date(dateKeys...); ok && d.Before(p.ActivityCutoff) {
		return false
	}
	return true
}

// Aggregate runs one full classification pass over a domain's records.
// It is a pure function of its inputs: counts are re-derived from scratch
// every run, never carried over.
func Aggregate(records []domain.Record, p domain.Period, statusRules, anomalyRules []Rule, opts Options) DomainMetrics {
	now := opts.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	metrics := DomainMetrics{
		StatusCounts:   make(map[string]int),
		OldestByStatus: make(map[string]Oldest),
	}

	active := make([]domain.Record, 0, len(records))
	for _, r := range records {
		if Active(r, p, opts.DateKeys) {
			active = append(active, r)
		}
	}

	byStatus := make(map[string][]domain.Record)
	for _, r := range active {
		status := r.Str(opts.StatusKeys...)
		if status == "" {
			status = "UNKNOWN"
		}
		byStatus[status] = append(byStatus[status], r)
	}
	for status, group := range byStatus {
		metrics.StatusCounts[status] = len(group)
		if oldest := oldestOf(group, opts, now); oldest != nil {
			metrics.OldestByStatus[status] = *oldest
		}
	}

	if len(statusRules) > 0 {
		metrics.BucketCounts = make(map[string]int, len(statusRules))
		for _, rule := range statusRules {
			count := 0
			for _, r := range active {
				if rule.Match(r, p) {
					count++
				}
			}
			metrics.BucketCounts[rule.Name] = count
		}
	}

	hasAnomalies := false
	if len(anomalyRules) > 0 {
		metrics.Anomalies = make(map[string]AnomalyBucket, len(anomalyRules))
		for _, rule := range anomalyRules {
			var matched []domain.Record
			for _, r := range active {
				if rule.Match(r, p) {
					matched = append(matched, r)
				}
			}

			bucket := AnomalyBucket{
				Name:    rule.Name,
				Count:   len(matched),
				Oldest:  oldestOf(matched, opts, now),
				Records: capRecords(matched),
			}
			metrics.Anomalies[rule.Name] = bucket
			if bucket.Count > 0 {
				hasAnomalies = true
			}
		}
	}

	metrics.Summary = DomainSummary{
		Total:          len(active),
		UniqueStatuses: len(byStatus),
		HasAnomalies:   hasAnomalies,
	}

	return metrics
}

// oldestOf finds the minimum-dated record. Ties keep the first record
// encountered; records without a parseable date are skipped.
func oldestOf(records []domain.Record, opts Options, now time.Time) *Oldest {
	var (
		found    bool
		minDate  time.Time
		minIndex int
	)
	for i, r := range records {
		d, ok := r.Date(opts.DateKeys...)
		if !ok {
			continue
		}
		if !found || d.Before(minDate) {
			found = true
			minDate = d
			minIndex = i
		}
	}
	if !found {
		return nil
	}

	r := records[minIndex]
	age := int(now.Sub(minDate).Hours() / 24)
	if age < 0 {
		age = 0
	}
	return &Oldest{
		Ref:     r.Str(opts.RefKeys...),
		Party:   r.Str(opts.PartyKeys...),
		Date:    minDate.Format("2006-01-02"),
		AgeDays: age,
	}
}

func capRecords(records []domain.Record) []domain.Record {
	if len(records) > recordCap {
		return records[:recordCap]
	}
	return records
}

// AggregateSales classifies a full sale order pull.
func AggregateSales(sales []domain.Record, p domain.Period) DomainMetrics {
	return Aggregate(sales, p, SalesStatusRules(), SalesAnomalyRules(), Options{
		StatusKeys: []string{"Status"},
		DateKeys:   []string{"SaleOrderDate", "OrderDate"},
		RefKeys:    []string{"OrderNumber", "SaleOrderNumber"},
		PartyKeys:  []string{"Customer", "CustomerName"},
	})
}

// AggregatePurchases classifies a full purchase order pull.
func AggregatePurchases(purchases []domain.Record, p domain.Period) DomainMetrics {
	return Aggregate(purchases, p, PurchaseStatusRules(), PurchaseAnomalyRules(), Options{
		StatusKeys: []string{"OrderStatus"},
		DateKeys:   []string{"OrderDate"},
		RefKeys:    []string{"OrderNumber"},
		PartyKeys:  []string{"SupplierName", "Supplier"},
	})
}

// AggregateTransfers groups in-flight stock transfers by status.
func AggregateTransfers(transfers []domain.Record, p domain.Period) DomainMetrics {
	return Aggregate(transfers, p, nil, nil, Options{
		StatusKeys: []string{"Status"},
		DateKeys:   []string{"DepartureDate"},
		RefKeys:    []string{"TaskID"},
		PartyKeys:  []string{"To", "ToLocation"},
	})
}

// AggregateAssemblies groups open finished goods orders by status.
func AggregateAssemblies(assemblies []domain.Record, p domain.Period) DomainMetrics {
	return Aggregate(assemblies, p, nil, nil, Options{
		StatusKeys: []string{"Status"},
		DateKeys:   []string{"Date", "CreatedDate"},
		RefKeys:    []string{"OrderNumber", "TaskID"},
	})
}

// AggregateProduction groups open production orders by status.
func AggregateProduction(production []domain.Record, p domain.Period) DomainMetrics {
	return Aggregate(production, p, nil, nil, Options{
		StatusKeys: []string{"Status"},
		DateKeys:   []string{"Date", "CreatedDate"},
		RefKeys:    []string{"OrderNumber", "ID"},
	})
}
