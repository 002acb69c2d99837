package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/finovate/healthcheck-go/internal/report"
)

func writeCSV(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteAnomalies renders anomaly buckets one row per sampled record,
// carrying the bucket name, count and oldest reference alongside the record
// identity, so the sheet stays useful after the buckets are split apart in
// a spreadsheet.
func WriteAnomalies(w io.Writer, m *report.DomainMetrics, refKeys, partyKeys, dateKeys []string) error {
	header := []string{"bucket", "bucket_count", "reference", "party", "status", "date", "oldest_ref", "oldest_date", "oldest_age_days"}

	names := make([]string, 0, len(m.Anomalies))
	for name := range m.Anomalies {
		names = append(names, name)
	}
	sort.Strings(names)

	var rows [][]string
	for _, name := range names {
		bucket := m.Anomalies[name]
		oldestRef, oldestDate, oldestAge := "", "", ""
		if bucket.Oldest != nil {
			oldestRef = bucket.Oldest.Ref
			oldestDate = bucket.Oldest.Date
			oldestAge = strconv.Itoa(bucket.Oldest.AgeDays)
		}
		for _, rec := range bucket.Records {
			date := ""
			if d, ok := rec.Date(dateKeys...); ok {
				date = d.Format("2006-01-02")
			}
			rows = append(rows, []string{
				name,
				strconv.Itoa(bucket.Count),
				rec.Str(refKeys...),
				rec.Str(partyKeys...),
				rec.Str("Status"),
				date,
				oldestRef,
				oldestDate,
				oldestAge,
			})
		}
	}

	return writeCSV(w, header, rows)
}

// WriteMovements renders the top adjustment movement lists, tagged with the
// list each line came from.
func WriteMovements(w io.Writer, m *report.AdjustmentMetrics) error {
	header := []string{"ranking", "sku", "name", "location", "quantity", "unit_cost", "total_cost", "date"}

	var rows [][]string
	appendLines := func(ranking string, lines []report.MovementLine) {
		for _, line := range lines {
			rows = append(rows, []string{
				ranking, line.SKU, line.Name, line.Location,
				num(line.Quantity), num(line.UnitCost), num(line.TotalCost), line.Date,
			})
		}
	}
	appendLines("top_qty_in", m.TopQtyIn)
	appendLines("top_qty_out", m.TopQtyOut)
	appendLines("top_cost_in", m.TopCostIn)
	appendLines("top_cost_out", m.TopCostOut)

	return writeCSV(w, header, rows)
}

// WriteDiscrepancies renders the largest stock take discrepancies.
func WriteDiscrepancies(w io.Writer, m *report.StockTakeMetrics) error {
	header := []string{"sku", "name", "location", "qty_on_hand", "adjustment", "unit_cost", "cost_impact", "date"}

	rows := make([][]string, 0, len(m.TopDiscrepancies))
	for _, d := range m.TopDiscrepancies {
		rows = append(rows, []string{
			d.SKU, d.Name, d.Location,
			num(d.QtyOnHand), num(d.Adjustment), num(d.UnitCost), num(d.CostImpact), d.Date,
		})
	}

	return writeCSV(w, header, rows)
}

// WriteNegativeStock renders every flagged negative stock line.
func WriteNegativeStock(w io.Writer, m *report.StockMetrics) error {
	header := []string{"sku", "name", "location", "on_hand", "available", "value"}

	rows := make([][]string, 0, len(m.NegativeStock))
	for _, item := range m.NegativeStock {
		rows = append(rows, []string{
			item.SKU, item.Name, item.Location,
			num(item.OnHand), num(item.Available), num(item.Value),
		})
	}

	return writeCSV(w, header, rows)
}

// WriteHygiene renders data hygiene findings one row per issue.
func WriteHygiene(w io.Writer, m *report.HygieneMetrics) error {
	header := []string{"entity", "issue", "sku", "name"}

	var rows [][]string
	appendIssues := func(entity, issue string, issues []report.HygieneIssue) {
		for _, i := range issues {
			rows = append(rows, []string{entity, issue, i.SKU, i.Name})
		}
	}
	appendIssues("product", "no_price", m.Products.NoPrice)
	appendIssues("product", "no_barcode", m.Products.NoBarcode)
	appendIssues("customer", "missing_email", m.Customers.MissingEmail)
	appendIssues("customer", "missing_phone", m.Customers.MissingPhone)
	appendIssues("customer", "missing_payment_term", m.Customers.MissingPaymentTerm)
	appendIssues("customer", "credit_hold", m.Customers.CreditHold)
	appendIssues("supplier", "missing_email", m.Suppliers.MissingEmail)
	appendIssues("supplier", "missing_phone", m.Suppliers.MissingPhone)
	appendIssues("supplier", "missing_payment_term", m.Suppliers.MissingPaymentTerm)

	return writeCSV(w, header, rows)
}

// WriteSyncErrors renders the recent rows of the sync error workbook along
// with the status breakdown.
func WriteSyncErrors(w io.Writer, m *report.SyncErrorMetrics) error {
	header := []string{"status", "type", "document"}

	rows := make([][]string, 0, len(m.RecentErrors))
	for _, rec := range m.RecentErrors {
		rows = append(rows, []string{
			rec.Str("Status"),
			rec.Str("Type"),
			rec.Str("Document", "DocumentNumber", "Reference"),
		})
	}

	return writeCSV(w, header, rows)
}
