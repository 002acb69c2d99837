package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finovate/healthcheck-go/internal/domain"
	"github.com/finovate/healthcheck-go/internal/report"
)

func sampleReport() *report.Report {
	return &report.Report{
		Client:      "acme",
		Year:        2024,
		Month:       2,
		GeneratedAt: time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC),
		Sales: &report.DomainMetrics{
			Anomalies: map[string]report.AnomalyBucket{
				"fulfilled_not_invoiced": {
					Name:  "fulfilled_not_invoiced",
					Count: 2,
					Oldest: &report.Oldest{
						Ref: "SO-0001", Date: "2024-01-10", AgeDays: 65,
					},
					Records: []domain.Record{
						{"OrderNumber": "SO-0001", "Customer": "Northwind", "Status": "ORDERED", "OrderDate": "2024-01-10T00:00:00"},
						{"OrderNumber": "SO-0002", "Customer": "Contoso", "Status": "ORDERED", "OrderDate": "2024-02-05"},
					},
				},
			},
		},
		DataHygiene: &report.HygieneMetrics{
			Products: report.ProductHygiene{
				NoBarcode: []report.HygieneIssue{{SKU: "SKU-1", Name: "Widget"}},
			},
			Customers: report.ContactHygiene{
				MissingEmail: []report.HygieneIssue{{Name: "Northwind"}},
			},
		},
	}
}

func TestBundleSelectsSections(t *testing.T) {
	files, err := Bundle(sampleReport())
	require.NoError(t, err)

	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Name)
	}

	assert.Contains(t, names, "report.json")
	assert.Contains(t, names, "sales_anomalies.csv")
	assert.Contains(t, names, "hygiene_issues.csv")
	assert.NotContains(t, names, "purchase_anomalies.csv")
	assert.NotContains(t, names, "negative_stock.csv")
}

func TestWriteAnomaliesRows(t *testing.T) {
	var buf bytes.Buffer
	err := WriteAnomalies(&buf, sampleReport().Sales,
		[]string{"OrderNumber"}, []string{"Customer"}, []string{"OrderDate"})
	require.NoError(t, err)

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "bucket", rows[0][0])
	assert.Equal(t, []string{
		"fulfilled_not_invoiced", "2", "SO-0001", "Northwind", "ORDERED",
		"2024-01-10", "SO-0001", "2024-01-10", "65",
	}, rows[1])
	assert.Equal(t, "SO-0002", rows[2][2])
}

func TestWriteHygieneRows(t *testing.T) {
	var buf bytes.Buffer
	err := WriteHygiene(&buf, sampleReport().DataHygiene)
	require.NoError(t, err)

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"product", "no_barcode", "SKU-1", "Widget"}, rows[1])
	assert.Equal(t, []string{"customer", "missing_email", "", "Northwind"}, rows[2])
}

func TestWriteMovementsTagsRanking(t *testing.T) {
	metrics := &report.AdjustmentMetrics{
		TopQtyIn: []report.MovementLine{
			{SKU: "A", Name: "Alpha", Location: "Main", Quantity: 5, UnitCost: 2, TotalCost: 10, Date: "2024-02-01"},
		},
		TopCostOut: []report.MovementLine{
			{SKU: "B", Name: "Beta", Location: "Main", Quantity: -3, UnitCost: 4, TotalCost: -12, Date: "2024-02-02"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteMovements(&buf, metrics))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "top_qty_in", rows[1][0])
	assert.Equal(t, "top_cost_out", rows[2][0])
	assert.Equal(t, "-12", rows[2][6])
}
