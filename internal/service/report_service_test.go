package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finovate/healthcheck-go/internal/cache"
	"github.com/finovate/healthcheck-go/internal/cin7"
	"github.com/finovate/healthcheck-go/internal/domain"
	"github.com/finovate/healthcheck-go/internal/report"
)

// stubSource serves canned records and counts calls. Errors can be injected
// per endpoint.
type stubSource struct {
	mu    sync.Mutex
	calls map[string]int
	errs  map[string]error
	data  map[string][]domain.Record
}

func newStubSource() *stubSource {
	return &stubSource{
		calls: make(map[string]int),
		errs:  make(map[string]error),
		data: map[string][]domain.Record{
			"sales": {
				{"OrderNumber": "SO-1", "Status": "ORDERED", "OrderDate": "2024-02-10", "OrderStatus": "AUTHORISED", "CombinedFulfilmentStatus": "NOT FULFILLED"},
			},
			"purchases": {
				{"OrderNumber": "PO-1", "Status": "ORDERED", "OrderStatus": "AUTHORISED", "OrderDate": "2024-01-15", "CombinedInvoiceStatus": "NOT INVOICED", "CombinedReceivingStatus": "RECEIVED"},
			},
			"availability": {
				{"SKU": "A", "Name": "Alpha", "Location": "Main", "OnHand": -2.0, "Available": -2.0},
			},
			"products": {
				{"SKU": "A", "Name": "Alpha", "Sellable": true, "AverageCost": 3.0, "Barcode": "123", "PriceTier1": 9.0},
			},
		},
	}
}

func (s *stubSource) record(name string) []domain.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[name]++
	return s.data[name]
}

func (s *stubSource) err(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errs[name]
}

func (s *stubSource) callCount(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[name]
}

func (s *stubSource) AccountName() string { return "acme" }

func (s *stubSource) SaleList(ctx context.Context) ([]domain.Record, error) {
	return s.record("sales"), s.err("sales")
}
func (s *stubSource) PurchaseList(ctx context.Context) ([]domain.Record, error) {
	return s.record("purchases"), s.err("purchases")
}
func (s *stubSource) StockAdjustments(ctx context.Context) ([]domain.Record, error) {
	return s.record("adjustments"), s.err("adjustments")
}
func (s *stubSource) StockAdjustmentDetail(ctx context.Context, taskID string) (domain.Record, error) {
	s.record("adjustment_detail")
	return domain.Record{"TaskID": taskID}, nil
}
func (s *stubSource) StockTakes(ctx context.Context) ([]domain.Record, error) {
	return s.record("stocktakes"), s.err("stocktakes")
}
func (s *stubSource) StockTakeDetail(ctx context.Context, taskID string) (domain.Record, error) {
	s.record("stocktake_detail")
	return domain.Record{"TaskID": taskID}, nil
}
func (s *stubSource) StockTransfers(ctx context.Context, status string) ([]domain.Record, error) {
	return s.record("transfers"), s.err("transfers")
}
func (s *stubSource) FinishedGoods(ctx context.Context, status string) ([]domain.Record, error) {
	return s.record("assemblies"), s.err("assemblies")
}
func (s *stubSource) ProductionOrders(ctx context.Context, status string) ([]domain.Record, error) {
	return s.record("production"), s.err("production")
}
func (s *stubSource) Products(ctx context.Context) ([]domain.Record, error) {
	return s.record("products"), s.err("products")
}
func (s *stubSource) ProductAvailability(ctx context.Context) ([]domain.Record, error) {
	return s.record("availability"), s.err("availability")
}
func (s *stubSource) Customers(ctx context.Context) ([]domain.Record, error) {
	return s.record("customers"), s.err("customers")
}
func (s *stubSource) Suppliers(ctx context.Context) ([]domain.Record, error) {
	return s.record("suppliers"), s.err("suppliers")
}
func (s *stubSource) SaleCreditNotes(ctx context.Context) ([]domain.Record, error) {
	return s.record("sale_credit_notes"), s.err("sale_credit_notes")
}
func (s *stubSource) PurchaseCreditNotes(ctx context.Context) ([]domain.Record, error) {
	return s.record("purchase_credit_notes"), s.err("purchase_credit_notes")
}

type fakeCache struct {
	mu    sync.Mutex
	store map[string]*report.Report
	sets  int
}

func newFakeCache() *fakeCache {
	return &fakeCache{store: make(map[string]*report.Report)}
}

func (c *fakeCache) key(k cache.ReportKey) string {
	return fmt.Sprintf("%s|%d|%d|%s|%s",
		k.Client, k.Year, k.Month, strings.Join(k.Sections, ","), k.SyncDigest)
}

func (c *fakeCache) Get(ctx context.Context, k cache.ReportKey) (*report.Report, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rpt, ok := c.store[c.key(k)]
	return rpt, ok, nil
}

func (c *fakeCache) Set(ctx context.Context, k cache.ReportKey, rpt *report.Report) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[c.key(k)] = rpt
	c.sets++
	return nil
}

func (c *fakeCache) InvalidateAll(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store = make(map[string]*report.Report)
	return nil
}

func testService(src *stubSource, cacheImpl cache.ReportCache) *ReportService {
	svc := NewReportService(func(name string) (DataSource, error) {
		if name != "" && name != "acme" {
			return nil, ErrUnknownClient
		}
		return src, nil
	}, cacheImpl)
	svc.now = func() time.Time {
		return time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	}
	return svc
}

func TestGenerateBuildsRequestedSections(t *testing.T) {
	src := newStubSource()
	svc := testService(src, nil)

	rpt, err := svc.Generate(context.Background(), GenerateOptions{
		Client:   "acme",
		Year:     2024,
		Month:    2,
		Sections: []string{SectionSales, SectionStockAvailability},
	})
	require.NoError(t, err)

	require.NotNil(t, rpt.Sales)
	require.NotNil(t, rpt.StockAvailability)
	assert.Nil(t, rpt.Purchases)
	assert.Nil(t, rpt.CreditNotes)

	assert.Equal(t, "acme", rpt.Client)
	assert.True(t, rpt.Summary.HasNegativeStock)
	assert.Equal(t, 0, src.callCount("customers"))
}

func TestGenerateInvalidPeriodFailsFast(t *testing.T) {
	src := newStubSource()
	svc := testService(src, nil)

	_, err := svc.Generate(context.Background(), GenerateOptions{Client: "acme", Year: 2024, Month: 13})
	require.ErrorIs(t, err, domain.ErrInvalidPeriod)
	assert.Equal(t, 0, src.callCount("sales"))
}

func TestGenerateUnknownSection(t *testing.T) {
	svc := testService(newStubSource(), nil)

	_, err := svc.Generate(context.Background(), GenerateOptions{
		Client: "acme", Year: 2024, Month: 2, Sections: []string{"profits"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "profits")
}

func TestGenerateUnknownClient(t *testing.T) {
	svc := testService(newStubSource(), nil)

	_, err := svc.Generate(context.Background(), GenerateOptions{Client: "nobody", Year: 2024, Month: 2})
	require.ErrorIs(t, err, ErrUnknownClient)
}

func TestGenerateSectionFailureIsRecorded(t *testing.T) {
	src := newStubSource()
	src.errs["sale_credit_notes"] = &cin7.APIError{StatusCode: http.StatusInternalServerError, Endpoint: "/saleCreditNoteList", Message: "boom"}
	svc := testService(src, nil)

	rpt, err := svc.Generate(context.Background(), GenerateOptions{
		Client: "acme", Year: 2024, Month: 2,
		Sections: []string{SectionSales, SectionCreditNotes},
	})
	require.NoError(t, err)

	require.NotNil(t, rpt.Sales)
	assert.Nil(t, rpt.CreditNotes)
	require.Contains(t, rpt.Errors, SectionCreditNotes)
	assert.Contains(t, rpt.Errors[SectionCreditNotes], "boom")
}

func TestGenerateAuthFailureAborts(t *testing.T) {
	src := newStubSource()
	src.errs["sales"] = &cin7.APIError{StatusCode: http.StatusUnauthorized, Endpoint: "/saleList", Message: "bad key"}
	svc := testService(src, nil)

	_, err := svc.Generate(context.Background(), GenerateOptions{
		Client: "acme", Year: 2024, Month: 2, Sections: []string{SectionSales},
	})
	require.Error(t, err)

	var apiErr *cin7.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestGenerateServesFromCache(t *testing.T) {
	src := newStubSource()
	cacheImpl := newFakeCache()
	svc := testService(src, cacheImpl)

	opts := GenerateOptions{Client: "acme", Year: 2024, Month: 2, Sections: []string{SectionSales}}

	first, err := svc.Generate(context.Background(), opts)
	require.NoError(t, err)
	require.Equal(t, 1, src.callCount("sales"))
	require.Equal(t, 1, cacheImpl.sets)

	second, err := svc.Generate(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 1, src.callCount("sales"))
	assert.Equal(t, first.Summary, second.Summary)
}

func TestGenerateDistinctSyncUploadsAreNotShared(t *testing.T) {
	src := newStubSource()
	cacheImpl := newFakeCache()
	svc := testService(src, cacheImpl)

	opts := GenerateOptions{
		Client: "acme", Year: 2024, Month: 2,
		Sections: []string{SectionSales},
		SyncRows: []domain.Record{
			{"Status": "Failed", "Type": "Sale", "Document": "SO-1"},
			{"Status": "Failed", "Type": "Sale", "Document": "SO-2"},
		},
	}
	first, err := svc.Generate(context.Background(), opts)
	require.NoError(t, err)
	require.Equal(t, 2, first.SyncErrors.Summary.FailedCount)

	opts.SyncRows = []domain.Record{
		{"Status": "Pending", "Type": "Sale", "Document": "SO-3"},
	}
	second, err := svc.Generate(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 0, second.SyncErrors.Summary.FailedCount)
	assert.Equal(t, 2, cacheImpl.sets)

	// The same upload again is still a cache hit.
	third, err := svc.Generate(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, second.SyncErrors.Summary, third.SyncErrors.Summary)
	assert.Equal(t, 2, cacheImpl.sets)
}

func TestGenerateSyncRowsAddSection(t *testing.T) {
	src := newStubSource()
	svc := testService(src, nil)

	rpt, err := svc.Generate(context.Background(), GenerateOptions{
		Client: "acme", Year: 2024, Month: 2,
		Sections: []string{SectionSales},
		SyncRows: []domain.Record{
			{"Status": "Failed", "Type": "Sale", "Document": "SO-9"},
		},
	})
	require.NoError(t, err)

	require.NotNil(t, rpt.SyncErrors)
	assert.Equal(t, 1, rpt.SyncErrors.Summary.FailedCount)
	assert.True(t, rpt.Summary.HasAnomalies)
}

func TestNormalizeSectionsDeduplicates(t *testing.T) {
	sections, err := normalizeSections([]string{" Sales ", "sales", "PURCHASES"}, false)
	require.NoError(t, err)
	assert.Equal(t, []string{SectionPurchases, SectionSales}, sections)
}

func TestFetchStatusesStopsOnError(t *testing.T) {
	calls := 0
	_, err := fetchStatuses(context.Background(), func(ctx context.Context, status string) ([]domain.Record, error) {
		calls++
		if status == "IN TRANSIT" {
			return nil, errors.New("nope")
		}
		return []domain.Record{{"Status": status}}, nil
	}, "DRAFT", "IN TRANSIT", "COMPLETED")
	require.Error(t, err)
	assert.Equal(t, 2, calls)
}
