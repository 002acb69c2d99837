package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/finovate/healthcheck-go/internal/cache"
	"github.com/finovate/healthcheck-go/internal/cin7"
	"github.com/finovate/healthcheck-go/internal/domain"
	"github.com/finovate/healthcheck-go/internal/report"
)

// Report section names, as accepted in requests and used as keys in the
// report's error map.
const (
	SectionSales             = "sales"
	SectionPurchases         = "purchases"
	SectionStockAdjustments  = "stock_adjustments"
	SectionStockTakes        = "stock_takes"
	SectionTransfers         = "transfers"
	SectionAssemblies        = "assemblies"
	SectionProduction        = "production"
	SectionStockAvailability = "stock_availability"
	SectionDataHygiene       = "data_hygiene"
	SectionCreditNotes       = "credit_notes"
	SectionSyncErrors        = "sync_errors"
)

// fetchConcurrency bounds how many section fetchers run at once. The API
// client's rate limiter serializes the actual requests, so this only caps
// in-flight goroutines.
const fetchConcurrency = 4

var (
	ErrUnknownClient  = errors.New("unknown client")
	ErrUnknownSection = errors.New("unknown section")
)

// DataSource is the slice of the API client the report run needs. It exists
// so section fetchers can be tested against a stub.
type DataSource interface {
	AccountName() string
	SaleList(ctx context.Context) ([]domain.Record, error)
	PurchaseList(ctx context.Context) ([]domain.Record, error)
	StockAdjustments(ctx context.Context) ([]domain.Record, error)
	StockAdjustmentDetail(ctx context.Context, taskID string) (domain.Record, error)
	StockTakes(ctx context.Context) ([]domain.Record, error)
	StockTakeDetail(ctx context.Context, taskID string) (domain.Record, error)
	StockTransfers(ctx context.Context, status string) ([]domain.Record, error)
	FinishedGoods(ctx context.Context, status string) ([]domain.Record, error)
	ProductionOrders(ctx context.Context, status string) ([]domain.Record, error)
	Products(ctx context.Context) ([]domain.Record, error)
	ProductAvailability(ctx context.Context) ([]domain.Record, error)
	Customers(ctx context.Context) ([]domain.Record, error)
	Suppliers(ctx context.Context) ([]domain.Record, error)
	SaleCreditNotes(ctx context.Context) ([]domain.Record, error)
	PurchaseCreditNotes(ctx context.Context) ([]domain.Record, error)
}

// ClientResolver maps a tenant name to its API client.
type ClientResolver func(name string) (DataSource, error)

// GenerateOptions selects what one report run covers.
type GenerateOptions struct {
	Client   string
	Year     int
	Month    int
	Sections []string
	// SyncRows carries rows read from an uploaded sync error workbook.
	// The sync_errors section is only built when they are present.
	SyncRows []domain.Record
}

type ReportService struct {
	resolve ClientResolver
	cache   cache.ReportCache
	now     func() time.Time
}

func NewReportService(resolve ClientResolver, cacheImpl cache.ReportCache) *ReportService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopReportCache()
	}
	return &ReportService{
		resolve: resolve,
		cache:   cacheImpl,
		now:     time.Now,
	}
}

// DefaultSections lists every section that can be built from the API alone.
// sync_errors is excluded: it needs an uploaded workbook.
func DefaultSections() []string {
	return []string{
		SectionSales, SectionPurchases, SectionStockAdjustments,
		SectionStockTakes, SectionTransfers, SectionAssemblies,
		SectionProduction, SectionStockAvailability, SectionDataHygiene,
		SectionCreditNotes,
	}
}

// Generate runs one report: validates the period, pulls every requested
// section concurrently, and aggregates. A section that fails is recorded in
// the report's error map instead of failing the run; only an invalid
// period, bad credentials, or a canceled context abort entirely.
func (s *ReportService) Generate(ctx context.Context, opts GenerateOptions) (*report.Report, error) {
	period, err := domain.NewPeriodAt(opts.Year, opts.Month, s.now().UTC())
	if err != nil {
		return nil, err
	}

	sections, err := normalizeSections(opts.Sections, opts.SyncRows != nil)
	if err != nil {
		return nil, err
	}

	src, err := s.resolve(opts.Client)
	if err != nil {
		return nil, err
	}

	key := cache.ReportKey{
		Client:     src.AccountName(),
		Year:       opts.Year,
		Month:      opts.Month,
		Sections:   sections,
		SyncDigest: cache.SyncRowsDigest(opts.SyncRows),
	}
	if cached, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		log.Debug().Str("client", key.Client).Int("year", key.Year).Int("month", key.Month).Msg("report served from cache")
		return cached, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("report cache get failed")
	}

	rpt := &report.Report{
		Client:      src.AccountName(),
		Year:        opts.Year,
		Month:       opts.Month,
		GeneratedAt: s.now().UTC(),
	}

	run := &reportRun{src: src, period: period, rpt: rpt}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for _, section := range sections {
		build, ok := run.builder(section, opts.SyncRows)
		if !ok {
			continue
		}
		section := section
		g.Go(func() error {
			start := time.Now()
			if err := build(gctx); err != nil {
				if isFatal(err) {
					return fmt.Errorf("%s: %w", section, err)
				}
				log.Warn().Err(err).Str("section", section).Msg("report section failed")
				run.fail(section, err)
				return nil
			}
			log.Debug().Str("section", section).Dur("took", time.Since(start)).Msg("report section built")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rpt.Finalize()

	if err := s.cache.Set(ctx, key, rpt); err != nil {
		log.Warn().Err(err).Msg("report cache set failed")
	}

	return rpt, nil
}

// isFatal reports whether a section error should abort the whole run.
// Credential rejections will fail every section identically, and a canceled
// context means nobody is waiting for the answer.
func isFatal(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var apiErr *cin7.APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
	}
	return false
}

func normalizeSections(requested []string, haveSyncRows bool) ([]string, error) {
	known := make(map[string]bool)
	for _, s := range DefaultSections() {
		known[s] = true
	}
	known[SectionSyncErrors] = true

	var sections []string
	if len(requested) == 0 {
		sections = DefaultSections()
	} else {
		seen := make(map[string]bool)
		for _, raw := range requested {
			name := strings.ToLower(strings.TrimSpace(raw))
			if name == "" {
				continue
			}
			if !known[name] {
				return nil, fmt.Errorf("%w %q", ErrUnknownSection, raw)
			}
			if !seen[name] {
				seen[name] = true
				sections = append(sections, name)
			}
		}
		if len(sections) == 0 {
			sections = DefaultSections()
		}
	}

	if haveSyncRows {
		found := false
		for _, s := range sections {
			if s == SectionSyncErrors {
				found = true
				break
			}
		}
		if !found {
			sections = append(sections, SectionSyncErrors)
		}
	}

	sort.Strings(sections)
	return sections, nil
}

// reportRun carries the shared state of one Generate call. Section builders
// run concurrently; the mutex guards writes into the report.
type reportRun struct {
	src    DataSource
	period domain.Period

	mu  sync.Mutex
	rpt *report.Report
}

func (r *reportRun) fail(section string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rpt.FailSection(section, err)
}

func (r *reportRun) builder(section string, syncRows []domain.Record) (func(context.Context) error, bool) {
	switch section {
	case SectionSales:
		return r.buildSales, true
	case SectionPurchases:
		return r.buildPurchases, true
	case SectionStockAdjustments:
		return r.buildAdjustments, true
	case SectionStockTakes:
		return r.buildStockTakes, true
	case SectionTransfers:
		return r.buildTransfers, true
	case SectionAssemblies:
		return r.buildAssemblies, true
	case SectionProduction:
		return r.buildProduction, true
	case SectionStockAvailability:
		return r.buildAvailability, true
	case SectionDataHygiene:
		return r.buildHygiene, true
	case SectionCreditNotes:
		return r.buildCreditNotes, true
	case SectionSyncErrors:
		if syncRows == nil {
			return nil, false
		}
		return func(context.Context) error {
			metrics := report.AggregateSyncErrors(syncRows)
			r.mu.Lock()
			r.rpt.SyncErrors = &metrics
			r.mu.Unlock()
			return nil
		}, true
	default:
		return nil, false
	}
}

func (r *reportRun) buildSales(ctx context.Context) error {
	records, err := r.src.SaleList(ctx)
	if err != nil {
		return err
	}
	metrics := report.AggregateSales(records, r.period)
	r.mu.Lock()
	r.rpt.Sales = &metrics
	r.mu.Unlock()
	return nil
}

func (r *reportRun) buildPurchases(ctx context.Context) error {
	records, err := r.src.PurchaseList(ctx)
	if err != nil {
		return err
	}
	metrics := report.AggregatePurchases(records, r.period)
	r.mu.Lock()
	r.rpt.Purchases = &metrics
	r.mu.Unlock()
	return nil
}

// buildAdjustments pulls the completed adjustment list, keeps the ones whose
// effective date falls in the report month, and fetches line detail per task.
func (r *reportRun) buildAdjustments(ctx context.Context) error {
	summaries, err := r.src.StockAdjustments(ctx)
	if err != nil {
		return err
	}
	inPeriod := filterToPeriod(summaries, r.period, "EffectiveDate", "Date")

	details := make([]domain.Record, 0, len(inPeriod))
	for _, summary := range inPeriod {
		taskID := summary.Str("TaskID", "ID")
		if taskID == "" {
			continue
		}
		detail, err := r.src.StockAdjustmentDetail(ctx, taskID)
		if err != nil {
			return err
		}
		details = append(details, detail)
	}

	metrics := report.AggregateAdjustments(inPeriod, details)
	r.mu.Lock()
	r.rpt.StockAdjustments = &metrics
	r.mu.Unlock()
	return nil
}

func (r *reportRun) buildStockTakes(ctx context.Context) error {
	summaries, err := r.src.StockTakes(ctx)
	if err != nil {
		return err
	}
	inPeriod := filterToPeriod(summaries, r.period, "EffectiveDate", "Date")

	details := make([]domain.Record, 0, len(inPeriod))
	for _, summary := range inPeriod {
		taskID := summary.Str("TaskID", "ID")
		if taskID == "" {
			continue
		}
		detail, err := r.src.StockTakeDetail(ctx, taskID)
		if err != nil {
			return err
		}
		details = append(details, detail)
	}

	metrics := report.AggregateStockTakes(inPeriod, details)
	r.mu.Lock()
	r.rpt.StockTakes = &metrics
	r.mu.Unlock()
	return nil
}

// buildTransfers pulls only the statuses that represent stuck work. Completed
// transfers carry no anomaly signal.
func (r *reportRun) buildTransfers(ctx context.Context) error {
	records, err := fetchStatuses(ctx, r.src.StockTransfers, "DRAFT", "IN TRANSIT")
	if err != nil {
		return err
	}
	metrics := report.AggregateTransfers(records, r.period)
	r.mu.Lock()
	r.rpt.Transfers = &metrics
	r.mu.Unlock()
	return nil
}

func (r *reportRun) buildAssemblies(ctx context.Context) error {
	records, err := fetchStatuses(ctx, r.src.FinishedGoods, "DRAFT", "AUTHORISED", "IN PROGRESS")
	if err != nil {
		return err
	}
	metrics := report.AggregateAssemblies(records, r.period)
	r.mu.Lock()
	r.rpt.Assemblies = &metrics
	r.mu.Unlock()
	return nil
}

func (r *reportRun) buildProduction(ctx context.Context) error {
	records, err := fetchStatuses(ctx, r.src.ProductionOrders, "Draft", "Planned", "Released", "InProgress")
	if err != nil {
		return err
	}
	metrics := report.AggregateProduction(records, r.period)
	r.mu.Lock()
	r.rpt.Production = &metrics
	r.mu.Unlock()
	return nil
}

func (r *reportRun) buildAvailability(ctx context.Context) error {
	availability, err := r.src.ProductAvailability(ctx)
	if err != nil {
		return err
	}
	products, err := r.src.Products(ctx)
	if err != nil {
		return err
	}
	metrics := report.AggregateAvailability(availability, products)
	r.mu.Lock()
	r.rpt.StockAvailability = &metrics
	r.mu.Unlock()
	return nil
}

func (r *reportRun) buildHygiene(ctx context.Context) error {
	products, err := r.src.Products(ctx)
	if err != nil {
		return err
	}
	customers, err := r.src.Customers(ctx)
	if err != nil {
		return err
	}
	suppliers, err := r.src.Suppliers(ctx)
	if err != nil {
		return err
	}
	metrics := report.AggregateHygiene(products, customers, suppliers)
	r.mu.Lock()
	r.rpt.DataHygiene = &metrics
	r.mu.Unlock()
	return nil
}

func (r *reportRun) buildCreditNotes(ctx context.Context) error {
	sales, err := r.src.SaleCreditNotes(ctx)
	if err != nil {
		return err
	}
	purchases, err := r.src.PurchaseCreditNotes(ctx)
	if err != nil {
		return err
	}
	metrics := report.AggregateCreditNotes(sales, purchases)
	r.mu.Lock()
	r.rpt.CreditNotes = &metrics
	r.mu.Unlock()
	return nil
}

func fetchStatuses(ctx context.Context, fetch func(context.Context, string) ([]domain.Record, error), statuses ...string) ([]domain.Record, error) {
	var records []domain.Record
	for _, status := range statuses {
		page, err := fetch(ctx, status)
		if err != nil {
			return nil, err
		}
		records = append(records, page...)
	}
	return records, nil
}

func filterToPeriod(records []domain.Record, p domain.Period, dateKeys ...string) []domain.Record {
	kept := make([]domain.Record, 0, len(records))
	for _, r := range records {
		d, ok := r.Date(dateKeys...)
		if !ok {
			continue
		}
		if p.Contains(d) {
			kept = append(kept, r)
		}
	}
	return kept
}
