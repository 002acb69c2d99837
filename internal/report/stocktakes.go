package report

import (
	"sort"

	"github.com/finovate/healthcheck-go/internal/domain"
)

const topDiscrepancies = 10

// Discrepancy is one stock take line whose counted quantity differed from
// the system quantity.
type Discrepancy struct {
	SKU        string  `json:"sku"`
	Name       string  `json:"name"`
	Location   string  `json:"location"`
	QtyOnHand  float64 `json:"qty_on_hand"`
	Adjustment float64 `json:"adjustment"`
	UnitCost   float64 `json:"unit_cost"`
	CostImpact float64 `json:"cost_impact"`
	Date       string  `json:"date"`
}

// TakeImpact accumulates absolute discrepancy per location.
type TakeImpact struct {
	Count          int     `json:"count"`
	QtyDiscrepancy float64 `json:"qty_discrepancy"`
	CostImpact     float64 `json:"cost_impact"`
}

// StockTakeSummary is the section roll-up for stock takes.
type StockTakeSummary struct {
	TotalCostImpact     float64 `json:"total_cost_impact"`
	TotalQtyDiscrepancy float64 `json:"total_qty_discrepancy"`
	LocationsAffected   int     `json:"locations_affected"`
	TotalDiscrepancies  int     `json:"total_discrepancies"`
}

// StockTakeMetrics is the aggregated stock take section.
type StockTakeMetrics struct {
	TotalStockTakes  int                   `json:"total_stocktakes"`
	ByLocation       map[string]TakeImpact `json:"by_location"`
	TopDiscrepancies []Discrepancy         `json:"top_discrepancies"`
	Summary          StockTakeSummary      `json:"summary"`
}

// AggregateStockTakes walks the counted products of each stock take detail,
// keeps only lines with a non-zero adjustment, and ranks the largest
// discrepancies by absolute cost impact.
func AggregateStockTakes(stocktakes, details []domain.Record) StockTakeMetrics {
	metrics := StockTakeMetrics{
		TotalStockTakes: len(stocktakes),
		ByLocation:      make(map[string]TakeImpact),
	}

	var all []Discrepancy
	for _, detail := range details {
		location := detail.Str("Location")
		if location == "" {
			location = "Unknown"
		}
		date := detail.Str("EffectiveDate", "Date")

		for _, product := range detail.Records("NonZeroStockOnHandProducts") {
			adjustment := product.Float("Adjustment")
			if adjustment == 0 {
				continue
			}
			cost := product.Float("Cost", "UnitCost")
			impact := adjustment * cost

			agg := metrics.ByLocation[location]
			agg.Count++
			agg.QtyDiscrepancy += abs(adjustment)
			agg.CostImpact += abs(impact)
			metrics.ByLocation[location] = agg

			all = append(all, Discrepancy{
				SKU:        product.Str("SKU"),
				Name:       product.Str("Name", "ProductName"),
				Location:   location,
				QtyOnHand:  product.Float("QuantityOnHand"),
				Adjustment: adjustment,
				UnitCost:   cost,
				CostImpact: impact,
				Date:       date,
			})
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		return abs(all[i].CostImpact) > abs(all[j].CostImpact)
	})
	if len(all) > topDiscrepancies {
		metrics.TopDiscrepancies = all[:topDiscrepancies]
	} else {
		metrics.TopDiscrepancies = all
	}

	for _, agg := range metrics.ByLocation {
		metrics.Summary.TotalCostImpact += agg.CostImpact
		metrics.Summary.TotalQtyDiscrepancy += agg.QtyDiscrepancy
	}
	metrics.Summary.LocationsAffected = len(metrics.ByLocation)
	metrics.Summary.TotalDiscrepancies = len(all)

	return metrics
}
