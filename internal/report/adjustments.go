package report

import (
	"sort"
	"strings"

	"github.com/finovate/healthcheck-go/internal/domain"
)

const topMovements = 5

// MovementLine is one flattened stock adjustment line item.
type MovementLine struct {
	SKU       string  `json:"sku"`
	Name      string  `json:"name"`
	Location  string  `json:"location"`
	Quantity  float64 `json:"quantity"`
	UnitCost  float64 `json:"unit_cost"`
	TotalCost float64 `json:"total_cost"`
	Date      string  `json:"date"`
}

// LocationImpact accumulates absolute movement per location.
type LocationImpact struct {
	Count     int     `json:"count"`
	QtyTotal  float64 `json:"qty_total"`
	CostTotal float64 `json:"cost_total"`
}

// AdjustmentSummary is the section roll-up for stock adjustments.
type AdjustmentSummary struct {
	TotalCostImpact   float64 `json:"total_cost_impact"`
	TotalQtyImpact    float64 `json:"total_qty_impact"`
	LocationsAffected int     `json:"locations_affected"`
	TotalLineItems    int     `json:"total_line_items"`
}

// AdjustmentMetrics is the aggregated stock adjustment section.
type AdjustmentMetrics struct {
	TotalAdjustments int                       `json:"total_adjustments"`
	ByLocation       map[string]LocationImpact `json:"by_location"`
	TopQtyIn         []MovementLine            `json:"top_qty_in"`
	TopQtyOut        []MovementLine            `json:"top_qty_out"`
	TopCostIn        []MovementLine            `json:"top_cost_in"`
	TopCostOut       []MovementLine            `json:"top_cost_out"`
	Summary          AdjustmentSummary         `json:"summary"`
}

// excludedFromRanking drops packing material from the discrepancy top lists:
// high-churn consumables would otherwise crowd out real stock movements.
func excludedFromRanking(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "packaging") || strings.Contains(lower, "consumable")
}

// AggregateAdjustments flattens the detail line items of the period's stock
// adjustments, totals movement per location, and ranks the largest
// discrepancies by quantity and by cost, separately for stock in and out.
func AggregateAdjustments(adjustments, details []domain.Record) AdjustmentMetrics {
	metrics := AdjustmentMetrics{
		TotalAdjustments: len(adjustments),
		ByLocation:       make(map[string]LocationImpact),
	}

	var lines []MovementLine
	for _, detail := range details {
		location := detail.Str("Location")
		if location == "" {
			location = "Unknown"
		}
		date := detail.Str("EffectiveDate", "Date")

		for _, line := range detail.Records("Lines") {
			qty := line.Float("Quantity")
			cost := line.Float("Cost", "UnitCost")
			total := qty * cost

			impact := metrics.ByLocation[location]
			impact.Count++
			impact.QtyTotal += abs(qty)
			impact.CostTotal += abs(total)
			metrics.ByLocation[location] = impact

			lines = append(lines, MovementLine{
				SKU:       line.Str("SKU"),
				Name:      line.Str("Name", "ProductName"),
				Location:  location,
				Quantity:  qty,
				UnitCost:  cost,
				TotalCost: total,
				Date:      date,
			})
		}
	}

	ranked := make([]MovementLine, 0, len(lines))
	for _, l := range lines {
		if !excludedFromRanking(l.Name) {
			ranked = append(ranked, l)
		}
	}

	metrics.TopQtyIn = topBy(ranked, func(l MovementLine) float64 { return l.Quantity }, false)
	metrics.TopQtyOut = topBy(ranked, func(l MovementLine) float64 { return l.Quantity }, true)
	metrics.TopCostIn = topBy(ranked, func(l MovementLine) float64 { return l.TotalCost }, false)
	metrics.TopCostOut = topBy(ranked, func(l MovementLine) float64 { return l.TotalCost }, true)

	for _, impact := range metrics.ByLocation {
		metrics.Summary.TotalCostImpact += impact.CostTotal
		metrics.Summary.TotalQtyImpact += impact.QtyTotal
	}
	metrics.Summary.LocationsAffected = len(metrics.ByLocation)
	metrics.Summary.TotalLineItems = len(lines)

	return metrics
}

// topBy keeps the topMovements largest lines by |key|, restricted to
// negative lines when negative is set, positive lines otherwise.
func topBy(lines []MovementLine, key func(MovementLine) float64, negative bool) []MovementLine {
	var side []MovementLine
	for _, l := range lines {
		v := key(l)
		if negative && v < 0 {
			side = append(side, l)
		}
		if !negative && v > 0 {
			side = append(side, l)
		}
	}
	sort.SliceStable(side, func(i, j int) bool {
		return abs(key(side[i])) > abs(key(side[j]))
	})
	if len(side) > topMovements {
		side = side[:topMovements]
	}
	return side
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
