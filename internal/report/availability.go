package report

import (
	"github.com/finovate/healthcheck-go/internal/domain"
)

// NegativeStockItem is one (SKU, location) pair carrying impossible stock.
type NegativeStockItem struct {
	SKU       string  `json:"sku"`
	Name      string  `json:"name"`
	Location  string  `json:"location"`
	OnHand    float64 `json:"on_hand"`
	Available float64 `json:"available"`
	Value     float64 `json:"value"`
}

// LocationStock accumulates stock quantities and value per location.
type LocationStock struct {
	TotalOnHand    float64             `json:"total_on_hand"`
	TotalAllocated float64             `json:"total_allocated"`
	TotalAvailable float64             `json:"total_available"`
	TotalValue     float64             `json:"total_value"`
	ProductCount   int                 `json:"product_count"`
	NegativeStock  []NegativeStockItem `json:"negative_stock_items,omitempty"`
}

// StockSummary is the section roll-up for stock availability.
type StockSummary struct {
	TotalLocations     int     `json:"total_locations"`
	TotalNegativeItems int     `json:"total_negative_items"`
	HasNegativeStock   bool    `json:"has_negative_stock"`
	TotalStockValue    float64 `json:"total_stock_value"`
}

// StockMetrics is the aggregated stock availability section.
type StockMetrics struct {
	ByLocation    map[string]LocationStock `json:"by_location"`
	NegativeStock []NegativeStockItem      `json:"negative_stock"`
	Summary       StockSummary             `json:"summary"`
}

// CostLookup builds a SKU to unit cost map from product master data.
func CostLookup(products []domain.Record) map[string]float64 {
	lookup := make(map[string]float64, len(products))
	for _, r := range products {
		p := domain.Product{Record: r}
		if sku := p.SKU(); sku != "" {
			lookup[sku] = p.Cost()
		}
	}
	return lookup
}

// AggregateAvailability totals stock per location and flags negative stock.
// A record with both OnHand and Available below zero is flagged once, not
// twice. Stock value uses the product master cost, defaulting to 0 for
// unknown SKUs.
func AggregateAvailability(availability, products []domain.Record) StockMetrics {
	costs := CostLookup(products)

	metrics := StockMetrics{
		ByLocation: make(map[string]LocationStock),
	}

	for _, r := range availability {
		item := domain.Availability{Record: r}
		location := item.Location()
		if location == "" {
			location = "Unknown"
		}
		onHand := item.OnHand()
		available := item.Available()

		loc := metrics.ByLocation[location]
		loc.TotalOnHand += onHand
		loc.TotalAllocated += item.Allocated()
		loc.TotalAvailable += available
		loc.TotalValue += onHand * costs[item.SKU()]
		loc.ProductCount++

		if onHand < 0 || available < 0 {
			neg := NegativeStockItem{
				SKU:       item.SKU(),
				Name:      item.Name(),
				Location:  location,
				OnHand:    onHand,
				Available: available,
				Value:     onHand * costs[item.SKU()],
			}
			metrics.NegativeStock = append(metrics.NegativeStock, neg)
			loc.NegativeStock = append(loc.NegativeStock, neg)
		}

		metrics.ByLocation[location] = loc
	}

	for _, loc := range metrics.ByLocation {
		metrics.Summary.TotalStockValue += loc.TotalValue
	}
	metrics.Summary.TotalLocations = len(metrics.ByLocation)
	metrics.Summary.TotalNegativeItems = len(metrics.NegativeStock)
	metrics.Summary.HasNegativeStock = len(metrics.NegativeStock) > 0

	return metrics
}
