package cin7

import (
	"context"
	"net/url"

	"github.com/finovate/healthcheck-go/internal/domain"
)

// SaleList fetches every sale order. Counts are derived client-side from the
// single bulk pull, so no server-side status filters are applied.
func (c *Client) SaleList(ctx context.Context) ([]domain.Record, error) {
	return c.paginate(ctx, "/saleList", nil, defaultPageLimit)
}

// PurchaseList fetches every purchase order.
func (c *Client) PurchaseList(ctx context.Context) ([]domain.Record, error) {
	return c.paginate(ctx, "/purchaseList", nil, defaultPageLimit)
}

// StockAdjustments fetches completed stock adjustment summaries.
func (c *Client) StockAdjustments(ctx context.Context) ([]domain.Record, error) {
	return c.paginate(ctx, "/stockadjustmentList", url.Values{"Status": {"COMPLETED"}}, defaultPageLimit)
}

// StockAdjustmentDetail fetches one adjustment's line items by task id.
func (c *Client) StockAdjustmentDetail(ctx context.Context, taskID string) (domain.Record, error) {
	return c.getOne(ctx, "/stockadjustment", url.Values{"TaskID": {taskID}})
}

// StockTakes fetches completed stock take summaries.
func (c *Client) StockTakes(ctx context.Context) ([]domain.Record, error) {
	return c.paginate(ctx, "/stockTakeList", url.Values{"Status": {"COMPLETED"}}, defaultPageLimit)
}

// StockTakeDetail fetches one stock take's counted products by task id.
func (c *Client) StockTakeDetail(ctx context.Context, taskID string) (domain.Record, error) {
	return c.getOne(ctx, "/stocktake", url.Values{"TaskID": {taskID}})
}

// StockTransfers fetches transfers in one status.
func (c *Client) StockTransfers(ctx context.Context, status string) ([]domain.Record, error) {
	params := url.Values{}
	if status != "" {
		params.Set("Status", status)
	}
	return c.paginate(ctx, "/stockTransferList", params, defaultPageLimit)
}

// FinishedGoods fetches assembly orders in one status.
func (c *Client) FinishedGoods(ctx context.Context, status string) ([]domain.Record, error) {
	params := url.Values{}
	if status != "" {
		params.Set("Status", status)
	}
	return c.paginate(ctx, "/finishedGoodsList", params, defaultPageLimit)
}

// ProductionOrders fetches production orders in one status.
func (c *Client) ProductionOrders(ctx context.Context, status string) ([]domain.Record, error) {
	params := url.Values{"Type": {"O"}}
	if status != "" {
		params.Set("Status", status)
	}
	return c.paginate(ctx, "/production/orderList", params, defaultPageLimit)
}

// Products fetches non-deprecated product master data.
func (c *Client) Products(ctx context.Context) ([]domain.Record, error) {
	return c.paginate(ctx, "/product", url.Values{"IncludeDeprecated": {"false"}}, defaultPageLimit)
}

// ProductAvailability fetches stock on hand, allocated, and available per
// product per location.
func (c *Client) ProductAvailability(ctx context.Context) ([]domain.Record, error) {
	return c.paginate(ctx, "/ref/productavailability", nil, defaultPageLimit)
}

// Customers fetches active customer master data.
func (c *Client) Customers(ctx context.Context) ([]domain.Record, error) {
	return c.paginate(ctx, "/customer", url.Values{"IncludeDeprecated": {"false"}}, defaultPageLimit)
}

// Suppliers fetches active supplier master data.
func (c *Client) Suppliers(ctx context.Context) ([]domain.Record, error) {
	return c.paginate(ctx, "/supplier", url.Values{"IncludeDeprecated": {"false"}}, defaultPageLimit)
}

// Locations fetches the location reference list.
func (c *Client) Locations(ctx context.Context) ([]domain.Record, error) {
	return c.paginate(ctx, "/ref/location", nil, defaultPageLimit)
}

// SaleCreditNotes fetches sale credit notes, newest first.
func (c *Client) SaleCreditNotes(ctx context.Context) ([]domain.Record, error) {
	return c.paginate(ctx, "/saleCreditNoteList", nil, defaultPageLimit)
}

// PurchaseCreditNotes fetches purchase credit notes, newest first.
func (c *Client) PurchaseCreditNotes(ctx context.Context) ([]domain.Record, error) {
	return c.paginate(ctx, "/purchaseCreditNoteList", nil, defaultPageLimit)
}
