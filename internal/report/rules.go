package report

import (
	"time"

	"github.com/finovate/healthcheck-go/internal/domain"
)

// Rule is one named bucket predicate over an active record. Predicates are
// plain data so a rule set can be swapped or tuned without touching the
// aggregation pass; the stock rule sets below were reverse-engineered
// against the vendor UI and are expected to keep evolving.
type Rule struct {
	Name  string
	Match func(r domain.Record, p domain.Period) bool
}

func oneOf(value string, set ...string) bool {
	for _, s := range set {
		if value == s {
			return true
		}
	}
	return false
}

// SalesStatusRules returns the workflow buckets for sale orders.
func SalesStatusRules() []Rule {
	return []Rule{
		{
			Name: "draft_quotes",
			Match: func(r domain.Record, _ domain.Period) bool {
				return domain.SaleOrder{Record: r}.QuoteStatus() == "DRAFT"
			},
		},
		{
			Name: "authorised_quotes_no_order",
			Match: func(r domain.Record, _ domain.Period) bool {
				s := domain.SaleOrder{Record: r}
				return s.QuoteStatus() == "AUTHORISED" && s.OrderStatus() == "NOT AVAILABLE"
			},
		},
		{
			Name: "backordered",
			Match: func(r domain.Record, _ domain.Period) bool {
				return domain.SaleOrder{Record: r}.Status() == "BACKORDERED"
			},
		},
		{
			Name: "awaiting_fulfilment",
			Match: func(r domain.Record, _ domain.Period) bool {
				s := domain.SaleOrder{Record: r}
				return s.OrderStatus() == "AUTHORISED" &&
					oneOf(s.ShippingStatus(), "NOT SHIPPED", "PARTIALLY SHIPPED")
			},
		},
		{
			Name: "orders_to_bill",
			Match: func(r domain.Record, _ domain.Period) bool {
				s := domain.SaleOrder{Record: r}
				return s.OrderStatus() == "AUTHORISED" &&
					oneOf(s.InvoiceStatus(), "NOT AVAILABLE", "DRAFT")
			},
		},
	}
}

// SalesAnomalyRules returns the cross-field anomaly buckets for sale orders.
// authorised_prior_not_fulfilled is period-gated; the other two represent a
// standing inconsistency and ignore the period boundary.
func SalesAnomalyRules() []Rule {
	return []Rule{
		{
			Name: "authorised_prior_not_fulfilled",
			Match: func(r domain.Record, p domain.Period) bool {
				s := domain.SaleOrder{Record: r}
				if s.OrderStatus() != "AUTHORISED" {
					return false
				}
				if !oneOf(s.FulfilmentStatus(), "NOT FULFILLED", "PARTIALLY FULFILLED") {
					return false
				}
				d, ok := s.Date()
				return ok && d.Before(p.Start)
			},
		},
		{
			Name: "fulfilled_not_invoiced",
			Match: func(r domain.Record, _ domain.Period) bool {
				s := domain.SaleOrder{Record: r}
				return s.FulfilmentStatus() == "FULFILLED" &&
					oneOf(s.InvoiceStatus(), "NOT INVOICED", "NOT AVAILABLE")
			},
		},
		{
			Name: "invoiced_not_fulfilled",
			Match: func(r domain.Record, _ domain.Period) bool {
				s := domain.SaleOrder{Record: r}
				return s.InvoiceStatus() == "AUTHORISED" && s.FulfilmentStatus() != "FULFILLED"
			},
		},
	}
}

// PurchaseStatusRules returns the workflow buckets for purchase orders.
func PurchaseStatusRules() []Rule {
	return []Rule{
		{
			Name: "draft",
			Match: func(r domain.Record, _ domain.Period) bool {
				return domain.PurchaseOrder{Record: r}.OrderStatus() == "DRAFT"
			},
		},
		{
			Name: "authorised",
			Match: func(r domain.Record, _ domain.Period) bool {
				return domain.PurchaseOrder{Record: r}.OrderStatus() == "AUTHORISED"
			},
		},
		{
			Name: "awaiting_delivery",
			Match: func(r domain.Record, _ domain.Period) bool {
				po := domain.PurchaseOrder{Record: r}
				return po.OrderStatus() == "AUTHORISED" &&
					oneOf(po.ReceivingStatus(), "NOT RECEIVED", "PARTIALLY RECEIVED")
			},
		},
		{
			// Orders still sitting in the receiving stage are not yet
			// billable, except service-only orders which skip receiving.
			Name: "billing",
			Match: func(r domain.Record, _ domain.Period) bool {
				po := domain.PurchaseOrder{Record: r}
				if po.OrderStatus() != "AUTHORISED" {
					return false
				}
				if !oneOf(po.InvoiceStatus(), "NOT INVOICED", "NOT AVAILABLE", "DRAFT") {
					return false
				}
				if po.Status() == "ORDERED" &&
					oneOf(po.ReceivingStatus(), "NOT RECEIVED", "NOT AVAILABLE", "") &&
					!po.IsServiceOnly() {
					return false
				}
				return true
			},
		},
	}
}

// PurchaseAnomalyRules returns the anomaly buckets for purchase orders.
// The prior/current pairs split AUTHORISED orders on the period boundary
// and require a parseable order date; the fully_* pair is not period-gated.
func PurchaseAnomalyRules() []Rule {
	return []Rule{
		{
			Name: "prior_not_invoiced",
			Match: func(r domain.Record, p domain.Period) bool {
				return purchaseNotInvoiced(r) && datedBefore(r, p.Start)
			},
		},
		{
			Name: "current_not_invoiced",
			Match: func(r domain.Record, p domain.Period) bool {
				return purchaseNotInvoiced(r) && datedOnOrAfter(r, p.Start)
			},
		},
		{
			Name: "prior_not_received",
			Match: func(r domain.Record, p domain.Period) bool {
				return purchaseNotReceived(r) && datedBefore(r, p.Start)
			},
		},
		{
			Name: "current_not_received",
			Match: func(r domain.Record, p domain.Period) bool {
				return purchaseNotReceived(r) && datedOnOrAfter(r, p.Start)
			},
		},
		{
			Name: "fully_invoiced_not_received",
			Match: func(r domain.Record, _ domain.Period) bool {
				po := domain.PurchaseOrder{Record: r}
				return po.InvoiceStatus() == "AUTHORISED" && po.ReceivingStatus() != "RECEIVED"
			},
		},
		{
			Name: "fully_received_not_invoiced",
			Match: func(r domain.Record, _ domain.Period) bool {
				po := domain.PurchaseOrder{Record: r}
				return po.ReceivingStatus() == "RECEIVED" &&
					!oneOf(po.InvoiceStatus(), "AUTHORISED", "INVOICED")
			},
		},
	}
}

func purchaseNotInvoiced(r domain.Record) bool {
	po := domain.PurchaseOrder{Record: r}
	return po.OrderStatus() == "AUTHORISED" &&
		oneOf(po.InvoiceStatus(), "NOT INVOICED", "NOT AVAILABLE")
}

func purchaseNotReceived(r domain.Record) bool {
	po := domain.PurchaseOrder{Record: r}
	return po.OrderStatus() == "AUTHORISED" &&
		oneOf(po.ReceivingStatus(), "NOT RECEIVED", "NOT AVAILABLE")
}

func datedBefore(r domain.Record, boundary time.Time) bool {
	d, ok := r.Date("OrderDate")
	return ok && d.Before(boundary)
}

func datedOnOrAfter(r domain.Record, boundary time.Time) bool {
	d, ok := r.Date("OrderDate")
	return ok && !d.Before(boundary)
}
