package report

import (
	"github.com/finovate/healthcheck-go/internal/domain"
)

// HygieneIssue identifies one master data record with a completeness defect.
type HygieneIssue struct {
	SKU  string `json:"sku,omitempty"`
	Name string `json:"name"`
}

// ProductHygiene lists product master defects. Only sellable products are
// checked for pricing; a product sold through any channel needs at least one
// positive price tier and a barcode.
type ProductHygiene struct {
	NoPrice   []HygieneIssue `json:"no_price"`
	NoBarcode []HygieneIssue `json:"no_barcode"`
}

// ContactHygiene lists contact master defects for customers or suppliers.
type ContactHygiene struct {
	MissingEmail       []HygieneIssue `json:"missing_email"`
	MissingPhone       []HygieneIssue `json:"missing_phone"`
	MissingPaymentTerm []HygieneIssue `json:"missing_payment_term"`
	CreditHold         []HygieneIssue `json:"credit_hold,omitempty"`
}

// HygieneSummary is the section roll-up for data hygiene.
type HygieneSummary struct {
	ProductIssues  int `json:"product_issues"`
	CustomerIssues int `json:"customer_issues"`
	SupplierIssues int `json:"supplier_issues"`
	TotalIssues    int `json:"total_issues"`
}

// HygieneMetrics is the aggregated data hygiene section.
type HygieneMetrics struct {
	Products  ProductHygiene `json:"products"`
	Customers ContactHygiene `json:"customers"`
	Suppliers ContactHygiene `json:"suppliers"`
	Summary   HygieneSummary `json:"summary"`
}

// AggregateHygiene checks master data completeness across products,
// customers, and suppliers.
func AggregateHygiene(products, customers, suppliers []domain.Record) HygieneMetrics {
	var metrics HygieneMetrics

	for _, r := range products {
		p := domain.Product{Record: r}
		if !p.Sellable() {
			continue
		}
		issue := HygieneIssue{SKU: p.SKU(), Name: p.Name()}
		if !p.HasRetailPrice() {
			metrics.Products.NoPrice = append(metrics.Products.NoPrice, issue)
		}
		if p.Barcode() == "" {
			metrics.Products.NoBarcode = append(metrics.Products.NoBarcode, issue)
		}
	}

	metrics.Customers = contactHygiene(customers, true)
	metrics.Suppliers = contactHygiene(suppliers, false)

	metrics.Summary.ProductIssues = len(metrics.Products.NoPrice) + len(metrics.Products.NoBarcode)
	metrics.Summary.CustomerIssues = contactIssueCount(metrics.Customers)
	metrics.Summary.SupplierIssues = contactIssueCount(metrics.Suppliers)
	metrics.Summary.TotalIssues = metrics.Summary.ProductIssues +
		metrics.Summary.CustomerIssues + metrics.Summary.SupplierIssues

	return metrics
}

func contactHygiene(records []domain.Record, checkCreditHold bool) ContactHygiene {
	var h ContactHygiene
	for _, r := range records {
		c := domain.Contactable{Record: r}
		issue := HygieneIssue{Name: c.Name()}
		if !c.HasEmail() {
			h.MissingEmail = append(h.MissingEmail, issue)
		}
		if !c.HasPhone() {
			h.MissingPhone = append(h.MissingPhone, issue)
		}
		if c.PaymentTerm() == "" {
			h.MissingPaymentTerm = append(h.MissingPaymentTerm, issue)
		}
		if checkCreditHold && c.OnCreditHold() {
			h.CreditHold = append(h.CreditHold, issue)
		}
	}
	return h
}

func contactIssueCount(h ContactHygiene) int {
	return len(h.MissingEmail) + len(h.MissingPhone) + len(h.MissingPaymentTerm) + len(h.CreditHold)
}
