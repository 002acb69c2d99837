package domain

import "time"

// Typed views over Record. Each wrapper pins down the key fallback order for
// one endpoint's records so the rest of the code never touches raw keys.

// SaleOrder is a row from /saleList.
type SaleOrder struct{ Record }

func (s SaleOrder) Number() string { return s.Str("OrderNumber", "SaleOrderNumber") }
func (s SaleOrder) Date() (time.Time, bool) { return s.Record.Date("SaleOrderDate", "OrderDate") }
func (s SaleOrder) Status() string { return s.Str("Status") }
func (s SaleOrder) QuoteStatus() string { return s.Str("QuoteStatus") }
func (s SaleOrder) OrderStatus() string { return s.Str("OrderStatus") }
func (s SaleOrder) FulfilmentStatus() string { return s.Str("FulFilmentStatus", "FulfilmentStatus") }
func (s SaleOrder) InvoiceStatus() string { return s.Str("CombinedInvoiceStatus") }
func (s SaleOrder) ShippingStatus() string { return s.Str("CombinedShippingStatus") }
func (s SaleOrder) Customer() string { return s.Str("Customer", "CustomerName") }
func (s SaleOrder) Total() float64 { return s.Float("Total") }

// PurchaseOrder is a row from /purchaseList.
type PurchaseOrder struct{ Record }

func (p PurchaseOrder) Number() string { return p.Str("OrderNumber") }
func (p PurchaseOrder) Date() (time.Time, bool) { return p.Record.Date("OrderDate") }
func (p PurchaseOrder) Status() string { return p.Str("Status") }
func (p PurchaseOrder) OrderStatus() string { return p.Str("OrderStatus") }
func (p PurchaseOrder) InvoiceStatus() string { return p.Str("CombinedInvoiceStatus") }
func (p PurchaseOrder) ReceivingStatus() string {
	return p.Str("CombinedReceivingStatus", "CombinedStockStatus")
}
func (p PurchaseOrder) Supplier() string { return p.Str("SupplierName", "Supplier") }
func (p PurchaseOrder) IsServiceOnly() bool { return p.Bool("IsServiceOnly") }
func (p PurchaseOrder) Total() float64 { return p.Float("Total") }

// Transfer is a row from /stockTransferList.
type Transfer struct{ Record }

func (t Transfer) TaskID() string { return t.Str("TaskID") }
func (t Transfer) Status() string { return t.Str("Status") }
func (t Transfer) Date() (time.Time, bool) { return t.Record.Date("DepartureDate") }
func (t Transfer) FromLocation() string { return t.Str("From", "FromLocation") }
func (t Transfer) ToLocation() string { return t.Str("To", "ToLocation") }

// Availability is a row from /ref/productavailability.
type Availability struct{ Record }

func (a Availability) SKU() string { return a.Str("SKU") }
func (a Availability) Name() string { return a.Str("Name") }
func (a Availability) Location() string { return a.Str("Location") }
func (a Availability) OnHand() float64 { return a.Float("OnHand") }
func (a Availability) Allocated() float64 { return a.Float("Allocated") }
func (a Availability) Available() float64 { return a.Float("Available") }

// Product is a row from /product master data.
type Product struct{ Record }

func (p Product) SKU() string { return p.Str("SKU") }
func (p Product) Name() string { return p.Str("Name") }
func (p Product) Sellable() bool { return p.Bool("Sellable") }
func (p Product) Barcode() string {
	return p.Str("Barcode")
}

// Cost returns the best unit cost on record: average cost when tracked,
// falling back to the default purchase cost, else 0.
func (p Product) Cost() float64 {
	if c := p.Float("AverageCost"); c != 0 {
		return c
	}
	return p.Float("DefaultCost")
}

// HasRetailPrice reports whether any of the ten price tiers carries a
// positive price.
func (p Product) HasRetailPrice() bool {
	for _, key := range priceTierKeys {
		if p.Float(key) > 0 {
			return true
		}
	}
	return false
}

var priceTierKeys = []string{
	"PriceTier1", "PriceTier2", "PriceTier3", "PriceTier4", "PriceTier5",
	"PriceTier6", "PriceTier7", "PriceTier8", "PriceTier9", "PriceTier10",
}

// Contactable is a customer or supplier master record. Email and phone live
// both on the record itself and on a nested Contacts list; a field counts as
// missing only when every contact lacks it too.
type Contactable struct{ Record }

func (c Contactable) Name() string { return c.Str("Name") }
func (c Contactable) PaymentTerm() string { return c.Str("PaymentTerm") }
func (c Contactable) OnCreditHold() bool { return c.Bool("IsOnCreditHold", "OnCreditHold") }

func (c Contactable) HasEmail() bool { return c.hasContactField("Email") }
func (c Contactable) HasPhone() bool { return c.hasContactField("Phone", "MobilePhone") }

func (c Contactable) hasContactField(keys ...string) bool {
	if c.Str(keys...) != "" {
		return true
	}
	for _, contact := range c.Records("Contacts") {
		if contact.Str(keys...) != "" {
			return true
		}
	}
	return false
}
