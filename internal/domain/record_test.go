package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecordStr(t *testing.T) {
	r := Record{
		"OrderNumber": "SO-1001",
		"Empty":       "",
		"Number":      float64(42),
		"Null":        nil,
	}

	assert.Equal(t, "SO-1001", r.Str("OrderNumber"))
	assert.Equal(t, "SO-1001", r.Str("Missing", "OrderNumber"))
	assert.Equal(t, "SO-1001", r.Str("Empty", "OrderNumber"))
	assert.Equal(t, "42", r.Str("Number"))
	assert.Equal(t, "", r.Str("Null"))
	assert.Equal(t, "", r.Str("Missing"))
	assert.Equal(t, "", Record(nil).Str("Anything"))
}

func TestRecordFloat(t *testing.T) {
	r := Record{
		"Total":    float64(123.45),
		"AsString": "1,234.50",
		"Junk":     "n/a",
		"Count":    3,
	}

	assert.Equal(t, 123.45, r.Float("Total"))
	assert.Equal(t, 1234.50, r.Float("AsString"))
	assert.Equal(t, float64(3), r.Float("Count"))
	assert.Equal(t, float64(0), r.Float("Junk"))
	assert.Equal(t, float64(0), r.Float("Missing"))
	assert.Equal(t, 123.45, r.Float("Junk", "Total"))
}

func TestRecordBool(t *testing.T) {
	r := Record{
		"IsServiceOnly": true,
		"Flag":          "true",
		"Off":           false,
		"Junk":          "maybe",
	}

	assert.True(t, r.Bool("IsServiceOnly"))
	assert.True(t, r.Bool("Flag"))
	assert.False(t, r.Bool("Off"))
	assert.False(t, r.Bool("Junk"))
	assert.False(t, r.Bool("Missing"))
}

func TestRecordDate(t *testing.T) {
	r := Record{
		"OrderDate":     "2024-01-10T14:22:31Z",
		"EffectiveDate": "2024-02-01",
		"Bad":           "not a date",
		"Null":          nil,
	}

	d, ok := r.Date("OrderDate")
	assert.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), d)

	d, ok = r.Date("Missing", "EffectiveDate")
	assert.True(t, ok)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), d)

	_, ok = r.Date("Bad")
	assert.False(t, ok)
	_, ok = r.Date("Null", "Bad", "Missing")
	assert.False(t, ok)
}

func TestRecordRecords(t *testing.T) {
	r := Record{
		"Lines": []any{
			map[string]any{"SKU": "A", "Quantity": float64(2)},
			"garbage",
			map[string]any{"SKU": "B"},
		},
		"Scalar": "x",
	}

	lines := r.Records("Lines")
	assert.Len(t, lines, 2)
	assert.Equal(t, "A", lines[0].Str("SKU"))
	assert.Equal(t, float64(2), lines[0].Float("Quantity"))

	assert.Nil(t, r.Records("Scalar"))
	assert.Nil(t, r.Records("Missing"))
}

func TestContactableContactFallback(t *testing.T) {
	c := Contactable{Record{
		"Name": "Acme",
		"Contacts": []any{
			map[string]any{"Name": "Jo", "Phone": ""},
			map[string]any{"Name": "Sam", "Phone": "555-0100"},
		},
	}}

	assert.False(t, c.HasEmail())
	assert.True(t, c.HasPhone())

	direct := Contactable{Record{"Email": "ops@acme.test"}}
	assert.True(t, direct.HasEmail())
}

func TestProductHasRetailPrice(t *testing.T) {
	priced := Product{Record{"PriceTier7": float64(9.99)}}
	assert.True(t, priced.HasRetailPrice())

	unpriced := Product{Record{"PriceTier1": float64(0)}}
	assert.False(t, unpriced.HasRetailPrice())
}

func TestProductCostFallback(t *testing.T) {
	assert.Equal(t, 5.5, Product{Record{"AverageCost": 5.5, "DefaultCost": 9.0}}.Cost())
	assert.Equal(t, 9.0, Product{Record{"DefaultCost": 9.0}}.Cost())
	assert.Equal(t, 0.0, Product{Record{}}.Cost())
}
