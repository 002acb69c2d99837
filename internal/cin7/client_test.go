package cin7

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(
		Credentials{Name: "test", AccountID: "acct", APIKey: "key"},
		WithBaseURL(srv.URL),
		WithRateLimit(600000),
		WithRetryDelay(time.Millisecond),
	)
	require.NoError(t, err)
	return c
}

func TestNewClientRequiresCredentials(t *testing.T) {
	_, err := NewClient(Credentials{Name: "incomplete"})
	assert.ErrorIs(t, err, ErrMissingCredentials)
}

func TestAuthHeadersSent(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "acct", r.Header.Get("api-auth-accountid"))
		assert.Equal(t, "key", r.Header.Get("api-auth-applicationkey"))
		fmt.Fprint(w, `[]`)
	}))

	_, err := c.SaleList(context.Background())
	require.NoError(t, err)
}

func TestPaginateWrappedResponse(t *testing.T) {
	pages := 0
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pages++
		page := r.URL.Query().Get("Page")
		switch page {
		case "1":
			var rows []map[string]any
			for i := 0; i < 100; i++ {
				rows = append(rows, map[string]any{"OrderNumber": fmt.Sprintf("SO-%d", i)})
			}
			json.NewEncoder(w).Encode(map[string]any{"Total": 150, "SaleList": rows})
		case "2":
			var rows []map[string]any
			for i := 100; i < 150; i++ {
				rows = append(rows, map[string]any{"OrderNumber": fmt.Sprintf("SO-%d", i)})
			}
			json.NewEncoder(w).Encode(map[string]any{"Total": 150, "SaleList": rows})
		default:
			t.Fatalf("unexpected page %s", page)
		}
	}))

	records, err := c.SaleList(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 150)
	assert.Equal(t, 2, pages)
	assert.Equal(t, "SO-0", records[0].Str("OrderNumber"))
	assert.Equal(t, "SO-149", records[149].Str("OrderNumber"))
}

func TestDecodePagePrefersPopulatedArray(t *testing.T) {
	body := []byte(`{"Total":1,"Page":1,"Attachments":[],"ProductList":[{"SKU":"A-1"}]}`)

	for i := 0; i < 20; i++ {
		records, total, err := decodePage(body)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "A-1", records[0].Str("SKU"))
		assert.Equal(t, 1, total)
	}
}

func TestDecodePageEmptyWrappedList(t *testing.T) {
	records, total, err := decodePage([]byte(`{"Total":0,"SaleList":[]}`))
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Equal(t, 0, total)
}

func TestPaginateBareListResponse(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"TaskID":"T-1"},{"TaskID":"T-2"}]`)
	}))

	records, err := c.StockTransfers(context.Background(), "DRAFT")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "T-2", records[1].Str("TaskID"))
}

func TestRetryOnServerError(t *testing.T) {
	attempts := 0
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `[{"OrderNumber":"PO-1"}]`)
	}))

	records, err := c.PurchaseList(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, 3, attempts)
}

func TestRetriesExhausted(t *testing.T) {
	attempts := 0
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	_, err := c.SaleList(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.True(t, apiErr.Temporary())
	assert.Equal(t, 4, attempts)
}

func TestAuthFailureIsNotRetried(t *testing.T) {
	attempts := 0
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusForbidden)
	}))

	_, err := c.Customers(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.False(t, apiErr.Temporary())
	assert.Equal(t, 1, attempts)
}

func TestStockAdjustmentDetail(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stockadjustment", r.URL.Path)
		assert.Equal(t, "T-42", r.URL.Query().Get("TaskID"))
		fmt.Fprint(w, `{"TaskID":"T-42","Location":"Main","Lines":[{"SKU":"A","Quantity":3}]}`)
	}))

	detail, err := c.StockAdjustmentDetail(context.Background(), "T-42")
	require.NoError(t, err)
	assert.Equal(t, "Main", detail.Str("Location"))
	assert.Len(t, detail.Records("Lines"), 1)
}

func TestContextCancellationStopsRetries(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.SaleList(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
