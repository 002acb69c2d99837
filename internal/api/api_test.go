package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finovate/healthcheck-go/internal/domain"
	"github.com/finovate/healthcheck-go/internal/service"
)

type fixedSource struct{}

func (fixedSource) AccountName() string { return "acme" }

func (fixedSource) SaleList(ctx context.Context) ([]domain.Record, error) {
	// Recent date so the activity filter keeps the record.
	return []domain.Record{
		{"OrderNumber": "SO-1", "Status": "ORDERED", "OrderDate": time.Now().UTC().AddDate(0, 0, -10).Format("2006-01-02")},
	}, nil
}

func (fixedSource) PurchaseList(ctx context.Context) ([]domain.Record, error) { return nil, nil }
func (fixedSource) StockAdjustments(ctx context.Context) ([]domain.Record, error) {
	return nil, nil
}
func (fixedSource) StockAdjustmentDetail(ctx context.Context, taskID string) (domain.Record, error) {
	return domain.Record{}, nil
}
func (fixedSource) StockTakes(ctx context.Context) ([]domain.Record, error) { return nil, nil }
func (fixedSource) StockTakeDetail(ctx context.Context, taskID string) (domain.Record, error) {
	return domain.Record{}, nil
}
func (fixedSource) StockTransfers(ctx context.Context, status string) ([]domain.Record, error) {
	return nil, nil
}
func (fixedSource) FinishedGoods(ctx context.Context, status string) ([]domain.Record, error) {
	return nil, nil
}
func (fixedSource) ProductionOrders(ctx context.Context, status string) ([]domain.Record, error) {
	return nil, nil
}
func (fixedSource) Products(ctx context.Context) ([]domain.Record, error) { return nil, nil }
func (fixedSource) ProductAvailability(ctx context.Context) ([]domain.Record, error) { return nil, nil }
func (fixedSource) Customers(ctx context.Context) ([]domain.Record, error) { return nil, nil }
func (fixedSource) Suppliers(ctx context.Context) ([]domain.Record, error) { return nil, nil }
func (fixedSource) SaleCreditNotes(ctx context.Context) ([]domain.Record, error) { return nil, nil }
func (fixedSource) PurchaseCreditNotes(ctx context.Context) ([]domain.Record, error) {
	return nil, nil
}

func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	reports := service.NewReportService(func(name string) (service.DataSource, error) {
		if name != "" && name != "acme" {
			return nil, service.ErrUnknownClient
		}
		return fixedSource{}, nil
	}, nil)

	return NewRouter(&Services{
		Reports:     reports,
		ExportDir:   t.TempDir(),
		ClientNames: []string{"acme"},
	}, nil)
}

func TestHealthEndpoint(t *testing.T) {
	router := testRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestListClients(t *testing.T) {
	router := testRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/clients", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"clients":["acme"]}`, w.Body.String())
}

func TestGenerateReport(t *testing.T) {
	router := testRouter(t)

	body, _ := json.Marshal(map[string]any{
		"client":   "acme",
		"year":     2024,
		"month":    2,
		"sections": []string{"sales"},
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var payload struct {
		Client string `json:"client"`
		Sales  *struct {
			StatusCounts map[string]int `json:"status_counts"`
		} `json:"sales"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.Equal(t, "acme", payload.Client)
	require.NotNil(t, payload.Sales)
	assert.Equal(t, 1, payload.Sales.StatusCounts["ORDERED"])
}

func TestGenerateReportBadPeriod(t *testing.T) {
	router := testRouter(t)

	body, _ := json.Marshal(map[string]any{"client": "acme", "year": 2024, "month": 13})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateReportUnknownClient(t *testing.T) {
	router := testRouter(t)

	body, _ := json.Marshal(map[string]any{"client": "nobody", "year": 2024, "month": 2})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGenerateReportMalformedBody(t *testing.T) {
	router := testRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports", bytes.NewReader([]byte("{")))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
