package stock

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/farmstead-erp/farmstead-erp/internal/shared"
)

func newTestRouter(t *testing.T, svc *Service) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := chi.NewRouter()
	NewHandler(logger, svc).MountRoutes(router)
	return router
}

func TestListLedgerEndpoint(t *testing.T) {
	repo := newMemoryStockRepo()
	seedItem(repo, Item{ID: 1, Name: "Hay", Unit: "kg"})
	svc := newTestService(t, repo)
	ctx := context.Background()

	_, err := svc.RecordPurchase(ctx, PurchaseInput{ItemID: 1, Quantity: dec("100"), CostPerUnit: dec("2")})
	require.NoError(t, err)
	_, err = svc.RecordConsumption(ctx, ConsumptionInput{ItemID: 1, Quantity: dec("30")})
	require.NoError(t, err)

	router := newTestRouter(t, svc)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ledger?item_id=1&page=1&per_page=10", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Entries    []LedgerEntry     `json:"entries"`
		Pagination shared.Pagination `json:"pagination"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body.Entries, 2)
	require.Equal(t, 2, body.Pagination.Total)
	require.Equal(t, 1, body.Pagination.Page)
}

func TestListLedgerEndpointKindFilter(t *testing.T) {
	repo := newMemoryStockRepo()
	seedItem(repo, Item{ID: 1, Name: "Hay", Unit: "kg"})
	svc := newTestService(t, repo)
	ctx := context.Background()

	_, err := svc.RecordPurchase(ctx, PurchaseInput{ItemID: 1, Quantity: dec("100"), CostPerUnit: dec("2")})
	require.NoError(t, err)
	_, err = svc.RecordConsumption(ctx, ConsumptionInput{ItemID: 1, Quantity: dec("30")})
	require.NoError(t, err)

	router := newTestRouter(t, svc)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ledger?item_id=1&kind=PURCHASE", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Entries []LedgerEntry `json:"entries"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body.Entries, 1)
	require.Equal(t, MovementPurchase, body.Entries[0].Kind)
}

func TestListLedgerEndpointBadDate(t *testing.T) {
	repo := newMemoryStockRepo()
	svc := newTestService(t, repo)

	router := newTestRouter(t, svc)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ledger?from=03-2025", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecordPurchaseEndpointPaymentStatus(t *testing.T) {
	repo := newMemoryStockRepo()
	seedItem(repo, Item{ID: 1, Name: "Hay", Unit: "kg"})
	svc := newTestService(t, repo)
	router := newTestRouter(t, svc)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/purchases", strings.NewReader(
		`{"item_id":1,"quantity":"100","cost_per_unit":"2.00","supplier":"AgriCo","payment_status":"PENDING"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	require.Len(t, repo.purchases, 1)
	for _, p := range repo.purchases {
		require.Equal(t, PaymentPending, p.PaymentStatus)
	}
}

func TestRecordPurchaseEndpointRejectsUnknownPaymentStatus(t *testing.T) {
	repo := newMemoryStockRepo()
	seedItem(repo, Item{ID: 1, Name: "Hay", Unit: "kg"})
	svc := newTestService(t, repo)
	router := newTestRouter(t, svc)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/purchases", strings.NewReader(
		`{"item_id":1,"quantity":"100","cost_per_unit":"2.00","payment_status":"LAYAWAY"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Empty(t, repo.purchases)
}
