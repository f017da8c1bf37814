package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"retail-ledger/internal/domain"
	"retail-ledger/internal/repository"
	"retail-ledger/internal/service"
	"retail-ledger/internal/store"
	"retail-ledger/internal/telemetry"
)

var fixedNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

type testAPI struct {
	router    chi.Router
	inventory repository.InventoryRepository
	sales     repository.SalesRepository
}

// brokenStock fails every AdjustStock call
type brokenStock struct {
	repository.InventoryRepository
}

func (b brokenStock) AdjustStock(ctx context.Context, id string, delta int) error {
	return errors.New("disk full")
}

func newTestAPI(t *testing.T, wrap func(repository.InventoryRepository) repository.InventoryRepository) *testAPI {
	t.Helper()

	backend := store.NewMemoryBackend()
	clock := func() time.Time { return fixedNow }
	telem := telemetry.NewNoop()
	log := zap.NewNop()

	inventory := repository.NewInventoryRepository(backend, nil, log, repository.WithSerializedWrites(true))
	sales := repository.NewSalesRepository(backend, nil, log, repository.WithClock(clock))

	stock := inventory
	if wrap != nil {
		stock = wrap(inventory)
	}

	register := service.NewRegisterSaleUseCase(sales, stock, false, telem.Tracer(), telem.Meter(), log)
	checkout := service.NewCheckoutUseCase(stock, register, clock, telem.Tracer())
	adjust := service.NewAdjustInventoryUseCase(stock, telem.Tracer(), telem.Meter(), log)
	lowStock := service.NewGetLowStockAlertsUseCase(stock, telem.Tracer())
	seed := service.NewSeedInventoryUseCase(stock, telem.Tracer(), log)
	weekly := service.NewGetWeeklyReportUseCase(sales, stock, 0, clock, telem.Tracer(), telem.Meter())

	r := chi.NewRouter()
	NewInventoryHandler(stock, adjust, lowStock, seed, log).RegisterRoutes(r)
	NewSalesHandler(sales, checkout, 0, log).RegisterRoutes(r)
	NewReportHandler(weekly, log).RegisterRoutes(r)

	return &testAPI{router: r, inventory: inventory, sales: sales}
}

func (a *testAPI) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, req)
	return rr
}

func (a *testAPI) seed(t *testing.T) {
	t.Helper()
	rr := a.do(t, http.MethodPost, "/api/products/seed", nil)
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected seed to return 201, got %d: %s", rr.Code, rr.Body.String())
	}
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("Failed to decode response %q: %v", rr.Body.String(), err)
	}
	return out
}

func TestSeed_OnlyOnce(t *testing.T) {
	api := newTestAPI(t, nil)
	api.seed(t)

	rr := api.do(t, http.MethodPost, "/api/products/seed", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected second seed to return 200, got %d", rr.Code)
	}
	resp := decode[SeedResponse](t, rr)
	if resp.Seeded {
		t.Error("Expected second seed to report seeded=false")
	}
	if len(resp.Products) != 3 {
		t.Errorf("Expected 3 products, got %d", len(resp.Products))
	}
}

func TestGetProduct(t *testing.T) {
	api := newTestAPI(t, nil)
	api.seed(t)

	rr := api.do(t, http.MethodGet, "/api/products/P2", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	p := decode[domain.Product](t, rr)
	if p.Name != "Refrigerante Lata" || p.CurrentQuantity != 30 {
		t.Errorf("Unexpected product %+v", p)
	}

	rr = api.do(t, http.MethodGet, "/api/products/NOPE", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown product, got %d", rr.Code)
	}
}

func TestSaveProduct(t *testing.T) {
	api := newTestAPI(t, nil)

	qty := 40
	rr := api.do(t, http.MethodPut, "/api/products/P9", ProductRequest{
		Name:            "Água Mineral",
		CurrentQuantity: &qty,
		Price:           decimal.RequireFromString("3.50"),
		Barcode:         " 7890001 ",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	p, ok := api.inventory.Get(context.Background(), "P9")
	if !ok {
		t.Fatal("Expected product to be stored")
	}
	if p.MinQuantity != 8 {
		t.Errorf("Expected default min quantity 8, got %d", p.MinQuantity)
	}
	if p.Unit != domain.DefaultUnit || !p.Active {
		t.Errorf("Expected default unit and active product, got %+v", p)
	}

	rr = api.do(t, http.MethodGet, "/api/products/barcode/7890001", nil)
	if rr.Code != http.StatusOK {
		t.Errorf("Expected barcode lookup to succeed, got %d", rr.Code)
	}
}

func TestSaveProduct_Rejected(t *testing.T) {
	api := newTestAPI(t, nil)
	negative := -1
	qty := 1

	cases := []struct {
		name string
		body interface{}
	}{
		{"malformed json", `{"name":`},
		{"missing quantity", map[string]interface{}{"name": "X", "price": "1"}},
		{"negative quantity", ProductRequest{Name: "X", CurrentQuantity: &negative}},
		{"missing name", ProductRequest{CurrentQuantity: &qty}},
		{"negative price", ProductRequest{Name: "X", CurrentQuantity: &qty, Price: decimal.NewFromInt(-2)}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := api.do(t, http.MethodPut, "/api/products/P1", tc.body)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d: %s", rr.Code, rr.Body.String())
			}
		})
	}

	if len(api.inventory.GetAll(context.Background())) != 0 {
		t.Error("Rejected requests must not write products")
	}
}

func TestAdjustProduct(t *testing.T) {
	api := newTestAPI(t, nil)
	api.seed(t)

	rr := api.do(t, http.MethodPost, "/api/products/P3/adjustments", AdjustmentRequest{Delta: -20, Reason: "spoiled"})
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	if p := decode[domain.Product](t, rr); p.CurrentQuantity != 0 {
		t.Errorf("Expected stock clamped at 0, got %d", p.CurrentQuantity)
	}

	rr = api.do(t, http.MethodPost, "/api/products/NOPE/adjustments", AdjustmentRequest{Delta: 1})
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rr.Code)
	}
}

func TestLowStock(t *testing.T) {
	api := newTestAPI(t, nil)
	api.seed(t)
	api.do(t, http.MethodPost, "/api/products/P1/adjustments", AdjustmentRequest{Delta: -15})

	rr := api.do(t, http.MethodGet, "/api/products/low-stock", nil)
	products := decode[[]domain.Product](t, rr)
	if len(products) != 1 || products[0].ID != "P1" {
		t.Errorf("Expected only P1 to be low on stock, got %+v", products)
	}
}

func TestCheckout(t *testing.T) {
	api := newTestAPI(t, nil)
	api.seed(t)

	rr := api.do(t, http.MethodPost, "/api/sales", CheckoutRequest{
		ID: "S1",
		Items: []service.CartLine{
			{ProductID: "P1", Quantity: 2},
			{ProductID: "P2", Quantity: 1},
		},
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	sale := decode[domain.Sale](t, rr)
	if !sale.Total.Equal(decimal.NewFromInt(36)) {
		t.Errorf("Expected total 36, got %s", sale.Total)
	}
	if sale.Timestamp != fixedNow.UnixMilli() {
		t.Errorf("Expected timestamp %d, got %d", fixedNow.UnixMilli(), sale.Timestamp)
	}

	p1, _ := api.inventory.Get(context.Background(), "P1")
	if p1.CurrentQuantity != 18 {
		t.Errorf("Expected P1 at 18, got %d", p1.CurrentQuantity)
	}

	total := decode[WeeklyTotalResponse](t, api.do(t, http.MethodGet, "/api/sales/weekly-total", nil))
	if !total.Total.Equal(decimal.NewFromInt(36)) || total.WindowDays != 7 {
		t.Errorf("Unexpected weekly total %+v", total)
	}

	if sales := decode[[]domain.Sale](t, api.do(t, http.MethodGet, "/api/sales", nil)); len(sales) != 1 {
		t.Errorf("Expected 1 sale, got %d", len(sales))
	}
}

func TestCheckout_Rejected(t *testing.T) {
	api := newTestAPI(t, nil)
	api.seed(t)

	cases := []struct {
		name   string
		body   interface{}
		status int
	}{
		{"malformed json", `[`, http.StatusBadRequest},
		{"empty cart", CheckoutRequest{}, http.StatusBadRequest},
		{"zero quantity", CheckoutRequest{Items: []service.CartLine{{ProductID: "P1"}}}, http.StatusBadRequest},
		{"unknown product", CheckoutRequest{Items: []service.CartLine{{ProductID: "X", Quantity: 1}}}, http.StatusUnprocessableEntity},
		{"insufficient stock", CheckoutRequest{Items: []service.CartLine{{ProductID: "P3", Quantity: 13}}}, http.StatusConflict},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := api.do(t, http.MethodPost, "/api/sales", tc.body)
			if rr.Code != tc.status {
				t.Errorf("Expected %d, got %d: %s", tc.status, rr.Code, rr.Body.String())
			}
		})
	}

	if len(api.sales.List(context.Background())) != 0 {
		t.Error("Rejected checkouts must not record sales")
	}
}

func TestCheckout_PartialFailure(t *testing.T) {
	api := newTestAPI(t, func(inv repository.InventoryRepository) repository.InventoryRepository {
		return brokenStock{inv}
	})
	api.seed(t)

	rr := api.do(t, http.MethodPost, "/api/sales", CheckoutRequest{
		ID:    "S-partial",
		Items: []service.CartLine{{ProductID: "P1", Quantity: 1}},
	})
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", rr.Code)
	}

	var resp struct {
		Error struct {
			Details map[string]interface{} `json:"details"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Error.Details["sale_id"] != "S-partial" {
		t.Errorf("Expected sale_id detail, got %+v", resp.Error.Details)
	}

	if len(api.sales.List(context.Background())) != 1 {
		t.Error("Expected the sale to stay recorded")
	}
}

func TestWeeklyReport(t *testing.T) {
	api := newTestAPI(t, nil)
	api.seed(t)
	api.do(t, http.MethodPost, "/api/sales", CheckoutRequest{Items: []service.CartLine{{ProductID: "P2", Quantity: 1}}})
	api.do(t, http.MethodPost, "/api/sales", CheckoutRequest{Items: []service.CartLine{{ProductID: "P3", Quantity: 1}}})

	rr := api.do(t, http.MethodGet, "/api/reports/weekly", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	report := decode[domain.WeeklyReport](t, rr)
	if len(report.Products) != 2 || report.Products[0].ProductID != "P3" {
		t.Errorf("Expected P3 first, got %+v", report.Products)
	}
	if !report.TotalRevenue.Equal(decimal.NewFromInt(24)) {
		t.Errorf("Expected revenue 24, got %s", report.TotalRevenue)
	}
	if report.To != nil {
		t.Error("Trailing report must be open ended")
	}

	// a range ending before the sales excludes them
	rr = api.do(t, http.MethodGet, "/api/reports/weekly?from=2026-03-01T00:00:00Z&to=2026-03-10T00:00:00Z", nil)
	if report := decode[domain.WeeklyReport](t, rr); len(report.Products) != 0 {
		t.Errorf("Expected empty report, got %+v", report.Products)
	}
}

func TestWeeklyReport_BadRange(t *testing.T) {
	api := newTestAPI(t, nil)

	for _, query := range []string{
		"?from=yesterday",
		"?to=2026-03-10T00:00:00Z",
		"?from=2026-03-10T00:00:00Z&to=2026-03-01T00:00:00Z",
		"?from=2026-03-01T00:00:00Z&to=soon",
	} {
		rr := api.do(t, http.MethodGet, "/api/reports/weekly"+query, nil)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("Expected 400 for %s, got %d", query, rr.Code)
		}
	}
}
