package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"retail-ledger/internal/domain"
	"retail-ledger/internal/repository"
	"retail-ledger/internal/store"
	"retail-ledger/internal/telemetry"
)

type harness struct {
	backend   *store.MemoryBackend
	inventory repository.InventoryRepository
	sales     repository.SalesRepository
	telem     *telemetry.Telemetry
	now       time.Time
}

func newHarness(t *testing.T, now time.Time) *harness {
	t.Helper()
	backend := store.NewMemoryBackend()
	clock := func() time.Time { return now }

	return &harness{
		backend:   backend,
		inventory: repository.NewInventoryRepository(backend, nil, zap.NewNop(), repository.WithSerializedWrites(true)),
		sales:     repository.NewSalesRepository(backend, nil, zap.NewNop(), repository.WithClock(clock)),
		telem:     telemetry.NewNoop(),
		now:       now,
	}
}

func (h *harness) registerSale(idempotent bool) *RegisterSaleUseCase {
	return NewRegisterSaleUseCase(h.sales, h.inventory, idempotent, h.telem.Tracer(), h.telem.Meter(), zap.NewNop())
}

func (h *harness) weeklyReport() *GetWeeklyReportUseCase {
	return NewGetWeeklyReportUseCase(h.sales, h.inventory, 0, func() time.Time { return h.now }, h.telem.Tracer(), h.telem.Meter())
}

func (h *harness) seed(t *testing.T, products ...domain.Product) {
	t.Helper()
	for _, p := range products {
		if err := h.inventory.Save(context.Background(), p); err != nil {
			t.Fatalf("Failed to seed %s: %v", p.ID, err)
		}
	}
}

func (h *harness) quantity(t *testing.T, id string) int {
	t.Helper()
	p, ok := h.inventory.Get(context.Background(), id)
	if !ok {
		t.Fatalf("Product %s not found", id)
	}
	return p.CurrentQuantity
}

var errStockUnavailable = errors.New("stock store unavailable")

// flakyInventory fails AdjustStock for the listed products until healed
type flakyInventory struct {
	repository.InventoryRepository

	mu      sync.Mutex
	failFor map[string]bool
}

func (f *flakyInventory) heal() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failFor = nil
}

func (f *flakyInventory) AdjustStock(ctx context.Context, id string, delta int) error {
	f.mu.Lock()
	failing := f.failFor[id]
	f.mu.Unlock()

	if failing {
		return errStockUnavailable
	}
	return f.InventoryRepository.AdjustStock(ctx, id, delta)
}

// switchableMirror is a SaleMirror that can be taken offline
type switchableMirror struct {
	mu    sync.Mutex
	down  bool
	sales []domain.Sale
}

func (m *switchableMirror) setDown(down bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.down = down
}

func (m *switchableMirror) FetchSales(ctx context.Context) ([]domain.Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return nil, errMirrorOffline
	}
	return append([]domain.Sale(nil), m.sales...), nil
}

func (m *switchableMirror) PushSale(ctx context.Context, s domain.Sale) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return errMirrorOffline
	}
	m.sales = append(m.sales, s)
	return nil
}

var errMirrorOffline = errors.New("mirror offline")
