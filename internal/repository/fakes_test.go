package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"retail-ledger/internal/domain"
	"retail-ledger/internal/store"
)

var errMirrorDown = errors.New("mirror unreachable")

// fakeMirror is an in-memory ProductMirror and SaleMirror
type fakeMirror struct {
	mu       sync.Mutex
	down     bool
	products []domain.Product
	sales    []domain.Sale
	patches  map[string]int
}

func newFakeMirror() *fakeMirror {
	return &fakeMirror{patches: make(map[string]int)}
}

func (m *fakeMirror) setDown(down bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.down = down
}

func (m *fakeMirror) FetchProducts(ctx context.Context) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return nil, errMirrorDown
	}
	return append([]domain.Product(nil), m.products...), nil
}

func (m *fakeMirror) PushProduct(ctx context.Context, p domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return errMirrorDown
	}
	for i := range m.products {
		if m.products[i].ID == p.ID {
			m.products[i] = p
			return nil
		}
	}
	m.products = append(m.products, p)
	return nil
}

func (m *fakeMirror) PatchQuantity(ctx context.Context, productID string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return errMirrorDown
	}
	m.patches[productID] = quantity
	for i := range m.products {
		if m.products[i].ID == productID {
			m.products[i].CurrentQuantity = quantity
		}
	}
	return nil
}

func (m *fakeMirror) FetchSales(ctx context.Context) ([]domain.Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return nil, errMirrorDown
	}
	return append([]domain.Sale(nil), m.sales...), nil
}

func (m *fakeMirror) PushSale(ctx context.Context, s domain.Sale) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return errMirrorDown
	}
	m.sales = append(m.sales, s)
	return nil
}

// gatedBackend holds product reads until two of them are in flight, or until
// the wait expires, so both writers see the same snapshot
type gatedBackend struct {
	store.Backend
	wait time.Duration

	mu      sync.Mutex
	arrived int
	release chan struct{}
}

func newGatedBackend(inner store.Backend, wait time.Duration) *gatedBackend {
	return &gatedBackend{Backend: inner, wait: wait, release: make(chan struct{})}
}

// Get reads first and then holds the snapshot until a second reader has one
// too, so both writers start from the same value.
func (g *gatedBackend) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := g.Backend.Get(ctx, key)
	if key != store.ProductsKey {
		return raw, err
	}

	g.mu.Lock()
	g.arrived++
	if g.arrived == 2 {
		close(g.release)
	}
	g.mu.Unlock()

	select {
	case <-g.release:
	case <-time.After(g.wait):
	}
	return raw, err
}

// failingWrites accepts reads but rejects every write
type failingWrites struct {
	store.Backend
}

func (failingWrites) Put(context.Context, string, []byte) error {
	return errors.New("read-only filesystem")
}
