package repository

import (
	"context"
	"sync"
	"time"

	"retail-ledger/internal/domain"
)

// ProductMirror is the remote copy of the product collection
type ProductMirror interface {
	FetchProducts(ctx context.Context) ([]domain.Product, error)
	PushProduct(ctx context.Context, p domain.Product) error
	PatchQuantity(ctx context.Context, productID string, quantity int) error
}

// SaleMirror is the remote copy of the sales collection
type SaleMirror interface {
	FetchSales(ctx context.Context) ([]domain.Sale, error)
	PushSale(ctx context.Context, s domain.Sale) error
}

const DefaultWeeklyWindow = 7 * 24 * time.Hour

type options struct {
	serialize    bool
	now          func() time.Time
	threshold    float64
	weeklyWindow time.Duration
}

func defaultOptions() options {
	return options{
		now:          time.Now,
		weeklyWindow: DefaultWeeklyWindow,
	}
}

// Option configures a repository
type Option func(*options)

// WithSerializedWrites makes every read-modify-write of the collection run
// under a single lock. Without it concurrent writers may lose updates.
func WithSerializedWrites(enabled bool) Option {
	return func(o *options) {
		o.serialize = enabled
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLowStockThreshold sets the fractional buffer above minQuantity
func WithLowStockThreshold(threshold float64) Option {
	return func(o *options) {
		o.threshold = threshold
	}
}

// WithWeeklyWindow sets the trailing window of the weekly total
func WithWeeklyWindow(window time.Duration) Option {
	return func(o *options) {
		if window > 0 {
			o.weeklyWindow = window
		}
	}
}

// writeGuard is a mutex that can be switched off
type writeGuard struct {
	enabled bool
	mu      sync.Mutex
}

func (g *writeGuard) lock() func() {
	if !g.enabled {
		return func() {}
	}
	g.mu.Lock()
	return g.mu.Unlock
}
