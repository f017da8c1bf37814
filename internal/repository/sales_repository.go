package repository

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"retail-ledger/internal/domain"
	"retail-ledger/internal/logger"
	"retail-ledger/internal/store"
)

// SalesRepository stores the append-only sales log
type SalesRepository interface {
	RegisterSale(ctx context.Context, sale domain.Sale) error
	List(ctx context.Context) []domain.Sale
	Has(ctx context.Context, saleID string) bool
	GetWeeklyTotal(ctx context.Context) decimal.Decimal
	IsProjected(ctx context.Context, key string) bool
	MarkProjected(ctx context.Context, key string) error
}

type salesRepository struct {
	backend store.Backend
	remote  SaleMirror
	logger  *zap.Logger
	opts    options
	guard   writeGuard
	// projections are written on their own key
	projectionGuard writeGuard
}

// NewSalesRepository creates a new instance of SalesRepository.
// remote may be nil when no mirror is configured.
func NewSalesRepository(backend store.Backend, remote SaleMirror, log *zap.Logger, opts ...Option) SalesRepository {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return &salesRepository{
		backend:         backend,
		remote:          remote,
		logger:          logger.Component(log, "sales"),
		opts:            o,
		guard:           writeGuard{enabled: o.serialize},
		projectionGuard: writeGuard{enabled: o.serialize},
	}
}

func (r *salesRepository) readLocal(ctx context.Context) []domain.Sale {
	return store.ReadList[domain.Sale](ctx, r.backend, store.SalesKey, r.logger)
}

// RegisterSale appends the sale to the local log and pushes it to the mirror
func (r *salesRepository) RegisterSale(ctx context.Context, sale domain.Sale) error {
	unlock := r.guard.lock()
	sales := append(r.readLocal(ctx), sale)
	err := store.WriteList(ctx, r.backend, store.SalesKey, sales)
	unlock()
	if err != nil {
		return fmt.Errorf("failed to register sale %s: %w", sale.ID, err)
	}

	if r.remote != nil {
		if err := r.remote.PushSale(ctx, sale); err != nil {
			r.logger.Warn("Failed to push sale to mirror",
				zap.String("sale_id", sale.ID),
				zap.Error(err),
			)
		}
	}

	return nil
}

// List returns the mirror's sales when reachable, replacing the local copy
// with them, and the local sales otherwise
func (r *salesRepository) List(ctx context.Context) []domain.Sale {
	if r.remote != nil {
		sales, err := r.remote.FetchSales(ctx)
		if err == nil {
			if sales == nil {
				sales = []domain.Sale{}
			}

			unlock := r.guard.lock()
			werr := store.WriteList(ctx, r.backend, store.SalesKey, sales)
			unlock()
			if werr != nil {
				r.logger.Warn("Failed to cache remote sales locally", zap.Error(werr))
			}
			return sales
		}

		r.logger.Warn("Remote sales unavailable, using local copy", zap.Error(err))
	}

	return r.readLocal(ctx)
}

// Has reports whether the local log already holds saleID. It never consults
// the mirror, so it does not replace the local log.
func (r *salesRepository) Has(ctx context.Context, saleID string) bool {
	return slices.ContainsFunc(r.readLocal(ctx), func(s domain.Sale) bool {
		return s.ID == saleID
	})
}

// GetWeeklyTotal sums the totals of sales no older than the weekly window.
// Sales stamped in the future count as well.
func (r *salesRepository) GetWeeklyTotal(ctx context.Context) decimal.Decimal {
	now := time.UnixMilli(r.opts.now().UnixMilli())
	window := domain.TrailingWindow(now, r.opts.weeklyWindow)

	total := decimal.Zero
	for _, sale := range r.List(ctx) {
		if window.Contains(sale.Time()) {
			total = total.Add(sale.Total)
		}
	}
	return total
}

func (r *salesRepository) readProjections(ctx context.Context) []string {
	return store.ReadList[string](ctx, r.backend, store.SaleProjectionsKey, r.logger)
}

// IsProjected reports whether the stock movement identified by key was
// already applied
func (r *salesRepository) IsProjected(ctx context.Context, key string) bool {
	return slices.Contains(r.readProjections(ctx), key)
}

// MarkProjected records key as applied
func (r *salesRepository) MarkProjected(ctx context.Context, key string) error {
	unlock := r.projectionGuard.lock()
	defer unlock()

	keys := r.readProjections(ctx)
	if slices.Contains(keys, key) {
		return nil
	}

	if err := store.WriteList(ctx, r.backend, store.SaleProjectionsKey, append(keys, key)); err != nil {
		return fmt.Errorf("failed to mark %s as projected: %w", key, err)
	}
	return nil
}
