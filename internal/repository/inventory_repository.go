package repository

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"retail-ledger/internal/domain"
	"retail-ledger/internal/logger"
	"retail-ledger/internal/store"
)

// InventoryRepository merges the local product collection with the remote
// mirror. Reads prefer the mirror when it answers, writes land locally first.
type InventoryRepository interface {
	GetAll(ctx context.Context) []domain.Product
	Get(ctx context.Context, id string) (domain.Product, bool)
	FindByBarcode(ctx context.Context, code string) (domain.Product, bool)
	Save(ctx context.Context, product domain.Product) error
	AdjustStock(ctx context.Context, id string, delta int) error
	GetLowStock(ctx context.Context) []domain.Product
}

type inventoryRepository struct {
	backend store.Backend
	remote  ProductMirror
	logger  *zap.Logger
	opts    options
	guard   writeGuard
}

// NewInventoryRepository creates a new instance of InventoryRepository.
// remote may be nil when no mirror is configured.
func NewInventoryRepository(backend store.Backend, remote ProductMirror, log *zap.Logger, opts ...Option) InventoryRepository {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return &inventoryRepository{
		backend: backend,
		remote:  remote,
		logger:  logger.Component(log, "inventory"),
		opts:    o,
		guard:   writeGuard{enabled: o.serialize},
	}
}

func (r *inventoryRepository) readLocal(ctx context.Context) []domain.Product {
	return store.ReadList[domain.Product](ctx, r.backend, store.ProductsKey, r.logger)
}

// GetAll returns the mirror's products when reachable, replacing the local
// copy with them, and the local products otherwise
func (r *inventoryRepository) GetAll(ctx context.Context) []domain.Product {
	if r.remote != nil {
		products, err := r.remote.FetchProducts(ctx)
		if err == nil {
			if products == nil {
				products = []domain.Product{}
			}

			unlock := r.guard.lock()
			werr := store.WriteList(ctx, r.backend, store.ProductsKey, products)
			unlock()
			if werr != nil {
				r.logger.Warn("Failed to cache remote products locally", zap.Error(werr))
			}
			return products
		}

		r.logger.Warn("Remote products unavailable, using local copy", zap.Error(err))
	}

	return r.readLocal(ctx)
}

func (r *inventoryRepository) Get(ctx context.Context, id string) (domain.Product, bool) {
	for _, p := range r.GetAll(ctx) {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Product{}, false
}

// FindByBarcode looks up a product by its exact barcode
func (r *inventoryRepository) FindByBarcode(ctx context.Context, code string) (domain.Product, bool) {
	code = strings.TrimSpace(code)
	if code == "" {
		return domain.Product{}, false
	}

	for _, p := range r.GetAll(ctx) {
		if strings.TrimSpace(p.Barcode) == code {
			return p, true
		}
	}
	return domain.Product{}, false
}

// Save upserts the product by id
func (r *inventoryRepository) Save(ctx context.Context, product domain.Product) error {
	if err := product.Validate(); err != nil {
		return err
	}

	unlock := r.guard.lock()
	products := r.readLocal(ctx)

	replaced := false
	for i := range products {
		if products[i].ID == product.ID {
			products[i] = product
			replaced = true
			break
		}
	}
	if !replaced {
		products = append(products, product)
	}

	err := store.WriteList(ctx, r.backend, store.ProductsKey, products)
	unlock()
	if err != nil {
		return fmt.Errorf("failed to save product %s: %w", product.ID, err)
	}

	if r.remote != nil {
		if err := r.remote.PushProduct(ctx, product); err != nil {
			r.logger.Warn("Failed to push product to mirror",
				zap.String("product_id", product.ID),
				zap.Error(err),
			)
		}
	}

	return nil
}

// AdjustStock adds delta to the product's quantity, clamping at zero.
// Unknown ids are ignored.
func (r *inventoryRepository) AdjustStock(ctx context.Context, id string, delta int) error {
	unlock := r.guard.lock()
	products := r.readLocal(ctx)

	idx := -1
	for i := range products {
		if products[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		unlock()
		r.logger.Debug("Stock adjustment for unknown product ignored", zap.String("product_id", id))
		return nil
	}

	quantity := products[idx].WithDelta(delta)
	products[idx].CurrentQuantity = quantity

	err := store.WriteList(ctx, r.backend, store.ProductsKey, products)
	unlock()
	if err != nil {
		return fmt.Errorf("failed to adjust stock of %s: %w", id, err)
	}

	if r.remote != nil {
		if err := r.remote.PatchQuantity(ctx, id, quantity); err != nil {
			r.logger.Warn("Failed to push stock level to mirror",
				zap.String("product_id", id),
				zap.Error(err),
			)
		}
	}

	return nil
}

// GetLowStock returns products at or below their reorder point
func (r *inventoryRepository) GetLowStock(ctx context.Context) []domain.Product {
	low := []domain.Product{}
	for _, p := range r.GetAll(ctx) {
		if p.IsLowStock(r.opts.threshold) {
			low = append(low, p)
		}
	}
	return low
}
