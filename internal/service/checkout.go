package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"retail-ledger/internal/domain"
	"retail-ledger/internal/repository"
)

// CartLine is a requested quantity of one product
type CartLine struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// CheckoutUseCase turns a cart into a sale priced at the current catalogue
// prices and hands it to RegisterSaleUseCase
type CheckoutUseCase struct {
	inventory repository.InventoryRepository
	register  *RegisterSaleUseCase
	now       Clock
	tracer    trace.Tracer
}

func NewCheckoutUseCase(
	inventory repository.InventoryRepository,
	register *RegisterSaleUseCase,
	now Clock,
	tracer trace.Tracer,
) *CheckoutUseCase {
	return &CheckoutUseCase{
		inventory: inventory,
		register:  register,
		now:       clockOrNow(now),
		tracer:    tracer,
	}
}

// Execute validates stock for every line and registers the sale. Lines for
// the same product are merged. An empty saleID gets a generated one.
func (uc *CheckoutUseCase) Execute(ctx context.Context, saleID string, cart []CartLine) (*domain.Sale, error) {
	ctx, span := uc.tracer.Start(ctx, "CheckoutUseCase.Execute")
	defer span.End()

	if len(cart) == 0 {
		return nil, ErrEmptyCart
	}

	var order []string
	quantities := make(map[string]int)
	for _, line := range cart {
		if line.Quantity <= 0 {
			return nil, domain.ErrInvalidItemQuantity
		}
		if _, seen := quantities[line.ProductID]; !seen {
			order = append(order, line.ProductID)
		}
		quantities[line.ProductID] += line.Quantity
	}

	catalogue := make(map[string]domain.Product)
	for _, p := range uc.inventory.GetAll(ctx) {
		catalogue[p.ID] = p
	}

	items := make([]domain.SaleItem, 0, len(order))
	for _, id := range order {
		p, ok := catalogue[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, id)
		}
		if p.CurrentQuantity < quantities[id] {
			return nil, fmt.Errorf("%w: %s has %d, requested %d", ErrInsufficientStock, p.Name, p.CurrentQuantity, quantities[id])
		}
		items = append(items, domain.SaleItem{
			ProductID: id,
			Quantity:  quantities[id],
			UnitPrice: p.Price,
		})
	}

	if saleID == "" {
		saleID = "S-" + uuid.NewString()
	}

	sale, err := domain.NewSale(saleID, uc.now(), items)
	if err != nil {
		fail(span, err, "invalid sale")
		return nil, err
	}

	if err := uc.register.Execute(ctx, *sale); err != nil {
		// a partial failure still leaves the sale recorded
		return sale, err
	}
	return sale, nil
}
