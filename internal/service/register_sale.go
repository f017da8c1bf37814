package service

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"retail-ledger/internal/domain"
	"retail-ledger/internal/logger"
	"retail-ledger/internal/repository"
)

// RegisterSaleUseCase records a sale and then decrements the stock of every
// item. The two steps are not atomic.
type RegisterSaleUseCase struct {
	sales      repository.SalesRepository
	inventory  repository.InventoryRepository
	idempotent bool
	tracer     trace.Tracer
	logger     *zap.Logger

	registered      metric.Int64Counter
	partialFailures metric.Int64Counter
}

// NewRegisterSaleUseCase creates the use case. With idempotent set, every
// applied stock movement is recorded so a retried sale neither appends a
// second copy nor decrements twice.
func NewRegisterSaleUseCase(
	sales repository.SalesRepository,
	inventory repository.InventoryRepository,
	idempotent bool,
	tracer trace.Tracer,
	meter metric.Meter,
	log *zap.Logger,
) *RegisterSaleUseCase {
	return &RegisterSaleUseCase{
		sales:           sales,
		inventory:       inventory,
		idempotent:      idempotent,
		tracer:          tracer,
		logger:          logger.Component(log, "register_sale"),
		registered:      counter(meter, "retail.sales.registered", "Total number of sales recorded"),
		partialFailures: counter(meter, "retail.sales.partial_failures", "Sales recorded without all stock movements applied"),
	}
}

func projectionKey(saleID string, item int) string {
	return fmt.Sprintf("%s#%d", saleID, item)
}

// Execute records the sale, then applies -quantity to each item's product in
// item order. A failure after the sale is durable returns ErrPartialSale.
func (uc *RegisterSaleUseCase) Execute(ctx context.Context, sale domain.Sale) error {
	ctx, span := uc.tracer.Start(ctx, "RegisterSaleUseCase.Execute")
	defer span.End()

	span.SetAttributes(
		attribute.String("sale.id", sale.ID),
		attribute.Int("sale.items", len(sale.Items)),
		attribute.String("sale.total", sale.Total.String()),
	)

	if uc.idempotent && uc.sales.Has(ctx, sale.ID) {
		uc.logger.Info("Sale already recorded, resuming stock projection", zap.String("sale_id", sale.ID))
	} else {
		if err := uc.sales.RegisterSale(ctx, sale); err != nil {
			fail(span, err, "sale not recorded")
			uc.registered.Add(ctx, 1, result(false))
			return fmt.Errorf("failed to record sale: %w", err)
		}
		uc.registered.Add(ctx, 1, result(true))
	}

	for i, item := range sale.Items {
		key := projectionKey(sale.ID, i)
		if uc.idempotent && uc.sales.IsProjected(ctx, key) {
			continue
		}

		if err := uc.inventory.AdjustStock(ctx, item.ProductID, -item.Quantity); err != nil {
			return uc.partial(ctx, span, sale.ID, item.ProductID, err)
		}

		if uc.idempotent {
			if err := uc.sales.MarkProjected(ctx, key); err != nil {
				return uc.partial(ctx, span, sale.ID, item.ProductID, err)
			}
		}
	}

	uc.logger.Info("Sale registered",
		zap.String("sale_id", sale.ID),
		zap.Int("items", len(sale.Items)),
		zap.String("total", sale.Total.String()),
	)
	return nil
}

func (uc *RegisterSaleUseCase) partial(ctx context.Context, span trace.Span, saleID, productID string, cause error) error {
	fail(span, cause, "stock adjustment incomplete")
	uc.partialFailures.Add(ctx, 1)
	uc.logger.Error("Sale recorded but stock not fully adjusted",
		zap.String("sale_id", saleID),
		zap.String("product_id", productID),
		zap.Error(cause),
	)
	return fmt.Errorf("%w: sale %s, product %s: %w", ErrPartialSale, saleID, productID, cause)
}
