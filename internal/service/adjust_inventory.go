package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"retail-ledger/internal/logger"
	"retail-ledger/internal/repository"
)

// AdjustInventoryUseCase applies a manual stock correction
type AdjustInventoryUseCase struct {
	inventory   repository.InventoryRepository
	tracer      trace.Tracer
	logger      *zap.Logger
	adjustments metric.Int64Counter
}

func NewAdjustInventoryUseCase(
	inventory repository.InventoryRepository,
	tracer trace.Tracer,
	meter metric.Meter,
	log *zap.Logger,
) *AdjustInventoryUseCase {
	return &AdjustInventoryUseCase{
		inventory:   inventory,
		tracer:      tracer,
		logger:      logger.Component(log, "adjust_inventory"),
		adjustments: counter(meter, "retail.stock.adjustments", "Total number of manual stock adjustments"),
	}
}

// Execute adds delta to the product's stock. reason is only logged.
func (uc *AdjustInventoryUseCase) Execute(ctx context.Context, productID string, delta int, reason string) error {
	ctx, span := uc.tracer.Start(ctx, "AdjustInventoryUseCase.Execute")
	defer span.End()

	span.SetAttributes(
		attribute.String("product.id", productID),
		attribute.Int("stock.delta", delta),
	)

	uc.logger.Debug("Adjusting stock",
		zap.String("product_id", productID),
		zap.Int("delta", delta),
		zap.String("reason", reason),
	)

	if err := uc.inventory.AdjustStock(ctx, productID, delta); err != nil {
		fail(span, err, "stock adjustment failed")
		uc.adjustments.Add(ctx, 1, result(false))
		return err
	}

	uc.adjustments.Add(ctx, 1, result(true))
	return nil
}
