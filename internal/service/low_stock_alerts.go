package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"retail-ledger/internal/domain"
	"retail-ledger/internal/repository"
)

type GetLowStockAlertsUseCase struct {
	inventory repository.InventoryRepository
	tracer    trace.Tracer
}

func NewGetLowStockAlertsUseCase(inventory repository.InventoryRepository, tracer trace.Tracer) *GetLowStockAlertsUseCase {
	return &GetLowStockAlertsUseCase{inventory: inventory, tracer: tracer}
}

func (uc *GetLowStockAlertsUseCase) Execute(ctx context.Context) []domain.Product {
	ctx, span := uc.tracer.Start(ctx, "GetLowStockAlertsUseCase.Execute")
	defer span.End()

	low := uc.inventory.GetLowStock(ctx)
	span.SetAttributes(attribute.Int("stock.low_count", len(low)))
	return low
}
