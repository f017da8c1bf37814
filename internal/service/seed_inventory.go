package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"retail-ledger/internal/domain"
	"retail-ledger/internal/logger"
	"retail-ledger/internal/repository"
)

// DefaultSeed returns the starter catalogue
func DefaultSeed() []domain.Product {
	return []domain.Product{
		{ID: "P1", Name: "Hambúrguer", Unit: domain.DefaultUnit, CurrentQuantity: 20, MinQuantity: 5, Price: decimal.NewFromInt(15), Active: true},
		{ID: "P2", Name: "Refrigerante Lata", Unit: domain.DefaultUnit, CurrentQuantity: 30, MinQuantity: 10, Price: decimal.NewFromInt(6), Active: true},
		{ID: "P3", Name: "Porção Batata", Unit: domain.DefaultUnit, CurrentQuantity: 12, MinQuantity: 4, Price: decimal.NewFromInt(18), Active: true},
	}
}

// SeedInventoryUseCase fills an empty inventory with a starter catalogue
type SeedInventoryUseCase struct {
	inventory repository.InventoryRepository
	tracer    trace.Tracer
	logger    *zap.Logger
}

func NewSeedInventoryUseCase(inventory repository.InventoryRepository, tracer trace.Tracer, log *zap.Logger) *SeedInventoryUseCase {
	return &SeedInventoryUseCase{
		inventory: inventory,
		tracer:    tracer,
		logger:    logger.Component(log, "seed_inventory"),
	}
}

// Execute saves products only if the inventory holds none. It reports whether
// anything was written.
func (uc *SeedInventoryUseCase) Execute(ctx context.Context, products []domain.Product) (bool, error) {
	ctx, span := uc.tracer.Start(ctx, "SeedInventoryUseCase.Execute")
	defer span.End()

	if len(uc.inventory.GetAll(ctx)) > 0 {
		uc.logger.Debug("Inventory not empty, skipping seed")
		return false, nil
	}

	for _, p := range products {
		if err := uc.inventory.Save(ctx, p); err != nil {
			fail(span, err, "seed failed")
			return true, fmt.Errorf("failed to seed product %s: %w", p.ID, err)
		}
	}

	uc.logger.Info("Inventory seeded", zap.Int("products", len(products)))
	return true, nil
}
