package service

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"retail-ledger/internal/domain"
	"retail-ledger/internal/repository"
)

// GetWeeklyReportUseCase aggregates units sold and revenue per product
type GetWeeklyReportUseCase struct {
	sales     repository.SalesRepository
	inventory repository.InventoryRepository
	window    time.Duration
	now       Clock
	tracer    trace.Tracer
	reports   metric.Int64Counter
}

func NewGetWeeklyReportUseCase(
	sales repository.SalesRepository,
	inventory repository.InventoryRepository,
	window time.Duration,
	now Clock,
	tracer trace.Tracer,
	meter metric.Meter,
) *GetWeeklyReportUseCase {
	if window <= 0 {
		window = repository.DefaultWeeklyWindow
	}
	return &GetWeeklyReportUseCase{
		sales:     sales,
		inventory: inventory,
		window:    window,
		now:       clockOrNow(now),
		tracer:    tracer,
		reports:   counter(meter, "retail.reports.generated", "Total number of sales reports generated"),
	}
}

// Execute builds the report for rng, or for the trailing window ending now
// when rng is nil. Products are ordered by revenue, highest first; ties keep
// the order in which the products first appear in the sales log.
func (uc *GetWeeklyReportUseCase) Execute(ctx context.Context, rng *domain.ReportRange) domain.WeeklyReport {
	ctx, span := uc.tracer.Start(ctx, "GetWeeklyReportUseCase.Execute")
	defer span.End()

	var window domain.ReportRange
	if rng != nil {
		window = *rng
	} else {
		window = domain.TrailingWindow(time.UnixMilli(uc.now().UnixMilli()), uc.window)
	}

	names := make(map[string]string)
	for _, p := range uc.inventory.GetAll(ctx) {
		names[p.ID] = p.Name
	}

	var order []string
	summaries := make(map[string]*domain.ProductSummary)
	for _, sale := range uc.sales.List(ctx) {
		if !window.Contains(sale.Time()) {
			continue
		}
		for _, item := range sale.Items {
			s, ok := summaries[item.ProductID]
			if !ok {
				name, known := names[item.ProductID]
				if !known {
					name = item.ProductID
				}
				s = &domain.ProductSummary{ProductID: item.ProductID, Name: name, Revenue: decimal.Zero}
				summaries[item.ProductID] = s
				order = append(order, item.ProductID)
			}
			s.QuantitySold += item.Quantity
			s.Revenue = s.Revenue.Add(item.Subtotal())
		}
	}

	products := make([]domain.ProductSummary, 0, len(order))
	total := decimal.Zero
	for _, id := range order {
		products = append(products, *summaries[id])
		total = total.Add(summaries[id].Revenue)
	}
	sort.SliceStable(products, func(i, j int) bool {
		return products[i].Revenue.GreaterThan(products[j].Revenue)
	})

	report := domain.WeeklyReport{
		From:         window.From,
		TotalRevenue: total,
		Products:     products,
	}
	if !window.To.IsZero() {
		to := window.To
		report.To = &to
	}

	span.SetAttributes(
		attribute.Int("report.products", len(products)),
		attribute.String("report.total_revenue", total.String()),
	)
	uc.reports.Add(ctx, 1)

	return report
}
