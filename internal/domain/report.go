package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReportRange is an inclusive instant range. A zero To leaves the range open
// ended, which also admits sales stamped after the call time.
type ReportRange struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t falls inside the range
func (r ReportRange) Contains(t time.Time) bool {
	if t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && t.After(r.To) {
		return false
	}
	return true
}

// TrailingWindow returns the range covering the last window up to now
func TrailingWindow(now time.Time, window time.Duration) ReportRange {
	return ReportRange{From: now.Add(-window)}
}

// ProductSummary aggregates the units sold and revenue of one product
type ProductSummary struct {
	ProductID    string          `json:"productId"`
	Name         string          `json:"name"`
	QuantitySold int             `json:"quantitySold"`
	Revenue      decimal.Decimal `json:"revenue"`
}

// WeeklyReport is the per-product revenue breakdown of a report window
type WeeklyReport struct {
	From         time.Time        `json:"from"`
	To           *time.Time       `json:"to,omitempty"`
	TotalRevenue decimal.Decimal  `json:"totalRevenue"`
	Products     []ProductSummary `json:"products"`
}
