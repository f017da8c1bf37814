package domain

import (
	"errors"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultUnit is the unit-of-measure label used when none is given
const DefaultUnit = "un"

var (
	ErrProductIDRequired   = errors.New("product id is required")
	ErrProductNameRequired = errors.New("product name is required")
	ErrNegativeQuantity    = errors.New("quantity must not be negative")
	ErrNegativePrice       = errors.New("price must not be negative")
)

// Product represents a stock-keeping item of the shop
type Product struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Unit            string          `json:"unit"`
	CurrentQuantity int             `json:"currentQuantity"`
	MinQuantity     int             `json:"minQuantity"`
	Price           decimal.Decimal `json:"price"`
	Active          bool            `json:"active"`
	Barcode         string          `json:"barcode,omitempty"`
}

// NewProduct creates an active product with the default reorder threshold
// of 20% of the opening quantity (never below one unit)
func NewProduct(id, name, unit string, quantity int, price decimal.Decimal) (*Product, error) {
	if unit == "" {
		unit = DefaultUnit
	}

	minQuantity := quantity / 5
	if minQuantity < 1 {
		minQuantity = 1
	}

	product := &Product{
		ID:              id,
		Name:            name,
		Unit:            unit,
		CurrentQuantity: quantity,
		MinQuantity:     minQuantity,
		Price:           price,
		Active:          true,
	}

	if err := product.Validate(); err != nil {
		return nil, err
	}

	return product, nil
}

// Validate performs business validation on the product
func (p *Product) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return ErrProductIDRequired
	}
	if strings.TrimSpace(p.Name) == "" {
		return ErrProductNameRequired
	}
	if p.CurrentQuantity < 0 || p.MinQuantity < 0 {
		return ErrNegativeQuantity
	}
	if p.Price.IsNegative() {
		return ErrNegativePrice
	}
	return nil
}

// WithDelta returns the quantity after applying delta, clamped at zero and
// saturated at math.MaxInt
func (p *Product) WithDelta(delta int) int {
	next := p.CurrentQuantity + delta
	if delta > 0 && next < p.CurrentQuantity {
		return math.MaxInt
	}
	if next < 0 {
		return 0
	}
	return next
}

// IsLowStock reports whether the product sits at or below its reorder point
// raised by the fractional threshold buffer
func (p *Product) IsLowStock(threshold float64) bool {
	limit := decimal.NewFromInt(int64(p.MinQuantity)).
		Mul(decimal.NewFromFloat(1 + threshold))
	return decimal.NewFromInt(int64(p.CurrentQuantity)).LessThanOrEqual(limit)
}
