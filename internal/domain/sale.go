package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrSaleIDRequired      = errors.New("sale id is required")
	ErrEmptySale           = errors.New("sale must contain at least one item")
	ErrInvalidItemQuantity = errors.New("sale item quantity must be greater than zero")
	ErrTotalMismatch       = errors.New("sale total does not match its items")
)

// SaleItem is one line of a sale. UnitPrice is a snapshot taken when the sale
// was created and is independent of the product's current price.
type SaleItem struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// Subtotal returns quantity × unit price
func (i SaleItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Sale is an append-only record of a point-of-sale transaction
type Sale struct {
	ID        string          `json:"id"`
	Timestamp int64           `json:"timestamp"` // epoch milliseconds
	Items     []SaleItem      `json:"items"`
	Total     decimal.Decimal `json:"total"`
}

// NewSale builds a sale stamped at the given instant with its total computed
// from the items
func NewSale(id string, at time.Time, items []SaleItem) (*Sale, error) {
	sale := &Sale{
		ID:        id,
		Timestamp: at.UnixMilli(),
		Items:     items,
		Total:     SumItems(items),
	}

	if err := sale.Validate(); err != nil {
		return nil, err
	}

	return sale, nil
}

// SumItems returns the sum of quantity × unit price over items
func SumItems(items []SaleItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// Time returns the sale timestamp as a time.Time
func (s *Sale) Time() time.Time {
	return time.UnixMilli(s.Timestamp)
}

// Validate performs business validation on the sale
func (s *Sale) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return ErrSaleIDRequired
	}
	if len(s.Items) == 0 {
		return ErrEmptySale
	}
	for _, item := range s.Items {
		if strings.TrimSpace(item.ProductID) == "" {
			return ErrProductIDRequired
		}
		if item.Quantity <= 0 {
			return ErrInvalidItemQuantity
		}
		if item.UnitPrice.IsNegative() {
			return ErrNegativePrice
		}
	}
	if !s.Total.Equal(SumItems(s.Items)) {
		return ErrTotalMismatch
	}
	return nil
}
