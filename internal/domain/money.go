package domain

import "github.com/shopspring/decimal"

// Stored collections carry prices and totals as plain JSON numbers.
// Decoding still accepts quoted strings.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}
