package domain

import "github.com/shopspring/decimal"

// Product represents a catalog product. Stock is informational only; order
// placement never decrements it.
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
}
