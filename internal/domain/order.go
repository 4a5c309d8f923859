package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order. Any status may be set from
// any other; no transition graph is enforced.
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusCompleted  OrderStatus = "completed"
	StatusCancelled  OrderStatus = "cancelled"

	DefaultStatus = StatusPending
)

// Valid reports whether s is one of the known order statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Order represents a customer order. Total is derived from its items and is
// never client-supplied.
type Order struct {
	ID         int64           `json:"id"`
	CustomerID int64           `json:"customerId"`
	Status     OrderStatus     `json:"status"`
	Total      decimal.Decimal `json:"total"`
	CreatedAt  time.Time       `json:"createdAt"`
	Customer   *Customer       `json:"customer,omitempty"`
	Items      []Item          `json:"items"`
}

// Item is a single product/quantity/price line belonging to exactly one
// order. Price is the unit price frozen at order time; later catalog price
// changes never alter it.
type Item struct {
	ID        int64           `json:"id"`
	OrderID   int64           `json:"orderId"`
	ProductID int64           `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Product   *Product        `json:"product,omitempty"`
	Order     *Order          `json:"order,omitempty"`
}
