package ordering

import "github.com/shopfloor/orderdesk/internal/domain"

// The two order-update modes are modeled as distinct request types rather
// than inferred from the presence of a key, so each path can be exercised
// independently.

// FieldsOnlyUpdate changes a subset of the order's scalar fields. Items and
// total are untouched; nil fields are left unchanged.
type FieldsOnlyUpdate struct {
	CustomerID *int64
	Status     *domain.OrderStatus
}

// FullReplaceUpdate discards every existing item of the order and rebuilds
// the item set and total from Lines. An empty Lines slice is legal and
// yields a zero-total order with no items.
type FullReplaceUpdate struct {
	FieldsOnlyUpdate
	Lines []LineSpec
}
