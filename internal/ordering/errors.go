package ordering

import "fmt"

// ProductNotFoundError indicates a requested line referenced a product id
// that does not exist in the catalog. The whole operation is aborted; no
// partial order is produced.
type ProductNotFoundError struct {
	ProductID int64
}

// Error implements the error interface
func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %d not found", e.ProductID)
}

// InvalidLineError indicates a requested line failed validation before any
// catalog lookup or persistence was attempted.
type InvalidLineError struct {
	ProductID int64
	Reason    string
}

// Error implements the error interface
func (e *InvalidLineError) Error() string {
	return fmt.Sprintf("invalid line for product %d: %s", e.ProductID, e.Reason)
}
