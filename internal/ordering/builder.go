// Package ordering implements the order aggregation and pricing core: it
// resolves requested lines against the catalog, fixes each line's unit price,
// and derives the order total.
package ordering

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/shopfloor/orderdesk/internal/domain"
	"github.com/shopfloor/orderdesk/internal/repository"
)

// Catalog is the product lookup collaborator. Implementations return a
// *repository.NotFoundError when the id does not resolve.
type Catalog interface {
	FindProduct(ctx context.Context, id int64) (*domain.Product, error)
}

// LineSpec is a requested order line. Price, when non-nil, is an explicit
// unit-price override that takes precedence over the catalog price; an
// explicit zero is honored.
type LineSpec struct {
	ProductID int64
	Quantity  int
	Price     *decimal.Decimal
}

// PricedLine is a resolved line with its effective unit price fixed.
type PricedLine struct {
	ProductID int64
	Quantity  int
	Price     decimal.Decimal
}

// Builder resolves line specs into priced lines. It performs no persistence.
type Builder struct {
	catalog Catalog
}

// NewBuilder creates a new Builder backed by the given catalog.
func NewBuilder(catalog Catalog) *Builder {
	return &Builder{catalog: catalog}
}

// PriceLines resolves each spec in input order and returns the priced lines
// together with the exact decimal total sum(price * quantity). The operation
// is all-or-nothing: any invalid quantity, negative price override, or
// unresolved product id fails the whole call and no lines are returned.
func (b *Builder) PriceLines(ctx context.Context, specs []LineSpec) ([]PricedLine, decimal.Decimal, error) {
	total := decimal.Zero
	lines := make([]PricedLine, 0, len(specs))

	for _, spec := range specs {
		if spec.Quantity <= 0 {
			return nil, decimal.Zero, &InvalidLineError{
				ProductID: spec.ProductID,
				Reason:    "quantity must be positive",
			}
		}
		if spec.Price != nil && spec.Price.IsNegative() {
			return nil, decimal.Zero, &InvalidLineError{
				ProductID: spec.ProductID,
				Reason:    "price must not be negative",
			}
		}

		product, err := b.catalog.FindProduct(ctx, spec.ProductID)
		if err != nil {
			var notFound *repository.NotFoundError
			if errors.As(err, &notFound) {
				return nil, decimal.Zero, &ProductNotFoundError{ProductID: spec.ProductID}
			}
			return nil, decimal.Zero, err
		}

		price := product.Price
		if spec.Price != nil {
			price = *spec.Price
		}

		total = total.Add(price.Mul(decimal.NewFromInt(int64(spec.Quantity))))
		lines = append(lines, PricedLine{
			ProductID: spec.ProductID,
			Quantity:  spec.Quantity,
			Price:     price,
		})
	}

	return lines, total, nil
}
