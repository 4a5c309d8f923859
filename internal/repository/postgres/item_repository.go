package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shopfloor/orderdesk/internal/domain"
	"github.com/shopfloor/orderdesk/internal/repository"
)

const (
	ItemResource = "item"
)

// ItemRepository provides read access to order items. Items are written only
// through the order aggregate, never directly.
type ItemRepository struct {
	pool *pgxpool.Pool
}

// NewItemRepository creates a new ItemRepository instance
func NewItemRepository(pool *pgxpool.Pool) *ItemRepository {
	return &ItemRepository{pool: pool}
}

const itemSelect = `
SELECT
  i.id, i.order_id, i.product_id, i.quantity, i.price,
  o.id, o.customer_id, o.status, o.total, o.created_at,
  p.id, p.name, p.description, p.price, p.stock
FROM items i
JOIN orders o ON o.id = i.order_id
JOIN products p ON p.id = i.product_id`

// GetItemByID retrieves an item with its owning order and product.
func (r *ItemRepository) GetItemByID(ctx context.Context, id int64) (*domain.Item, error) {
	rows, err := r.pool.Query(ctx, itemSelect+` WHERE i.id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve item with id %d: %w", id, err)
	}
	defer rows.Close()

	items, err := scanItems(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan item with id %d: %w", id, err)
	}
	if len(items) == 0 {
		return nil, &repository.NotFoundError{
			Resource: ItemResource,
			Key:      "id",
			Value:    strconv.FormatInt(id, 10),
		}
	}

	return &items[0], nil
}

// ListItems retrieves all items with their owning orders and products.
func (r *ItemRepository) ListItems(ctx context.Context) ([]domain.Item, error) {
	rows, err := r.pool.Query(ctx, itemSelect+` ORDER BY i.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	items, err := scanItems(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan items: %w", err)
	}

	return items, nil
}

func scanItems(rows pgx.Rows) ([]domain.Item, error) {
	items := make([]domain.Item, 0)
	for rows.Next() {
		var item domain.Item
		var order domain.Order
		var product domain.Product
		err := rows.Scan(
			&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.Price,
			&order.ID, &order.CustomerID, &order.Status, &order.Total, &order.CreatedAt,
			&product.ID, &product.Name, &product.Description, &product.Price, &product.Stock,
		)
		if err != nil {
			return nil, err
		}
		item.Order = &order
		item.Product = &product
		items = append(items, item)
	}
	if err := rows.Err(); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	return items, nil
}
