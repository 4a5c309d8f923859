package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/shopfloor/orderdesk/internal/domain"
	"github.com/shopfloor/orderdesk/internal/ordering"
	"github.com/shopfloor/orderdesk/internal/repository"
)

const (
	OrderResource = "order"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// OrderRepository provides database operations for orders and their items.
// Writes that touch items run inside a single transaction so the item set
// and the derived total can never diverge.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository creates a new OrderRepository instance
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// CreateOrder persists a new order and its priced lines atomically and
// returns the assigned order id.
func (r *OrderRepository) CreateOrder(
	ctx context.Context,
	customerID int64,
	status domain.OrderStatus,
	total decimal.Decimal,
	lines []ordering.PricedLine,
) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin create order: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var orderID int64
	err = tx.QueryRow(ctx,
		`INSERT INTO orders (customer_id, status, total) VALUES ($1, $2, $3) RETURNING id`,
		customerID, status, total,
	).Scan(&orderID)
	if err != nil {
		return 0, fmt.Errorf("failed to create order: %w", err)
	}

	if err := insertItems(ctx, tx, orderID, lines); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit create order: %w", err)
	}

	return orderID, nil
}

// GetOrderByID retrieves an order with its customer and its items, each item
// carrying its product.
func (r *OrderRepository) GetOrderByID(ctx context.Context, id int64) (*domain.Order, error) {
	orders, err := queryOrders(ctx, r.pool, "WHERE o.id = $1", id)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve order with id %d: %w", id, err)
	}
	if len(orders) == 0 {
		return nil, &repository.NotFoundError{
			Resource: OrderResource,
			Key:      "id",
			Value:    strconv.FormatInt(id, 10),
		}
	}

	return &orders[0], nil
}

// ListOrders retrieves all orders with nested customers and items.
func (r *OrderRepository) ListOrders(ctx context.Context) ([]domain.Order, error) {
	orders, err := queryOrders(ctx, r.pool, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	return orders, nil
}

// UpdateOrderFields applies a fields-only update. Items and total are left
// untouched; nil fields keep their current value.
func (r *OrderRepository) UpdateOrderFields(ctx context.Context, id int64, upd ordering.FieldsOnlyUpdate) error {
	query := `UPDATE orders SET customer_id = COALESCE($2, customer_id), status = COALESCE($3, status) WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id, upd.CustomerID, upd.Status)
	if err != nil {
		return fmt.Errorf("failed to update order with id %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return &repository.NotFoundError{
			Resource: OrderResource,
			Key:      "id",
			Value:    strconv.FormatInt(id, 10),
		}
	}

	return nil
}

// ReplaceItems deletes every item of the order and persists the new priced
// lines, the recomputed total, and any supplied field updates in a single
// transaction. A failure anywhere rolls the whole replacement back, so the
// order never ends up item-less with a stale total.
func (r *OrderRepository) ReplaceItems(
	ctx context.Context,
	id int64,
	upd ordering.FieldsOnlyUpdate,
	total decimal.Decimal,
	lines []ordering.PricedLine,
) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin replace items: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var exists int
	err = tx.QueryRow(ctx, `SELECT 1 FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&exists)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &repository.NotFoundError{
				Resource: OrderResource,
				Key:      "id",
				Value:    strconv.FormatInt(id, 10),
			}
		}
		return fmt.Errorf("failed to lock order with id %d: %w", id, err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM items WHERE order_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete items for order %d: %w", id, err)
	}

	if err := insertItems(ctx, tx, id, lines); err != nil {
		return err
	}

	_, err = tx.Exec(ctx,
		`UPDATE orders SET total = $2, customer_id = COALESCE($3, customer_id), status = COALESCE($4, status) WHERE id = $1`,
		id, total, upd.CustomerID, upd.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to update order %d during item replacement: %w", id, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit replace items: %w", err)
	}

	return nil
}

// DeleteOrder removes an order; its items go with it via the cascading
// foreign key.
func (r *OrderRepository) DeleteOrder(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete order with id %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return &repository.NotFoundError{
			Resource: OrderResource,
			Key:      "id",
			Value:    strconv.FormatInt(id, 10),
		}
	}

	return nil
}

func insertItems(ctx context.Context, tx pgx.Tx, orderID int64, lines []ordering.PricedLine) error {
	for _, line := range lines {
		_, err := tx.Exec(ctx,
			`INSERT INTO items (order_id, product_id, quantity, price) VALUES ($1, $2, $3, $4)`,
			orderID, line.ProductID, line.Quantity, line.Price,
		)
		if err != nil {
			return fmt.Errorf("failed to create item for product %d: %w", line.ProductID, err)
		}
	}

	return nil
}

// queryOrders loads orders matching the where clause together with their
// customers, items, and item products.
func queryOrders(ctx context.Context, q querier, where string, args ...any) ([]domain.Order, error) {
	query := fmt.Sprintf(`
SELECT
  o.id, o.customer_id, o.status, o.total, o.created_at,
  c.id, c.name, c.email, c.phone, c.address
FROM orders o
JOIN customers c ON c.id = o.customer_id
%s
ORDER BY o.id`, where)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	index := make(map[int64]int)
	ids := make([]int64, 0)
	for rows.Next() {
		var order domain.Order
		var customer domain.Customer
		err := rows.Scan(
			&order.ID, &order.CustomerID, &order.Status, &order.Total, &order.CreatedAt,
			&customer.ID, &customer.Name, &customer.Email, &customer.Phone, &customer.Address,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		order.Customer = &customer
		order.Items = make([]domain.Item, 0)
		index[order.ID] = len(orders)
		ids = append(ids, order.ID)
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read orders: %w", err)
	}

	if len(orders) == 0 {
		return orders, nil
	}

	itemRows, err := q.Query(ctx, `
SELECT
  i.id, i.order_id, i.product_id, i.quantity, i.price,
  p.id, p.name, p.description, p.price, p.stock
FROM items i
JOIN products p ON p.id = i.product_id
WHERE i.order_id = ANY($1)
ORDER BY i.id`, ids)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var item domain.Item
		var product domain.Product
		err := itemRows.Scan(
			&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.Price,
			&product.ID, &product.Name, &product.Description, &product.Price, &product.Stock,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		item.Product = &product
		if i, ok := index[item.OrderID]; ok {
			orders[i].Items = append(orders[i].Items, item)
		}
	}
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("read order items: %w", err)
	}

	return orders, nil
}
