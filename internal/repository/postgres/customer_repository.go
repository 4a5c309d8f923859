package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shopfloor/orderdesk/internal/domain"
	"github.com/shopfloor/orderdesk/internal/repository"
)

const (
	CustomerResource = "customer"
)

// CustomerRepository provides database operations for customers
type CustomerRepository struct {
	pool *pgxpool.Pool
}

// NewCustomerRepository creates a new CustomerRepository instance
func NewCustomerRepository(pool *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{pool: pool}
}

// CreateCustomer inserts a new customer and assigns its id.
func (r *CustomerRepository) CreateCustomer(ctx context.Context, customer *domain.Customer) error {
	query := `INSERT INTO customers (name, email, phone, address) VALUES ($1, $2, $3, $4) RETURNING id`

	err := r.pool.QueryRow(ctx, query, customer.Name, customer.Email, customer.Phone, customer.Address).
		Scan(&customer.ID)
	if err != nil {
		return fmt.Errorf("failed to create customer: %w", err)
	}

	return nil
}

// CustomerExists reports whether a customer with the given id exists.
func (r *CustomerRepository) CustomerExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM customers WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check customer with id %d: %w", id, err)
	}

	return exists, nil
}

// GetCustomerByID retrieves a customer together with its orders, each order
// carrying its items and their products.
func (r *CustomerRepository) GetCustomerByID(ctx context.Context, id int64) (*domain.Customer, error) {
	var customer domain.Customer
	query := `SELECT id, name, email, phone, address FROM customers WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).
		Scan(&customer.ID, &customer.Name, &customer.Email, &customer.Phone, &customer.Address)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &repository.NotFoundError{
				Resource: CustomerResource,
				Key:      "id",
				Value:    strconv.FormatInt(id, 10),
			}
		}
		return nil, fmt.Errorf("failed to retrieve customer with id %d: %w", id, err)
	}

	orders, err := queryOrders(ctx, r.pool, "WHERE o.customer_id = $1", id)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve orders for customer %d: %w", id, err)
	}
	// Drop the back-reference; the customer is the enclosing document here.
	for i := range orders {
		orders[i].Customer = nil
	}
	customer.Orders = orders

	return &customer, nil
}

// ListCustomers retrieves all customers, each with its orders (items omitted,
// matching the list view).
func (r *CustomerRepository) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, email, phone, address FROM customers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()

	customers := make([]domain.Customer, 0)
	index := make(map[int64]int)
	for rows.Next() {
		var customer domain.Customer
		if err := rows.Scan(&customer.ID, &customer.Name, &customer.Email, &customer.Phone, &customer.Address); err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customer.Orders = make([]domain.Order, 0)
		index[customer.ID] = len(customers)
		customers = append(customers, customer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read customers: %w", err)
	}

	orderRows, err := r.pool.Query(ctx,
		`SELECT id, customer_id, status, total, created_at FROM orders ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list customer orders: %w", err)
	}
	defer orderRows.Close()

	for orderRows.Next() {
		var order domain.Order
		if err := orderRows.Scan(&order.ID, &order.CustomerID, &order.Status, &order.Total, &order.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan customer order: %w", err)
		}
		order.Items = make([]domain.Item, 0)
		if i, ok := index[order.CustomerID]; ok {
			customers[i].Orders = append(customers[i].Orders, order)
		}
	}
	if err := orderRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read customer orders: %w", err)
	}

	return customers, nil
}

// UpdateCustomer replaces the mutable fields of an existing customer.
func (r *CustomerRepository) UpdateCustomer(ctx context.Context, customer *domain.Customer) error {
	query := `UPDATE customers SET name = $2, email = $3, phone = $4, address = $5 WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, customer.ID, customer.Name, customer.Email, customer.Phone, customer.Address)
	if err != nil {
		return fmt.Errorf("failed to update customer with id %d: %w", customer.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return &repository.NotFoundError{
			Resource: CustomerResource,
			Key:      "id",
			Value:    strconv.FormatInt(customer.ID, 10),
		}
	}

	return nil
}

// DeleteCustomer removes a customer. A customer that still owns orders
// cannot be deleted and yields a ConflictError.
func (r *CustomerRepository) DeleteCustomer(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == fkViolationCode {
			return &repository.ConflictError{
				Resource: CustomerResource,
				Reason:   fmt.Sprintf("customer %d still owns orders", id),
			}
		}
		return fmt.Errorf("failed to delete customer with id %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return &repository.NotFoundError{
			Resource: CustomerResource,
			Key:      "id",
			Value:    strconv.FormatInt(id, 10),
		}
	}

	return nil
}
