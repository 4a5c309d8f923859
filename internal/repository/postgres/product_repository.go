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
	ProductResource = "product"
)

// foreign key violation, see postgres error code table
const fkViolationCode = "23503"

// ProductRepository provides database operations for catalog products
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository creates a new ProductRepository instance
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// CreateProduct inserts a new product and assigns its id.
func (r *ProductRepository) CreateProduct(ctx context.Context, product *domain.Product) error {
	query := `INSERT INTO products (name, description, price, stock) VALUES ($1, $2, $3, $4) RETURNING id`

	err := r.pool.QueryRow(ctx, query, product.Name, product.Description, product.Price, product.Stock).
		Scan(&product.ID)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// FindProduct retrieves a product by its id. It backs the ordering catalog
// lookups as well as the product read endpoint.
func (r *ProductRepository) FindProduct(ctx context.Context, id int64) (*domain.Product, error) {
	var product domain.Product
	query := `SELECT id, name, description, price, stock FROM products WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).
		Scan(&product.ID, &product.Name, &product.Description, &product.Price, &product.Stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &repository.NotFoundError{
				Resource: ProductResource,
				Key:      "id",
				Value:    strconv.FormatInt(id, 10),
			}
		}
		return nil, fmt.Errorf("failed to retrieve product with id %d: %w", id, err)
	}

	return &product, nil
}

// ListProducts retrieves all products ordered by id.
func (r *ProductRepository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	query := `SELECT id, name, description, price, stock FROM products ORDER BY id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		var product domain.Product
		if err := rows.Scan(&product.ID, &product.Name, &product.Description, &product.Price, &product.Stock); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read products: %w", err)
	}

	return products, nil
}

// UpdateProduct replaces the mutable fields of an existing product.
func (r *ProductRepository) UpdateProduct(ctx context.Context, product *domain.Product) error {
	query := `UPDATE products SET name = $2, description = $3, price = $4, stock = $5 WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, product.ID, product.Name, product.Description, product.Price, product.Stock)
	if err != nil {
		return fmt.Errorf("failed to update product with id %d: %w", product.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return &repository.NotFoundError{
			Resource: ProductResource,
			Key:      "id",
			Value:    strconv.FormatInt(product.ID, 10),
		}
	}

	return nil
}

// DeleteProduct removes a product. A product still referenced by order items
// cannot be deleted and yields a ConflictError.
func (r *ProductRepository) DeleteProduct(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == fkViolationCode {
			return &repository.ConflictError{
				Resource: ProductResource,
				Reason:   fmt.Sprintf("product %d is referenced by order items", id),
			}
		}
		return fmt.Errorf("failed to delete product with id %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return &repository.NotFoundError{
			Resource: ProductResource,
			Key:      "id",
			Value:    strconv.FormatInt(id, 10),
		}
	}

	return nil
}
