package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopfloor/orderdesk/internal/domain"
	"github.com/shopfloor/orderdesk/internal/ordering"
	"github.com/shopfloor/orderdesk/internal/repository"
)

func TestOrderRepository_CreateOrder(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	repo := NewOrderRepository(pool)
	customerID := seedCustomer(t, pool, "Ada", "ada@example.com")
	widgetID := seedProduct(t, pool, "Widget", "9.99")
	gadgetID := seedProduct(t, pool, "Gadget", "19.99")

	testCases := map[string]struct {
		lines         []ordering.PricedLine
		total         string
		expectedItems int
	}{
		"should persist order with priced items and total": {
			lines: []ordering.PricedLine{
				{ProductID: widgetID, Quantity: 2, Price: dec("9.99")},
				{ProductID: gadgetID, Quantity: 1, Price: dec("15.00")},
			},
			total:         "34.98",
			expectedItems: 2,
		},
		"should persist order with no items and zero total": {
			lines:         nil,
			total:         "0",
			expectedItems: 0,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			orderID, err := repo.CreateOrder(
				context.Background(), customerID, domain.StatusPending, dec(tc.total), tc.lines)
			require.NoError(t, err)

			order, err := repo.GetOrderByID(context.Background(), orderID)
			require.NoError(t, err)

			assert.Equal(t, customerID, order.CustomerID)
			assert.Equal(t, domain.StatusPending, order.Status)
			assert.True(t, dec(tc.total).Equal(order.Total), "total: expected %s, got %s", tc.total, order.Total)
			assert.Len(t, order.Items, tc.expectedItems)
			require.NotNil(t, order.Customer)
			assert.Equal(t, "Ada", order.Customer.Name)

			sum := decimal.Zero
			for _, item := range order.Items {
				require.NotNil(t, item.Product)
				sum = sum.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
			}
			assert.True(t, sum.Equal(order.Total), "order total must equal item sum")
		})
	}
}

func TestOrderRepository_CatalogPriceChangeDoesNotTouchItems(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	orders := NewOrderRepository(pool)
	products := NewProductRepository(pool)

	customerID := seedCustomer(t, pool, "Ada", "ada@example.com")
	productID := seedProduct(t, pool, "Widget", "9.99")

	orderID, err := orders.CreateOrder(context.Background(), customerID, domain.StatusPending, dec("19.98"),
		[]ordering.PricedLine{{ProductID: productID, Quantity: 2, Price: dec("9.99")}})
	require.NoError(t, err)

	product, err := products.FindProduct(context.Background(), productID)
	require.NoError(t, err)
	product.Price = dec("99.99")
	require.NoError(t, products.UpdateProduct(context.Background(), product))

	order, err := orders.GetOrderByID(context.Background(), orderID)
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.True(t, order.Items[0].Price.Equal(dec("9.99")), "item price must stay frozen")
	assert.True(t, order.Total.Equal(dec("19.98")), "order total must stay frozen")
	assert.True(t, order.Items[0].Product.Price.Equal(dec("99.99")), "nested product reflects the live catalog")
}

func TestOrderRepository_ReplaceItems(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	repo := NewOrderRepository(pool)
	customerID := seedCustomer(t, pool, "Ada", "ada@example.com")
	widgetID := seedProduct(t, pool, "Widget", "9.99")
	gadgetID := seedProduct(t, pool, "Gadget", "19.99")

	newOrder := func(t *testing.T) int64 {
		orderID, err := repo.CreateOrder(context.Background(), customerID, domain.StatusPending, dec("9.99"),
			[]ordering.PricedLine{{ProductID: widgetID, Quantity: 1, Price: dec("9.99")}})
		require.NoError(t, err)
		return orderID
	}

	t.Run("should replace the whole item set and total", func(t *testing.T) {
		orderID := newOrder(t)

		err := repo.ReplaceItems(context.Background(), orderID, ordering.FieldsOnlyUpdate{}, dec("59.97"),
			[]ordering.PricedLine{{ProductID: gadgetID, Quantity: 3, Price: dec("19.99")}})
		require.NoError(t, err)

		order, err := repo.GetOrderByID(context.Background(), orderID)
		require.NoError(t, err)
		require.Len(t, order.Items, 1)
		assert.Equal(t, gadgetID, order.Items[0].ProductID)
		assert.Equal(t, 3, order.Items[0].Quantity)
		assert.True(t, order.Total.Equal(dec("59.97")))
	})

	t.Run("should accept empty replacement leaving a zero-total order", func(t *testing.T) {
		orderID := newOrder(t)

		err := repo.ReplaceItems(context.Background(), orderID, ordering.FieldsOnlyUpdate{}, decimal.Zero, nil)
		require.NoError(t, err)

		order, err := repo.GetOrderByID(context.Background(), orderID)
		require.NoError(t, err)
		assert.Empty(t, order.Items)
		assert.True(t, order.Total.IsZero())
	})

	t.Run("should apply supplied fields together with the replacement", func(t *testing.T) {
		orderID := newOrder(t)

		status := domain.StatusProcessing
		err := repo.ReplaceItems(context.Background(), orderID,
			ordering.FieldsOnlyUpdate{Status: &status}, dec("19.99"),
			[]ordering.PricedLine{{ProductID: gadgetID, Quantity: 1, Price: dec("19.99")}})
		require.NoError(t, err)

		order, err := repo.GetOrderByID(context.Background(), orderID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusProcessing, order.Status)
	})

	t.Run("should roll back entirely when an item insert fails", func(t *testing.T) {
		orderID := newOrder(t)

		// second line violates the product foreign key
		err := repo.ReplaceItems(context.Background(), orderID, ordering.FieldsOnlyUpdate{}, dec("9.99"),
			[]ordering.PricedLine{
				{ProductID: widgetID, Quantity: 1, Price: dec("9.99")},
				{ProductID: 999999, Quantity: 1, Price: dec("1.00")},
			})
		require.Error(t, err)

		order, err := repo.GetOrderByID(context.Background(), orderID)
		require.NoError(t, err)
		require.Len(t, order.Items, 1, "previous items must survive a failed replacement")
		assert.Equal(t, widgetID, order.Items[0].ProductID)
		assert.True(t, order.Total.Equal(dec("9.99")), "previous total must survive a failed replacement")
	})

	t.Run("should return NotFoundError for unknown order", func(t *testing.T) {
		err := repo.ReplaceItems(context.Background(), 999999, ordering.FieldsOnlyUpdate{}, decimal.Zero, nil)

		var notFound *repository.NotFoundError
		require.True(t, errors.As(err, &notFound))
		assert.Equal(t, OrderResource, notFound.Resource)
	})
}

func TestOrderRepository_UpdateOrderFields(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	repo := NewOrderRepository(pool)
	customerID := seedCustomer(t, pool, "Ada", "ada@example.com")
	productID := seedProduct(t, pool, "Widget", "9.99")

	orderID, err := repo.CreateOrder(context.Background(), customerID, domain.StatusPending, dec("9.99"),
		[]ordering.PricedLine{{ProductID: productID, Quantity: 1, Price: dec("9.99")}})
	require.NoError(t, err)

	status := domain.StatusCancelled
	require.NoError(t, repo.UpdateOrderFields(context.Background(), orderID, ordering.FieldsOnlyUpdate{Status: &status}))

	order, err := repo.GetOrderByID(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, order.Status)
	assert.Len(t, order.Items, 1, "fields-only update must not touch items")
	assert.True(t, order.Total.Equal(dec("9.99")), "fields-only update must not touch total")
}

func TestOrderRepository_DeleteOrder(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	orders := NewOrderRepository(pool)
	items := NewItemRepository(pool)

	customerID := seedCustomer(t, pool, "Ada", "ada@example.com")
	productID := seedProduct(t, pool, "Widget", "9.99")

	orderID, err := orders.CreateOrder(context.Background(), customerID, domain.StatusPending, dec("19.98"),
		[]ordering.PricedLine{{ProductID: productID, Quantity: 2, Price: dec("9.99")}})
	require.NoError(t, err)

	require.NoError(t, orders.DeleteOrder(context.Background(), orderID))

	_, err = orders.GetOrderByID(context.Background(), orderID)
	var notFound *repository.NotFoundError
	assert.True(t, errors.As(err, &notFound))

	remaining, err := items.ListItems(context.Background())
	require.NoError(t, err)
	for _, item := range remaining {
		assert.NotEqual(t, orderID, item.OrderID, "items must be deleted with their order")
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// setupTestDB connects to the test database configured via POSTGRES_* env
// vars and truncates the tables. Tests are skipped when no database is
// configured so the unit suite stays runnable standalone.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	if os.Getenv("POSTGRES_HOST") == "" {
		t.Skip("POSTGRES_HOST not set; skipping postgres integration tests")
	}

	pg := fmt.Sprintf(
		"postgres://%s:%s@%s/%s?sslmode=%s",
		os.Getenv("POSTGRES_USER"),
		os.Getenv("POSTGRES_PASSWORD"),
		os.Getenv("POSTGRES_HOST"),
		os.Getenv("POSTGRES_DB_TEST"),
		os.Getenv("POSTGRES_SSL"),
	)

	pool, err := pgxpool.New(context.Background(), pg)
	require.NoError(t, err)

	_, err = pool.Exec(context.Background(), "TRUNCATE TABLE items, orders, products, customers RESTART IDENTITY CASCADE")
	require.NoError(t, err)

	return pool
}

func seedCustomer(t *testing.T, pool *pgxpool.Pool, name, email string) int64 {
	var id int64
	err := pool.QueryRow(context.Background(),
		"INSERT INTO customers (name, email) VALUES ($1, $2) RETURNING id", name, email).Scan(&id)
	require.NoError(t, err)
	return id
}

func seedProduct(t *testing.T, pool *pgxpool.Pool, name, price string) int64 {
	var id int64
	err := pool.QueryRow(context.Background(),
		"INSERT INTO products (name, price, stock) VALUES ($1, $2, 10) RETURNING id", name, dec(price)).Scan(&id)
	require.NoError(t, err)
	return id
}
