package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/shopfloor/orderdesk/internal/api/rest/handler"
	"github.com/shopfloor/orderdesk/internal/api/rest/middleware"
	"github.com/shopfloor/orderdesk/internal/ordering"
	repository "github.com/shopfloor/orderdesk/internal/repository/postgres"
	"github.com/shopfloor/orderdesk/internal/validation"
	"github.com/shopfloor/orderdesk/internal/version"
)

const (
	DefaultPort = "8080"

	ShutdownTimeout = 10 * time.Second
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger.Info("api_starting", "version", version.Version)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database connection
	dbPool, err := initializeDatabase(ctx, databaseURL())
	if err != nil {
		logger.Error("db_init_failed", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	// Repositories
	customerRepo := repository.NewCustomerRepository(dbPool)
	productRepo := repository.NewProductRepository(dbPool)
	orderRepo := repository.NewOrderRepository(dbPool)
	itemRepo := repository.NewItemRepository(dbPool)

	// Pricing core
	builder := ordering.NewBuilder(productRepo)

	// REST handlers
	validate := validation.New()
	customerHandler := handler.NewCustomerHandler(customerRepo, validate, logger)
	productHandler := handler.NewProductHandler(productRepo, validate, logger)
	orderHandler := handler.NewOrderHandler(orderRepo, customerRepo, builder, validate, logger)
	itemHandler := handler.NewItemHandler(itemRepo, logger)

	// Metrics
	registry := prometheus.NewRegistry()
	metrics := middleware.NewServerMetrics(registry, "api")

	// Routing
	router := buildRouter(customerHandler, productHandler, orderHandler, itemHandler, metrics, registry, logger)

	// HTTP server with sensible timeouts
	port := os.Getenv("PORT")
	if port == "" {
		port = DefaultPort
	}
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("api_listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("api_shutting_down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("api_serve_failed", "error", err)
		os.Exit(1)
	}
}

// databaseURL prefers DATABASE_URL; otherwise it is assembled from the
// discrete POSTGRES_* variables.
func databaseURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}

	return fmt.Sprintf(
		"postgres://%s:%s@%s/%s?sslmode=%s",
		os.Getenv("POSTGRES_USER"),
		os.Getenv("POSTGRES_PASSWORD"),
		os.Getenv("POSTGRES_HOST"),
		os.Getenv("POSTGRES_DB"),
		os.Getenv("POSTGRES_SSL"),
	)
}

// initializeDatabase creates a pool and verifies connectivity.
func initializeDatabase(ctx context.Context, connectionString string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, connectionString)
	if err != nil {
		return nil, fmt.Errorf("create_pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping_db: %w", err)
	}

	return pool, nil
}

// buildRouter wires routes and the shared middleware chain.
func buildRouter(
	customerHandler *handler.CustomerHandler,
	productHandler *handler.ProductHandler,
	orderHandler *handler.OrderHandler,
	itemHandler *handler.ItemHandler,
	metrics *middleware.ServerMetrics,
	registry *prometheus.Registry,
	logger *slog.Logger,
) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.NewAccessLogger(logger).Middleware)
	router.Use(metrics.Middleware)

	router.HandleFunc("/health", handleHealthCheck).Methods(http.MethodGet)
	router.Handle("/metrics", middleware.Handler(registry)).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/customers", customerHandler.ListCustomers).Methods(http.MethodGet)
	api.HandleFunc("/customers", customerHandler.CreateCustomer).Methods(http.MethodPost)
	api.HandleFunc("/customers/{id}", customerHandler.GetCustomerByID).Methods(http.MethodGet)
	api.HandleFunc("/customers/{id}", customerHandler.UpdateCustomer).Methods(http.MethodPut)
	api.HandleFunc("/customers/{id}", customerHandler.DeleteCustomer).Methods(http.MethodDelete)

	api.HandleFunc("/products", productHandler.ListProducts).Methods(http.MethodGet)
	api.HandleFunc("/products", productHandler.CreateProduct).Methods(http.MethodPost)
	api.HandleFunc("/products/{id}", productHandler.GetProductByID).Methods(http.MethodGet)
	api.HandleFunc("/products/{id}", productHandler.UpdateProduct).Methods(http.MethodPut)
	api.HandleFunc("/products/{id}", productHandler.DeleteProduct).Methods(http.MethodDelete)

	api.HandleFunc("/orders", orderHandler.ListOrders).Methods(http.MethodGet)
	api.HandleFunc("/orders", orderHandler.CreateOrder).Methods(http.MethodPost)
	api.HandleFunc("/orders/{id}", orderHandler.GetOrderByID).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id}", orderHandler.UpdateOrder).Methods(http.MethodPut)
	api.HandleFunc("/orders/{id}", orderHandler.DeleteOrder).Methods(http.MethodDelete)

	api.HandleFunc("/items", itemHandler.ListItems).Methods(http.MethodGet)
	api.HandleFunc("/items/{id}", itemHandler.GetItemByID).Methods(http.MethodGet)

	return router
}

// handleHealthCheck returns a basic health status.
func handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}
