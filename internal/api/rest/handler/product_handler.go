package handler

import (
	"context"
	"log/slog"
	"net/http"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/shopfloor/orderdesk/internal/domain"
	"github.com/shopfloor/orderdesk/internal/validation"
)

// ProductRepository defines the interface for product repository operations
type ProductRepository interface {
	CreateProduct(ctx context.Context, product *domain.Product) error
	FindProduct(ctx context.Context, id int64) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	UpdateProduct(ctx context.Context, product *domain.Product) error
	DeleteProduct(ctx context.Context, id int64) error
}

// ProductHandler handles HTTP requests for product operations
type ProductHandler struct {
	repo     ProductRepository
	validate *validatorv10.Validate
	logger   *slog.Logger
}

// NewProductHandler creates a new ProductHandler instance
func NewProductHandler(repo ProductRepository, validate *validatorv10.Validate, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		repo:     repo,
		validate: validate,
		logger:   logger,
	}
}

// ProductRequest is the payload for creating or updating a product.
type ProductRequest struct {
	Name        string          `json:"name" validate:"required"`
	Description *string         `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price" validate:"gte=0"`
	Stock       int             `json:"stock" validate:"gte=0"`
}

// ListProducts handles GET /products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.repo.ListProducts(r.Context())
	if err != nil {
		writeStoreError(w, h.logger, err, "list_products")
		return
	}

	WriteJSONResponse(w, http.StatusOK, products)
}

// GetProductByID handles GET /products/{id}
func (h *ProductHandler) GetProductByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	product, err := h.repo.FindProduct(r.Context(), id)
	if err != nil {
		writeStoreError(w, h.logger, err, "get_product")
		return
	}

	WriteJSONResponse(w, http.StatusOK, product)
}

// CreateProduct handles POST /products
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if reqErr := validation.DecodeAndValidate(r.Body, &req, h.validate); reqErr != nil {
		writeRequestError(w, reqErr)
		return
	}

	product := &domain.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
	}

	if err := h.repo.CreateProduct(r.Context(), product); err != nil {
		writeStoreError(w, h.logger, err, "create_product")
		return
	}

	WriteJSONResponse(w, http.StatusCreated, product)
}

// UpdateProduct handles PUT /products/{id}. Changing the catalog price never
// touches items of existing orders; their unit price is frozen at order time.
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req ProductRequest
	if reqErr := validation.DecodeAndValidate(r.Body, &req, h.validate); reqErr != nil {
		writeRequestError(w, reqErr)
		return
	}

	product := &domain.Product{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
	}

	if err := h.repo.UpdateProduct(r.Context(), product); err != nil {
		writeStoreError(w, h.logger, err, "update_product")
		return
	}

	WriteJSONResponse(w, http.StatusOK, product)
}

// DeleteProduct handles DELETE /products/{id}
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.repo.DeleteProduct(r.Context(), id); err != nil {
		writeStoreError(w, h.logger, err, "delete_product")
		return
	}

	WriteJSONResponse(w, http.StatusOK, map[string]string{"message": "product deleted"})
}
