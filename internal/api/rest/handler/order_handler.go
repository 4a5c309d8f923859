package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/shopfloor/orderdesk/internal/domain"
	"github.com/shopfloor/orderdesk/internal/ordering"
	"github.com/shopfloor/orderdesk/internal/repository"
	"github.com/shopfloor/orderdesk/internal/validation"
)

// OrderRepository defines the interface for order repository operations
type OrderRepository interface {
	CreateOrder(ctx context.Context, customerID int64, status domain.OrderStatus, total decimal.Decimal, lines []ordering.PricedLine) (int64, error)
	GetOrderByID(ctx context.Context, id int64) (*domain.Order, error)
	ListOrders(ctx context.Context) ([]domain.Order, error)
	UpdateOrderFields(ctx context.Context, id int64, upd ordering.FieldsOnlyUpdate) error
	ReplaceItems(ctx context.Context, id int64, upd ordering.FieldsOnlyUpdate, total decimal.Decimal, lines []ordering.PricedLine) error
	DeleteOrder(ctx context.Context, id int64) error
}

// CustomerFinder checks customer existence for order validation.
type CustomerFinder interface {
	CustomerExists(ctx context.Context, id int64) (bool, error)
}

// OrderHandler handles HTTP requests for order operations. Creation and item
// replacement go through the ordering builder; orders are the only write
// path for items.
type OrderHandler struct {
	repo      OrderRepository
	customers CustomerFinder
	builder   *ordering.Builder
	validate  *validatorv10.Validate
	logger    *slog.Logger
}

// NewOrderHandler creates a new OrderHandler instance
func NewOrderHandler(
	repo OrderRepository,
	customers CustomerFinder,
	builder *ordering.Builder,
	validate *validatorv10.Validate,
	logger *slog.Logger,
) *OrderHandler {
	return &OrderHandler{
		repo:      repo,
		customers: customers,
		builder:   builder,
		validate:  validate,
		logger:    logger,
	}
}

// LineItemRequest is a requested order line. Price, when present, locks in a
// unit price that overrides the catalog price.
type LineItemRequest struct {
	ProductID int64            `json:"productId" validate:"required,gt=0"`
	Quantity  int              `json:"quantity" validate:"required,gt=0"`
	Price     *decimal.Decimal `json:"price,omitempty" validate:"omitempty,gte=0"`
}

// CreateOrderRequest represents the request payload for creating an order
type CreateOrderRequest struct {
	CustomerID int64              `json:"customerId" validate:"required,gt=0"`
	Status     domain.OrderStatus `json:"status,omitempty" validate:"omitempty,oneof=pending processing completed cancelled"`
	Items      []LineItemRequest  `json:"items" validate:"required,dive"`
}

// UpdateOrderRequest represents the request payload for updating an order.
// A nil Items means fields-only; a non-nil Items (empty included) replaces
// the whole item set.
type UpdateOrderRequest struct {
	CustomerID *int64              `json:"customerId,omitempty" validate:"omitempty,gt=0"`
	Status     *domain.OrderStatus `json:"status,omitempty" validate:"omitempty,oneof=pending processing completed cancelled"`
	Items      *[]LineItemRequest  `json:"items,omitempty" validate:"omitempty,dive"`
}

// ListOrders handles GET /orders
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.repo.ListOrders(r.Context())
	if err != nil {
		writeStoreError(w, h.logger, err, "list_orders")
		return
	}

	WriteJSONResponse(w, http.StatusOK, orders)
}

// GetOrderByID handles GET /orders/{id}
func (h *OrderHandler) GetOrderByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	order, err := h.repo.GetOrderByID(r.Context(), id)
	if err != nil {
		writeStoreError(w, h.logger, err, "get_order")
		return
	}

	WriteJSONResponse(w, http.StatusOK, order)
}

// CreateOrder handles POST /orders. Every line is resolved against the
// catalog before anything is persisted; a single unresolved product aborts
// the whole request.
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if reqErr := validation.DecodeAndValidate(r.Body, &req, h.validate); reqErr != nil {
		writeRequestError(w, reqErr)
		return
	}

	if !h.requireCustomer(r.Context(), w, req.CustomerID) {
		return
	}

	lines, total, err := h.builder.PriceLines(r.Context(), toLineSpecs(req.Items))
	if err != nil {
		h.writePricingError(w, err)
		return
	}

	status := req.Status
	if status == "" {
		status = domain.DefaultStatus
	}

	orderID, err := h.repo.CreateOrder(r.Context(), req.CustomerID, status, total, lines)
	if err != nil {
		writeStoreError(w, h.logger, err, "create_order")
		return
	}

	order, err := h.repo.GetOrderByID(r.Context(), orderID)
	if err != nil {
		writeStoreError(w, h.logger, err, "get_created_order")
		return
	}

	WriteJSONResponse(w, http.StatusCreated, order)
}

// UpdateOrder handles PUT /orders/{id}. The request selects one of two
// disjoint modes: with items absent only the supplied fields change; with
// items present the entire item set is replaced and the total re-derived,
// atomically.
func (h *OrderHandler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req UpdateOrderRequest
	if reqErr := validation.DecodeAndValidate(r.Body, &req, h.validate); reqErr != nil {
		writeRequestError(w, reqErr)
		return
	}

	if req.CustomerID != nil && !h.requireCustomer(r.Context(), w, *req.CustomerID) {
		return
	}

	fields := ordering.FieldsOnlyUpdate{
		CustomerID: req.CustomerID,
		Status:     req.Status,
	}

	if req.Items == nil {
		if err := h.repo.UpdateOrderFields(r.Context(), id, fields); err != nil {
			writeStoreError(w, h.logger, err, "update_order")
			return
		}
	} else {
		replace := ordering.FullReplaceUpdate{
			FieldsOnlyUpdate: fields,
			Lines:            toLineSpecs(*req.Items),
		}

		lines, total, err := h.builder.PriceLines(r.Context(), replace.Lines)
		if err != nil {
			h.writePricingError(w, err)
			return
		}

		if err := h.repo.ReplaceItems(r.Context(), id, replace.FieldsOnlyUpdate, total, lines); err != nil {
			writeStoreError(w, h.logger, err, "replace_order_items")
			return
		}
	}

	order, err := h.repo.GetOrderByID(r.Context(), id)
	if err != nil {
		writeStoreError(w, h.logger, err, "get_updated_order")
		return
	}

	WriteJSONResponse(w, http.StatusOK, order)
}

// DeleteOrder handles DELETE /orders/{id}. Items are removed with the order.
func (h *OrderHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.repo.DeleteOrder(r.Context(), id); err != nil {
		writeStoreError(w, h.logger, err, "delete_order")
		return
	}

	WriteJSONResponse(w, http.StatusOK, map[string]string{"message": "order deleted"})
}

// requireCustomer verifies the customer exists, writing a 404 otherwise.
func (h *OrderHandler) requireCustomer(ctx context.Context, w http.ResponseWriter, id int64) bool {
	exists, err := h.customers.CustomerExists(ctx, id)
	if err != nil {
		writeStoreError(w, h.logger, err, "check_customer")
		return false
	}
	if !exists {
		notFound := &repository.NotFoundError{
			Resource: "customer",
			Key:      "id",
			Value:    strconv.FormatInt(id, 10),
		}
		WriteErrorResponse(w, http.StatusNotFound, notFound.Error(), "")
		return false
	}
	return true
}

// writePricingError maps ordering errors onto HTTP statuses.
func (h *OrderHandler) writePricingError(w http.ResponseWriter, err error) {
	var notFound *ordering.ProductNotFoundError
	if errors.As(err, &notFound) {
		WriteErrorResponse(w, http.StatusNotFound, notFound.Error(), "")
		return
	}

	var invalid *ordering.InvalidLineError
	if errors.As(err, &invalid) {
		WriteErrorResponse(w, http.StatusBadRequest, invalid.Error(), "")
		return
	}

	h.logger.Error("price_lines_failed", "error", err)
	WriteErrorResponse(w, http.StatusInternalServerError, "internal error", "an internal error occurred while processing your request")
}

func toLineSpecs(items []LineItemRequest) []ordering.LineSpec {
	specs := make([]ordering.LineSpec, 0, len(items))
	for _, item := range items {
		specs = append(specs, ordering.LineSpec{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}
	return specs
}
