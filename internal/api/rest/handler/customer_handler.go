package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/shopfloor/orderdesk/internal/domain"
	"github.com/shopfloor/orderdesk/internal/validation"
)

// CustomerRepository defines the interface for customer repository operations
type CustomerRepository interface {
	CreateCustomer(ctx context.Context, customer *domain.Customer) error
	GetCustomerByID(ctx context.Context, id int64) (*domain.Customer, error)
	ListCustomers(ctx context.Context) ([]domain.Customer, error)
	UpdateCustomer(ctx context.Context, customer *domain.Customer) error
	DeleteCustomer(ctx context.Context, id int64) error
}

// CustomerHandler handles HTTP requests for customer operations
type CustomerHandler struct {
	repo     CustomerRepository
	validate *validatorv10.Validate
	logger   *slog.Logger
}

// NewCustomerHandler creates a new CustomerHandler instance
func NewCustomerHandler(repo CustomerRepository, validate *validatorv10.Validate, logger *slog.Logger) *CustomerHandler {
	return &CustomerHandler{
		repo:     repo,
		validate: validate,
		logger:   logger,
	}
}

// CustomerRequest is the payload for creating or updating a customer.
type CustomerRequest struct {
	Name    string  `json:"name" validate:"required"`
	Email   string  `json:"email" validate:"required,email"`
	Phone   *string `json:"phone,omitempty"`
	Address *string `json:"address,omitempty"`
}

// ListCustomers handles GET /customers
func (h *CustomerHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.repo.ListCustomers(r.Context())
	if err != nil {
		writeStoreError(w, h.logger, err, "list_customers")
		return
	}

	WriteJSONResponse(w, http.StatusOK, customers)
}

// GetCustomerByID handles GET /customers/{id}
func (h *CustomerHandler) GetCustomerByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	customer, err := h.repo.GetCustomerByID(r.Context(), id)
	if err != nil {
		writeStoreError(w, h.logger, err, "get_customer")
		return
	}

	WriteJSONResponse(w, http.StatusOK, customer)
}

// CreateCustomer handles POST /customers
func (h *CustomerHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req CustomerRequest
	if reqErr := validation.DecodeAndValidate(r.Body, &req, h.validate); reqErr != nil {
		writeRequestError(w, reqErr)
		return
	}

	customer := &domain.Customer{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
	}

	if err := h.repo.CreateCustomer(r.Context(), customer); err != nil {
		writeStoreError(w, h.logger, err, "create_customer")
		return
	}

	WriteJSONResponse(w, http.StatusCreated, customer)
}

// UpdateCustomer handles PUT /customers/{id}
func (h *CustomerHandler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req CustomerRequest
	if reqErr := validation.DecodeAndValidate(r.Body, &req, h.validate); reqErr != nil {
		writeRequestError(w, reqErr)
		return
	}

	customer := &domain.Customer{
		ID:      id,
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
	}

	if err := h.repo.UpdateCustomer(r.Context(), customer); err != nil {
		writeStoreError(w, h.logger, err, "update_customer")
		return
	}

	WriteJSONResponse(w, http.StatusOK, customer)
}

// DeleteCustomer handles DELETE /customers/{id}
func (h *CustomerHandler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.repo.DeleteCustomer(r.Context(), id); err != nil {
		writeStoreError(w, h.logger, err, "delete_customer")
		return
	}

	WriteJSONResponse(w, http.StatusOK, map[string]string{"message": "customer deleted"})
}

// pathID parses the {id} route variable; on failure it writes a 400 and
// reports false.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "invalid id", "id must be an integer")
		return 0, false
	}
	return id, true
}
