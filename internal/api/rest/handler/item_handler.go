package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/shopfloor/orderdesk/internal/domain"
)

// ItemRepository defines the interface for item read operations. Items have
// no write endpoints; they change only through the order aggregate.
type ItemRepository interface {
	GetItemByID(ctx context.Context, id int64) (*domain.Item, error)
	ListItems(ctx context.Context) ([]domain.Item, error)
}

// ItemHandler handles HTTP requests for item views
type ItemHandler struct {
	repo   ItemRepository
	logger *slog.Logger
}

// NewItemHandler creates a new ItemHandler instance
func NewItemHandler(repo ItemRepository, logger *slog.Logger) *ItemHandler {
	return &ItemHandler{
		repo:   repo,
		logger: logger,
	}
}

// ListItems handles GET /items
func (h *ItemHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.repo.ListItems(r.Context())
	if err != nil {
		writeStoreError(w, h.logger, err, "list_items")
		return
	}

	WriteJSONResponse(w, http.StatusOK, items)
}

// GetItemByID handles GET /items/{id}
func (h *ItemHandler) GetItemByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	item, err := h.repo.GetItemByID(r.Context(), id)
	if err != nil {
		writeStoreError(w, h.logger, err, "get_item")
		return
	}

	WriteJSONResponse(w, http.StatusOK, item)
}
