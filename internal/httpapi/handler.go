package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-storefront/domain"
)

// Catalog is the read side the handler serves.
type Catalog interface {
	GetProducts(ctx context.Context) ([]domain.ProductDTO, error)
	GetProduct(ctx context.Context, id int) (*domain.ProductDTO, error)
	GetCategories(ctx context.Context) ([]domain.CategoryDTO, error)
	GetProductsByCategory(ctx context.Context, categoryID int) ([]domain.ProductDTO, error)
	ValidateProductExists(ctx context.Context, id int) (domain.ValidationResult, error)
	ValidateCategoryExists(ctx context.Context, id int) (domain.ValidationResult, error)
	InvalidateAll(ctx context.Context) int
}

// Cart is the cart surface the handler serves.
type Cart interface {
	AddItem(ctx context.Context, item *domain.CartItemToAdd) (*domain.CartItemDTO, error)
	DeleteItem(ctx context.Context, cartItemID int) (*domain.CartItemDTO, error)
	UpdateQty(ctx context.Context, update *domain.CartItemQtyUpdate) (*domain.CartItemDTO, error)
	GetItems(ctx context.Context, userID int) ([]domain.CartItemDTO, error)
	GetItem(ctx context.Context, cartItemID int) (*domain.CartItemDTO, error)
}

// Handler adapts the catalog and cart services to HTTP.
type Handler struct {
	catalog Catalog
	cart    Cart
	logger  *slog.Logger
	mappers []goerrors.ErrorMapper
}

// NewHandler creates a Handler. A nil logger falls back to slog.Default.
func NewHandler(catalog Catalog, cart Cart, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		catalog: catalog,
		cart:    cart,
		logger:  logger,
		mappers: goerrors.DefaultErrorMappers(),
	}
}

func (h *Handler) GetProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.GetProducts(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, products)
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	res, err := h.catalog.ValidateProductExists(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if !res.Valid {
		h.respondError(w, r, res.Err())
		return
	}

	// the check above populated the cache, this read is a hit unless the
	// entry was invalidated in between
	product, err := h.catalog.GetProduct(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if product == nil {
		h.respondError(w, r, domain.NewError(domain.KindNotFound, fmt.Sprintf("Product with ID %d not found", id)))
		return
	}
	respondJSON(w, http.StatusOK, product)
}

func (h *Handler) GetCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.GetCategories(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, categories)
}

func (h *Handler) GetProductsByCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	res, err := h.catalog.ValidateCategoryExists(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if !res.Valid {
		h.respondError(w, r, res.Err())
		return
	}

	products, err := h.catalog.GetProductsByCategory(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, products)
}

// InvalidateCache drops every catalog entry and reports how many went.
func (h *Handler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	removed := h.catalog.InvalidateAll(r.Context())
	respondJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

func (h *Handler) GetCartItems(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	items, err := h.cart.GetItems(r.Context(), userID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if len(items) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	respondJSON(w, http.StatusOK, items)
}

func (h *Handler) GetCartItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	item, err := h.cart.GetItem(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if item == nil {
		h.respondError(w, r, domain.NewError(domain.KindNotFound, fmt.Sprintf("Cart item with ID %d not found", id)))
		return
	}
	respondJSON(w, http.StatusOK, item)
}

func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	var req domain.CartItemToAdd
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, r, domain.NewError(domain.KindInvalidInput, "invalid JSON body"))
		return
	}

	added, err := h.cart.AddItem(r.Context(), &req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if added == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/cart/%d", added.ID))
	respondJSON(w, http.StatusCreated, added)
}

func (h *Handler) UpdateCartItemQty(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var req domain.CartItemQtyUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, r, domain.NewError(domain.KindInvalidInput, "invalid JSON body"))
		return
	}
	req.CartItemID = id

	updated, err := h.cart.UpdateQty(r.Context(), &req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if updated == nil {
		h.respondError(w, r, domain.NewError(domain.KindNotFound, fmt.Sprintf("Cart item with ID %d not found", id)))
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (h *Handler) DeleteCartItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	deleted, err := h.cart.DeleteItem(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if deleted == nil {
		h.respondError(w, r, domain.NewError(domain.KindNotFound, fmt.Sprintf("Cart item with ID %d not found", id)))
		return
	}
	respondJSON(w, http.StatusOK, deleted)
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	rich := goerrors.MapToError(err, h.mappers)
	if rich.RequestID == "" {
		rich.WithRequestID(middleware.GetReqID(r.Context()))
	}

	status := rich.Code
	if status < http.StatusBadRequest {
		status = http.StatusInternalServerError
	}

	if status >= http.StatusInternalServerError {
		attrs := append([]slog.Attr{
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		}, goerrors.ToSlogAttributes(rich)...)
		h.logger.LogAttrs(r.Context(), slog.LevelError, "request failed", attrs...)
	}

	respondJSON(w, status, rich.ToErrorResponse(false, nil))
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Default().Warn("failed to encode response", "error", err)
	}
}

func pathID(r *http.Request, name string) (int, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.NewError(domain.KindInvalidInput, fmt.Sprintf("%s must be an integer", name)).
			WithMetadata(map[string]any{"value": raw})
	}
	return id, nil
}
