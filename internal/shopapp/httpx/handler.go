// Package httpx is the example webshop surface: a thin HTTP layer that
// composes the catalog, cart, and order services. It is glue, not core —
// a real deployment would replace it with its own presentation layer.
package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	cartdomain "github.com/jcmexdev/shopkit/internal/cart/domain"
	cartservice "github.com/jcmexdev/shopkit/internal/cart/service"
	catalogdomain "github.com/jcmexdev/shopkit/internal/catalog/domain"
	catalogservice "github.com/jcmexdev/shopkit/internal/catalog/service"
	"github.com/jcmexdev/shopkit/internal/order/confirmlog"
	orderdomain "github.com/jcmexdev/shopkit/internal/order/domain"
	orderservice "github.com/jcmexdev/shopkit/internal/order/service"
	stockdomain "github.com/jcmexdev/shopkit/internal/stock/domain"
)

const sessionCookie = "shop_session"

// Handler serves the example webshop endpoints.
type Handler struct {
	catalog       *catalogservice.Service
	carts         *cartservice.Service
	orders        *orderservice.Service
	confirmations confirmlog.Reader // nil-safe: confirmation status then 404s
}

func NewHandler(catalog *catalogservice.Service, carts *cartservice.Service, orders *orderservice.Service, confirmations confirmlog.Reader) *Handler {
	return &Handler{catalog: catalog, carts: carts, orders: orders, confirmations: confirmations}
}

// ListProducts returns the catalog.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListProducts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "catalog_error", err.Error())
		return
	}

	currency := h.catalog.Policy().Currency()
	out := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		if !p.Active {
			continue
		}
		out = append(out, ProductResponse{
			ID:       p.ID,
			SKU:      p.SKU,
			Name:     p.Name,
			Price:    p.Price().String(),
			Currency: currency,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// GetCart returns the session's cart, creating it lazily.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.carts.GetOrCreate(r.Context(), h.session(w, r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "cart_error", err.Error())
		return
	}
	items, err := h.carts.Items(r.Context(), cart.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "cart_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, mapCart(cart.ID, items))
}

// AddItem adds a product to the session's cart. Insufficient stock maps to
// 409 Conflict with the offending line attached.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if req.ProductID == "" || req.Quantity <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "product_id and a positive quantity are required")
		return
	}

	cart, err := h.carts.GetOrCreate(r.Context(), h.session(w, r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "cart_error", err.Error())
		return
	}

	item, err := h.carts.AddItem(r.Context(), cart.ID, req.ProductID, req.VariationID, req.Quantity)
	if err != nil {
		var unavailable *stockdomain.UnavailableError
		switch {
		case errors.As(err, &unavailable):
			writeError(w, http.StatusConflict, "stock_unavailable", unavailable.Error())
		case errors.Is(err, stockdomain.ErrInvalidQuantity):
			writeError(w, http.StatusBadRequest, "invalid_quantity", err.Error())
		case errors.Is(err, catalogdomain.ErrProductNotFound):
			writeError(w, http.StatusNotFound, "product_not_found", err.Error())
		case errors.Is(err, catalogdomain.ErrVariationNotFound):
			writeError(w, http.StatusNotFound, "variation_not_found", err.Error())
		case errors.Is(err, catalogdomain.ErrVariationMismatch):
			writeError(w, http.StatusBadRequest, "variation_mismatch", err.Error())
		case errors.Is(err, stockdomain.ErrNotFound):
			writeError(w, http.StatusNotFound, "product_not_stocked", err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "cart_error", err.Error())
		}
		return
	}

	writeJSON(w, http.StatusCreated, mapCartItem(item))
}

// RemoveItem deletes a line from the session's cart.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")
	variationID := r.URL.Query().Get("variation_id")

	cart, err := h.carts.GetOrCreate(r.Context(), h.session(w, r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "cart_error", err.Error())
		return
	}
	if err := h.carts.RemoveItem(r.Context(), cart.ID, productID, variationID); err != nil {
		writeError(w, http.StatusNotFound, "item_not_found", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Checkout builds an order from the session's cart and runs the two-phase
// confirmation. On success the cart is cleared.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cart, err := h.carts.GetOrCreate(ctx, h.session(w, r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "cart_error", err.Error())
		return
	}
	lines, err := h.carts.Items(ctx, cart.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "cart_error", err.Error())
		return
	}

	order, err := h.orders.BuildFromCart(ctx, cart, lines)
	if err != nil {
		if errors.Is(err, orderservice.ErrEmptyCart) {
			writeError(w, http.StatusBadRequest, "empty_cart", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "order_error", err.Error())
		return
	}

	if err := h.orders.Confirm(ctx, order); err != nil {
		var unavailable *stockdomain.UnavailableError
		switch {
		case errors.As(err, &unavailable):
			writeError(w, http.StatusConflict, "stock_unavailable", unavailable.Error())
		case orderdomain.IsInvariantViolation(err):
			// Workflow-ordering bug or unhandled race, not a business condition.
			slog.ErrorContext(ctx, "invariant violation during checkout", "order_id", order.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "invariant_violation", err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "order_error", err.Error())
		}
		return
	}

	if err := h.carts.Clear(ctx, cart.ID); err != nil {
		slog.ErrorContext(ctx, "failed to clear cart after checkout", "cart_id", cart.ID, "error", err)
	}

	writeJSON(w, http.StatusCreated, h.mapOrder(order))
}

// GetOrder returns a single order by ID.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "order_not_found", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.mapOrder(order))
}

// GetOrderConfirmation returns the latest confirmation log entry for an
// order: where the pipeline is (or stopped), and the trace to look at.
func (h *Handler) GetOrderConfirmation(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	if h.confirmations == nil {
		writeError(w, http.StatusNotFound, "confirmation_log_disabled", "no confirmation log is configured")
		return
	}

	entry, err := h.confirmations.GetLatest(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, confirmlog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "confirmation_not_found", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "confirmation_log_error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, ConfirmationResponse{
		OrderID:       entry.PipelineID,
		Status:        string(entry.Status),
		CurrentStep:   entry.CurrentStep,
		ErrorMessages: entry.ErrorMessages,
		TraceID:       entry.TraceID,
		UpdatedAt:     entry.UpdatedAt,
	})
}

// session returns the session ID from the cookie, setting a fresh one when
// the shopper has none yet.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
	})
	return id
}

func mapCart(cartID string, items []*cartdomain.CartItem) CartResponse {
	out := CartResponse{ID: cartID, Items: make([]CartItemResponse, 0, len(items))}
	for _, item := range items {
		out.Items = append(out.Items, mapCartItem(item))
	}
	return out
}

func mapCartItem(item *cartdomain.CartItem) CartItemResponse {
	return CartItemResponse{
		ID:          item.ID,
		ProductID:   item.ProductID,
		VariationID: item.VariationID,
		Quantity:    item.Quantity,
	}
}

func (h *Handler) mapOrder(order *orderdomain.Order) OrderResponse {
	out := OrderResponse{
		ID:       order.ID,
		Status:   string(order.Status),
		Total:    order.Total().String(),
		Currency: h.catalog.Policy().Currency(),
		Items:    make([]OrderItemResponse, 0, len(order.Items)),
	}
	for _, item := range order.Items {
		out.Items = append(out.Items, OrderItemResponse{
			ID:          item.ID,
			ProductID:   item.ProductID,
			VariationID: item.VariationID,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice.String(),
			Status:      string(item.Status),
		})
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: msg,
	})
}
