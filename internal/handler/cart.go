package handler

import (
	"encoding/json"
	"log"
	"net/http"

	"ninelives-store-api/internal/middleware"
	"ninelives-store-api/internal/model"
	"ninelives-store-api/internal/service"
	"ninelives-store-api/pkg/apierror"
	"ninelives-store-api/pkg/response"

	"github.com/go-chi/chi/v5"
)

// CartHandler handles cart HTTP requests. The cart owner is always the
// session identity; there is no way to address someone else's cart.
type CartHandler struct {
	cart service.CartService
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(cart service.CartService) *CartHandler {
	return &CartHandler{cart: cart}
}

func (h *CartHandler) owner(w http.ResponseWriter, r *http.Request) (string, bool) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		response.Error(w, apierror.Unauthorized("sign in (anonymously is fine) to use the cart"))
		return "", false
	}
	return identity.UID, true
}

// CartView is the cart panel payload: lines plus the live badge summary.
type CartView struct {
	Variant string           `json:"variant"`
	Items   []model.CartLine `json:"items"`
	Summary model.CartSummary `json:"summary"`
}

// Get handles GET /api/v1/cart
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	lines, err := h.cart.List(r.Context(), owner)
	if err != nil {
		log.Printf("[CartHandler] List failed: %v", err)
		response.Error(w, apierror.TransactionError("failed to load cart"))
		return
	}

	response.OK(w, CartView{
		Variant: h.cart.Variant(),
		Items:   lines,
		Summary: model.Summarize(lines),
	})
}

// AddRequest is the add-to-cart payload: the product id plus the name/price
// snapshot taken at add time.
type AddRequest struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Img       string  `json:"img"`
}

// Add handles POST /api/v1/cart/items
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	var req AddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	if req.ProductID == "" || req.Name == "" {
		response.Error(w, apierror.ValidationError("product_id and name are required"))
		return
	}
	if req.Price < 0 {
		response.Error(w, apierror.ValidationError("price must be non-negative"))
		return
	}

	if err := h.cart.Add(r.Context(), owner, req.ProductID, req.Name, req.Price, req.Img); err != nil {
		log.Printf("[CartHandler] Add failed: %v", err)
		response.Error(w, apierror.TransactionError("failed to add to cart"))
		return
	}

	summary, err := h.cart.Summary(r.Context(), owner)
	if err != nil {
		log.Printf("[CartHandler] Summary failed: %v", err)
		response.Error(w, apierror.TransactionError("failed to load cart"))
		return
	}
	response.OK(w, summary)
}

// Remove handles DELETE /api/v1/cart/items/{key}
func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	key := chi.URLParam(r, "key")
	if err := h.cart.Remove(r.Context(), owner, key); err != nil {
		if err == service.ErrCartLineNotFound {
			response.Error(w, apierror.NotFound("cart line not found"))
			return
		}
		log.Printf("[CartHandler] Remove failed: %v", err)
		response.Error(w, apierror.TransactionError("failed to remove from cart"))
		return
	}
	response.NoContent(w)
}

// Watch handles GET /api/v1/cart/watch - live cart via SSE (remote variant).
func (h *CartHandler) Watch(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	ch, stop, err := h.cart.Watch(r.Context(), owner)
	if err != nil {
		if err == service.ErrWatchUnsupported {
			response.Error(w, apierror.BadRequest("the local cart variant has no live subscription"))
			return
		}
		response.Error(w, apierror.TransactionError("failed to subscribe to cart"))
		return
	}
	defer stop()
	streamSSE(w, r, ch)
}
