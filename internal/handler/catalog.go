package handler

import (
	"encoding/json"
	"log"
	"net/http"

	"ninelives-store-api/internal/model"
	"ninelives-store-api/internal/service"
	"ninelives-store-api/internal/store"
	"ninelives-store-api/pkg/apierror"
	"ninelives-store-api/pkg/response"
	"ninelives-store-api/pkg/uid"

	"github.com/go-chi/chi/v5"
)

// CatalogHandler handles product catalog HTTP requests.
type CatalogHandler struct {
	catalog *service.CatalogService
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// List handles GET /api/v1/products
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.List(r.Context())
	if err != nil {
		log.Printf("[CatalogHandler] List failed: %v", err)
		response.Error(w, apierror.TransactionError("failed to load catalog"))
		return
	}
	response.OK(w, products)
}

// Watch handles GET /api/v1/products/watch - live product grid via SSE.
func (h *CatalogHandler) Watch(w http.ResponseWriter, r *http.Request) {
	ch, stop := h.catalog.Watch(r.Context())
	defer stop()
	streamSSE(w, r, ch)
}

func decodeProductInput(w http.ResponseWriter, r *http.Request) (model.ProductInput, bool) {
	var input model.ProductInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return input, false
	}
	defer r.Body.Close()

	if problems := input.Validate(); len(problems) > 0 {
		details := make([]apierror.FieldError, 0, len(problems))
		for _, p := range problems {
			details = append(details, apierror.FieldError{Field: "product", Message: p})
		}
		response.Error(w, apierror.ValidationError("invalid product", details...))
		return input, false
	}
	return input, true
}

// Create handles POST /api/v1/products (privileged)
func (h *CatalogHandler) Create(w http.ResponseWriter, r *http.Request) {
	input, ok := decodeProductInput(w, r)
	if !ok {
		return
	}

	product, err := h.catalog.Create(r.Context(), input)
	if err != nil {
		log.Printf("[CatalogHandler] Create failed: %v", err)
		response.Error(w, apierror.TransactionError("failed to save product"))
		return
	}
	response.Created(w, product)
}

// productID validates the {id} path parameter. Product ids are always
// store-minted, so anything that does not parse as one is a bad request
// rather than a lookup miss.
func productID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if !uid.IsValid(id) {
		response.Error(w, apierror.BadRequest("invalid product id"))
		return "", false
	}
	return id, true
}

// Update handles PUT /api/v1/products/{id} (privileged)
func (h *CatalogHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}
	input, ok := decodeProductInput(w, r)
	if !ok {
		return
	}

	if err := h.catalog.Update(r.Context(), id, input); err != nil {
		if err == store.ErrNotFound {
			response.Error(w, apierror.NotFound("product not found"))
			return
		}
		log.Printf("[CatalogHandler] Update failed: %v", err)
		response.Error(w, apierror.TransactionError("failed to save product"))
		return
	}
	response.NoContent(w)
}

// Delete handles DELETE /api/v1/products/{id} (privileged)
func (h *CatalogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}
	if err := h.catalog.Delete(r.Context(), id); err != nil {
		log.Printf("[CatalogHandler] Delete failed: %v", err)
		response.Error(w, apierror.TransactionError("failed to delete product"))
		return
	}
	response.NoContent(w)
}

// Seed handles POST /api/v1/products/seed (privileged)
func (h *CatalogHandler) Seed(w http.ResponseWriter, r *http.Request) {
	seeded, err := h.catalog.Seed(r.Context())
	if err != nil {
		log.Printf("[CatalogHandler] Seed failed: %v", err)
		response.Error(w, apierror.TransactionError("failed to seed catalog"))
		return
	}
	response.OK(w, map[string]interface{}{"seeded": seeded})
}
