package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JackobAssis/Joburguers/internal/domain"
	"github.com/JackobAssis/Joburguers/internal/storage"
)

// ProductAdminHandler covers the menu management routes.
type ProductAdminHandler struct {
	Store *storage.Storage
}

func (h ProductAdminHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/admin/products", h.list)
	r.Post("/api/admin/products", h.create)
	r.Put("/api/admin/products/{id}", h.update)
	r.Delete("/api/admin/products/{id}", h.delete)
}

func (h ProductAdminHandler) list(w http.ResponseWriter, r *http.Request) {
	products, err := h.Store.GetAllProducts(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h ProductAdminHandler) create(w http.ResponseWriter, r *http.Request) {
	var req domain.Product
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if !domain.ValidCategory(req.Category) {
		writeError(w, http.StatusBadRequest, "invalid category")
		return
	}
	product, err := h.Store.AddProduct(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, product)
}

func (h ProductAdminHandler) update(w http.ResponseWriter, r *http.Request) {
	var patch map[string]any
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if c, ok := patch["category"].(string); ok && !domain.ValidCategory(domain.Category(c)) {
		writeError(w, http.StatusBadRequest, "invalid category")
		return
	}
	product, err := h.Store.UpdateProduct(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if product == nil {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (h ProductAdminHandler) delete(w http.ResponseWriter, r *http.Request) {
	removed, err := h.Store.DeleteProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
