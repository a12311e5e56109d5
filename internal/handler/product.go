package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JackobAssis/Joburguers/internal/domain"
	"github.com/JackobAssis/Joburguers/internal/storage"
)

// ProductHandler serves the public menu.
type ProductHandler struct {
	Store *storage.Storage
}

func (h ProductHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/products", h.list)
	r.Get("/api/products/{id}", h.get)
}

func (h ProductHandler) list(w http.ResponseWriter, r *http.Request) {
	category := domain.Category(r.URL.Query().Get("category"))
	products, err := h.Store.GetProductsByCategory(r.Context(), category)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h ProductHandler) get(w http.ResponseWriter, r *http.Request) {
	product, err := h.Store.GetProductByID(r.Context(), chi.URLParam(r, "id"))
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
