package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JackobAssis/Joburguers/internal/domain"
	"github.com/JackobAssis/Joburguers/internal/storage"
)

// PromotionHandler serves the public promotion feed.
type PromotionHandler struct {
	Store *storage.Storage
}

func (h PromotionHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/promotions", h.listActive)
}

func (h PromotionHandler) listActive(w http.ResponseWriter, r *http.Request) {
	promotions, err := h.Store.GetActivePromotions(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, promotions)
}

// PromotionAdminHandler covers promotion management.
type PromotionAdminHandler struct {
	Store *storage.Storage
}

func (h PromotionAdminHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/admin/promotions", h.list)
	r.Post("/api/admin/promotions", h.create)
	r.Put("/api/admin/promotions/{id}", h.update)
	r.Delete("/api/admin/promotions/{id}", h.delete)
}

func (h PromotionAdminHandler) list(w http.ResponseWriter, r *http.Request) {
	promotions, err := h.Store.GetAllPromotions(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, promotions)
}

func (h PromotionAdminHandler) create(w http.ResponseWriter, r *http.Request) {
	var req domain.Promotion
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	promotion, err := h.Store.AddPromotion(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, promotion)
}

func (h PromotionAdminHandler) update(w http.ResponseWriter, r *http.Request) {
	var patch map[string]any
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	promotion, err := h.Store.UpdatePromotion(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if promotion == nil {
		writeError(w, http.StatusNotFound, "promotion not found")
		return
	}
	writeJSON(w, http.StatusOK, promotion)
}

func (h PromotionAdminHandler) delete(w http.ResponseWriter, r *http.Request) {
	removed, err := h.Store.DeletePromotion(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, "promotion not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
