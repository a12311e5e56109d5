package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JackobAssis/Joburguers/internal/domain"
	"github.com/JackobAssis/Joburguers/internal/storage"
)

// RedeemAdminHandler manages the redemption catalog.
type RedeemAdminHandler struct {
	Store *storage.Storage
}

func (h RedeemAdminHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/admin/redeems", h.list)
	r.Post("/api/admin/redeems", h.create)
	r.Put("/api/admin/redeems/{id}", h.update)
	r.Delete("/api/admin/redeems/{id}", h.delete)
}

func (h RedeemAdminHandler) list(w http.ResponseWriter, r *http.Request) {
	rules, err := h.Store.GetAllRedeems(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rules)
}

func (h RedeemAdminHandler) create(w http.ResponseWriter, r *http.Request) {
	var req domain.RedeemRule
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.PointsRequired <= 0 {
		writeError(w, http.StatusBadRequest, "pointsRequired must be positive")
		return
	}
	product, err := h.Store.GetProductByID(r.Context(), req.ProductID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if product == nil {
		writeError(w, http.StatusBadRequest, "productId must reference an existing product")
		return
	}
	rule, err := h.Store.AddRedeem(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rule)
}

func (h RedeemAdminHandler) update(w http.ResponseWriter, r *http.Request) {
	var patch map[string]any
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if pid, ok := patch["productId"].(string); ok {
		product, err := h.Store.GetProductByID(r.Context(), pid)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if product == nil {
			writeError(w, http.StatusBadRequest, "productId must reference an existing product")
			return
		}
	}
	rule, err := h.Store.UpdateRedeem(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if rule == nil {
		writeError(w, http.StatusNotFound, "redeem rule not found")
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

func (h RedeemAdminHandler) delete(w http.ResponseWriter, r *http.Request) {
	removed, err := h.Store.DeleteRedeem(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, "redeem rule not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
