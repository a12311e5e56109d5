package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/JackobAssis/Joburguers/internal/ident"
	"github.com/JackobAssis/Joburguers/internal/storage"
)

// AdminAccountHandler lets the admin update their own credentials.
type AdminAccountHandler struct {
	Store *storage.Storage
}

func (h AdminAccountHandler) RegisterRoutes(r chi.Router) {
	r.Put("/api/admin/account", h.update)
}

func (h AdminAccountHandler) update(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Phone    string `json:"phone"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	admin, err := h.Store.GetAdmin(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if admin == nil {
		writeError(w, http.StatusNotFound, "admin account not found")
		return
	}

	if req.Name != "" {
		admin.Name = req.Name
	}
	if req.Phone != "" {
		if !ident.ValidPhone(req.Phone) {
			writeError(w, http.StatusBadRequest, "phone must have 10 or 11 digits")
			return
		}
		admin.Phone = ident.NormalizePhone(req.Phone)
	}
	if req.Password != "" {
		if len(req.Password) < 4 {
			writeError(w, http.StatusBadRequest, "password must have at least 4 characters")
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		admin.Password = string(hash)
	}

	if err := h.Store.UpdateAdmin(r.Context(), *admin); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"name":  admin.Name,
		"phone": admin.Phone,
	})
}
