package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JackobAssis/Joburguers/internal/storage"
)

// SettingsHandler exposes store info publicly and full settings
// management to the admin.
type SettingsHandler struct {
	Store *storage.Storage
}

func (h SettingsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/settings", h.publicInfo)
}

func (h SettingsHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/api/admin/settings", h.get)
	r.Put("/api/admin/settings", h.save)
}

// publicInfo is the storefront subset: contact details and the loyalty
// rules clients need to see, nothing operational.
func (h SettingsHandler) publicInfo(w http.ResponseWriter, r *http.Request) {
	s, err := h.Store.GetSettings(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"storeName":             s.StoreName,
		"storeAddress":          s.StoreAddress,
		"storePhone":            s.StorePhone,
		"storeWhatsApp":         s.StoreWhatsApp,
		"storeHours":            s.StoreHours,
		"pointsPerCurrencyUnit": s.PointsPerCurrency,
		"levels":                s.Levels,
	})
}

func (h SettingsHandler) get(w http.ResponseWriter, r *http.Request) {
	s, err := h.Store.GetSettings(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h SettingsHandler) save(w http.ResponseWriter, r *http.Request) {
	var patch map[string]any
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	s, err := h.Store.UpdateSettings(r.Context(), patch)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}
