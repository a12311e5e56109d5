package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JackobAssis/Joburguers/internal/storage"
)

// ExportHandler provides full-database backup and restore.
type ExportHandler struct {
	Store *storage.Storage
}

func (h ExportHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/admin/export", h.export)
	r.Post("/api/admin/import", h.importSnapshot)
}

func (h ExportHandler) export(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Store.Export(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"joburguers_backup_%s.json\"", time.Now().Format("20060102_150405")))
	_ = json.NewEncoder(w).Encode(snap)
}

func (h ExportHandler) importSnapshot(w http.ResponseWriter, r *http.Request) {
	var snap storage.Snapshot
	if err := json.NewDecoder(r.Body).Decode(&snap); err != nil {
		writeError(w, http.StatusBadRequest, "invalid snapshot payload")
		return
	}
	if err := h.Store.Import(r.Context(), snap); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
