package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JackobAssis/Joburguers/internal/docstore"
)

// HealthHandler exposes a readiness probe. Remote is nil in local-only
// deployments.
type HealthHandler struct {
	Remote *docstore.Remote
}

func (h HealthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.handleHealth)
}

func (h HealthHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	mode := "local"
	status := "ok"
	if h.Remote != nil {
		mode = "remote"
		if err := h.Remote.Health(ctx); err != nil {
			status = "degraded"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status": status,
		"mode":   mode,
	})
}
