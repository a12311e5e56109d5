package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JackobAssis/Joburguers/internal/domain"
	"github.com/JackobAssis/Joburguers/internal/loyalty"
	"github.com/JackobAssis/Joburguers/internal/server/authctx"
	"github.com/JackobAssis/Joburguers/internal/storage"
)

// MeHandler is the signed-in client's own surface: profile, history and
// redemptions.
type MeHandler struct {
	Store  *storage.Storage
	Engine *loyalty.Engine
}

func (h MeHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/me", h.profile)
	r.Get("/api/me/transactions", h.transactions)
	r.Get("/api/me/redeems", h.redeems)
	r.Post("/api/me/redeems/{id}", h.claim)
}

func (h MeHandler) profile(w http.ResponseWriter, r *http.Request) {
	actor := authctx.FromContext(r.Context())
	if actor == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	client, err := h.Store.GetClientByID(r.Context(), actor.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if client == nil {
		writeError(w, http.StatusNotFound, "client not found")
		return
	}
	settings, err := h.Store.GetSettings(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	resp := toClientResponse(*client)
	resp["pointsUntilNextLevel"] = settings.Levels.PointsUntilNext(client.Points)
	// The cheapest active redemption doubles as the dashboard goal.
	if rules, err := h.Store.GetActiveRedeems(r.Context()); err == nil {
		goal := 0
		for _, rule := range rules {
			if goal == 0 || rule.PointsRequired < goal {
				goal = rule.PointsRequired
			}
		}
		if goal > 0 {
			resp["nextRedeemGoal"] = goal
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h MeHandler) transactions(w http.ResponseWriter, r *http.Request) {
	actor := authctx.FromContext(r.Context())
	if actor == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	typeFilter := domain.TransactionType(r.URL.Query().Get("type"))
	switch typeFilter {
	case "", domain.TransactionEarned, domain.TransactionRedeemed, domain.TransactionAdjustment:
	default:
		writeError(w, http.StatusBadRequest, "invalid type filter")
		return
	}
	txs, err := h.Store.ListClientTransactions(r.Context(), actor.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if typeFilter != "" {
		filtered := txs[:0]
		for _, tx := range txs {
			if tx.Type == typeFilter {
				filtered = append(filtered, tx)
			}
		}
		txs = filtered
	}
	writeJSON(w, http.StatusOK, txs)
}

// redeems lists the active redemption options together with the linked
// product and whether the caller can afford each one.
func (h MeHandler) redeems(w http.ResponseWriter, r *http.Request) {
	actor := authctx.FromContext(r.Context())
	if actor == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	client, err := h.Store.GetClientByID(r.Context(), actor.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if client == nil {
		writeError(w, http.StatusNotFound, "client not found")
		return
	}
	rules, err := h.Store.GetActiveRedeems(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	resp := make([]map[string]any, 0, len(rules))
	for _, rule := range rules {
		entry := map[string]any{
			"id":             rule.ID,
			"productId":      rule.ProductID,
			"pointsRequired": rule.PointsRequired,
			"eligible":       client.Points >= rule.PointsRequired,
		}
		if product, err := h.Store.GetProductByID(r.Context(), rule.ProductID); err == nil && product != nil {
			entry["product"] = product
		}
		resp = append(resp, entry)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h MeHandler) claim(w http.ResponseWriter, r *http.Request) {
	actor := authctx.FromContext(r.Context())
	if actor == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	client, rule, err := h.Engine.Redeem(r.Context(), actor.ID, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"client":       toClientResponse(*client),
		"pointsSpent":  rule.PointsRequired,
		"redeemRuleId": rule.ID,
	})
}
