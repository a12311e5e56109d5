package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/JackobAssis/Joburguers/internal/domain"
	"github.com/JackobAssis/Joburguers/internal/ident"
	"github.com/JackobAssis/Joburguers/internal/loyalty"
	"github.com/JackobAssis/Joburguers/internal/storage"
)

// ClientAdminHandler manages the client roster and point movements.
type ClientAdminHandler struct {
	Store  *storage.Storage
	Engine *loyalty.Engine
}

func (h ClientAdminHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/admin/clients", h.list)
	r.Get("/api/admin/clients/{id}", h.get)
	r.Post("/api/admin/clients", h.create)
	r.Put("/api/admin/clients/{id}", h.update)
	r.Delete("/api/admin/clients/{id}", h.delete)
	r.Get("/api/admin/clients/{id}/transactions", h.transactions)
	r.Post("/api/admin/clients/{id}/points", h.adjustPoints)
	r.Post("/api/admin/clients/{id}/purchase", h.recordPurchase)
}

func (h ClientAdminHandler) list(w http.ResponseWriter, r *http.Request) {
	clients, err := h.Store.GetAllClients(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	resp := make([]map[string]any, 0, len(clients))
	for _, c := range clients {
		resp = append(resp, toClientResponse(c))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h ClientAdminHandler) get(w http.ResponseWriter, r *http.Request) {
	client, err := h.Store.GetClientByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if client == nil {
		writeError(w, http.StatusNotFound, "client not found")
		return
	}
	writeJSON(w, http.StatusOK, toClientResponse(*client))
}

// create registers a client from the counter. The password defaults to
// the last six digits of the phone when omitted.
func (h ClientAdminHandler) create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Phone    string `json:"phone"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if !ident.ValidPhone(req.Phone) {
		writeError(w, http.StatusBadRequest, "phone must have 10 or 11 digits")
		return
	}
	existing, err := h.Store.GetClientByPhone(r.Context(), req.Phone)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "phone already registered")
		return
	}
	password := req.Password
	if password == "" {
		password = ident.DefaultPassword(req.Phone)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	client, err := h.Store.AddClient(r.Context(), domain.Client{
		Name:     req.Name,
		Phone:    ident.NormalizePhone(req.Phone),
		Email:    req.Email,
		Password: string(hash),
		Active:   true,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if updated, err := h.Engine.GrantRegistrationBonus(r.Context(), client.ID); err == nil && updated != nil {
		client = updated
	}
	writeJSON(w, http.StatusCreated, toClientResponse(*client))
}

func (h ClientAdminHandler) update(w http.ResponseWriter, r *http.Request) {
	var patch map[string]any
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	// Points move through the dedicated endpoints so every change has a
	// matching ledger entry.
	delete(patch, "points")
	delete(patch, "level")
	if pw, ok := patch["password"].(string); ok && pw != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		patch["password"] = string(hash)
	}
	client, err := h.Store.UpdateClient(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if client == nil {
		writeError(w, http.StatusNotFound, "client not found")
		return
	}
	writeJSON(w, http.StatusOK, toClientResponse(*client))
}

func (h ClientAdminHandler) delete(w http.ResponseWriter, r *http.Request) {
	removed, err := h.Store.DeleteClient(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, "client not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h ClientAdminHandler) transactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.Store.ListClientTransactions(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

// adjustPoints applies a signed manual correction.
func (h ClientAdminHandler) adjustPoints(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Delta  int    `json:"delta"`
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Delta == 0 {
		writeError(w, http.StatusBadRequest, "delta must not be zero")
		return
	}
	reason := req.Reason
	if reason == "" {
		reason = loyalty.ReasonAdjustment
	}
	client, err := h.Engine.ApplyPointDelta(r.Context(), chi.URLParam(r, "id"), req.Delta, domain.TransactionAdjustment, reason)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toClientResponse(*client))
}

func (h ClientAdminHandler) recordPurchase(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount float64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Amount < 0 {
		writeError(w, http.StatusBadRequest, "amount must not be negative")
		return
	}
	client, earned, err := h.Engine.RecordPurchase(r.Context(), chi.URLParam(r, "id"), req.Amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"client":       toClientResponse(*client),
		"pointsEarned": earned,
	})
}
