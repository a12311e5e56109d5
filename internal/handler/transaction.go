package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JackobAssis/Joburguers/internal/domain"
	"github.com/JackobAssis/Joburguers/internal/storage"
)

// TransactionHandler is the admin view over the full ledger.
type TransactionHandler struct {
	Store *storage.Storage
}

func (h TransactionHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/admin/transactions", h.list)
}

func (h TransactionHandler) list(w http.ResponseWriter, r *http.Request) {
	typeFilter := domain.TransactionType(r.URL.Query().Get("type"))
	switch typeFilter {
	case "", domain.TransactionEarned, domain.TransactionRedeemed, domain.TransactionAdjustment:
	default:
		writeError(w, http.StatusBadRequest, "invalid type filter")
		return
	}

	var txs []domain.Transaction
	var err error
	if clientID := r.URL.Query().Get("client_id"); clientID != "" {
		txs, err = h.Store.ListClientTransactions(r.Context(), clientID)
		if err == nil && typeFilter != "" {
			filtered := txs[:0]
			for _, tx := range txs {
				if tx.Type == typeFilter {
					filtered = append(filtered, tx)
				}
			}
			txs = filtered
		}
	} else {
		txs, err = h.Store.ListTransactions(r.Context(), typeFilter)
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}
