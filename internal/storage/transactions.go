package storage

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/JackobAssis/Joburguers/internal/docstore"
	"github.com/JackobAssis/Joburguers/internal/domain"
	"github.com/JackobAssis/Joburguers/internal/ident"
)

// RecordTransaction appends a ledger entry. The ledger is append-only;
// there is no update or delete path.
func (s *Storage) RecordTransaction(ctx context.Context, tx domain.Transaction) (*domain.Transaction, error) {
	tx.ClientID = ident.Normalize(tx.ClientID)
	if tx.Timestamp.IsZero() {
		tx.Timestamp = time.Now().UTC()
	}

	if s.remote != nil {
		data, err := encodeDoc(tx)
		if err != nil {
			return nil, err
		}
		doc, err := s.remote.Add(ctx, docstore.ColTransactions, data)
		if err != nil {
			return nil, fmt.Errorf("record transaction: %w", err)
		}
		tx.ID = doc.ID
		mirror(s, docstore.ColTransactions, tx.ID, &tx, func(x domain.Transaction) string { return x.ID })
		return &tx, nil
	}

	tx.ID = ident.NewID()
	err := updateLocal(s, docstore.ColTransactions, func(list []domain.Transaction) ([]domain.Transaction, bool) {
		return append(list, tx), true
	})
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// ListTransactions returns every ledger entry, newest first. typeFilter
// narrows by transaction type when non-empty.
func (s *Storage) ListTransactions(ctx context.Context, typeFilter domain.TransactionType) ([]domain.Transaction, error) {
	all, err := s.loadTransactions(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Transaction, 0, len(all))
	for _, tx := range all {
		if typeFilter != "" && tx.Type != typeFilter {
			continue
		}
		out = append(out, tx)
	}
	sortNewestFirst(out)
	return out, nil
}

// ListClientTransactions returns one client's ledger, newest first.
func (s *Storage) ListClientTransactions(ctx context.Context, clientID string) ([]domain.Transaction, error) {
	clientID = ident.Normalize(clientID)
	all, err := s.loadTransactions(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Transaction, 0, len(all))
	for _, tx := range all {
		if tx.ClientID == clientID {
			out = append(out, tx)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *Storage) loadTransactions(ctx context.Context) ([]domain.Transaction, error) {
	if s.remote != nil {
		docs, err := s.remote.GetAll(ctx, docstore.ColTransactions)
		if err == nil {
			out := make([]domain.Transaction, 0, len(docs))
			for _, d := range docs {
				var tx domain.Transaction
				if err := decodeDoc(d, &tx); err != nil {
					s.log.Warn("skipping malformed transaction", "id", d.ID, "err", err)
					continue
				}
				if tx.ID != "" && tx.ClientID != "" {
					out = append(out, tx)
				}
			}
			return out, nil
		}
		s.warnFallback(docstore.ColTransactions, err)
	}
	list, err := localList[domain.Transaction](s, docstore.ColTransactions)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Transaction, 0, len(list))
	for _, tx := range list {
		tx.ClientID = ident.Normalize(tx.ClientID)
		if tx.ID != "" && tx.ClientID != "" {
			out = append(out, tx)
		}
	}
	return out, nil
}

func sortNewestFirst(list []domain.Transaction) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Timestamp.After(list[j].Timestamp)
	})
}
