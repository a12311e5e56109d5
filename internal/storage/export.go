package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/JackobAssis/Joburguers/internal/docstore"
	"github.com/JackobAssis/Joburguers/internal/domain"
	"github.com/JackobAssis/Joburguers/internal/ident"
)

// Snapshot is the portable dump of every collection, used for backup
// and restore.
type Snapshot struct {
	Admin        *domain.Admin        `json:"admin,omitempty"`
	Clients      []domain.Client      `json:"clients"`
	Products     []domain.Product     `json:"products"`
	Promotions   []domain.Promotion   `json:"promotions"`
	Redeems      []domain.RedeemRule  `json:"redeems"`
	Settings     *domain.Settings     `json:"settings,omitempty"`
	Transactions []domain.Transaction `json:"transactions"`
	ExportDate   time.Time            `json:"exportDate"`
}

// Export reads every collection into one snapshot.
func (s *Storage) Export(ctx context.Context) (*Snapshot, error) {
	snap := Snapshot{ExportDate: time.Now().UTC()}
	var err error
	if snap.Admin, err = s.GetAdmin(ctx); err != nil {
		return nil, fmt.Errorf("export admin: %w", err)
	}
	if snap.Clients, err = s.GetAllClients(ctx); err != nil {
		return nil, fmt.Errorf("export clients: %w", err)
	}
	if snap.Products, err = s.GetAllProducts(ctx); err != nil {
		return nil, fmt.Errorf("export products: %w", err)
	}
	if snap.Promotions, err = s.GetAllPromotions(ctx); err != nil {
		return nil, fmt.Errorf("export promotions: %w", err)
	}
	if snap.Redeems, err = s.GetAllRedeems(ctx); err != nil {
		return nil, fmt.Errorf("export redeems: %w", err)
	}
	settings, err := s.GetSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("export settings: %w", err)
	}
	snap.Settings = &settings
	if snap.Transactions, err = s.ListTransactions(ctx, ""); err != nil {
		return nil, fmt.Errorf("export transactions: %w", err)
	}
	return &snap, nil
}

// Import replaces every present collection with the snapshot contents
// on both backends. Collections absent from the snapshot are left
// untouched.
func (s *Storage) Import(ctx context.Context, snap Snapshot) error {
	if snap.Admin != nil {
		if err := s.UpdateAdmin(ctx, *snap.Admin); err != nil {
			return fmt.Errorf("import admin: %w", err)
		}
	}
	if err := importList(ctx, s, docstore.ColClients, snap.Clients, func(c domain.Client) string { return c.ID }); err != nil {
		return fmt.Errorf("import clients: %w", err)
	}
	if err := importList(ctx, s, docstore.ColProducts, snap.Products, func(p domain.Product) string { return p.ID }); err != nil {
		return fmt.Errorf("import products: %w", err)
	}
	if err := importList(ctx, s, docstore.ColPromotions, snap.Promotions, func(p domain.Promotion) string { return p.ID }); err != nil {
		return fmt.Errorf("import promotions: %w", err)
	}
	if err := importList(ctx, s, docstore.ColRedeems, snap.Redeems, func(r domain.RedeemRule) string { return r.ID }); err != nil {
		return fmt.Errorf("import redeems: %w", err)
	}
	if snap.Settings != nil {
		if _, err := s.UpdateSettings(ctx, mustEncode(*snap.Settings)); err != nil {
			return fmt.Errorf("import settings: %w", err)
		}
	}
	if err := importList(ctx, s, docstore.ColTransactions, snap.Transactions, func(t domain.Transaction) string { return t.ID }); err != nil {
		return fmt.Errorf("import transactions: %w", err)
	}
	return nil
}

// importList upserts each item remotely by its own ID and replaces the
// whole local blob in one shot.
func importList[T any](ctx context.Context, s *Storage, key string, items []T, idOf func(T) string) error {
	if items == nil {
		return nil
	}
	if s.remote != nil {
		for _, item := range items {
			id := ident.Normalize(idOf(item))
			if id == "" {
				id = ident.NewID()
			}
			data, err := encodeDoc(item)
			if err != nil {
				return err
			}
			if err := s.remote.Set(ctx, key, id, data); err != nil {
				return err
			}
		}
	}
	if err := s.localSetSingleton(key, items); err != nil {
		if s.remote == nil {
			return err
		}
		s.log.Warn("local import mirror failed", "collection", key, "err", err)
	}
	return nil
}

func mustEncode(v any) map[string]any {
	data, err := encodeDoc(v)
	if err != nil {
		// Settings always marshal; this cannot fire for domain types.
		panic(err)
	}
	return data
}
