package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JackobAssis/Joburguers/internal/docstore"
	"github.com/JackobAssis/Joburguers/internal/domain"
	"github.com/JackobAssis/Joburguers/internal/ident"
)

func (s *Storage) GetAllPromotions(ctx context.Context) ([]domain.Promotion, error) {
	if s.remote != nil {
		docs, err := s.remote.GetAll(ctx, docstore.ColPromotions)
		if err == nil {
			out := make([]domain.Promotion, 0, len(docs))
			for _, d := range docs {
				var p domain.Promotion
				if err := decodeDoc(d, &p); err != nil {
					s.log.Warn("skipping malformed promotion", "id", d.ID, "err", err)
					continue
				}
				if p.ID != "" && p.Name != "" {
					out = append(out, p)
				}
			}
			return out, nil
		}
		s.warnFallback(docstore.ColPromotions, err)
	}
	list, err := localList[domain.Promotion](s, docstore.ColPromotions)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Promotion, 0, len(list))
	for _, p := range list {
		p.ID = ident.Normalize(p.ID)
		if p.ID != "" && p.Name != "" {
			out = append(out, p)
		}
	}
	return out, nil
}

// GetActivePromotions is the customer-facing view: active flag set and
// inside the validity window when one is configured.
func (s *Storage) GetActivePromotions(ctx context.Context) ([]domain.Promotion, error) {
	promotions, err := s.GetAllPromotions(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	out := make([]domain.Promotion, 0, len(promotions))
	for _, p := range promotions {
		if p.CurrentlyActive(now) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Storage) GetPromotionByID(ctx context.Context, id string) (*domain.Promotion, error) {
	id = ident.Normalize(id)
	if id == "" {
		return nil, nil
	}
	promotions, err := s.GetAllPromotions(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range promotions {
		if p.ID == id {
			promo := p
			return &promo, nil
		}
	}
	return nil, nil
}

func (s *Storage) AddPromotion(ctx context.Context, p domain.Promotion) (*domain.Promotion, error) {
	p.CreatedAt = time.Now().UTC()

	if s.remote != nil {
		data, err := encodeDoc(p)
		if err != nil {
			return nil, err
		}
		doc, err := s.remote.Add(ctx, docstore.ColPromotions, data)
		if err != nil {
			return nil, fmt.Errorf("add promotion: %w", err)
		}
		p.ID = doc.ID
		mirror(s, docstore.ColPromotions, p.ID, &p, func(x domain.Promotion) string { return x.ID })
		return &p, nil
	}

	p.ID = ident.NewID()
	err := updateLocal(s, docstore.ColPromotions, func(list []domain.Promotion) ([]domain.Promotion, bool) {
		return append(list, p), true
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Storage) UpdatePromotion(ctx context.Context, id string, patch map[string]any) (*domain.Promotion, error) {
	id = ident.Normalize(id)
	cur, err := s.GetPromotionByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, nil
	}

	merged := *cur
	if err := mergeInto(&merged, patch); err != nil {
		return nil, err
	}
	merged.ID = id

	if s.remote != nil {
		if err := s.remote.Update(ctx, docstore.ColPromotions, id, patch); err != nil {
			if errors.Is(err, docstore.ErrNotFound) {
				return nil, nil
			}
			return nil, fmt.Errorf("update promotion: %w", err)
		}
		mirror(s, docstore.ColPromotions, id, &merged, func(x domain.Promotion) string { return x.ID })
		return &merged, nil
	}

	found := false
	err = updateLocal(s, docstore.ColPromotions, func(list []domain.Promotion) ([]domain.Promotion, bool) {
		for i := range list {
			if ident.Normalize(list[i].ID) == id {
				list[i] = merged
				found = true
				return list, true
			}
		}
		return list, false
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &merged, nil
}

func (s *Storage) DeletePromotion(ctx context.Context, id string) (bool, error) {
	id = ident.Normalize(id)
	cur, err := s.GetPromotionByID(ctx, id)
	if err != nil {
		return false, err
	}
	if cur == nil {
		return false, nil
	}
	if s.remote != nil {
		if err := s.remote.Delete(ctx, docstore.ColPromotions, id); err != nil {
			return false, fmt.Errorf("delete promotion: %w", err)
		}
		mirror[domain.Promotion](s, docstore.ColPromotions, id, nil, func(x domain.Promotion) string { return x.ID })
		return true, nil
	}
	err = updateLocal(s, docstore.ColPromotions, func(list []domain.Promotion) ([]domain.Promotion, bool) {
		for i := range list {
			if ident.Normalize(list[i].ID) == id {
				return append(list[:i], list[i+1:]...), true
			}
		}
		return list, false
	})
	if err != nil {
		return false, err
	}
	return true, nil
}
