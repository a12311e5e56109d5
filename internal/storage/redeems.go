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

func (s *Storage) GetAllRedeems(ctx context.Context) ([]domain.RedeemRule, error) {
	if s.remote != nil {
		docs, err := s.remote.GetAll(ctx, docstore.ColRedeems)
		if err == nil {
			out := make([]domain.RedeemRule, 0, len(docs))
			for _, d := range docs {
				var rule domain.RedeemRule
				if err := decodeDoc(d, &rule); err != nil {
					s.log.Warn("skipping malformed redeem rule", "id", d.ID, "err", err)
					continue
				}
				if rule.ID != "" && rule.PointsRequired > 0 {
					out = append(out, rule)
				}
			}
			return out, nil
		}
		s.warnFallback(docstore.ColRedeems, err)
	}
	list, err := localList[domain.RedeemRule](s, docstore.ColRedeems)
	if err != nil {
		return nil, err
	}
	out := make([]domain.RedeemRule, 0, len(list))
	for _, rule := range list {
		rule.ID = ident.Normalize(rule.ID)
		if rule.ID != "" && rule.PointsRequired > 0 {
			out = append(out, rule)
		}
	}
	return out, nil
}

func (s *Storage) GetActiveRedeems(ctx context.Context) ([]domain.RedeemRule, error) {
	rules, err := s.GetAllRedeems(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.RedeemRule, 0, len(rules))
	for _, rule := range rules {
		if rule.Active {
			out = append(out, rule)
		}
	}
	return out, nil
}

func (s *Storage) GetRedeemByID(ctx context.Context, id string) (*domain.RedeemRule, error) {
	id = ident.Normalize(id)
	if id == "" {
		return nil, nil
	}
	rules, err := s.GetAllRedeems(ctx)
	if err != nil {
		return nil, err
	}
	for _, rule := range rules {
		if rule.ID == id {
			r := rule
			return &r, nil
		}
	}
	return nil, nil
}

// AddRedeem requires a positive point cost and an existing product;
// rules are product-linked, the legacy standalone shape is gone.
func (s *Storage) AddRedeem(ctx context.Context, rule domain.RedeemRule) (*domain.RedeemRule, error) {
	if rule.PointsRequired <= 0 {
		return nil, fmt.Errorf("pointsRequired must be positive")
	}
	rule.ProductID = ident.Normalize(rule.ProductID)
	rule.CreatedAt = time.Now().UTC()

	if s.remote != nil {
		data, err := encodeDoc(rule)
		if err != nil {
			return nil, err
		}
		doc, err := s.remote.Add(ctx, docstore.ColRedeems, data)
		if err != nil {
			return nil, fmt.Errorf("add redeem rule: %w", err)
		}
		rule.ID = doc.ID
		mirror(s, docstore.ColRedeems, rule.ID, &rule, func(x domain.RedeemRule) string { return x.ID })
		return &rule, nil
	}

	rule.ID = ident.NewID()
	err := updateLocal(s, docstore.ColRedeems, func(list []domain.RedeemRule) ([]domain.RedeemRule, bool) {
		return append(list, rule), true
	})
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

func (s *Storage) UpdateRedeem(ctx context.Context, id string, patch map[string]any) (*domain.RedeemRule, error) {
	id = ident.Normalize(id)
	cur, err := s.GetRedeemByID(ctx, id)
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
	if merged.PointsRequired <= 0 {
		return nil, fmt.Errorf("pointsRequired must be positive")
	}
	merged.ID = id

	if s.remote != nil {
		if err := s.remote.Update(ctx, docstore.ColRedeems, id, patch); err != nil {
			if errors.Is(err, docstore.ErrNotFound) {
				return nil, nil
			}
			return nil, fmt.Errorf("update redeem rule: %w", err)
		}
		mirror(s, docstore.ColRedeems, id, &merged, func(x domain.RedeemRule) string { return x.ID })
		return &merged, nil
	}

	found := false
	err = updateLocal(s, docstore.ColRedeems, func(list []domain.RedeemRule) ([]domain.RedeemRule, bool) {
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

func (s *Storage) DeleteRedeem(ctx context.Context, id string) (bool, error) {
	id = ident.Normalize(id)
	cur, err := s.GetRedeemByID(ctx, id)
	if err != nil {
		return false, err
	}
	if cur == nil {
		return false, nil
	}
	if s.remote != nil {
		if err := s.remote.Delete(ctx, docstore.ColRedeems, id); err != nil {
			return false, fmt.Errorf("delete redeem rule: %w", err)
		}
		mirror[domain.RedeemRule](s, docstore.ColRedeems, id, nil, func(x domain.RedeemRule) string { return x.ID })
		return true, nil
	}
	err = updateLocal(s, docstore.ColRedeems, func(list []domain.RedeemRule) ([]domain.RedeemRule, bool) {
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
