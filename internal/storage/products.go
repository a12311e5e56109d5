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

func validProduct(p domain.Product) bool {
	return p.ID != "" && p.Name != "" && p.Price >= 0
}

func (s *Storage) GetAllProducts(ctx context.Context) ([]domain.Product, error) {
	if s.remote != nil {
		docs, err := s.remote.GetAll(ctx, docstore.ColProducts)
		if err == nil {
			out := make([]domain.Product, 0, len(docs))
			for _, d := range docs {
				var p domain.Product
				if err := decodeDoc(d, &p); err != nil {
					s.log.Warn("skipping malformed product", "id", d.ID, "err", err)
					continue
				}
				if validProduct(p) {
					out = append(out, p)
				}
			}
			return out, nil
		}
		s.warnFallback(docstore.ColProducts, err)
	}
	list, err := localList[domain.Product](s, docstore.ColProducts)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(list))
	for _, p := range list {
		p.ID = ident.Normalize(p.ID)
		if validProduct(p) {
			out = append(out, p)
		}
	}
	return out, nil
}

// GetProductsByCategory filters the menu; the zero value (or "all")
// returns everything.
func (s *Storage) GetProductsByCategory(ctx context.Context, category domain.Category) ([]domain.Product, error) {
	products, err := s.GetAllProducts(ctx)
	if err != nil {
		return nil, err
	}
	if category == "" || category == "all" {
		return products, nil
	}
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Storage) GetProductByID(ctx context.Context, id string) (*domain.Product, error) {
	id = ident.Normalize(id)
	if id == "" {
		return nil, nil
	}
	if s.remote != nil {
		doc, err := s.remote.Get(ctx, docstore.ColProducts, id)
		if err == nil {
			var p domain.Product
			if err := decodeDoc(*doc, &p); err != nil {
				return nil, err
			}
			return &p, nil
		}
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, nil
		}
		s.warnFallback(docstore.ColProducts, err)
	}
	list, err := localList[domain.Product](s, docstore.ColProducts)
	if err != nil {
		return nil, err
	}
	for _, p := range list {
		if ident.Normalize(p.ID) == id {
			p.ID = id
			return &p, nil
		}
	}
	return nil, nil
}

func (s *Storage) AddProduct(ctx context.Context, p domain.Product) (*domain.Product, error) {
	if p.Price < 0 {
		return nil, fmt.Errorf("product price must not be negative")
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	if s.remote != nil {
		data, err := encodeDoc(p)
		if err != nil {
			return nil, err
		}
		doc, err := s.remote.Add(ctx, docstore.ColProducts, data)
		if err != nil {
			return nil, fmt.Errorf("add product: %w", err)
		}
		p.ID = doc.ID
		mirror(s, docstore.ColProducts, p.ID, &p, func(x domain.Product) string { return x.ID })
		return &p, nil
	}

	p.ID = ident.NewID()
	err := updateLocal(s, docstore.ColProducts, func(list []domain.Product) ([]domain.Product, bool) {
		return append(list, p), true
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Storage) UpdateProduct(ctx context.Context, id string, patch map[string]any) (*domain.Product, error) {
	id = ident.Normalize(id)
	cur, err := s.GetProductByID(ctx, id)
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
	if merged.Price < 0 {
		return nil, fmt.Errorf("product price must not be negative")
	}
	merged.ID = id
	merged.UpdatedAt = time.Now().UTC()

	if s.remote != nil {
		full := make(map[string]any, len(patch)+1)
		for k, v := range patch {
			full[k] = v
		}
		full["updatedAt"] = merged.UpdatedAt
		if err := s.remote.Update(ctx, docstore.ColProducts, id, full); err != nil {
			if errors.Is(err, docstore.ErrNotFound) {
				return nil, nil
			}
			return nil, fmt.Errorf("update product: %w", err)
		}
		mirror(s, docstore.ColProducts, id, &merged, func(x domain.Product) string { return x.ID })
		return &merged, nil
	}

	found := false
	err = updateLocal(s, docstore.ColProducts, func(list []domain.Product) ([]domain.Product, bool) {
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

func (s *Storage) DeleteProduct(ctx context.Context, id string) (bool, error) {
	id = ident.Normalize(id)
	cur, err := s.GetProductByID(ctx, id)
	if err != nil {
		return false, err
	}
	if cur == nil {
		return false, nil
	}
	if s.remote != nil {
		if err := s.remote.Delete(ctx, docstore.ColProducts, id); err != nil {
			return false, fmt.Errorf("delete product: %w", err)
		}
		mirror[domain.Product](s, docstore.ColProducts, id, nil, func(x domain.Product) string { return x.ID })
		return true, nil
	}
	err = updateLocal(s, docstore.ColProducts, func(list []domain.Product) ([]domain.Product, bool) {
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
