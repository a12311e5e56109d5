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

func validClient(c domain.Client) bool {
	return c.ID != "" && c.Name != "" && c.Phone != ""
}

// GetAllClients lists clients, silently dropping malformed records so
// a partially corrupt collection cannot break listing pages.
func (s *Storage) GetAllClients(ctx context.Context) ([]domain.Client, error) {
	if s.remote != nil {
		docs, err := s.remote.GetAll(ctx, docstore.ColClients)
		if err == nil {
			out := make([]domain.Client, 0, len(docs))
			for _, d := range docs {
				var c domain.Client
				if err := decodeDoc(d, &c); err != nil {
					s.log.Warn("skipping malformed client", "id", d.ID, "err", err)
					continue
				}
				if validClient(c) {
					out = append(out, c)
				}
			}
			return out, nil
		}
		s.warnFallback(docstore.ColClients, err)
	}
	list, err := localList[domain.Client](s, docstore.ColClients)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Client, 0, len(list))
	for _, c := range list {
		c.ID = ident.Normalize(c.ID)
		if validClient(c) {
			out = append(out, c)
		}
	}
	return out, nil
}

// GetClientByID returns nil without error when the client is absent.
func (s *Storage) GetClientByID(ctx context.Context, id string) (*domain.Client, error) {
	id = ident.Normalize(id)
	if id == "" {
		return nil, nil
	}
	if s.remote != nil {
		doc, err := s.remote.Get(ctx, docstore.ColClients, id)
		if err == nil {
			var c domain.Client
			if err := decodeDoc(*doc, &c); err != nil {
				return nil, err
			}
			return &c, nil
		}
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, nil
		}
		s.warnFallback(docstore.ColClients, err)
	}
	list, err := localList[domain.Client](s, docstore.ColClients)
	if err != nil {
		return nil, err
	}
	for _, c := range list {
		if ident.Normalize(c.ID) == id {
			c.ID = id
			return &c, nil
		}
	}
	return nil, nil
}

// GetClientByPhone matches on digits only, so formatting differences
// between registration and login do not matter.
func (s *Storage) GetClientByPhone(ctx context.Context, phone string) (*domain.Client, error) {
	want := ident.NormalizePhone(phone)
	if want == "" {
		return nil, nil
	}
	clients, err := s.GetAllClients(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range clients {
		if ident.NormalizePhone(c.Phone) == want {
			client := c
			return &client, nil
		}
	}
	return nil, nil
}

// AddClient persists a new client. Password must already be hashed.
// Points start at whatever the caller set (normally zero; bonuses go
// through the loyalty engine so the ledger stays complete).
func (s *Storage) AddClient(ctx context.Context, c domain.Client) (*domain.Client, error) {
	settings, err := s.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.LastUpdatedAt = now
	c.Level = settings.Levels.LevelFor(c.Points)

	if s.remote != nil {
		data, err := encodeDoc(c)
		if err != nil {
			return nil, err
		}
		doc, err := s.remote.Add(ctx, docstore.ColClients, data)
		if err != nil {
			return nil, fmt.Errorf("add client: %w", err)
		}
		c.ID = doc.ID
		mirror(s, docstore.ColClients, c.ID, &c, func(x domain.Client) string { return x.ID })
		return &c, nil
	}

	c.ID = ident.NewID()
	err = updateLocal(s, docstore.ColClients, func(list []domain.Client) ([]domain.Client, bool) {
		return append(list, c), true
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// UpdateClient shallow-merges patch into the stored client and
// recomputes the level from the resulting point total, so the derived
// field can never drift from points. Returns nil when the id is
// unknown.
func (s *Storage) UpdateClient(ctx context.Context, id string, patch map[string]any) (*domain.Client, error) {
	id = ident.Normalize(id)
	cur, err := s.GetClientByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, nil
	}
	settings, err := s.GetSettings(ctx)
	if err != nil {
		return nil, err
	}

	merged := *cur
	if err := mergeInto(&merged, patch); err != nil {
		return nil, err
	}
	merged.ID = id
	merged.Level = settings.Levels.LevelFor(merged.Points)
	merged.LastUpdatedAt = time.Now().UTC()

	if s.remote != nil {
		full := make(map[string]any, len(patch)+2)
		for k, v := range patch {
			full[k] = v
		}
		full["level"] = merged.Level
		full["lastUpdatedAt"] = merged.LastUpdatedAt
		if err := s.remote.Update(ctx, docstore.ColClients, id, full); err != nil {
			if errors.Is(err, docstore.ErrNotFound) {
				return nil, nil
			}
			return nil, fmt.Errorf("update client: %w", err)
		}
		mirror(s, docstore.ColClients, id, &merged, func(x domain.Client) string { return x.ID })
		return &merged, nil
	}

	found := false
	err = updateLocal(s, docstore.ColClients, func(list []domain.Client) ([]domain.Client, bool) {
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

// SetClientPointsCAS writes a new point total only if the stored total
// still equals expected. The conditional update closes the cross-
// session redemption race.
func (s *Storage) SetClientPointsCAS(ctx context.Context, id string, expected, points int, level domain.Level) (bool, error) {
	id = ident.Normalize(id)
	now := time.Now().UTC()

	if s.remote != nil {
		patch := map[string]any{
			"points":        points,
			"level":         level,
			"lastUpdatedAt": now,
		}
		swapped, err := s.remote.UpdateIf(ctx, docstore.ColClients, id, patch, "points", expected)
		if err != nil {
			return false, fmt.Errorf("update client points: %w", err)
		}
		if swapped {
			if c, err := s.GetClientByID(ctx, id); err == nil && c != nil {
				mirror(s, docstore.ColClients, id, c, func(x domain.Client) string { return x.ID })
			}
		}
		return swapped, nil
	}

	swapped := false
	err := updateLocal(s, docstore.ColClients, func(list []domain.Client) ([]domain.Client, bool) {
		for i := range list {
			if ident.Normalize(list[i].ID) != id {
				continue
			}
			if list[i].Points != expected {
				return list, false
			}
			list[i].Points = points
			list[i].Level = level
			list[i].LastUpdatedAt = now
			swapped = true
			return list, true
		}
		return list, false
	})
	if err != nil {
		return false, err
	}
	return swapped, nil
}

// DeleteClient reports whether a client was actually removed.
func (s *Storage) DeleteClient(ctx context.Context, id string) (bool, error) {
	id = ident.Normalize(id)
	cur, err := s.GetClientByID(ctx, id)
	if err != nil {
		return false, err
	}
	if cur == nil {
		return false, nil
	}
	if s.remote != nil {
		if err := s.remote.Delete(ctx, docstore.ColClients, id); err != nil {
			return false, fmt.Errorf("delete client: %w", err)
		}
		mirror[domain.Client](s, docstore.ColClients, id, nil, func(x domain.Client) string { return x.ID })
		return true, nil
	}
	err = updateLocal(s, docstore.ColClients, func(list []domain.Client) ([]domain.Client, bool) {
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
