package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JackobAssis/Joburguers/internal/docstore"
	"github.com/JackobAssis/Joburguers/internal/domain"
)

// GetSettings never fails over to an error when nothing is stored yet:
// the defaults are the settings until an admin saves something.
func (s *Storage) GetSettings(ctx context.Context) (domain.Settings, error) {
	if s.remote != nil {
		doc, err := s.remote.Get(ctx, docstore.ColSettings, docstore.SingletonID)
		if err == nil {
			var settings domain.Settings
			if err := decodeDocSingleton(*doc, &settings); err != nil {
				return domain.Settings{}, err
			}
			return settings, nil
		}
		if !errors.Is(err, docstore.ErrNotFound) {
			s.warnFallback(docstore.ColSettings, err)
		}
	}
	var settings domain.Settings
	found, err := s.localGetSingleton(docstore.ColSettings, &settings)
	if err != nil {
		return domain.Settings{}, err
	}
	if !found {
		return domain.DefaultSettings(), nil
	}
	return settings, nil
}

// UpdateSettings shallow-merges patch over the current settings and
// writes the result to both backends.
func (s *Storage) UpdateSettings(ctx context.Context, patch map[string]any) (domain.Settings, error) {
	cur, err := s.GetSettings(ctx)
	if err != nil {
		return domain.Settings{}, err
	}
	merged := cur
	if err := mergeInto(&merged, patch); err != nil {
		return domain.Settings{}, err
	}
	merged.UpdatedAt = time.Now().UTC()

	if s.remote != nil {
		data, err := encodeDoc(merged)
		if err != nil {
			return domain.Settings{}, err
		}
		if err := s.remote.Set(ctx, docstore.ColSettings, docstore.SingletonID, data); err != nil {
			return domain.Settings{}, fmt.Errorf("update settings: %w", err)
		}
	}
	if err := s.localSetSingleton(docstore.ColSettings, merged); err != nil {
		if s.remote == nil {
			return domain.Settings{}, err
		}
		s.log.Warn("local settings mirror failed", "err", err)
	}
	return merged, nil
}

func (s *Storage) localGetSingleton(key string, v any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.local.Get(key, v)
}

func (s *Storage) localSetSingleton(key string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.local.Set(key, v)
}

// decodeDocSingleton skips the ID handling of decodeDoc; singleton
// documents have a fixed key and no id field of their own.
func decodeDocSingleton(doc docstore.Document, v any) error {
	return decodeAnyMap(doc.Data, v)
}
