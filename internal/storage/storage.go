// Package storage is the persistence façade: the single API the rest
// of the system calls for entity CRUD. Every call tries the remote
// document store first and falls back to the local blob store for
// reads; writes require the remote backend when one is configured and
// surface failures instead of queuing.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/JackobAssis/Joburguers/internal/docstore"
	"github.com/JackobAssis/Joburguers/internal/ident"
	"github.com/JackobAssis/Joburguers/internal/localstore"
)

// Remote is the slice of the remote adapter the façade consumes.
// *docstore.Remote satisfies it; tests swap in fakes.
type Remote interface {
	Add(ctx context.Context, collection string, data map[string]any) (*docstore.Document, error)
	Get(ctx context.Context, collection, id string) (*docstore.Document, error)
	GetAll(ctx context.Context, collection string) ([]docstore.Document, error)
	Update(ctx context.Context, collection, id string, patch map[string]any) error
	UpdateIf(ctx context.Context, collection, id string, patch map[string]any, field string, expected int) (bool, error)
	Set(ctx context.Context, collection, id string, data map[string]any) error
	Delete(ctx context.Context, collection, id string) error
}

// Storage hides which backend served a call. With no remote configured
// it runs entirely on the local store.
type Storage struct {
	remote Remote
	local  *localstore.Store
	log    *slog.Logger

	// mu serializes local read-modify-write sequences, including the
	// mirror writes that follow successful remote writes.
	mu sync.Mutex
}

func New(remote Remote, local *localstore.Store, log *slog.Logger) *Storage {
	return &Storage{remote: remote, local: local, log: log}
}

// RemoteConfigured reports whether a remote backend was wired at startup.
func (s *Storage) RemoteConfigured() bool {
	return s.remote != nil
}

func (s *Storage) warnFallback(collection string, err error) {
	s.log.Warn("remote read failed, using local fallback", "collection", collection, "err", err)
}

// encodeDoc flattens an entity into document data. The ID travels as
// the document key, not inside the payload.
func encodeDoc(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode entity: %w", err)
	}
	data := map[string]any{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("reshape entity: %w", err)
	}
	delete(data, "id")
	return data, nil
}

// decodeDoc rebuilds an entity from a document, normalizing the ID and
// coercing loosely-typed fields before the strict unmarshal.
func decodeDoc(doc docstore.Document, v any) error {
	data := make(map[string]any, len(doc.Data)+1)
	for k, val := range doc.Data {
		data[k] = val
	}
	if ing, ok := data["ingredients"]; ok {
		data["ingredients"] = ident.StringSlice(ing)
	}
	data["id"] = ident.Normalize(firstNonEmpty(doc.ID, data["id"]))
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("reshape document: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode document %s: %w", doc.ID, err)
	}
	return nil
}

func decodeAnyMap(data map[string]any, v any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("reshape document: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return nil
}

func firstNonEmpty(id string, fallback any) any {
	if id != "" {
		return id
	}
	return fallback
}

// localList reads a collection blob from the fallback store.
func localList[T any](s *Storage, key string) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []T
	if _, err := s.local.Get(key, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// updateLocal runs a read-modify-write cycle on a collection blob
// under the façade lock. fn returns the new list and whether anything
// changed.
func updateLocal[T any](s *Storage, key string, fn func([]T) ([]T, bool)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []T
	if _, err := s.local.Get(key, &list); err != nil {
		return err
	}
	next, changed := fn(list)
	if !changed {
		return nil
	}
	return s.local.Set(key, next)
}

// mirror keeps the local store opportunistically consistent after a
// successful remote write. Failures only warn; remote already holds
// the truth.
func mirror[T any](s *Storage, key, id string, item *T, idOf func(T) string) {
	err := updateLocal(s, key, func(list []T) ([]T, bool) {
		for i := range list {
			if ident.Normalize(idOf(list[i])) == id {
				if item == nil {
					return append(list[:i], list[i+1:]...), true
				}
				list[i] = *item
				return list, true
			}
		}
		if item == nil {
			return list, false
		}
		return append(list, *item), true
	})
	if err != nil {
		s.log.Warn("local mirror failed", "collection", key, "id", id, "err", err)
	}
}

// mergeInto applies a shallow patch to an entity in place.
func mergeInto(entity any, patch map[string]any) error {
	raw, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("encode entity: %w", err)
	}
	data := map[string]any{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("reshape entity: %w", err)
	}
	for k, v := range patch {
		data[k] = v
	}
	if ing, ok := data["ingredients"]; ok {
		data["ingredients"] = ident.StringSlice(ing)
	}
	merged, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode merge: %w", err)
	}
	return json.Unmarshal(merged, entity)
}
