package docstore

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

// flakyStore fails a fixed number of calls before succeeding.
type flakyStore struct {
	failures int
	calls    int
	err      error
	docs     map[string]Document
}

func (f *flakyStore) attempt() error {
	f.calls++
	if f.calls <= f.failures {
		if f.err != nil {
			return f.err
		}
		return errors.New("transient failure")
	}
	return nil
}

func (f *flakyStore) Add(ctx context.Context, collection string, data map[string]any) (*Document, error) {
	if err := f.attempt(); err != nil {
		return nil, err
	}
	return &Document{ID: "new", Data: data}, nil
}

func (f *flakyStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	if err := f.attempt(); err != nil {
		return nil, err
	}
	doc, ok := f.docs[collection+":"+id]
	if !ok {
		return nil, ErrNotFound
	}
	return &doc, nil
}

func (f *flakyStore) GetAll(ctx context.Context, collection string) ([]Document, error) {
	if err := f.attempt(); err != nil {
		return nil, err
	}
	var out []Document
	for k, d := range f.docs {
		if len(k) > len(collection) && k[:len(collection)] == collection {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *flakyStore) Update(ctx context.Context, collection, id string, patch map[string]any) error {
	return f.attempt()
}

func (f *flakyStore) UpdateIf(ctx context.Context, collection, id string, patch map[string]any, field string, expected int) (bool, error) {
	if err := f.attempt(); err != nil {
		return false, err
	}
	return true, nil
}

func (f *flakyStore) Set(ctx context.Context, collection, id string, data map[string]any) error {
	return f.attempt()
}

func (f *flakyStore) Delete(ctx context.Context, collection, id string) error {
	return f.attempt()
}

func (f *flakyStore) Health(ctx context.Context) error {
	return f.attempt()
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fastOptions() Options {
	return Options{Attempts: 3, Backoff: time.Millisecond, OpTimeout: time.Second, CacheTTL: time.Minute}
}

func TestRemoteRetriesTransientFailures(t *testing.T) {
	store := &flakyStore{
		failures: 2,
		docs:     map[string]Document{"clients:1": {ID: "1", Data: map[string]any{"name": "Ana"}}},
	}
	r := NewRemote(store, testLogger(), fastOptions())

	doc, err := r.Get(context.Background(), "clients", "1")
	if err != nil {
		t.Fatalf("Get after retries: %v", err)
	}
	if doc.Data["name"] != "Ana" {
		t.Errorf("unexpected doc data %v", doc.Data)
	}
	if store.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", store.calls)
	}
	if !r.Online() {
		t.Error("remote should be online after a successful call")
	}
}

func TestRemoteExhaustedRetriesGoOffline(t *testing.T) {
	store := &flakyStore{failures: 100}
	r := NewRemote(store, testLogger(), fastOptions())

	if _, err := r.Get(context.Background(), "clients", "1"); err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if store.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", store.calls)
	}
	if r.Online() {
		t.Error("remote should be offline after exhausting retries")
	}

	// Writes now fail fast without touching the store.
	before := store.calls
	if err := r.Set(context.Background(), "clients", "1", nil); !errors.Is(err, ErrOffline) {
		t.Errorf("expected ErrOffline, got %v", err)
	}
	if store.calls != before {
		t.Error("offline write still reached the store")
	}
}

func TestRemoteNotFoundIsNotRetried(t *testing.T) {
	store := &flakyStore{docs: map[string]Document{}}
	r := NewRemote(store, testLogger(), fastOptions())

	if _, err := r.Get(context.Background(), "clients", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if store.calls != 1 {
		t.Errorf("ErrNotFound retried: %d calls", store.calls)
	}
}

func TestRemoteReadsAreCached(t *testing.T) {
	store := &flakyStore{
		docs: map[string]Document{"clients:1": {ID: "1", Data: map[string]any{"name": "Ana"}}},
	}
	r := NewRemote(store, testLogger(), fastOptions())

	if _, err := r.Get(context.Background(), "clients", "1"); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Get(context.Background(), "clients", "1"); err != nil {
		t.Fatal(err)
	}
	if store.calls != 1 {
		t.Errorf("second read should hit the cache, store saw %d calls", store.calls)
	}
}

func TestRemoteWriteInvalidatesCollectionCache(t *testing.T) {
	store := &flakyStore{
		docs: map[string]Document{"clients:1": {ID: "1", Data: map[string]any{"name": "Ana"}}},
	}
	r := NewRemote(store, testLogger(), fastOptions())

	if _, err := r.Get(context.Background(), "clients", "1"); err != nil {
		t.Fatal(err)
	}
	if err := r.Update(context.Background(), "clients", "1", map[string]any{"name": "Bia"}); err != nil {
		t.Fatal(err)
	}
	calls := store.calls
	if _, err := r.Get(context.Background(), "clients", "1"); err != nil {
		t.Fatal(err)
	}
	if store.calls != calls+1 {
		t.Error("read after write should bypass the stale cache")
	}
}

func TestRemoteHealthRestoresOnline(t *testing.T) {
	store := &flakyStore{failures: 3}
	r := NewRemote(store, testLogger(), fastOptions())

	_, _ = r.Get(context.Background(), "clients", "1")
	if r.Online() {
		t.Fatal("expected offline")
	}
	if err := r.Health(context.Background()); err != nil {
		t.Fatalf("health probe: %v", err)
	}
	if !r.Online() {
		t.Error("health success should flip the remote back online")
	}
}
