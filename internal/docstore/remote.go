package docstore

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"
)

// Retry and timeout budget for every remote operation.
const (
	DefaultAttempts  = 3
	DefaultBackoff   = 1 * time.Second
	DefaultOpTimeout = 10 * time.Second
)

// Options tune the remote adapter.
type Options struct {
	Attempts  int
	Backoff   time.Duration
	OpTimeout time.Duration
	CacheTTL  time.Duration
}

func (o Options) withDefaults() Options {
	if o.Attempts <= 0 {
		o.Attempts = DefaultAttempts
	}
	if o.Backoff <= 0 {
		o.Backoff = DefaultBackoff
	}
	if o.OpTimeout <= 0 {
		o.OpTimeout = DefaultOpTimeout
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = DefaultCacheTTL
	}
	return o
}

// Remote wraps a Store with a read-through TTL cache, bounded retries
// with linearly increasing backoff, a hard per-operation timeout and
// offline fast-fail for writes.
type Remote struct {
	store  Store
	cache  *Cache
	log    *slog.Logger
	opts   Options
	online atomic.Bool
}

func NewRemote(store Store, log *slog.Logger, opts Options) *Remote {
	r := &Remote{
		store: store,
		cache: NewCache(opts.CacheTTL),
		log:   log,
		opts:  opts.withDefaults(),
	}
	r.online.Store(true)
	return r
}

// Online reports the last known connectivity state.
func (r *Remote) Online() bool {
	return r.online.Load()
}

// Health probes the underlying store and updates the online state.
func (r *Remote) Health(ctx context.Context) error {
	err := r.store.Health(ctx)
	r.online.Store(err == nil)
	return err
}

// StartHealthLoop keeps the online flag fresh until ctx is done.
func (r *Remote) StartHealthLoop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				probe, cancel := context.WithTimeout(ctx, 5*time.Second)
				was := r.online.Load()
				err := r.Health(probe)
				cancel()
				if err != nil && was {
					r.log.Warn("remote store went offline", "err", err)
				}
				if err == nil && !was {
					r.log.Info("remote store back online")
				}
			}
		}
	}()
}

func (r *Remote) GetAll(ctx context.Context, collection string) ([]Document, error) {
	if cached, ok := r.cache.Get(collection); ok {
		return cached.([]Document), nil
	}
	if !r.online.Load() {
		return nil, ErrOffline
	}
	var docs []Document
	err := r.do(ctx, func(opCtx context.Context) error {
		var opErr error
		docs, opErr = r.store.GetAll(opCtx, collection)
		return opErr
	})
	if err != nil {
		return nil, err
	}
	for _, d := range docs {
		r.cache.Set(collection+":"+d.ID, d)
	}
	r.cache.Set(collection, docs)
	return docs, nil
}

func (r *Remote) Get(ctx context.Context, collection, id string) (*Document, error) {
	key := collection + ":" + id
	if cached, ok := r.cache.Get(key); ok {
		doc := cached.(Document)
		return &doc, nil
	}
	if !r.online.Load() {
		return nil, ErrOffline
	}
	var doc *Document
	err := r.do(ctx, func(opCtx context.Context) error {
		var opErr error
		doc, opErr = r.store.Get(opCtx, collection, id)
		return opErr
	})
	if err != nil {
		return nil, err
	}
	r.cache.Set(key, *doc)
	return doc, nil
}

func (r *Remote) Add(ctx context.Context, collection string, data map[string]any) (*Document, error) {
	if !r.online.Load() {
		return nil, ErrOffline
	}
	var doc *Document
	err := r.do(ctx, func(opCtx context.Context) error {
		var opErr error
		doc, opErr = r.store.Add(opCtx, collection, data)
		return opErr
	})
	if err != nil {
		return nil, err
	}
	r.cache.Invalidate(collection)
	return doc, nil
}

func (r *Remote) Update(ctx context.Context, collection, id string, patch map[string]any) error {
	if !r.online.Load() {
		return ErrOffline
	}
	err := r.do(ctx, func(opCtx context.Context) error {
		return r.store.Update(opCtx, collection, id, patch)
	})
	if err != nil {
		return err
	}
	r.cache.Invalidate(collection)
	return nil
}

func (r *Remote) UpdateIf(ctx context.Context, collection, id string, patch map[string]any, field string, expected int) (bool, error) {
	if !r.online.Load() {
		return false, ErrOffline
	}
	var swapped bool
	err := r.do(ctx, func(opCtx context.Context) error {
		var opErr error
		swapped, opErr = r.store.UpdateIf(opCtx, collection, id, patch, field, expected)
		return opErr
	})
	if err != nil {
		return false, err
	}
	r.cache.Invalidate(collection)
	return swapped, nil
}

func (r *Remote) Set(ctx context.Context, collection, id string, data map[string]any) error {
	if !r.online.Load() {
		return ErrOffline
	}
	err := r.do(ctx, func(opCtx context.Context) error {
		return r.store.Set(opCtx, collection, id, data)
	})
	if err != nil {
		return err
	}
	r.cache.Invalidate(collection)
	return nil
}

func (r *Remote) Delete(ctx context.Context, collection, id string) error {
	if !r.online.Load() {
		return ErrOffline
	}
	err := r.do(ctx, func(opCtx context.Context) error {
		return r.store.Delete(opCtx, collection, id)
	})
	if err != nil {
		return err
	}
	r.cache.Invalidate(collection)
	return nil
}

// do runs op under the shared timeout, retrying transient failures
// with 1s, 2s, 3s pauses. ErrNotFound is terminal, never retried.
func (r *Remote) do(ctx context.Context, op func(context.Context) error) error {
	opCtx, cancel := context.WithTimeout(ctx, r.opts.OpTimeout)
	defer cancel()

	var lastErr error
	for attempt := 1; attempt <= r.opts.Attempts; attempt++ {
		err := op(opCtx)
		if err == nil {
			r.online.Store(true)
			return nil
		}
		if errors.Is(err, ErrNotFound) {
			return err
		}
		lastErr = err
		r.log.Warn("remote operation failed", "attempt", attempt, "err", err)
		if attempt == r.opts.Attempts {
			break
		}
		select {
		case <-opCtx.Done():
			r.online.Store(false)
			return opCtx.Err()
		case <-time.After(r.opts.Backoff * time.Duration(attempt)):
		}
	}
	r.online.Store(false)
	return lastErr
}
