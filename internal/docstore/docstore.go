// Package docstore talks to the remote document database and wraps it
// with caching, retry and timeout behavior.
package docstore

import (
	"context"
	"errors"
)

// Collection names used by the loyalty program.
const (
	ColAdmin        = "admin"
	ColClients      = "clients"
	ColProducts     = "products"
	ColPromotions   = "promotions"
	ColRedeems      = "redeems"
	ColSettings     = "settings"
	ColTransactions = "transactions"
	ColSessions     = "sessions"
)

// SingletonID is the fixed document ID used by singleton collections
// (admin, settings).
const SingletonID = "main"

var (
	// ErrNotFound signals a missing document.
	ErrNotFound = errors.New("document not found")
	// ErrOffline signals a write attempted while the remote store is
	// unreachable. Writes are never queued; callers surface this.
	ErrOffline = errors.New("offline - cannot perform write operations")
)

// Document is one record of a named collection.
type Document struct {
	ID   string
	Data map[string]any
}

// Store is the narrow contract the rest of the system depends on.
// Both the Postgres-backed remote implementation and test fakes
// satisfy it.
type Store interface {
	Add(ctx context.Context, collection string, data map[string]any) (*Document, error)
	Get(ctx context.Context, collection, id string) (*Document, error)
	GetAll(ctx context.Context, collection string) ([]Document, error)
	Update(ctx context.Context, collection, id string, patch map[string]any) error
	// UpdateIf applies patch only when the current integer value of
	// field equals expected. Returns false without error when the
	// guard fails. Used for the points compare-and-swap.
	UpdateIf(ctx context.Context, collection, id string, patch map[string]any, field string, expected int) (bool, error)
	Set(ctx context.Context, collection, id string, data map[string]any) error
	Delete(ctx context.Context, collection, id string) error
	Health(ctx context.Context) error
}
