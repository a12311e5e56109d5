package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres stores each document as a jsonb row keyed by
// (collection, id).
type Postgres struct {
	Pool *pgxpool.Pool
}

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	collection text NOT NULL,
	id         text NOT NULL,
	data       jsonb NOT NULL,
	created_at timestamptz NOT NULL DEFAULT now(),
	updated_at timestamptz NOT NULL DEFAULT now(),
	PRIMARY KEY (collection, id)
)`

// NewPostgres creates and verifies a pgx pool and ensures the
// documents table exists.
func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure documents table: %w", err)
	}

	return &Postgres{Pool: pool}, nil
}

func (p *Postgres) Close() {
	if p.Pool != nil {
		p.Pool.Close()
	}
}

// Health checks database connectivity.
func (p *Postgres) Health(ctx context.Context) error {
	return p.Pool.Ping(ctx)
}

func (p *Postgres) Add(ctx context.Context, collection string, data map[string]any) (*Document, error) {
	id := uuid.NewString()
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var stored []byte
	err = p.Pool.QueryRow(ctx, `
		INSERT INTO documents (collection, id, data)
		VALUES ($1, $2, $3)
		RETURNING data
	`, collection, id, raw).Scan(&stored)
	if err != nil {
		return nil, err
	}
	return decodeRow(id, stored)
}

func (p *Postgres) Get(ctx context.Context, collection, id string) (*Document, error) {
	var raw []byte
	err := p.Pool.QueryRow(ctx, `
		SELECT data FROM documents WHERE collection=$1 AND id=$2
	`, collection, id).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return decodeRow(id, raw)
}

func (p *Postgres) GetAll(ctx context.Context, collection string) ([]Document, error) {
	rows, err := p.Pool.Query(ctx, `
		SELECT id, data FROM documents WHERE collection=$1 ORDER BY created_at ASC, id ASC
	`, collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var docs []Document
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		doc, err := decodeRow(id, raw)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

func (p *Postgres) Update(ctx context.Context, collection, id string, patch map[string]any) error {
	raw, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("encode patch: %w", err)
	}
	tag, err := p.Pool.Exec(ctx, `
		UPDATE documents SET data = data || $3::jsonb, updated_at = now()
		WHERE collection=$1 AND id=$2
	`, collection, id, raw)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) UpdateIf(ctx context.Context, collection, id string, patch map[string]any, field string, expected int) (bool, error) {
	raw, err := json.Marshal(patch)
	if err != nil {
		return false, fmt.Errorf("encode patch: %w", err)
	}
	tag, err := p.Pool.Exec(ctx, `
		UPDATE documents SET data = data || $3::jsonb, updated_at = now()
		WHERE collection=$1 AND id=$2 AND (data->>$4)::bigint = $5
	`, collection, id, raw, field, expected)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (p *Postgres) Set(ctx context.Context, collection, id string, data map[string]any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	_, err = p.Pool.Exec(ctx, `
		INSERT INTO documents (collection, id, data)
		VALUES ($1, $2, $3)
		ON CONFLICT (collection, id) DO UPDATE SET data=EXCLUDED.data, updated_at=now()
	`, collection, id, raw)
	return err
}

func (p *Postgres) Delete(ctx context.Context, collection, id string) error {
	_, err := p.Pool.Exec(ctx, `DELETE FROM documents WHERE collection=$1 AND id=$2`, collection, id)
	return err
}

// IsUniqueViolation checks for Postgres unique constraint errors.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func decodeRow(id string, raw []byte) (*Document, error) {
	data := map[string]any{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", id, err)
	}
	return &Document{ID: id, Data: data}, nil
}
