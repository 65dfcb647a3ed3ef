package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool is the pgx-backed counterpart of Postgres, sharing its table layout
type Pool struct {
	pool *pgxpool.Pool
	stmt statements
}

var _ Store = (*Pool)(nil)

// NewPool wraps a pgx pool and creates the table if needed
func NewPool(ctx context.Context, pool *pgxpool.Pool, table string) (*Pool, error) {
	p := &Pool{pool: pool, stmt: newStatements(table)}
	if _, err := pool.Exec(ctx, p.stmt.create); err != nil {
		return nil, fmt.Errorf("failed to create kv table: %w", err)
	}
	return p, nil
}

// Ping checks the pool can reach the database
func (p *Pool) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *Pool) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := p.pool.QueryRow(ctx, p.stmt.get, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) || (err == nil && value == nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %q: %w", key, err)
	}
	return value, nil
}

func (p *Pool) Put(ctx context.Context, key string, value []byte) error {
	if _, err := p.pool.Exec(ctx, p.stmt.upsert, key, nullableJSON(value)); err != nil {
		return fmt.Errorf("failed to put %q: %w", key, err)
	}
	return nil
}

func (p *Pool) Delete(ctx context.Context, key string) error {
	if _, err := p.pool.Exec(ctx, p.stmt.del, key); err != nil {
		return fmt.Errorf("failed to delete %q: %w", key, err)
	}
	return nil
}

func (p *Pool) Update(ctx context.Context, key string, fn UpdateFunc) error {
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, p.stmt.insertNull, key); err != nil {
			return fmt.Errorf("failed to reserve %q: %w", key, err)
		}

		var current []byte
		if err := tx.QueryRow(ctx, p.stmt.getForUpd, key).Scan(&current); err != nil {
			return fmt.Errorf("failed to lock %q: %w", key, err)
		}

		next, err := fn(current)
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, p.stmt.upsert, key, nullableJSON(next)); err != nil {
			return fmt.Errorf("failed to write %q: %w", key, err)
		}
		return nil
	})
}

func (p *Pool) Close() error {
	p.pool.Close()
	return nil
}

// nullableJSON maps an empty value to SQL NULL; pgx sends json.RawMessage as-is
func nullableJSON(value []byte) any {
	if len(value) == 0 {
		return nil
	}
	return json.RawMessage(value)
}
