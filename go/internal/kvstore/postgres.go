package kvstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/mcdev12/kiradelay/go/internal/sqlutil"
	"github.com/rs/zerolog/log"
	"github.com/sqlc-dev/pqtype"
)

// Postgres stores keys as rows of a jsonb table through database/sql and lib/pq
type Postgres struct {
	db   *sql.DB
	stmt statements
}

var _ Store = (*Postgres)(nil)

// NewPostgres wraps an open database and creates the table if needed
func NewPostgres(ctx context.Context, db *sql.DB, table string) (*Postgres, error) {
	p := &Postgres{db: db, stmt: newStatements(table)}
	if _, err := db.ExecContext(ctx, p.stmt.create); err != nil {
		return nil, fmt.Errorf("failed to create kv table: %w", err)
	}
	log.Info().Str("table", table).Msg("postgres kv store ready")
	return p, nil
}

// Ping checks the database connection
func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *Postgres) Get(ctx context.Context, key string) ([]byte, error) {
	var value pqtype.NullRawMessage
	err := p.db.QueryRowContext(ctx, p.stmt.get, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !value.Valid) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %q: %w", key, err)
	}
	return value.RawMessage, nil
}

func (p *Postgres) Put(ctx context.Context, key string, value []byte) error {
	if _, err := p.db.ExecContext(ctx, p.stmt.upsert, key, toNullRaw(value)); err != nil {
		return fmt.Errorf("failed to put %q: %w", key, err)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, key string) error {
	if _, err := p.db.ExecContext(ctx, p.stmt.del, key); err != nil {
		return fmt.Errorf("failed to delete %q: %w", key, err)
	}
	return nil
}

// Update locks the row with SELECT ... FOR UPDATE so concurrent writers,
// including other processes, serialize on the key.
func (p *Postgres) Update(ctx context.Context, key string, fn UpdateFunc) error {
	return sqlutil.Run(ctx, p.db, nil, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, p.stmt.insertNull, key); err != nil {
			return fmt.Errorf("failed to reserve %q: %w", key, err)
		}

		var current pqtype.NullRawMessage
		if err := tx.QueryRowContext(ctx, p.stmt.getForUpd, key).Scan(&current); err != nil {
			return fmt.Errorf("failed to lock %q: %w", key, err)
		}

		var in []byte
		if current.Valid {
			in = current.RawMessage
		}
		next, err := fn(in)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, p.stmt.upsert, key, toNullRaw(next)); err != nil {
			return fmt.Errorf("failed to write %q: %w", key, err)
		}
		return nil
	})
}

func (p *Postgres) Close() error {
	return p.db.Close()
}

func toNullRaw(value []byte) pqtype.NullRawMessage {
	return pqtype.NullRawMessage{RawMessage: json.RawMessage(value), Valid: len(value) > 0}
}
