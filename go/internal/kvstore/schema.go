package kvstore

import (
	"fmt"

	"github.com/lib/pq"
)

// DefaultTable is the table both Postgres stores use unless configured otherwise
const DefaultTable = "kv_state"

// statements holds the SQL for one table name, quoted once at construction
type statements struct {
	create     string
	get        string
	getForUpd  string
	upsert     string
	insertNull string
	del        string
}

func newStatements(table string) statements {
	if table == "" {
		table = DefaultTable
	}
	t := pq.QuoteIdentifier(table)
	return statements{
		create: fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	key        TEXT PRIMARY KEY,
	value      JSONB,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`, t),
		get:        fmt.Sprintf(`SELECT value FROM %s WHERE key = $1`, t),
		getForUpd:  fmt.Sprintf(`SELECT value FROM %s WHERE key = $1 FOR UPDATE`, t),
		upsert:     fmt.Sprintf(`INSERT INTO %s (key, value, updated_at) VALUES ($1, $2, now()) ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`, t),
		insertNull: fmt.Sprintf(`INSERT INTO %s (key, value) VALUES ($1, NULL) ON CONFLICT (key) DO NOTHING`, t),
		del:        fmt.Sprintf(`DELETE FROM %s WHERE key = $1`, t),
	}
}
