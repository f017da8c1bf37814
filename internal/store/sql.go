package store

import (
	"context"
	"database/sql"
	"errors"

	"retail-ledger/internal/database"
)

type sqlQueries struct {
	get string
	put string
}

var queriesByDialect = map[string]sqlQueries{
	database.DialectSQLite: {
		get: `SELECT v FROM kv WHERE k = ?`,
		put: `INSERT INTO kv (k, v) VALUES (?, ?)
			ON CONFLICT (k) DO UPDATE SET v = excluded.v, updated_at = CURRENT_TIMESTAMP`,
	},
	database.DialectPostgres: {
		get: `SELECT v FROM kv WHERE k = $1`,
		put: `INSERT INTO kv (k, v) VALUES ($1, $2)
			ON CONFLICT (k) DO UPDATE SET v = EXCLUDED.v, updated_at = CURRENT_TIMESTAMP`,
	},
	database.DialectMySQL: {
		get: `SELECT v FROM kv WHERE k = ?`,
		put: `INSERT INTO kv (k, v) VALUES (?, ?)
			ON DUPLICATE KEY UPDATE v = VALUES(v), updated_at = CURRENT_TIMESTAMP`,
	},
}

// SQLBackend keeps collections in a single kv table of a relational database
type SQLBackend struct {
	db      *sql.DB
	dialect string
	queries sqlQueries
}

// NewSQLBackend wraps an open, migrated database
func NewSQLBackend(db *sql.DB, dialect string) (*SQLBackend, error) {
	queries, ok := queriesByDialect[dialect]
	if !ok {
		return nil, database.ErrUnsupportedDialect
	}
	return &SQLBackend{db: db, dialect: dialect, queries: queries}, nil
}

func (s *SQLBackend) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := s.db.QueryRowContext(ctx, s.queries.get, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}
	return []byte(value), nil
}

func (s *SQLBackend) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, s.queries.put, key, string(value))
	return err
}

func (s *SQLBackend) Name() string { return s.dialect }

func (s *SQLBackend) Close() error {
	return s.db.Close()
}
