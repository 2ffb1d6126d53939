package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/communisaas/resolver-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL
// mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS resolution_cache (
	key        TEXT PRIMARY KEY,
	result     TEXT NOT NULL,
	hits       INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	expires_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_resolution_cache_expires_at ON resolution_cache(expires_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT result, hits, created_at, expires_at FROM resolution_cache WHERE key = ? AND expires_at > ?`,
		key, time.Now().UTC(),
	)

	var (
		resultJSON string
		entry      Entry
	)
	entry.Key = key
	err := row.Scan(&resultJSON, &entry.Hits, &entry.CreatedAt, &entry.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get cache %s", key)
	}

	if err := json.Unmarshal([]byte(resultJSON), &entry.Result); err != nil {
		return nil, eris.Wrapf(err, "sqlite: unmarshal cached result %s", key)
	}

	entry.Hits++
	if _, err := s.db.ExecContext(ctx,
		`UPDATE resolution_cache SET hits = hits + 1 WHERE key = ?`, key,
	); err != nil {
		return nil, eris.Wrapf(err, "sqlite: bump hit counter %s", key)
	}

	return &entry, nil
}

func (s *SQLiteStore) Put(ctx context.Context, key string, result *model.ResolutionResult, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	data, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal result")
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO resolution_cache (key, result, hits, created_at, expires_at)
		 VALUES (?, ?, 0, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET result = excluded.result, hits = 0,
		 created_at = excluded.created_at, expires_at = excluded.expires_at`,
		key, string(data), now, now.Add(ttl),
	)
	return eris.Wrapf(err, "sqlite: put cache %s", key)
}

func (s *SQLiteStore) DeleteExpired(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM resolution_cache WHERE expires_at <= ?`, time.Now().UTC(),
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete expired")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: rows affected")
	}
	return int(n), nil
}
