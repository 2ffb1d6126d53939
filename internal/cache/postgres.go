package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/communisaas/resolver-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the cache uses; pgxmock satisfies it
// in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS resolution_cache (
	key        TEXT PRIMARY KEY,
	result     JSONB NOT NULL,
	hits       INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_resolution_cache_expires_at ON resolution_cache(expires_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, key string) (*Entry, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT result, hits, created_at, expires_at FROM resolution_cache WHERE key = $1 AND expires_at > now()`,
		key,
	)

	var (
		resultJSON []byte
		entry      Entry
	)
	entry.Key = key
	err := row.Scan(&resultJSON, &entry.Hits, &entry.CreatedAt, &entry.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get cache %s", key)
	}

	if err := json.Unmarshal(resultJSON, &entry.Result); err != nil {
		return nil, eris.Wrapf(err, "postgres: unmarshal cached result %s", key)
	}

	entry.Hits++
	if _, err := s.pool.Exec(ctx,
		`UPDATE resolution_cache SET hits = hits + 1 WHERE key = $1`, key,
	); err != nil {
		return nil, eris.Wrapf(err, "postgres: bump hit counter %s", key)
	}

	return &entry, nil
}

func (s *PostgresStore) Put(ctx context.Context, key string, result *model.ResolutionResult, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	data, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal result")
	}

	now := time.Now().UTC()
	_, err = s.pool.Exec(ctx,
		`INSERT INTO resolution_cache (key, result, hits, created_at, expires_at)
		 VALUES ($1, $2, 0, $3, $4)
		 ON CONFLICT (key) DO UPDATE SET result = EXCLUDED.result, hits = 0,
		 created_at = EXCLUDED.created_at, expires_at = EXCLUDED.expires_at`,
		key, data, now, now.Add(ttl),
	)
	return eris.Wrapf(err, "postgres: put cache %s", key)
}

func (s *PostgresStore) DeleteExpired(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM resolution_cache WHERE expires_at <= now()`)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete expired")
	}
	return int(tag.RowsAffected()), nil
}
