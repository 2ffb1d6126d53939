package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return &PostgresStore{pool: mock}, mock
}

func TestPostgres_MissReturnsNil(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT result, hits, created_at, expires_at FROM resolution_cache`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	entry, err := s.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, entry)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_HitBumpsCounter(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	resultJSON, err := json.Marshal(sampleResult())
	require.NoError(t, err)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT result, hits, created_at, expires_at FROM resolution_cache`).
		WithArgs("hit-key").
		WillReturnRows(pgxmock.NewRows([]string{"result", "hits", "created_at", "expires_at"}).
			AddRow(resultJSON, 3, now, now.Add(time.Hour)))
	mock.ExpectExec(`UPDATE resolution_cache SET hits = hits \+ 1`).
		WithArgs("hit-key").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	entry, err := s.Get(context.Background(), "hit-key")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, 4, entry.Hits)
	assert.Equal(t, "composite", entry.Result.Provider)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Put(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO resolution_cache`).
		WithArgs("put-key", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.Put(context.Background(), "put-key", sampleResult(), time.Hour)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_DeleteExpired(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`DELETE FROM resolution_cache WHERE expires_at`).
		WillReturnResult(pgxmock.NewResult("DELETE", 7))

	n, err := s.DeleteExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
