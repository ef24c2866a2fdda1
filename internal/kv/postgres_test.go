package kv

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockPostgres(t *testing.T) (*Postgres, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })
	return NewPostgresFromPool(mock), mock
}

func TestPostgres_Get_NotFound(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectQuery(`SELECT value FROM reail_kv WHERE key = \$1`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	v, ok, err := s.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, v)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Get_Found(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectQuery(`SELECT value FROM reail_kv`).
		WithArgs("history").
		WillReturnRows(mock.NewRows([]string{"value"}).AddRow([]byte(`[]`)))

	v, ok, err := s.Get(context.Background(), "history")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[]`, string(v))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Get_Error(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectQuery(`SELECT value FROM reail_kv`).
		WithArgs("k").
		WillReturnError(errors.New("conn reset"))

	_, _, err := s.Get(context.Background(), "k")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres: get k")
}

func TestPostgres_Set(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectExec(`INSERT INTO reail_kv`).
		WithArgs("k", []byte("v")).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.Set(context.Background(), "k", []byte("v")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Delete(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectExec(`DELETE FROM reail_kv WHERE key = \$1`).
		WithArgs("k").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	require.NoError(t, s.Delete(context.Background(), "k"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Keys(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectQuery(`SELECT key FROM reail_kv`).
		WithArgs("cache:").
		WillReturnRows(mock.NewRows([]string{"key"}).AddRow("cache:a").AddRow("cache:b"))

	keys, err := s.Keys(context.Background(), "cache:")
	require.NoError(t, err)
	assert.Equal(t, []string{"cache:a", "cache:b"}, keys)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Update_CreatesMissingKey(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock`).
		WithArgs("k").
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectQuery(`SELECT value FROM reail_kv`).
		WithArgs("k").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectExec(`INSERT INTO reail_kv`).
		WithArgs("k", []byte("new")).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err := s.Update(context.Background(), "k", func(old []byte, ok bool) ([]byte, error) {
		assert.False(t, ok)
		return []byte("new"), nil
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Update_Delete(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock`).
		WithArgs("k").
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectQuery(`SELECT value FROM reail_kv`).
		WithArgs("k").
		WillReturnRows(mock.NewRows([]string{"value"}).AddRow([]byte("old")))
	mock.ExpectExec(`DELETE FROM reail_kv`).
		WithArgs("k").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	err := s.Update(context.Background(), "k", func(old []byte, ok bool) ([]byte, error) {
		assert.Equal(t, "old", string(old))
		return nil, ErrDelete
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Update_AbortRollsBack(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock`).
		WithArgs("k").
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectQuery(`SELECT value FROM reail_kv`).
		WithArgs("k").
		WillReturnRows(mock.NewRows([]string{"value"}).AddRow([]byte("old")))
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := s.Update(context.Background(), "k", func([]byte, bool) ([]byte, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}
