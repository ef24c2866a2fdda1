package kv

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// Pool is the subset of pgxpool.Pool used by Postgres. pgxmock pools satisfy
// it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// Postgres implements Store on a shared Postgres table, letting several
// devices of one user (or a server deployment) share one substrate.
type Postgres struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a Postgres store with a connection pool and ensures the
// kv table exists.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*Postgres, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}

	s := &Postgres{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresFromPool wraps an existing pool. The table must already exist.
func NewPostgresFromPool(pool Pool) *Postgres {
	return &Postgres{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS reail_kv (
	key        TEXT PRIMARY KEY,
	value      BYTEA NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

func (s *Postgres) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

const (
	pgSelect = `SELECT value FROM reail_kv WHERE key = $1`
	pgUpsert = `INSERT INTO reail_kv (key, value, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
	pgDelete = `DELETE FROM reail_kv WHERE key = $1`
	pgLock   = `SELECT pg_advisory_xact_lock(hashtext($1))`
)

func (s *Postgres) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.pool.QueryRow(ctx, pgSelect, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrapf(err, "postgres: get %s", key)
	}
	return value, true, nil
}

func (s *Postgres) Set(ctx context.Context, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	_, err := s.pool.Exec(ctx, pgUpsert, key, value)
	return eris.Wrapf(err, "postgres: set %s", key)
}

func (s *Postgres) Delete(ctx context.Context, key string) error {
	_, err := s.pool.Exec(ctx, pgDelete, key)
	return eris.Wrapf(err, "postgres: delete %s", key)
}

func (s *Postgres) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT key FROM reail_kv WHERE left(key, length($1)) = $1 ORDER BY key`, prefix)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list keys")
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, eris.Wrap(err, "postgres: scan key")
		}
		keys = append(keys, k)
	}
	return keys, eris.Wrap(rows.Err(), "postgres: list keys iterate")
}

// Update takes a transaction-scoped advisory lock on the key, so concurrent
// updaters (including ones racing to create the key) are serialized.
func (s *Postgres) Update(ctx context.Context, key string, fn UpdateFunc) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin")
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err := tx.Exec(ctx, pgLock, key); err != nil {
		return eris.Wrapf(err, "postgres: lock %s", key)
	}

	var old []byte
	ok := true
	err = tx.QueryRow(ctx, pgSelect, key).Scan(&old)
	if errors.Is(err, pgx.ErrNoRows) {
		ok = false
	} else if err != nil {
		return eris.Wrapf(err, "postgres: read %s", key)
	}

	value, del, err := apply(fn, old, ok)
	if err != nil {
		return err
	}
	if del {
		_, err = tx.Exec(ctx, pgDelete, key)
	} else {
		if value == nil {
			value = []byte{}
		}
		_, err = tx.Exec(ctx, pgUpsert, key, value)
	}
	if err != nil {
		return eris.Wrapf(err, "postgres: write %s", key)
	}

	if err := tx.Commit(ctx); err != nil {
		return eris.Wrap(err, "postgres: commit")
	}
	committed = true
	return nil
}

func (s *Postgres) Close() error {
	s.pool.Close()
	return nil
}
