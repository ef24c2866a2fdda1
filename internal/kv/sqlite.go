package kv

import (
	"context"
	"database/sql"
	"sync"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLite implements Store using modernc.org/sqlite. It is the default
// on-device backend.
type SQLite struct {
	db *sql.DB
	// serializes Update within the process; BEGIN IMMEDIATE covers other
	// processes sharing the file.
	mu sync.Mutex
}

// NewSQLite opens a SQLite database at the given path, configures WAL mode
// and creates the kv table.
func NewSQLite(ctx context.Context, dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	s := &SQLite{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);
`

func (s *SQLite) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLite) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrapf(err, "sqlite: get %s", key)
	}
	return value, true, nil
}

func (s *SQLite) Set(ctx context.Context, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	_, err := s.db.ExecContext(ctx, sqliteUpsert, key, value)
	return eris.Wrapf(err, "sqlite: set %s", key)
}

const sqliteUpsert = `INSERT INTO kv (key, value, updated_at) VALUES (?, ?, datetime('now'))
	ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

func (s *SQLite) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
	return eris.Wrapf(err, "sqlite: delete %s", key)
}

func (s *SQLite) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key FROM kv WHERE substr(key, 1, length(?)) = ? ORDER BY key`,
		prefix, prefix,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list keys")
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan key")
		}
		keys = append(keys, k)
	}
	return keys, eris.Wrap(rows.Err(), "sqlite: list keys iterate")
}

// Update runs fn inside a BEGIN IMMEDIATE transaction on a dedicated
// connection so the read and the write see no interleaved writer.
func (s *SQLite) Update(ctx context.Context, key string, fn UpdateFunc) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return eris.Wrap(err, "sqlite: acquire conn")
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	committed := false
	defer func() {
		if !committed {
			_, _ = conn.ExecContext(context.Background(), "ROLLBACK")
		}
	}()

	var old []byte
	ok := true
	err = conn.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&old)
	if err == sql.ErrNoRows {
		ok = false
	} else if err != nil {
		return eris.Wrapf(err, "sqlite: read %s", key)
	}

	value, del, err := apply(fn, old, ok)
	if err != nil {
		return err
	}
	if del {
		_, err = conn.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
	} else {
		if value == nil {
			value = []byte{}
		}
		_, err = conn.ExecContext(ctx, sqliteUpsert, key, value)
	}
	if err != nil {
		return eris.Wrapf(err, "sqlite: write %s", key)
	}

	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		return eris.Wrap(err, "sqlite: commit")
	}
	committed = true
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
