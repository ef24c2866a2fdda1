package kv

import (
	"context"

	"github.com/rotisserie/eris"
)

// Drivers accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Options selects and configures a backend.
type Options struct {
	Driver      string
	Path        string
	DatabaseURL string
	Pool        *PoolConfig
}

// Open returns the backend named by opts.Driver. An empty driver means
// sqlite, and an empty sqlite path means "reail.db".
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case "", DriverSQLite:
		path := opts.Path
		if path == "" {
			path = "reail.db"
		}
		return NewSQLite(ctx, path)
	case DriverPostgres:
		if opts.DatabaseURL == "" {
			return nil, eris.New("kv: postgres driver requires a database url")
		}
		return NewPostgres(ctx, opts.DatabaseURL, opts.Pool)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, eris.Errorf("kv: unsupported driver %q", opts.Driver)
	}
}
