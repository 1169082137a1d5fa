// Package database opens the SQL store behind the record log and the
// management tables, and carries the transaction manager shared by the
// repositories.
//
// Supported drivers are "postgres" (lib/pq) and "mysql" (go-sql-driver/mysql).
// The "memory" driver has no connection and is served by in-memory repositories.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"

	"github.com/allisson/trustlog/internal/retry"
)

// Memory selects the in-memory repositories.
const Memory = "memory"

// Config holds the pool settings of the SQL store.
type Config struct {
	Driver             string
	ConnectionString   string
	MaxOpenConnections int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
	// ConnectRetry bounds the pings made while the database is still starting.
	ConnectRetry retry.Policy
}

// Connect opens the pool and pings it until the server answers or the retry
// policy gives up. Unknown drivers fail without retrying.
func Connect(ctx context.Context, cfg Config) (*sql.DB, error) {
	switch Dialect(cfg.Driver) {
	case PostgreSQL, MySQL:
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", cfg.Driver)
	}

	db, err := sql.Open(cfg.Driver, cfg.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConnections)
	db.SetMaxIdleConns(cfg.MaxIdleConnections)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	err = retry.Do(ctx, cfg.ConnectRetry, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return db.PingContext(pingCtx)
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
