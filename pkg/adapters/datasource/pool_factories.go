package datasource

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ekaya-inc/nlsql/pkg/models"
)

// CreatePostgresPool returns a PoolFactory that builds a pgx pool for connString.
func CreatePostgresPool(connString string) PoolFactory {
	return func(ctx context.Context, cfg ConnectionManagerConfig) (PoolConnector, error) {
		poolConfig, err := pgxpool.ParseConfig(connString)
		if err != nil {
			return nil, fmt.Errorf("failed to parse connection string: %w", err)
		}

		poolConfig.MaxConns = cfg.PoolMaxConns
		poolConfig.MinConns = cfg.PoolMinConns
		poolConfig.MaxConnIdleTime = cfg.TTL()

		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return nil, err
		}
		return NewPostgresPoolWrapper(pool), nil
	}
}

// CreateSQLPool returns a PoolFactory that opens a database/sql handle.
// maxConns overrides the manager-wide pool size when > 0 (SQLite uses 1).
func CreateSQLPool(kind models.DatabaseKind, driverName, dsn string, maxConns int) PoolFactory {
	return func(ctx context.Context, cfg ConnectionManagerConfig) (PoolConnector, error) {
		db, err := sql.Open(driverName, dsn)
		if err != nil {
			return nil, err
		}

		size := int(cfg.PoolMaxConns)
		if maxConns > 0 {
			size = maxConns
		}
		db.SetMaxOpenConns(size)
		db.SetMaxIdleConns(size)
		db.SetConnMaxIdleTime(cfg.TTL())

		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return NewSQLPoolWrapper(db, kind), nil
	}
}

// GetPostgresPool extracts the underlying *pgxpool.Pool from a PoolConnector.
// Returns an error if the connector is not a PostgreSQL pool.
func GetPostgresPool(connector PoolConnector) (*pgxpool.Pool, error) {
	wrapper, ok := connector.(*PostgresPoolWrapper)
	if !ok {
		return nil, fmt.Errorf("connector is not a PostgreSQL pool wrapper")
	}
	return wrapper.GetPool(), nil
}

// GetSQLDB extracts the underlying *sql.DB from a PoolConnector.
// Returns an error if the connector is not a database/sql pool.
func GetSQLDB(connector PoolConnector) (*sql.DB, error) {
	wrapper, ok := connector.(*SQLPoolWrapper)
	if !ok {
		return nil, fmt.Errorf("connector is not a database/sql pool wrapper")
	}
	return wrapper.GetDB(), nil
}
