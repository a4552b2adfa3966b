package postgres

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ekaya-inc/nlsql/pkg/adapters/datasource"
	"github.com/ekaya-inc/nlsql/pkg/config"
	"github.com/ekaya-inc/nlsql/pkg/models"
)

// Session is one connection checked out of a PostgreSQL pool.
type Session struct {
	config    *Config
	conn      *pgxpool.Conn
	ownedPool *pgxpool.Pool // set when the session created its own pool
}

// buildConnectionString builds a PostgreSQL URL. User-provided fields are
// URL-escaped so passwords containing @, /, # or ? survive parsing.
func buildConnectionString(cfg *Config) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = DefaultSSLMode()
	}

	host := config.ResolveHostForDocker(cfg.Host)

	return fmt.Sprintf(
		"postgresql://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(cfg.User),
		url.QueryEscape(cfg.Password),
		host,
		cfg.Port,
		url.QueryEscape(cfg.Database),
		sslMode,
	)
}

// NewSession checks out a connection for profile. Pools are shared through
// connMgr; a nil connMgr creates a private pool that Close tears down.
func NewSession(ctx context.Context, profile *models.ConnectionProfile, connMgr *datasource.ConnectionManager) (*Session, error) {
	cfg, err := FromProfile(profile)
	if err != nil {
		return nil, err
	}
	connStr := buildConnectionString(cfg)

	var pool *pgxpool.Pool
	var owned *pgxpool.Pool
	if connMgr == nil {
		pool, err = pgxpool.New(ctx, connStr)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		owned = pool
	} else {
		connector, err := connMgr.GetOrCreatePool(ctx, profile.PoolKey(), datasource.CreatePostgresPool(connStr))
		if err != nil {
			return nil, fmt.Errorf("failed to get pooled connection: %w", err)
		}
		pool, err = datasource.GetPostgresPool(connector)
		if err != nil {
			return nil, fmt.Errorf("failed to extract postgres pool: %w", err)
		}
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		if owned != nil {
			owned.Close()
		}
		return nil, fmt.Errorf("acquire postgres connection: %w", err)
	}

	return &Session{
		config:    cfg,
		conn:      conn,
		ownedPool: owned,
	}, nil
}

// Kind implements datasource.Session.
func (s *Session) Kind() models.DatabaseKind {
	return models.DatabaseKindPostgres
}

// TestConnection verifies the server answers and that the session is
// connected to the configured database rather than a default one.
func (s *Session) TestConnection(ctx context.Context) error {
	if err := s.conn.Ping(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}

	var currentDB string
	if err := s.conn.QueryRow(ctx, "SELECT current_database()").Scan(&currentDB); err != nil {
		return fmt.Errorf("failed to get current database name: %w", err)
	}

	if !strings.EqualFold(currentDB, s.config.Database) {
		return fmt.Errorf("connected to wrong database: expected %q but connected to %q", s.config.Database, currentDB)
	}

	return nil
}

// Close returns the connection to the pool. A private pool is closed too.
func (s *Session) Close() error {
	if s.conn != nil {
		s.conn.Release()
		s.conn = nil
	}
	if s.ownedPool != nil {
		s.ownedPool.Close()
		s.ownedPool = nil
	}
	return nil
}

// Ensure Session implements datasource.Session at compile time.
var _ datasource.Session = (*Session)(nil)
