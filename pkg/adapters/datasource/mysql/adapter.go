package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql" // registers the "mysql" driver

	"github.com/ekaya-inc/nlsql/pkg/adapters/datasource"
	"github.com/ekaya-inc/nlsql/pkg/models"
)

const driverName = "mysql"

// Session is one connection checked out of a MySQL pool.
type Session struct {
	config  *Config
	conn    *sql.Conn
	ownedDB *sql.DB // set when the session opened its own handle
}

// NewSession checks out a connection for profile. Pools are shared through
// connMgr; a nil connMgr opens a private handle that Close tears down.
func NewSession(ctx context.Context, profile *models.ConnectionProfile, connMgr *datasource.ConnectionManager) (*Session, error) {
	cfg, err := FromProfile(profile)
	if err != nil {
		return nil, err
	}

	var db *sql.DB
	var owned *sql.DB
	if connMgr == nil {
		db, err = sql.Open(driverName, cfg.DSN())
		if err != nil {
			return nil, fmt.Errorf("connect to mysql: %w", err)
		}
		owned = db
	} else {
		connector, err := connMgr.GetOrCreatePool(ctx, profile.PoolKey(),
			datasource.CreateSQLPool(models.DatabaseKindMySQL, driverName, cfg.DSN(), 0))
		if err != nil {
			return nil, fmt.Errorf("failed to get pooled connection: %w", err)
		}
		db, err = datasource.GetSQLDB(connector)
		if err != nil {
			return nil, fmt.Errorf("failed to extract mysql pool: %w", err)
		}
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		if owned != nil {
			owned.Close()
		}
		return nil, fmt.Errorf("acquire mysql connection: %w", err)
	}

	s := newSessionWithConn(cfg, conn)
	s.ownedDB = owned
	return s, nil
}

func newSessionWithConn(cfg *Config, conn *sql.Conn) *Session {
	return &Session{config: cfg, conn: conn}
}

// Kind implements datasource.Session.
func (s *Session) Kind() models.DatabaseKind {
	return models.DatabaseKindMySQL
}

// TestConnection verifies the server answers and the session uses the configured database.
func (s *Session) TestConnection(ctx context.Context) error {
	if err := s.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}

	var currentDB sql.NullString
	if err := s.conn.QueryRowContext(ctx, "SELECT DATABASE()").Scan(&currentDB); err != nil {
		return fmt.Errorf("failed to get current database name: %w", err)
	}

	if !strings.EqualFold(currentDB.String, s.config.Database) {
		return fmt.Errorf("connected to wrong database: expected %q but connected to %q", s.config.Database, currentDB.String)
	}
	return nil
}

// Close returns the connection to the pool. A private handle is closed too.
func (s *Session) Close() error {
	var err error
	if s.conn != nil {
		err = s.conn.Close()
		s.conn = nil
	}
	if s.ownedDB != nil {
		if cerr := s.ownedDB.Close(); err == nil {
			err = cerr
		}
		s.ownedDB = nil
	}
	return err
}

// quoteIdentifier wraps name in backticks, doubling embedded backticks.
func quoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// Ensure Session implements datasource.Session at compile time.
var _ datasource.Session = (*Session)(nil)
