package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3" // registers the "sqlite3" driver

	"github.com/ekaya-inc/nlsql/pkg/adapters/datasource"
	"github.com/ekaya-inc/nlsql/pkg/models"
)

const (
	driverName = "sqlite3"
	// SQLite serializes writers; one connection per file avoids lock contention.
	poolSize = 1
)

// Session is the connection checked out of a SQLite handle.
type Session struct {
	config  *Config
	conn    *sql.Conn
	ownedDB *sql.DB
}

// NewSession checks out the connection for profile.
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
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		db.SetMaxOpenConns(poolSize)
		owned = db
	} else {
		connector, err := connMgr.GetOrCreatePool(ctx, profile.PoolKey(),
			datasource.CreateSQLPool(models.DatabaseKindSQLite, driverName, cfg.DSN(), poolSize))
		if err != nil {
			return nil, fmt.Errorf("failed to get pooled connection: %w", err)
		}
		db, err = datasource.GetSQLDB(connector)
		if err != nil {
			return nil, fmt.Errorf("failed to extract sqlite handle: %w", err)
		}
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		if owned != nil {
			owned.Close()
		}
		return nil, fmt.Errorf("acquire sqlite connection: %w", err)
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
	return models.DatabaseKindSQLite
}

// TestConnection verifies the file opens and is a readable SQLite database.
func (s *Session) TestConnection(ctx context.Context) error {
	var n int
	if err := s.conn.QueryRowContext(ctx, "SELECT count(*) FROM sqlite_master").Scan(&n); err != nil {
		return fmt.Errorf("read sqlite_master: %w", err)
	}
	return nil
}

// Close returns the connection. A private handle is closed too.
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

// quoteIdentifier wraps name in double quotes, doubling embedded quotes.
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Ensure Session implements datasource.Session at compile time.
var _ datasource.Session = (*Session)(nil)
