package postgres

import (
	"fmt"

	"github.com/ekaya-inc/nlsql/pkg/models"
)

// Config contains PostgreSQL-specific connection options.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string // "disable", "prefer", "require", "verify-ca", "verify-full"
	Schema   string // schema whose tables are extracted
}

// DefaultPort returns the default PostgreSQL port.
func DefaultPort() int {
	return 5432
}

// DefaultSSLMode returns the default SSL mode.
func DefaultSSLMode() string {
	return "prefer"
}

// DefaultSchema returns the schema extracted when the profile names none.
func DefaultSchema() string {
	return "public"
}

// FromProfile creates a Config from a connection profile.
// Recognized options: "ssl_mode", "schema".
func FromProfile(p *models.ConnectionProfile) (*Config, error) {
	if p == nil {
		return nil, fmt.Errorf("connection profile is required")
	}
	if p.Host == "" {
		return nil, fmt.Errorf("host is required")
	}
	if p.Database == "" {
		return nil, fmt.Errorf("database is required")
	}

	cfg := &Config{
		Host:     p.Host,
		Port:     DefaultPort(),
		User:     p.User,
		Password: p.Password,
		Database: p.Database,
		SSLMode:  p.Option("ssl_mode", DefaultSSLMode()),
		Schema:   p.Option("schema", DefaultSchema()),
	}
	if p.Port > 0 {
		cfg.Port = p.Port
	}
	return cfg, nil
}
