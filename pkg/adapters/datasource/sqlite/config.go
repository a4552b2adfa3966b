package sqlite

import (
	"fmt"
	"net/url"

	"github.com/ekaya-inc/nlsql/pkg/models"
)

// Config contains SQLite connection options.
type Config struct {
	Path string // database file
	Mode string // "ro" (default), "rw"
}

// FromProfile creates a Config from a connection profile; Database holds the file path.
// Recognized options: "mode".
func FromProfile(p *models.ConnectionProfile) (*Config, error) {
	if p == nil {
		return nil, fmt.Errorf("connection profile is required")
	}
	if p.Database == "" {
		return nil, fmt.Errorf("database file path is required")
	}
	return &Config{
		Path: p.Database,
		Mode: p.Option("mode", "ro"),
	}, nil
}

// DSN renders the go-sqlite3 URI. Read-only mode keeps a mistyped path from
// silently creating an empty database.
func (c *Config) DSN() string {
	q := url.Values{}
	q.Set("mode", c.Mode)
	q.Set("_busy_timeout", "5000")
	q.Set("_foreign_keys", "on")
	return "file:" + c.Path + "?" + q.Encode()
}
