package mysql

import (
	"fmt"
	"net"
	"strconv"
	"time"

	driver "github.com/go-sql-driver/mysql"

	"github.com/ekaya-inc/nlsql/pkg/config"
	"github.com/ekaya-inc/nlsql/pkg/models"
)

// Config contains MySQL-specific connection options.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	TLS      string // go-sql-driver tls value: "", "true", "skip-verify", "preferred"
}

// DefaultPort returns the default MySQL port.
func DefaultPort() int {
	return 3306
}

// FromProfile creates a Config from a connection profile.
// Recognized options: "tls".
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
		TLS:      p.Option("tls", ""),
	}
	if p.Port > 0 {
		cfg.Port = p.Port
	}
	return cfg, nil
}

// DSN renders the go-sql-driver data source name. parseTime is always on so
// DATE/DATETIME columns scan as time.Time.
func (c *Config) DSN() string {
	dc := driver.NewConfig()
	dc.User = c.User
	dc.Passwd = c.Password
	dc.Net = "tcp"
	dc.Addr = net.JoinHostPort(config.ResolveHostForDocker(c.Host), strconv.Itoa(c.Port))
	dc.DBName = c.Database
	dc.ParseTime = true
	dc.Loc = time.UTC
	dc.Timeout = 10 * time.Second
	if c.TLS != "" {
		dc.TLSConfig = c.TLS
	}
	return dc.FormatDSN()
}
