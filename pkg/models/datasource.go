package models

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DatabaseKind identifies the relational backend behind a connection profile.
type DatabaseKind string

const (
	DatabaseKindMySQL    DatabaseKind = "mysql"
	DatabaseKindPostgres DatabaseKind = "postgres"
	DatabaseKindSQLite   DatabaseKind = "sqlite"
)

// AllDatabaseKinds lists every supported backend in display order.
var AllDatabaseKinds = []DatabaseKind{DatabaseKindMySQL, DatabaseKindPostgres, DatabaseKindSQLite}

// ParseDatabaseKind accepts canonical names ("mysql") as well as the
// display names stored in older profiles ("MySQL", "PostgreSQL", "SQLite").
func ParseDatabaseKind(s string) (DatabaseKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mysql":
		return DatabaseKindMySQL, nil
	case "postgres", "postgresql", "pg":
		return DatabaseKindPostgres, nil
	case "sqlite", "sqlite3":
		return DatabaseKindSQLite, nil
	default:
		return "", fmt.Errorf("unsupported database type: %q", s)
	}
}

// DisplayName returns the human-readable dialect name used in prompts.
func (k DatabaseKind) DisplayName() string {
	switch k {
	case DatabaseKindMySQL:
		return "MySQL"
	case DatabaseKindPostgres:
		return "PostgreSQL"
	case DatabaseKindSQLite:
		return "SQLite"
	default:
		return string(k)
	}
}

// DefaultPort returns the conventional port for the backend (0 for file databases).
func (k DatabaseKind) DefaultPort() int {
	switch k {
	case DatabaseKindMySQL:
		return 3306
	case DatabaseKindPostgres:
		return 5432
	default:
		return 0
	}
}

// UnmarshalText implements encoding.TextUnmarshaler (used for env values).
func (k *DatabaseKind) UnmarshalText(text []byte) error {
	parsed, err := ParseDatabaseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// SetValue implements cleanenv.Setter so env overrides are validated too.
func (k *DatabaseKind) SetValue(s string) error {
	return k.UnmarshalText([]byte(s))
}

// UnmarshalYAML rejects unknown kinds while the config file is decoded.
func (k *DatabaseKind) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	return k.UnmarshalText([]byte(raw))
}

// ConnectionProfile describes how to reach one database.
// A profile is loaded once per session and treated as immutable afterwards.
type ConnectionProfile struct {
	Kind     DatabaseKind      `json:"type" yaml:"type"`
	Host     string            `json:"host" yaml:"host"`
	Port     int               `json:"port" yaml:"port"`
	User     string            `json:"username" yaml:"username"`
	Password string            `json:"-" yaml:"-"`
	Database string            `json:"database" yaml:"database"` // file path for SQLite
	Options  map[string]string `json:"options,omitempty" yaml:"options,omitempty"`
}

// EffectivePort returns Port, falling back to the backend default.
func (p *ConnectionProfile) EffectivePort() int {
	if p.Port > 0 {
		return p.Port
	}
	return p.Kind.DefaultPort()
}

// Option returns a dialect-specific option or def when unset.
func (p *ConnectionProfile) Option(name, def string) string {
	if v, ok := p.Options[name]; ok && v != "" {
		return v
	}
	return def
}

// PoolKey identifies a connection pool. It never contains the password.
func (p *ConnectionProfile) PoolKey() string {
	return strings.Join([]string{
		string(p.Kind),
		p.Host,
		strconv.Itoa(p.EffectivePort()),
		p.Database,
		p.User,
	}, "|")
}

// Validate checks the fields each backend needs before a connection is attempted.
func (p *ConnectionProfile) Validate() error {
	if _, err := ParseDatabaseKind(string(p.Kind)); err != nil {
		return err
	}
	if p.Database == "" {
		return fmt.Errorf("database is required")
	}
	if p.Kind != DatabaseKindSQLite && p.Host == "" {
		return fmt.Errorf("host is required for %s", p.Kind.DisplayName())
	}
	return nil
}
