package postgres

import (
	"strings"
	"testing"

	"github.com/ekaya-inc/nlsql/pkg/models"
)

func TestFromProfile_Defaults(t *testing.T) {
	cfg, err := FromProfile(&models.ConnectionProfile{
		Kind:     models.DatabaseKindPostgres,
		Host:     "db.internal",
		User:     "app",
		Password: "secret",
		Database: "shop",
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if cfg.Port != 5432 {
		t.Errorf("expected port 5432, got %d", cfg.Port)
	}
	if cfg.SSLMode != "prefer" {
		t.Errorf("expected ssl_mode 'prefer', got '%s'", cfg.SSLMode)
	}
	if cfg.Schema != "public" {
		t.Errorf("expected schema 'public', got '%s'", cfg.Schema)
	}
}

func TestFromProfile_Options(t *testing.T) {
	cfg, err := FromProfile(&models.ConnectionProfile{
		Host:     "db.internal",
		Port:     5433,
		Database: "shop",
		Options:  map[string]string{"ssl_mode": "disable", "schema": "sales"},
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if cfg.Port != 5433 || cfg.SSLMode != "disable" || cfg.Schema != "sales" {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestFromProfile_MissingFields(t *testing.T) {
	if _, err := FromProfile(&models.ConnectionProfile{Database: "shop"}); err == nil {
		t.Error("expected error for missing host")
	}
	if _, err := FromProfile(&models.ConnectionProfile{Host: "db"}); err == nil {
		t.Error("expected error for missing database")
	}
	if _, err := FromProfile(nil); err == nil {
		t.Error("expected error for nil profile")
	}
}

func TestBuildConnectionString_EscapesSpecialCharacters(t *testing.T) {
	connStr := buildConnectionString(&Config{
		Host:     "db.internal",
		Port:     5432,
		User:     "app",
		Password: "p@ss/w#rd?",
		Database: "shop",
		SSLMode:  "disable",
	})

	if !strings.Contains(connStr, "p%40ss%2Fw%23rd%3F") {
		t.Errorf("password not escaped: %s", connStr)
	}
	if !strings.HasSuffix(connStr, "/shop?sslmode=disable") {
		t.Errorf("unexpected suffix: %s", connStr)
	}
}

func TestSampleQuery_QuotesIdentifiers(t *testing.T) {
	got := sampleQuery("public", `weird"name`, 5)
	want := `SELECT * FROM "public"."weird""name" LIMIT 5`
	if got != want {
		t.Errorf("sampleQuery() = %q, want %q", got, want)
	}

	if got := qualifiedTableName("", "users"); got != `"users"` {
		t.Errorf("qualifiedTableName() = %q", got)
	}
}
