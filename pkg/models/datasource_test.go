package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseDatabaseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    DatabaseKind
		wantErr bool
	}{
		{"mysql", DatabaseKindMySQL, false},
		{"MySQL", DatabaseKindMySQL, false},
		{"PostgreSQL", DatabaseKindPostgres, false},
		{"postgres", DatabaseKindPostgres, false},
		{"SQLite", DatabaseKindSQLite, false},
		{"oracle", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDatabaseKind(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDatabaseKind_UnmarshalYAML(t *testing.T) {
	var p ConnectionProfile
	err := yaml.Unmarshal([]byte("type: PostgreSQL\nhost: db\ndatabase: shop\n"), &p)
	require.NoError(t, err)
	assert.Equal(t, DatabaseKindPostgres, p.Kind)
	assert.Equal(t, 5432, p.EffectivePort())

	err = yaml.Unmarshal([]byte("type: mongodb\n"), &p)
	assert.Error(t, err)
}

func TestConnectionProfile_PoolKeyOmitsPassword(t *testing.T) {
	p := ConnectionProfile{
		Kind:     DatabaseKindMySQL,
		Host:     "db.internal",
		User:     "app",
		Password: "hunter2",
		Database: "shop",
	}
	key := p.PoolKey()
	assert.False(t, strings.Contains(key, "hunter2"))
	assert.Equal(t, "mysql|db.internal|3306|shop|app", key)
}

func TestConnectionProfile_Validate(t *testing.T) {
	assert.NoError(t, (&ConnectionProfile{Kind: DatabaseKindSQLite, Database: "/tmp/a.db"}).Validate())
	assert.Error(t, (&ConnectionProfile{Kind: DatabaseKindPostgres, Database: "shop"}).Validate())
	assert.Error(t, (&ConnectionProfile{Kind: DatabaseKindMySQL, Host: "db"}).Validate())
	assert.Error(t, (&ConnectionProfile{Kind: "oracle", Host: "db", Database: "x"}).Validate())
}

func TestProviderConfig(t *testing.T) {
	cfg := ProviderConfig{Provider: ProviderAnthropic}
	assert.False(t, cfg.IsConfigured())
	assert.Equal(t, "claude-3-opus", cfg.EffectiveModel())

	cfg.APIKey = "sk-test"
	cfg.Model = "claude-3-5-sonnet"
	assert.True(t, cfg.IsConfigured())
	assert.Equal(t, "claude-3-5-sonnet", cfg.EffectiveModel())

	var nilCfg *ProviderConfig
	assert.False(t, nilCfg.IsConfigured())
}

func TestParseProviderName(t *testing.T) {
	for _, p := range AllProviders {
		got, err := ParseProviderName(strings.ToUpper(string(p)))
		require.NoError(t, err)
		assert.Equal(t, p, got)
		assert.NotEmpty(t, DefaultModel(p))
	}

	_, err := ParseProviderName("mistral")
	assert.Error(t, err)
}
