package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/ekaya-inc/nlsql/pkg/apperrors"
	"github.com/ekaya-inc/nlsql/pkg/models"
)

// Config holds all configuration for nlsql.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, keys) must only come from environment variables.
type Config struct {
	Env     string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version string `yaml:"-"` // Set at load time, not from config

	Log LogConfig `yaml:"log"`

	// Datasource connection management configuration
	Datasource DatasourceConfig `yaml:"datasource"`

	// Schema cache backing store
	Cache CacheConfig `yaml:"cache"`

	// AI provider used for translation
	AI AIConfig `yaml:"ai"`

	// Database the questions are asked against
	Profile ProfileConfig `yaml:"profile"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
}

// DatasourceConfig holds datasource connection management settings.
type DatasourceConfig struct {
	// ConnectionTTLMinutes is how long idle datasource pools are kept alive.
	ConnectionTTLMinutes int `yaml:"connection_ttl_minutes" env:"DATASOURCE_CONNECTION_TTL_MINUTES" env-default:"5"`
	// MaxPools caps the number of distinct database targets pooled at once.
	MaxPools int `yaml:"max_pools" env:"DATASOURCE_MAX_POOLS" env-default:"16"`
	// PoolMaxConns is the maximum number of connections per datasource pool.
	PoolMaxConns int32 `yaml:"pool_max_conns" env:"DATASOURCE_POOL_MAX_CONNS" env-default:"5"`
	// PoolMinConns is the minimum number of connections per datasource pool.
	PoolMinConns int32 `yaml:"pool_min_conns" env:"DATASOURCE_POOL_MIN_CONNS" env-default:"1"`
	// SampleTables bounds how many tables are sampled.
	SampleTables int `yaml:"sample_tables" env:"DATASOURCE_SAMPLE_TABLES" env-default:"10"`
	// SampleRows bounds how many rows are fetched per sampled table.
	SampleRows int `yaml:"sample_rows" env:"DATASOURCE_SAMPLE_ROWS" env-default:"5"`
}

// Cache store types accepted by CacheConfig.Type.
const (
	CacheTypeFile     = "file"
	CacheTypeMemory   = "memory"
	CacheTypeRedis    = "redis"
	CacheTypeDynamoDB = "dynamodb"
	CacheTypeS3       = "s3"
)

// CacheConfig selects and configures the schema cache store.
type CacheConfig struct {
	Type string `yaml:"type" env:"CACHE_TYPE" env-default:"file"`
	// Dir is the FileStore directory. Empty means ~/.nlsql/schema_cache.
	Dir string `yaml:"dir" env:"CACHE_DIR" env-default:""`
	// TTLMinutes expires entries in stores that support it. Zero keeps entries until invalidated.
	TTLMinutes int `yaml:"ttl_minutes" env:"CACHE_TTL_MINUTES" env-default:"0"`

	Redis    RedisConfig    `yaml:"redis"`
	DynamoDB DynamoDBConfig `yaml:"dynamodb"`
	S3       S3Config       `yaml:"s3"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr      string `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password  string `yaml:"-" env:"REDIS_PASSWORD"` // Secret - not in YAML
	DB        int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
	KeyPrefix string `yaml:"key_prefix" env:"REDIS_KEY_PREFIX" env-default:"nlsql:schema:"`
}

// DynamoDBConfig holds DynamoDB table settings.
type DynamoDBConfig struct {
	Region          string `yaml:"region" env:"DYNAMODB_REGION" env-default:"us-east-1"`
	Table           string `yaml:"table" env:"DYNAMODB_TABLE" env-default:"nlsql_schema_cache"`
	Endpoint        string `yaml:"endpoint" env:"DYNAMODB_ENDPOINT" env-default:""`
	AccessKeyID     string `yaml:"-" env:"AWS_ACCESS_KEY_ID"`     // Secret - not in YAML
	SecretAccessKey string `yaml:"-" env:"AWS_SECRET_ACCESS_KEY"` // Secret - not in YAML
}

// S3Config holds object store settings for an S3-compatible bucket.
type S3Config struct {
	Endpoint         string `yaml:"endpoint" env:"S3_ENDPOINT" env-default:"localhost:9000"`
	Region           string `yaml:"region" env:"S3_REGION" env-default:""`
	Bucket           string `yaml:"bucket" env:"S3_BUCKET" env-default:"nlsql"`
	Prefix           string `yaml:"prefix" env:"S3_PREFIX" env-default:"schema_cache"`
	UseSSL           bool   `yaml:"use_ssl" env:"S3_USE_SSL" env-default:"false"`
	AutoCreateBucket bool   `yaml:"auto_create_bucket" env:"S3_AUTO_CREATE_BUCKET" env-default:"true"`
	AccessKeyID      string `yaml:"-" env:"S3_ACCESS_KEY_ID"`     // Secret - not in YAML
	SecretAccessKey  string `yaml:"-" env:"S3_SECRET_ACCESS_KEY"` // Secret - not in YAML
}

// AIConfig selects the provider and generation settings.
type AIConfig struct {
	Provider    models.ProviderName `yaml:"provider" env:"AI_PROVIDER" env-default:"openai"`
	Model       string              `yaml:"model" env:"AI_MODEL" env-default:""`
	BaseURL     string              `yaml:"base_url" env:"AI_BASE_URL" env-default:""`
	Temperature float64             `yaml:"temperature" env:"AI_TEMPERATURE" env-default:"0.2"`
	// TimeoutSeconds bounds each provider HTTP request.
	TimeoutSeconds int `yaml:"timeout_seconds" env:"AI_TIMEOUT_SECONDS" env-default:"60"`

	GeminiAPIKey    string `yaml:"-" env:"GEMINI_API_KEY"`    // Secret - not in YAML
	OpenAIAPIKey    string `yaml:"-" env:"OPENAI_API_KEY"`    // Secret - not in YAML
	AnthropicAPIKey string `yaml:"-" env:"ANTHROPIC_API_KEY"` // Secret - not in YAML
	GrokAPIKey      string `yaml:"-" env:"GROK_API_KEY"`      // Secret - not in YAML
}

// ProviderConfig returns the selected provider's settings with its key.
func (c *AIConfig) ProviderConfig() *models.ProviderConfig {
	var key string
	switch c.Provider {
	case models.ProviderGemini:
		key = c.GeminiAPIKey
	case models.ProviderOpenAI:
		key = c.OpenAIAPIKey
	case models.ProviderAnthropic:
		key = c.AnthropicAPIKey
	case models.ProviderGrok:
		key = c.GrokAPIKey
	}
	return &models.ProviderConfig{
		Provider: c.Provider,
		APIKey:   key,
		Model:    c.Model,
		BaseURL:  c.BaseURL,
	}
}

// ProfileConfig describes the target database.
type ProfileConfig struct {
	Type     models.DatabaseKind `yaml:"type" env:"DB_TYPE" env-default:"sqlite"`
	Host     string              `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port     int                 `yaml:"port" env:"DB_PORT" env-default:"0"`
	User     string              `yaml:"username" env:"DB_USER" env-default:""`
	Password string              `yaml:"-" env:"DB_PASSWORD"` // Secret - not in YAML
	Database string              `yaml:"database" env:"DB_NAME" env-default:""`
	Options  map[string]string   `yaml:"options"`
}

// ConnectionProfile converts the configured target into a models.ConnectionProfile.
func (p *ProfileConfig) ConnectionProfile() *models.ConnectionProfile {
	return &models.ConnectionProfile{
		Kind:     p.Type,
		Host:     p.Host,
		Port:     p.Port,
		User:     p.User,
		Password: p.Password,
		Database: p.Database,
		Options:  p.Options,
	}
}

// Load reads configuration from config.yaml with environment variable overrides.
// A .env file in the working directory is loaded first when present; it never
// overrides variables already set in the environment. A missing config.yaml is
// not an error: defaults and environment variables are used instead.
func Load(version string) (*Config, error) {
	return LoadFrom("config.yaml", version)
}

// LoadFrom is Load with an explicit YAML path.
func LoadFrom(path, version string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks cross-field constraints cleanenv cannot express.
func (c *Config) Validate() error {
	if c.AI.Temperature < 0 || c.AI.Temperature > 1 {
		return fmt.Errorf("%w: ai.temperature must be between 0.0 and 1.0, got %v", apperrors.ErrConfig, c.AI.Temperature)
	}
	switch c.Cache.Type {
	case CacheTypeFile, CacheTypeMemory, CacheTypeRedis, CacheTypeDynamoDB, CacheTypeS3:
	default:
		return fmt.Errorf("%w: unknown cache.type %q", apperrors.ErrConfig, c.Cache.Type)
	}
	if c.Datasource.SampleTables < 0 || c.Datasource.SampleRows < 0 {
		return fmt.Errorf("%w: sample bounds must not be negative", apperrors.ErrConfig)
	}
	return nil
}

// CacheDir returns the FileStore directory, expanding the default under the
// user's home directory.
func (c *CacheConfig) CacheDir() (string, error) {
	dir := strings.TrimSpace(c.Dir)
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve home directory: %w", err)
		}
		return filepath.Join(home, ".nlsql", "schema_cache"), nil
	}
	if strings.HasPrefix(dir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve home directory: %w", err)
		}
		dir = filepath.Join(home, dir[2:])
	}
	return dir, nil
}
