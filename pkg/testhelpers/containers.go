package testhelpers

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver for fixture loading
	"github.com/docker/go-connections/nat"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ekaya-inc/nlsql/pkg/models"
)

const (
	PostgresTestImage = "postgres:16-alpine"
	MySQLTestImage    = "mysql:8.4"
	RedisTestImage    = "redis:7-alpine"

	TestUser     = "nlsql"
	TestPassword = "test_password"
	TestDatabase = "test_data"
)

// ShopFixture is the schema loaded into every database container:
// two tables joined by orders.user_id -> users.id.
var ShopFixture = []string{
	`CREATE TABLE users (
		id INTEGER PRIMARY KEY,
		email VARCHAR(255) NOT NULL,
		created_at TIMESTAMP NULL
	)`,
	`CREATE TABLE orders (
		id INTEGER PRIMARY KEY,
		user_id INTEGER NOT NULL,
		total NUMERIC(10,2) DEFAULT 0,
		FOREIGN KEY (user_id) REFERENCES users(id)
	)`,
	`INSERT INTO users (id, email, created_at) VALUES
		(1, 'ada@example.com', '2024-01-02 03:04:05'),
		(2, 'grace@example.com', NULL)`,
	`INSERT INTO orders (id, user_id, total) VALUES (10, 1, 12.50), (11, 1, 3.00), (12, 2, 99.99)`,
}

// TestDB holds a shared database container and the profile that reaches it.
type TestDB struct {
	Container testcontainers.Container
	Profile   *models.ConnectionProfile
	ConnStr   string
}

var (
	sharedPostgres     *TestDB
	sharedPostgresOnce sync.Once
	sharedPostgresErr  error

	sharedMySQL     *TestDB
	sharedMySQLOnce sync.Once
	sharedMySQLErr  error

	sharedRedisAddr string
	sharedRedisOnce sync.Once
	sharedRedisErr  error
)

// GetTestDB returns a shared PostgreSQL container seeded with ShopFixture.
// The container is created once and reused across all tests in the run.
func GetTestDB(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	sharedPostgresOnce.Do(func() {
		sharedPostgres, sharedPostgresErr = setupPostgres()
	})

	if sharedPostgresErr != nil {
		t.Fatalf("Failed to setup test database: %v", sharedPostgresErr)
	}

	return sharedPostgres
}

// GetMySQLDB returns a shared MySQL container seeded with ShopFixture.
func GetMySQLDB(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	sharedMySQLOnce.Do(func() {
		sharedMySQL, sharedMySQLErr = setupMySQL()
	})

	if sharedMySQLErr != nil {
		t.Fatalf("Failed to setup MySQL database: %v", sharedMySQLErr)
	}

	return sharedMySQL
}

// GetRedisAddr returns host:port of a shared Redis container.
func GetRedisAddr(t *testing.T) string {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	sharedRedisOnce.Do(func() {
		sharedRedisAddr, sharedRedisErr = setupRedis()
	})

	if sharedRedisErr != nil {
		t.Fatalf("Failed to setup Redis: %v", sharedRedisErr)
	}

	return sharedRedisAddr
}

func startContainer(ctx context.Context, req testcontainers.ContainerRequest, port string) (testcontainers.Container, string, int, error) {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, "", 0, fmt.Errorf("failed to start test container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, "", 0, fmt.Errorf("failed to get container host: %w", err)
	}

	mapped, err := container.MappedPort(ctx, nat.Port(port))
	if err != nil {
		return nil, "", 0, fmt.Errorf("failed to get container port: %w", err)
	}

	return container, host, mapped.Int(), nil
}

func setupPostgres() (*TestDB, error) {
	ctx := context.Background()

	container, host, port, err := startContainer(ctx, testcontainers.ContainerRequest{
		Image:        PostgresTestImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       TestDatabase,
			"POSTGRES_USER":     TestUser,
			"POSTGRES_PASSWORD": TestPassword,
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}, "5432")
	if err != nil {
		return nil, err
	}

	connStr := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable", TestUser, TestPassword, host, port, TestDatabase)

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer pool.Close()

	for _, stmt := range ShopFixture {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return nil, fmt.Errorf("failed to load fixture: %w", err)
		}
	}

	return &TestDB{
		Container: container,
		ConnStr:   connStr,
		Profile: &models.ConnectionProfile{
			Kind:     models.DatabaseKindPostgres,
			Host:     host,
			Port:     port,
			User:     TestUser,
			Password: TestPassword,
			Database: TestDatabase,
			Options:  map[string]string{"ssl_mode": "disable"},
		},
	}, nil
}

func setupMySQL() (*TestDB, error) {
	ctx := context.Background()

	container, host, port, err := startContainer(ctx, testcontainers.ContainerRequest{
		Image:        MySQLTestImage,
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_DATABASE":      TestDatabase,
			"MYSQL_USER":          TestUser,
			"MYSQL_PASSWORD":      TestPassword,
			"MYSQL_ROOT_PASSWORD": TestPassword,
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").
			WithStartupTimeout(120 * time.Second),
	}, "3306")
	if err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true", TestUser, TestPassword, host, port, TestDatabase)
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open mysql: %w", err)
	}
	defer db.Close()

	for i := 0; i < 20; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		time.Sleep(500 * time.Millisecond)
	}
	if err != nil {
		return nil, fmt.Errorf("mysql never became ready: %w", err)
	}

	for _, stmt := range ShopFixture {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("failed to load fixture: %w", err)
		}
	}

	return &TestDB{
		Container: container,
		ConnStr:   dsn,
		Profile: &models.ConnectionProfile{
			Kind:     models.DatabaseKindMySQL,
			Host:     host,
			Port:     port,
			User:     TestUser,
			Password: TestPassword,
			Database: TestDatabase,
		},
	}, nil
}

func setupRedis() (string, error) {
	ctx := context.Background()

	_, host, port, err := startContainer(ctx, testcontainers.ContainerRequest{
		Image:        RedisTestImage,
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
	}, "6379")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%d", host, port), nil
}
