package testhelpers

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/craftline/aps-engine/pkg/config"
	"github.com/craftline/aps-engine/pkg/database"
)

// PostgresTestImage is the PostgreSQL image used for integration tests.
const PostgresTestImage = "postgres:16-alpine"

// SchedulerDB holds a shared test database container with all migrations
// applied. Use it for testing repositories, services, and handlers against
// a real database.
type SchedulerDB struct {
	Container testcontainers.Container
	DB        *database.DB
}

var (
	sharedSchedulerDB     *SchedulerDB
	sharedSchedulerDBOnce sync.Once
	sharedSchedulerDBErr  error
)

// GetSchedulerDB returns a shared PostgreSQL container for integration tests.
// The container is created once, migrated to the latest schema version, and
// reused across all tests in the run.
func GetSchedulerDB(t *testing.T) *SchedulerDB {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	sharedSchedulerDBOnce.Do(func() {
		sharedSchedulerDB, sharedSchedulerDBErr = setupSchedulerDB()
	})

	if sharedSchedulerDBErr != nil {
		t.Fatalf("Failed to setup test database: %v", sharedSchedulerDBErr)
	}

	return sharedSchedulerDB
}

func setupSchedulerDB() (*SchedulerDB, error) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        PostgresTestImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "aps_engine_test",
			"POSTGRES_USER":     "aps",
			"POSTGRES_PASSWORD": "test_password",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start test container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	dbCfg := &config.DatabaseConfig{
		Host:           host,
		Port:           port.Int(),
		User:           "aps",
		Password:       "test_password",
		Database:       "aps_engine_test",
		MaxConnections: 5,
		SSLMode:        "disable",
	}

	// Verify connection with retry
	var db *database.DB
	for i := 0; i < 10; i++ {
		db, err = database.NewConnection(ctx, dbCfg)
		if err == nil {
			break
		}
		time.Sleep(500 * time.Millisecond)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to test database: %w", err)
	}

	if err := database.RunMigrations(db, migrationsPath(), zap.NewNop()); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SchedulerDB{
		Container: container,
		DB:        db,
	}, nil
}

// migrationsPath resolves the migrations directory relative to this source
// file so tests in any package apply the same schema.
func migrationsPath() string {
	_, thisFile, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(thisFile), "..", "..", "migrations")
}
