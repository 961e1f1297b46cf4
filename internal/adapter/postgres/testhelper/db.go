package testhelper

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/heartmarshall/allergycare-backend/internal/adapter/postgres"
)

var (
	once     sync.Once
	adminDSN string
	baseDSN  string
	initErr  error
)

// SetupTestDB starts a shared PostgreSQL container (once for the entire test
// run), creates a fresh database for the calling test, applies the embedded
// migrations and returns a pool connected to it. Household data is global,
// so every test gets its own database. Tests are skipped when no Docker
// provider is reachable.
func SetupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	once.Do(func() {
		adminDSN, baseDSN, initErr = startContainer()
	})
	if initErr != nil {
		t.Fatalf("testhelper: failed to setup test DB: %v", initErr)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dbName := "t_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]

	admin, err := pgxpool.New(ctx, adminDSN)
	if err != nil {
		t.Fatalf("testhelper: admin pool: %v", err)
	}
	defer admin.Close()

	if _, err := admin.Exec(ctx, "CREATE DATABASE "+dbName); err != nil {
		t.Fatalf("testhelper: create database: %v", err)
	}

	pool, err := pgxpool.New(ctx, fmt.Sprintf(baseDSN, dbName))
	if err != nil {
		t.Fatalf("testhelper: failed to create pgxpool: %v", err)
	}
	t.Cleanup(func() {
		pool.Close()
	})

	if err := postgres.Migrate(ctx, pool); err != nil {
		t.Fatalf("testhelper: migrate: %v", err)
	}

	return pool
}

func startContainer() (string, string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:17-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "testdb",
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
		return "", "", fmt.Errorf("start container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return "", "", fmt.Errorf("get container host: %w", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return "", "", fmt.Errorf("get mapped port: %w", err)
	}

	admin := fmt.Sprintf("postgres://testuser:testpass@%s:%s/testdb?sslmode=disable", host, port.Port())
	base := fmt.Sprintf("postgres://testuser:testpass@%s:%s/%%s?sslmode=disable", host, port.Port())
	return admin, base, nil
}
