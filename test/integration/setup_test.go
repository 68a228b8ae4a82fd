//go:build integration

package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ehr/antenatal/internal/domain/admin"
	"github.com/ehr/antenatal/internal/domain/identity"
	"github.com/ehr/antenatal/internal/platform/db"
	"github.com/ehr/antenatal/internal/platform/notification"
)

// testEnv holds the containers shared by every test in the package.
type testEnv struct {
	Pool          *pgxpool.Pool
	Redis         *redis.Client
	MigrationsDir string
}

var env *testEnv

func TestMain(m *testing.M) {
	ctx := context.Background()

	e, cleanup, err := setup(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up integration environment: %v\n", err)
		os.Exit(1)
	}
	env = e
	code := m.Run()
	cleanup()
	os.Exit(code)
}

func setup(ctx context.Context) (*testEnv, func(), error) {
	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("antenatal"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("start postgres: %w", err)
	}

	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		pgContainer.Terminate(ctx)
		return nil, nil, fmt.Errorf("start redis: %w", err)
	}

	terminate := func() {
		redisContainer.Terminate(ctx)
		pgContainer.Terminate(ctx)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		terminate()
		return nil, nil, fmt.Errorf("postgres connection string: %w", err)
	}
	pool, err := db.NewPool(ctx, db.PoolConfig{URL: connStr, MaxConns: 10})
	if err != nil {
		terminate()
		return nil, nil, err
	}

	dir := findMigrationsDir()
	if _, err := db.NewMigrator(pool, dir).Up(ctx); err != nil {
		pool.Close()
		terminate()
		return nil, nil, fmt.Errorf("apply migrations: %w", err)
	}

	endpoint, err := redisContainer.Endpoint(ctx, "")
	if err != nil {
		pool.Close()
		terminate()
		return nil, nil, fmt.Errorf("redis endpoint: %w", err)
	}
	client, err := notification.NewRedisClient(ctx, "redis://"+endpoint)
	if err != nil {
		pool.Close()
		terminate()
		return nil, nil, err
	}

	return &testEnv{Pool: pool, Redis: client, MigrationsDir: dir}, func() {
		client.Close()
		pool.Close()
		terminate()
	}, nil
}

// findMigrationsDir locates the migrations directory relative to this test file.
func findMigrationsDir() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(filename), "..", "..", "migrations")
}

func createTestHospital(t *testing.T, ctx context.Context) *admin.Organization {
	t.Helper()
	org := &admin.Organization{Name: "Hospital " + uuid.NewString()[:8], TypeCode: admin.TypeHospital, Active: true}
	if err := admin.NewOrganizationRepo(env.Pool).Create(ctx, org); err != nil {
		t.Fatalf("create hospital: %v", err)
	}
	return org
}

func createTestPatient(t *testing.T, ctx context.Context, hospitalID uuid.UUID) *identity.Patient {
	t.Helper()
	acct := "acct-" + uuid.NewString()[:8]
	p := &identity.Patient{
		Active:        true,
		MRN:           "MRN-" + uuid.NewString()[:8],
		FirstName:     "Asha",
		LastName:      "Rao",
		AccountID:     &acct,
		ManagingOrgID: &hospitalID,
	}
	if err := identity.NewPatientRepo(env.Pool).Create(ctx, p); err != nil {
		t.Fatalf("create patient: %v", err)
	}
	return p
}

func ptrStr(s string) *string { return &s }

func testLogger(t *testing.T) zerolog.Logger {
	return zerolog.New(zerolog.NewTestWriter(t)).With().Timestamp().Logger()
}
