package postgrestesting

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/malbeclabs/videolake/pkg/postgres"
	"github.com/stretchr/testify/require"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

type DBConfig struct {
	Database       string
	Username       string
	Password       string
	ContainerImage string
}

type DB struct {
	*postgres.DB
	Config    *postgres.Config
	container *tcpostgres.PostgresContainer
	t         testing.TB
}

func (cfg *DBConfig) Validate() error {
	if cfg.Database == "" {
		cfg.Database = "videolake"
	}
	if cfg.Username == "" {
		cfg.Username = "videolake"
	}
	if cfg.Password == "" {
		cfg.Password = "password"
	}
	if cfg.ContainerImage == "" {
		cfg.ContainerImage = "postgres:16-alpine"
	}
	return nil
}

func NewDefaultDB(t testing.TB) *DB {
	return NewDB(t, nil)
}

// NewDB starts a disposable PostgreSQL container, opens a pool against it and
// applies the schema. Everything is torn down via t.Cleanup.
func NewDB(t testing.TB, cfg *DBConfig) *DB {
	ctx := t.Context()

	if cfg == nil {
		cfg = &DBConfig{}
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("failed to validate DB config: %v", err)
	}

	// Retry container start up to 3 times for retryable errors
	var container *tcpostgres.PostgresContainer
	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		var err error
		container, err = tcpostgres.Run(ctx,
			cfg.ContainerImage,
			tcpostgres.WithDatabase(cfg.Database),
			tcpostgres.WithUsername(cfg.Username),
			tcpostgres.WithPassword(cfg.Password),
			tcpostgres.BasicWaitStrategies(),
		)
		if err != nil {
			lastErr = err
			if isRetryableContainerStartErr(err) && attempt < 3 {
				time.Sleep(time.Duration(attempt) * 750 * time.Millisecond)
				continue
			}
			require.NoError(t, err)
		}
		break
	}
	if container == nil {
		t.Fatalf("failed to start postgres container after retries: %v", lastErr)
	}

	host, err := container.Host(ctx)
	require.NoError(t, err)
	mappedPort, err := container.MappedPort(ctx, nat.Port("5432/tcp"))
	require.NoError(t, err)

	pgCfg := &postgres.Config{
		Host:     host,
		Port:     mappedPort.Port(),
		Database: cfg.Database,
		Username: cfg.Username,
		Password: cfg.Password,
		MaxConns: 4,
	}

	db, err := postgres.Open(ctx, slog.Default(), pgCfg)
	if err != nil {
		_ = container.Terminate(context.Background())
		require.NoError(t, err)
	}
	require.NoError(t, db.EnsureSchema(ctx))

	tdb := &DB{DB: db, Config: pgCfg, container: container, t: t}
	t.Cleanup(tdb.Close)
	return tdb
}

func (db *DB) Close() {
	db.DB.Close()
	if err := db.container.Terminate(context.Background()); err != nil {
		db.t.Logf("failed to terminate postgres container: %v", err)
	}
}

// Reset empties both tables so a single container can serve several cases.
func (db *DB) Reset(t testing.TB) {
	_, err := db.Pool().Exec(t.Context(), fmt.Sprintf("TRUNCATE %s, %s", postgres.SnapshotsTable, postgres.VideosTable))
	require.NoError(t, err)
}

func isRetryableContainerStartErr(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "wait until ready") ||
		strings.Contains(s, "mapped port") ||
		strings.Contains(s, "timeout") ||
		strings.Contains(s, "context deadline exceeded") ||
		strings.Contains(s, "/containers/") && strings.Contains(s, "json") ||
		strings.Contains(s, "Get \"http://%2Fvar%2Frun%2Fdocker.sock")
}
