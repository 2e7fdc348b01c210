//go:build integration

package sqlstore

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/anidex/anidex/src/internal/adapters/storetest"
	"github.com/anidex/anidex/src/internal/ports"
)

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "anidex",
			"POSTGRES_PASSWORD": "anidex",
			"POSTGRES_DB":       "anidex",
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("5432/tcp"),
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		).WithStartupTimeout(90 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("docker not available: %v", err)
	}
	t.Cleanup(func() { container.Terminate(context.Background()) }) //nolint:errcheck

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return fmt.Sprintf("postgres://anidex:anidex@%s:%s/anidex?sslmode=disable", host, port.Port())
}

func TestPostgresContract(t *testing.T) {
	dsn := startPostgres(t)

	storetest.Run(t, func(t *testing.T) ports.EntityStore {
		s, err := Open(dsn)
		require.NoError(t, err)
		ctx := context.Background()
		for _, table := range []string{"custom_list_items", "custom_lists", "favorites", "watch_records", "achievements", "anime_cache", "character_cache", "users"} {
			_, _ = s.DB().ExecContext(ctx, "DROP TABLE IF EXISTS "+table)
		}
		require.NoError(t, s.InitSchema(ctx))
		t.Cleanup(func() { s.Close() })
		return s
	})
}
