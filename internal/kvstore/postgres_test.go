package kvstore_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/bigkaa/goartstore/catalog-admin/internal/config"
	"github.com/bigkaa/goartstore/catalog-admin/internal/database"
	"github.com/bigkaa/goartstore/catalog-admin/internal/kvstore"
)

// TestPostgresStore проверяет хранилище на реальном PostgreSQL (testcontainers).
func TestPostgresStore(t *testing.T) {
	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("Пропуск интеграционного теста: TEST_INTEGRATION не установлена")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		postgres.WithDatabase("catalog_test"),
		postgres.WithUsername("catalog"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err, "не удалось запустить PostgreSQL контейнер")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Ошибка остановки контейнера: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	cfg := &config.Config{
		DBHost:     host,
		DBPort:     port.Int(),
		DBName:     "catalog_test",
		DBUser:     "catalog",
		DBPassword: "test-password",
		DBSSLMode:  "disable",
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	pool, err := database.Open(ctx, cfg, logger)
	require.NoError(t, err)
	defer pool.Close()

	s := kvstore.NewPostgresStore(pool)

	_, err = s.Get(ctx, "silvifrid_products")
	assert.ErrorIs(t, err, kvstore.ErrNotFound)

	require.NoError(t, s.Set(ctx, "silvifrid_products", []byte(`[{"id":"1"}]`)))
	require.NoError(t, s.Set(ctx, "silvifrid_products", []byte(`[{"id":"2"}]`)))

	got, err := s.Get(ctx, "silvifrid_products")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"2"}]`, string(got))

	require.NoError(t, s.Delete(ctx, "silvifrid_products"))
	_, err = s.Get(ctx, "silvifrid_products")
	assert.ErrorIs(t, err, kvstore.ErrNotFound)
}
