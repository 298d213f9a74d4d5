package main

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darvell/inkmill/internal/config"
	"github.com/darvell/inkmill/internal/platform/postgres"
	"github.com/darvell/inkmill/internal/platform/rediscache"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSetupArtifactStoreRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	app := &application{
		config: &config.Config{
			Cache: config.CacheConfig{
				Backend:    "redis",
				RedisAddr:  mr.Addr(),
				TTLSeconds: 60,
			},
		},
		logger: discardLogger(),
	}

	s, err := app.setupArtifactStore(context.Background())
	require.NoError(t, err)
	assert.IsType(t, &rediscache.Store{}, s)
	assert.NotNil(t, app.redisStore)
}

func TestSetupArtifactStorePostgres(t *testing.T) {
	// sql.Open does not connect, so no live database is needed here.
	db, err := sql.Open("pgx", "postgres://localhost:5432/inkmill")
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	app := &application{
		config: &config.Config{
			Cache: config.CacheConfig{Backend: "postgres", TTLSeconds: 3600},
		},
		logger: discardLogger(),
		db:     db,
	}

	s, err := app.setupArtifactStore(context.Background())
	require.NoError(t, err)
	assert.IsType(t, &postgres.ArtifactStore{}, s)
	assert.Nil(t, app.redisStore)
}

func TestSetupArtifactStoreUnknownBackend(t *testing.T) {
	app := &application{
		config: &config.Config{
			Cache: config.CacheConfig{Backend: "memcached"},
		},
		logger: discardLogger(),
	}

	_, err := app.setupArtifactStore(context.Background())
	assert.ErrorContains(t, err, "unknown cache backend")
}

func TestRunMigrationsUnknownCommand(t *testing.T) {
	err := runMigrations(nil, "sideways", discardLogger())
	assert.ErrorContains(t, err, "unknown migration command")
}
