package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")

	cfg, err := Load("api")
	require.NoError(t, err)

	assert.Equal(t, "api", cfg.RunMode)
	assert.Equal(t, StoreMemory, cfg.StoreDriver)
	assert.Equal(t, "8080", cfg.ApiPort)
	assert.Equal(t, "12345", cfg.ServiceApiPort)
	assert.Equal(t, NotifyInline, cfg.NotifyMode)
	assert.True(t, cfg.SeedData)
	assert.Nil(t, cfg.RandomSeed)
	assert.False(t, cfg.ArchiveEnabled())
}

func TestLoad_StoreDriverRequirements(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mongo")
	t.Setenv("MONGO_URI", "")
	_, err := Load("all")
	assert.EqualError(t, err, "missing required environment variable: MONGO_URI")

	t.Setenv("STORE_DRIVER", "Postgres")
	t.Setenv("POSTGRES_URL", "postgres://u:p@localhost:5432/purchasing")
	cfg, err := Load("all")
	require.NoError(t, err)
	assert.Equal(t, StorePostgres, cfg.StoreDriver)

	t.Setenv("STORE_DRIVER", "sqlite")
	_, err = Load("all")
	assert.ErrorContains(t, err, "invalid STORE_DRIVER")
}

func TestLoad_ParsesValues(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("RANDOM_SEED", "1234")
	t.Setenv("NOTIFY_MODE", "QUEUE")
	t.Setenv("MOCK_SERVICES", "true")
	t.Setenv("SEED_DATA", "false")
	t.Setenv("OFFER_ARCHIVE_BUCKET", "offers")

	cfg, err := Load("bg")
	require.NoError(t, err)
	require.NotNil(t, cfg.RandomSeed)
	assert.Equal(t, uint64(1234), *cfg.RandomSeed)
	assert.Equal(t, NotifyQueue, cfg.NotifyMode)
	assert.True(t, cfg.MockServices)
	assert.False(t, cfg.SeedData)
	assert.True(t, cfg.ArchiveEnabled())
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := map[string]string{
		"RANDOM_SEED":                 "-1",
		"REDIS_DB":                    "zero",
		"SMTP_PORT":                   "smtp",
		"NOTIFY_MODE":                 "carrier-pigeon",
		"MOCK_SERVICES":               "maybe",
		"RATE_LIMIT_HARD_BUCKET_SIZE": "lots",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv("STORE_DRIVER", "memory")
			t.Setenv(key, value)
			_, err := Load("api")
			assert.ErrorContains(t, err, key)
		})
	}
}
