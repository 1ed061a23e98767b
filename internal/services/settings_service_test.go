package services

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexander-kastil/talk-low-code-process/internal/models"
	"github.com/alexander-kastil/talk-low-code-process/internal/store/memstore"
)

func TestSettingsService_TypedGetters(t *testing.T) {
	st := memstore.New()
	ctx := context.Background()
	for key, value := range map[string]string{
		"int":     " 42 ",
		"float":   "0.25",
		"decimal": "30.00",
		"list":    "2, three,4",
		"garbage": "n/a",
		"empty":   ",,",
	} {
		require.NoError(t, st.PutSetting(ctx, key, value))
	}
	s := newSettings(t, st)

	assert.Equal(t, 42, s.GetInt("int", 1))
	assert.Equal(t, 1, s.GetInt("garbage", 1))
	assert.Equal(t, 7, s.GetInt("missing", 7))
	assert.Equal(t, 0.25, s.GetFloat64("float", 1))
	assert.Equal(t, 1.5, s.GetFloat64("garbage", 1.5))
	assert.Equal(t, "30", s.GetDecimal("decimal", decimal.Zero).String())
	assert.Equal(t, "5", s.GetDecimal("garbage", decimal.NewFromInt(5)).String())
	assert.Equal(t, []int{2, 4}, s.GetIntList("list", []int{9}))
	assert.Equal(t, []int{9}, s.GetIntList("empty", []int{9}))
	assert.Equal(t, "n/a", s.GetString("garbage", ""))
	assert.Len(t, s.All(), 6)
}

func TestSettingsService_Set(t *testing.T) {
	st := memstore.New()
	s := newSettings(t, st)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, keyMarkupMax, "0.3"))
	assert.Equal(t, 0.3, s.GetFloat64(keyMarkupMax, 0))

	stored, err := st.ListSettings(ctx)
	require.NoError(t, err)
	assert.Contains(t, stored, models.Setting{Key: keyMarkupMax, Value: "0.3"})

	err = s.Set(ctx, "MONGO_URI", "mongodb://elsewhere")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.EqualError(t, err, "Setting 'MONGO_URI' cannot be changed.")

	err = s.Set(ctx, "OfferRandomizer_", "1")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestSettingsService_LoadPicksUpStoreChanges(t *testing.T) {
	st := memstore.New()
	s := newSettings(t, st)
	ctx := context.Background()

	require.NoError(t, st.PutSetting(ctx, keyAdditionalDaysBase, "6"))
	assert.Equal(t, 4, s.GetInt(keyAdditionalDaysBase, 4), "cache is not refreshed on read")

	require.NoError(t, s.Load(ctx))
	assert.Equal(t, 6, s.GetInt(keyAdditionalDaysBase, 4))
}

// TestSettingsService_ReloadOverPubSub needs a live Redis.
func TestSettingsService_ReloadOverPubSub(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR_TEST")
	if addr == "" {
		t.Skip("REDIS_ADDR_TEST not set, skipping Redis Pub/Sub test")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not reachable at %s: %v", addr, err)
	}

	st := memstore.New()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	reader := NewSettingsService(ctx, st, rdb)
	writer := NewSettingsService(ctx, st, rdb)
	// Give the subscriber time to register before publishing.
	time.Sleep(200 * time.Millisecond)

	require.NoError(t, writer.Set(ctx, keyCommonProbability, "0.55"))

	assert.Eventually(t, func() bool {
		return reader.GetFloat64(keyCommonProbability, 0) == 0.55
	}, 3*time.Second, 50*time.Millisecond)
}

type failingSettingsStore struct {
	*memstore.Store
}

func (failingSettingsStore) PutSetting(context.Context, string, string) error {
	return errors.New("read-only replica")
}

func TestSettingsService_SetStoreFailure(t *testing.T) {
	s := newSettings(t, failingSettingsStore{memstore.New()})

	err := s.Set(context.Background(), keyMarkupMax, "0.3")
	assert.ErrorIs(t, err, ErrUnexpected)
	assert.Equal(t, 0.25, s.GetFloat64(keyMarkupMax, 0.25), "failed write is not cached")
}
