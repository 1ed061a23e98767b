package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alexander-kastil/talk-low-code-process/internal/random"
	"github.com/alexander-kastil/talk-low-code-process/internal/store"
	"github.com/alexander-kastil/talk-low-code-process/internal/store/memstore"
)

// countingProvider wraps another provider and counts the draws taken from it.
type countingProvider struct {
	inner random.Provider
	draws int
}

func (c *countingProvider) NextUniform() float64 {
	c.draws++
	return c.inner.NextUniform()
}

func (c *countingProvider) NextUniformRange(min, max float64) (float64, error) {
	c.draws++
	return c.inner.NextUniformRange(min, max)
}

// scriptedProvider replays a fixed list of uniform draws. Range draws consume one value
// and scale it into the range.
type scriptedProvider struct {
	t      *testing.T
	values []float64
	next   int
}

func script(t *testing.T, values ...float64) *scriptedProvider {
	return &scriptedProvider{t: t, values: values}
}

func (s *scriptedProvider) NextUniform() float64 {
	s.t.Helper()
	require.Less(s.t, s.next, len(s.values), "scripted provider ran out of draws")
	v := s.values[s.next]
	s.next++
	return v
}

func (s *scriptedProvider) NextUniformRange(min, max float64) (float64, error) {
	if max < min {
		return 0, random.ErrInvalidRange
	}
	return min + s.NextUniform()*(max-min), nil
}

func (s *scriptedProvider) remaining() int {
	return len(s.values) - s.next
}

// newSeededStore returns an in-memory store holding the seed catalog, with the given
// settings written over the seeded values.
func newSeededStore(t *testing.T, overrides map[string]string) *memstore.Store {
	t.Helper()
	ctx := context.Background()

	st := memstore.New()
	require.NoError(t, store.Seed(ctx, st))
	for key, value := range overrides {
		require.NoError(t, st.PutSetting(ctx, key, value))
	}
	return st
}

func newSettings(t *testing.T, st store.SettingsStore) ISettingsService {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return NewSettingsService(ctx, st, nil)
}
