package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexander-kastil/talk-low-code-process/internal/store"
	"github.com/alexander-kastil/talk-low-code-process/internal/store/memstore"
)

func TestSeed_IsIdempotentAndKeepsChangedSettings(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

	require.NoError(t, store.Seed(ctx, s))
	require.NoError(t, s.PutSetting(ctx, "OfferRandomizer_TransportationCost", "45.00"))
	require.NoError(t, store.Seed(ctx, s))

	products, err := s.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, products, len(store.SeedProducts))

	suppliers, err := s.ListSuppliers(ctx)
	require.NoError(t, err)
	assert.Len(t, suppliers, 4)

	settings, err := s.ListSettings(ctx)
	require.NoError(t, err)
	assert.Len(t, settings, len(store.SeedSettings))
	for _, setting := range settings {
		if setting.Key == "OfferRandomizer_TransportationCost" {
			assert.Equal(t, "45.00", setting.Value)
		}
	}
}

func TestSeed_SupplierCatalog(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	require.NoError(t, store.Seed(ctx, s))

	wiener, err := s.FindSupplierByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Wiener Feinkost GmbH", wiener.CompanyName)
	assert.True(t, wiener.Supplies("wiener schnitzel"))
	assert.False(t, wiener.Supplies("Pizza Napoli"))

	// every product a supplier carries has a base price
	for _, sup := range store.SeedSuppliers {
		for _, name := range sup.Products {
			p, err := s.FindProductByName(ctx, name)
			require.NoError(t, err, name)
			assert.True(t, p.BasePrice.IsPositive(), name)
		}
	}
}
