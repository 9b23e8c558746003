package cache_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"topo/ingest/internal/cache"
	"topo/ingest/internal/testutils"
)

func TestStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := testutils.NewIntegrationSuite(t)
	s.Setup()
	defer s.Teardown()

	ctx := context.Background()
	store := cache.NewStore(s.DB)

	agencies := []agency{{ORI: "VA0010000", Name: "Accomack"}, {ORI: "VA0020000", Name: "Albemarle"}}
	require.NoError(t, store.PutKeyed(ctx, "agency_cache", "https://api/x?state=VA", agencies))
	require.NoError(t, store.PutKeyed(ctx, "agency_cache", "https://api/x?state=VA", agencies[:1]))

	var got []agency
	found, err := store.Get(ctx, "agency_cache", "https://api/x?state=VA", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, agencies[:1], got)

	require.NoError(t, cache.PutAll(ctx, store, "summary_cache", agencies))
	var second agency
	found, err = store.Get(ctx, "summary_cache", cache.Key("summary_cache", 1), &second)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "VA0020000", second.ORI)

	found, err = store.Get(ctx, "agency_cache", "https://api/x?state=DE", &got)
	require.NoError(t, err)
	assert.False(t, found)
}
