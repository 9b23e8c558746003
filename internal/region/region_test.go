package region_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"topo/ingest/internal/region"
)

func TestAll(t *testing.T) {
	all := region.All()
	assert.Len(t, all, 50)
	assert.Equal(t, "AL", all[0])
	assert.Equal(t, "WY", all[49])
}

func TestLookup(t *testing.T) {
	va, ok := region.Lookup("va")
	require.True(t, ok)
	assert.Equal(t, "Virginia", va.Name)
	assert.Equal(t, "51", va.FIPS)
	assert.Equal(t, "FIPS:51", va.LocationID())

	de, ok := region.LookupName("Delaware")
	require.True(t, ok)
	assert.Equal(t, "DE", de.Abbr)

	_, ok = region.Lookup("PR")
	assert.False(t, ok)
}

func TestNormalize(t *testing.T) {
	got, err := region.Normalize([]string{" de", "CA"})
	require.NoError(t, err)
	assert.Equal(t, []string{"DE", "CA"}, got)

	_, err = region.Normalize([]string{"VA", "XX"})
	assert.ErrorIs(t, err, region.ErrUnknownState)
}

func TestFIPSUnique(t *testing.T) {
	seen := map[string]string{}
	for _, abbr := range region.All() {
		s, _ := region.Lookup(abbr)
		prev, dup := seen[s.FIPS]
		assert.False(t, dup, "%s and %s share FIPS %s", prev, abbr, s.FIPS)
		seen[s.FIPS] = abbr
	}
}
