package enrich

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/lancong/pkg/wikidata"
)

func TestBadgerCacheRoundTrip(t *testing.T) {
	cache, err := OpenBadgerCache(t.TempDir(), time.Hour, nil)
	require.NoError(t, err)
	defer cache.Close()
	ctx := context.Background()

	_, ok, err := cache.Get(ctx, "id", "Monas")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Put(ctx, "id", "Monas", found("q1", "monas.jpg", "tugu")))

	// Keys are case and whitespace insensitive.
	got, ok, err := cache.Get(ctx, "id", "  monas ")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, wikidata.Found, got.Status)
	assert.Equal(t, "q1", *got.Entity.URI)

	// Locales are separate keyspaces.
	_, ok, err = cache.Get(ctx, "en", "Monas")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBadgerCacheNotFoundAndTransport(t *testing.T) {
	cache, err := OpenBadgerCache("", 0, nil)
	require.NoError(t, err)
	defer cache.Close()
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "id", "Nowhere", wikidata.LookupResult{Status: wikidata.NotFound}))
	got, ok, err := cache.Get(ctx, "id", "Nowhere")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, wikidata.NotFound, got.Status)
	assert.Nil(t, got.Entity.URI)

	require.NoError(t, cache.Put(ctx, "id", "Down", wikidata.LookupResult{Status: wikidata.TransportError}))
	_, ok, err = cache.Get(ctx, "id", "Down")
	require.NoError(t, err)
	assert.False(t, ok)
}
