package lancong

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/lancong/pkg/crossencoder"
	"github.com/soundprediction/lancong/pkg/driver/drivertest"
	"github.com/soundprediction/lancong/pkg/embedder"
	"github.com/soundprediction/lancong/pkg/enrich"
	"github.com/soundprediction/lancong/pkg/types"
	"github.com/soundprediction/lancong/pkg/wikidata"
)

const testDims = 256

type testEnv struct {
	client   *Client
	driver   *drivertest.MemoryDriver
	embedder *embedder.MockEmbedder
	kbCalls  *int
}

// newTestEnv builds a client over an in-memory store holding 25 waterfalls,
// a few beaches and a temple, each embedded with the mock embedder.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	d := drivertest.New(testDims)
	e := embedder.NewMockEmbedder(testDims)

	add := func(id int64, name, city string, desc *string) {
		vec, err := e.EmbedSingle(ctx, name)
		require.NoError(t, err)
		props := map[string]any{"id": id, "name": name, "city": city, "category": "Alam", "embedding": vec}
		if desc != nil {
			props["description"] = *desc
		}
		d.AddPlace(props)
	}
	for i := 1; i <= 25; i++ {
		add(int64(i), fmt.Sprintf("Waterfall %d", i), "Bogor", nil)
	}
	add(100, "Pantai Kuta", "Bali", types.StringPtr("Pantai pasir putih dengan ombak besar"))
	add(101, "Pantai Sanur", "Bali", types.StringPtr("Pantai tenang untuk melihat matahari terbit"))
	add(102, "Candi Borobudur", "Magelang", types.StringPtr("Candi Buddha terbesar di dunia"))
	d.Packages = []drivertest.MemoryPackage{
		{ID: 1, City: "Bali", PlaceIDs: []int64{100, 101}},
		{ID: 2, City: "Magelang", PlaceIDs: []int64{102}},
		{ID: 3, City: nil},
	}

	calls := 0
	kb := wikidata.ResolverFunc(func(ctx context.Context, name, locale string) wikidata.LookupResult {
		calls++
		if name == "Pantai Kuta" {
			return wikidata.LookupResult{Status: wikidata.Found, Entity: wikidata.Entity{
				URI:         types.StringPtr("http://www.wikidata.org/entity/Q1"),
				Image:       types.StringPtr("http://commons.wikimedia.org/kuta.jpg"),
				Description: types.StringPtr("pantai di Bali"),
			}}
		}
		if name == "Candi Borobudur" {
			return wikidata.LookupResult{Status: wikidata.TransportError, Err: errors.New("timeout")}
		}
		return wikidata.LookupResult{Status: wikidata.NotFound}
	})

	config := DefaultConfig()
	config.Search.Dimensions = testDims
	scorer := crossencoder.NewMockRerankerClient(crossencoder.DefaultConfig(crossencoder.ProviderMock))
	client, err := NewClient(d, e, scorer, enrich.NewResolver(kb, "id", nil, nil), config, nil)
	require.NoError(t, err)
	return &testEnv{client: client, driver: d, embedder: e, kbCalls: &calls}
}

func TestNewClient(t *testing.T) {
	_, err := NewClient(nil, nil, nil, nil, nil, nil)
	require.Error(t, err)

	config := DefaultConfig()
	config.DescriptionWeight = 1.5
	_, err = NewClient(drivertest.New(3), nil, nil, nil, config, nil)
	var verr *types.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "description_weight", verr.Field)

	client, err := NewClient(drivertest.New(3), nil, nil, nil, &Config{}, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxEnrich, client.config.DefaultMaxEnrich)
	assert.Equal(t, DefaultPackageLimit, client.config.PackageLimit)
}

func TestPingAndClose(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.client.Ping(ctx))
	env.driver.Err = errors.New("connection refused")
	assert.Error(t, env.client.Ping(ctx))

	require.NoError(t, env.client.Close(ctx))
	assert.True(t, env.driver.Closed())
}
