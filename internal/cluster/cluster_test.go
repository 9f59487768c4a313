package cluster

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mselser95/polymarket-arb/internal/ratelimit"
	"github.com/mselser95/polymarket-arb/pkg/types"
)

type fakeEmbedder struct {
	vectors map[string][]float64
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, t := range texts {
		out[i] = f.vectors[t]
	}
	return out, nil
}

func TestClusterer_Cluster_GroupsSimilarMarkets(t *testing.T) {
	markets := []*types.Market{
		{ID: "m1", Question: "btc-high"},
		{ID: "m2", Question: "btc-high-2"},
		{ID: "m3", Question: "weather-unrelated"},
	}
	embedder := &fakeEmbedder{vectors: map[string][]float64{
		"btc-high ":           {1, 0, 0},
		"btc-high-2 ":         {0.99, 0.01, 0},
		"weather-unrelated ":  {0, 1, 0},
	}}

	c := New(embedder, ratelimit.New(100, 100), 2, 10)
	clusters, err := c.Cluster(context.Background(), markets, 0.9)
	require.NoError(t, err)
	require.Len(t, clusters, 2)

	var btcCluster, weatherCluster []string
	for _, cl := range clusters {
		if len(cl.MarketIDs) == 2 {
			btcCluster = cl.MarketIDs
		} else {
			weatherCluster = cl.MarketIDs
		}
	}
	assert.Equal(t, []string{"m1", "m2"}, btcCluster)
	assert.Equal(t, []string{"m3"}, weatherCluster)
}

func TestClusterer_Cluster_Empty(t *testing.T) {
	c := New(&fakeEmbedder{}, ratelimit.New(10, 10), 2, 10)
	clusters, err := c.Cluster(context.Background(), nil, 0.9)
	require.NoError(t, err)
	assert.Nil(t, clusters)
}

func TestClusterer_Cluster_DeterministicOrder(t *testing.T) {
	markets := []*types.Market{
		{ID: "z1", Question: "a"},
		{ID: "a1", Question: "b"},
	}
	embedder := &fakeEmbedder{vectors: map[string][]float64{
		"a ": {1, 0},
		"b ": {0, 1},
	}}
	c := New(embedder, ratelimit.New(10, 10), 2, 10)
	clusters, err := c.Cluster(context.Background(), markets, 0.99)
	require.NoError(t, err)
	require.Len(t, clusters, 2)
	assert.Equal(t, "a1", clusters[0].MarketIDs[0])
	assert.Equal(t, "z1", clusters[1].MarketIDs[0])
}
