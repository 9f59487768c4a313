// Package cluster groups semantically close markets via embedding cosine
// similarity, so the Strategy Engine's IMPLICATION/EQUIVALENT strategies
// have candidate pairs to consult the LLM Analyzer over without comparing
// every market against every other one.
package cluster

import (
	"context"
	"fmt"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/mselser95/polymarket-arb/internal/domain"
	"github.com/mselser95/polymarket-arb/internal/ratelimit"
	"github.com/mselser95/polymarket-arb/pkg/types"
)

// Clusterer embeds market text and unions pairs above a cosine similarity
// threshold into disjoint clusters.
type Clusterer struct {
	embedder  Embedder
	bucket    *ratelimit.Bucket
	nEmbed    int
	bEmbed    int
}

func New(embedder Embedder, bucket *ratelimit.Bucket, nEmbed, bEmbed int) *Clusterer {
	return &Clusterer{embedder: embedder, bucket: bucket, nEmbed: nEmbed, bEmbed: bEmbed}
}

// Cluster embeds every market's question+description and unions pairs
// whose cosine similarity is at least threshold. Clusters are disjoint,
// and both cluster order and the market-ID order within a cluster are
// stable given the same input (spec.md §4.3).
func (c *Clusterer) Cluster(ctx context.Context, markets []*types.Market, threshold float64) ([]domain.Cluster, error) {
	if len(markets) == 0 {
		return nil, nil
	}

	texts := make([]string, len(markets))
	for i, m := range markets {
		texts[i] = m.Question + " " + m.Description
	}

	vectors, err := c.embedAll(ctx, texts)
	if err != nil {
		return nil, err
	}

	uf := newUnionFind(len(markets))
	for i := 0; i < len(markets); i++ {
		if vectors[i] == nil {
			continue
		}
		for j := i + 1; j < len(markets); j++ {
			if vectors[j] == nil {
				continue
			}
			if cosineSimilarity(vectors[i], vectors[j]) >= threshold {
				uf.union(i, j)
			}
		}
	}

	groups := map[int][]string{}
	for i, m := range markets {
		root := uf.find(i)
		groups[root] = append(groups[root], m.ID)
	}

	clusters := make([]domain.Cluster, 0, len(groups))
	for _, ids := range groups {
		sort.Strings(ids)
		clusters = append(clusters, domain.Cluster{MarketIDs: ids})
	}
	sort.Slice(clusters, func(i, j int) bool {
		return clusters[i].MarketIDs[0] < clusters[j].MarketIDs[0]
	})
	for i := range clusters {
		clusters[i].ID = i
	}

	return clusters, nil
}

// embedAll dispatches texts in batches of at most bEmbed, up to nEmbed
// batches concurrently, rate-limited through the shared token bucket.
func (c *Clusterer) embedAll(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))

	type batch struct {
		start int
		texts []string
	}
	var batches []batch
	for start := 0; start < len(texts); start += c.bEmbed {
		end := start + c.bEmbed
		if end > len(texts) {
			end = len(texts)
		}
		batches = append(batches, batch{start: start, texts: texts[start:end]})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.nEmbed)
	for _, b := range batches {
		b := b
		g.Go(func() error {
			if err := c.bucket.Wait(gctx); err != nil {
				return err
			}
			vecs, err := c.embedder.Embed(gctx, b.texts)
			if err != nil {
				return fmt.Errorf("embed batch starting at %d: %w", b.start, err)
			}
			for i, v := range vecs {
				out[b.start+i] = v
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// cosineSimilarity is grounded on the pack's embedding-experiment cosine
// helper (ehrlich-b-wingthing/experiments embedding main.go).
func cosineSimilarity(a, b []float64) float64 {
	var dot, na, nb float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
