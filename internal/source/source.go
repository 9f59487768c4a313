// Package source implements the Market Source of spec.md §4.1: it
// materializes a venue market snapshot bounded to a tag set, serves
// on-demand order-book reads, and resolves the venue's tag catalog. It is
// the only package permitted to reach the network for catalog/book data;
// every other package consults domain.MarketGraph instead, grounded on
// 0xtitan6-polymarket-mm's internal/exchange.Client (resty + per-category
// rate limiting + retry).
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"sort"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/mselser95/polymarket-arb/internal/ratelimit"
	"github.com/mselser95/polymarket-arb/internal/scanerr"
	"github.com/mselser95/polymarket-arb/pkg/cache"
	"github.com/mselser95/polymarket-arb/pkg/types"
)

// Config carries every tunable the Market Source needs, passed explicitly
// at construction (spec.md §9: no process-global configuration object).
type Config struct {
	GammaBaseURL string
	CLOBBaseURL  string

	CatalogTimeout   time.Duration
	OrderBookTimeout time.Duration
	MaxRetries       int

	NSource        int // concurrent in-flight page requests (spec.md §5)
	PageLimit      int
	FetchMaxPerTag int
	FetchUnlimited bool

	SnapshotTTL time.Duration
}

func DefaultConfig() Config {
	return Config{
		GammaBaseURL:     "https://gamma-api.polymarket.com",
		CLOBBaseURL:      "https://clob.polymarket.com",
		CatalogTimeout:   10 * time.Second,
		OrderBookTimeout: 5 * time.Second,
		MaxRetries:       3,
		NSource:          4,
		PageLimit:        1000,
		FetchMaxPerTag:   1000,
		SnapshotTTL:      60 * time.Second,
	}
}

// Client is the Market Source implementation. Order-book reads never
// consult snapshotCache (spec.md §4.1's "order-book reads MUST NOT be
// cached across a plan lifetime"); only ListMarkets does.
type Client struct {
	gamma *resty.Client
	clob  *resty.Client

	bucket *ratelimit.Bucket
	cache  cache.Cache

	cfg    Config
	logger *zap.Logger
}

func New(cfg Config, bucket *ratelimit.Bucket, snapshotCache cache.Cache, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		gamma: resty.New().
			SetBaseURL(cfg.GammaBaseURL).
			SetTimeout(cfg.CatalogTimeout),
		clob: resty.New().
			SetBaseURL(cfg.CLOBBaseURL).
			SetTimeout(cfg.OrderBookTimeout),
		bucket: bucket,
		cache:  snapshotCache,
		cfg:    cfg,
		logger: logger,
	}
}

// marketsCacheKey builds a cache key including the full tag set, per
// spec.md §4.1's "cache keys must include the tag set".
func marketsCacheKey(tags []string, active bool) string {
	sorted := append([]string(nil), tags...)
	sort.Strings(sorted)
	key := fmt.Sprintf("markets:active=%v", active)
	for _, t := range sorted {
		key += ":" + t
	}
	return key
}

// ListMarkets materializes the venue's market catalog across tags,
// paginating each tag concurrently up to NSource in-flight requests,
// optionally served from the snapshot cache when fresh (spec.md §4.1).
// limit caps the total number of markets returned across every tag; 0
// means unbounded (subject to the per-tag FetchMaxPerTag/FetchUnlimited
// cap spec.md §9 describes).
func (c *Client) ListMarkets(ctx context.Context, tags []string, active bool, limit int) ([]*types.Market, error) {
	key := marketsCacheKey(tags, active)
	if c.cache != nil {
		if v, ok := c.cache.Get(key); ok {
			if markets, ok := v.([]*types.Market); ok {
				return capMarkets(markets, limit), nil
			}
		}
	}

	if len(tags) == 0 {
		tags = []string{""}
	}

	type tagResult struct {
		markets []*types.Market
		err     error
	}
	results := make([]tagResult, len(tags))

	sem := make(chan struct{}, c.cfg.NSource)
	errCh := make(chan error, len(tags))
	done := make(chan struct{}, len(tags))
	for i, tag := range tags {
		i, tag := i, tag
		sem <- struct{}{}
		go func() {
			defer func() { <-sem; done <- struct{}{} }()
			markets, err := c.paginateTag(ctx, tag, active)
			results[i] = tagResult{markets: markets, err: err}
			if err != nil {
				errCh <- err
			}
		}()
	}
	for range tags {
		<-done
	}
	select {
	case err := <-errCh:
		return nil, err
	default:
	}

	seen := map[string]bool{}
	var all []*types.Market
	for _, r := range results {
		for _, m := range r.markets {
			if seen[m.ID] {
				continue
			}
			seen[m.ID] = true
			all = append(all, m)
		}
	}

	if c.cache != nil {
		c.cache.Set(key, all, c.cfg.SnapshotTTL)
	}
	return capMarkets(all, limit), nil
}

func capMarkets(markets []*types.Market, limit int) []*types.Market {
	if limit > 0 && len(markets) > limit {
		return markets[:limit]
	}
	return markets
}

// paginateTag pages through /markets for one tag until a short page ends
// the sequence, the FetchMaxPerTag cap is hit (unless FetchUnlimited), or
// retries are exhausted.
func (c *Client) paginateTag(ctx context.Context, tag string, active bool) ([]*types.Market, error) {
	var out []*types.Market
	limit := c.cfg.PageLimit
	if limit <= 0 {
		limit = 1000
	}

	for offset := 0; ; offset += limit {
		if !c.cfg.FetchUnlimited && c.cfg.FetchMaxPerTag > 0 && offset >= c.cfg.FetchMaxPerTag {
			break
		}
		page, err := c.fetchMarketsPage(ctx, tag, active, limit, offset)
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		if len(page) < limit {
			break
		}
	}
	return out, nil
}

func (c *Client) fetchMarketsPage(ctx context.Context, tag string, active bool, limit, offset int) ([]*types.Market, error) {
	var page []*types.Market
	err := c.withRetry(ctx, "list_markets", func() error {
		if err := c.bucket.Wait(ctx); err != nil {
			return err
		}
		req := c.gamma.R().
			SetContext(ctx).
			SetQueryParam("active", fmt.Sprintf("%v", active)).
			SetQueryParam("limit", fmt.Sprintf("%d", limit)).
			SetQueryParam("offset", fmt.Sprintf("%d", offset))
		if tag != "" {
			req = req.SetQueryParam("tag_id", tag)
		}

		resp, err := req.Get("/markets")
		if err != nil {
			return scanerr.New(scanerr.SourceUnavailable, "list_markets transport error", err)
		}
		if resp.StatusCode() != http.StatusOK {
			return scanerr.New(scanerr.SourceUnavailable, fmt.Sprintf("list_markets status %d", resp.StatusCode()), nil)
		}

		var decoded []*types.Market
		if jerr := json.Unmarshal(resp.Body(), &decoded); jerr != nil {
			return &scanerr.Error{Kind: scanerr.SourceFormat, Context: "list_markets decode", Cause: jerr}
		}
		if tag != "" {
			for _, m := range decoded {
				if m.Tags == nil {
					m.Tags = map[string]struct{}{}
				}
				m.Tags[tag] = struct{}{}
			}
		}
		page = decoded
		return nil
	})
	return page, err
}

// FetchOrderBook reads one token's current book fresh every call; never
// cached (spec.md §4.1). Retry exhaustion is non-fatal: an empty book is
// returned so the caller treats it as zero liquidity rather than aborting.
func (c *Client) FetchOrderBook(ctx context.Context, tokenID string) (*types.OrderBook, error) {
	var raw struct {
		Bids []types.PriceLevel `json:"bids"`
		Asks []types.PriceLevel `json:"asks"`
	}
	err := c.withRetry(ctx, "fetch_order_book", func() error {
		if err := c.bucket.Wait(ctx); err != nil {
			return err
		}
		resp, err := c.clob.R().
			SetContext(ctx).
			SetQueryParam("token_id", tokenID).
			Get("/book")
		if err != nil {
			return scanerr.New(scanerr.SourceUnavailable, "fetch_order_book transport error", err)
		}
		if resp.StatusCode() != http.StatusOK {
			return scanerr.New(scanerr.SourceUnavailable, fmt.Sprintf("fetch_order_book status %d", resp.StatusCode()), nil)
		}
		if jerr := json.Unmarshal(resp.Body(), &raw); jerr != nil {
			return &scanerr.Error{Kind: scanerr.SourceFormat, Context: "fetch_order_book decode", Cause: jerr}
		}
		return nil
	})
	if err != nil {
		empty := types.EmptyOrderBook(tokenID)
		c.logger.Debug("source: order book fetch exhausted retries, returning empty book",
			zap.String("token_id", tokenID), zap.Error(err))
		return &empty, nil
	}

	book := &types.OrderBook{
		TokenID: tokenID,
		Bids:    types.ParseLevels(raw.Bids),
		Asks:    types.ParseLevels(raw.Asks),
	}
	book.Normalize()
	return book, nil
}

// FetchTags resolves the venue's tag catalog via the events endpoint,
// deduplicating by tag ID.
func (c *Client) FetchTags(ctx context.Context) ([]types.TagInfo, error) {
	var raw []struct {
		Tags []struct {
			ID    string `json:"id"`
			Label string `json:"label"`
			Slug  string `json:"slug"`
		} `json:"tags"`
	}
	err := c.withRetry(ctx, "fetch_tags", func() error {
		if err := c.bucket.Wait(ctx); err != nil {
			return err
		}
		resp, err := c.gamma.R().SetContext(ctx).Get("/events")
		if err != nil {
			return scanerr.New(scanerr.SourceUnavailable, "fetch_tags transport error", err)
		}
		if resp.StatusCode() != http.StatusOK {
			return scanerr.New(scanerr.SourceUnavailable, fmt.Sprintf("fetch_tags status %d", resp.StatusCode()), nil)
		}
		if jerr := json.Unmarshal(resp.Body(), &raw); jerr != nil {
			return &scanerr.Error{Kind: scanerr.SourceFormat, Context: "fetch_tags decode", Cause: jerr}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	var out []types.TagInfo
	for _, event := range raw {
		for _, t := range event.Tags {
			if seen[t.ID] {
				continue
			}
			seen[t.ID] = true
			out = append(out, types.TagInfo{ID: t.ID, Label: t.Label, Slug: t.Slug})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// withRetry retries fn under exponential backoff with full jitter up to
// MaxRetries times, per spec.md §4.1/§5. A SOURCE_FORMAT error is not
// retried — a page that fails to decode once will fail to decode again.
func (c *Client) withRetry(ctx context.Context, op string, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * 100 * time.Millisecond
			jittered := time.Duration(rand.Int63n(int64(backoff) + 1)) //nolint:gosec // jitter, not security-sensitive
			select {
			case <-time.After(jittered):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		var se *scanerr.Error
		if e, ok := err.(*scanerr.Error); ok {
			se = e
		}
		if se != nil && se.Kind == scanerr.SourceFormat {
			return err
		}
		c.logger.Debug("source: retrying after transient failure",
			zap.String("op", op), zap.Int("attempt", attempt), zap.Error(err))
	}
	return lastErr
}
