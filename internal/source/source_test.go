package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mselser95/polymarket-arb/internal/ratelimit"
)

func testConfig(gammaURL, clobURL string) Config {
	cfg := DefaultConfig()
	cfg.GammaBaseURL = gammaURL
	cfg.CLOBBaseURL = clobURL
	cfg.MaxRetries = 2
	return cfg
}

func TestListMarkets_PaginatesUntilShortPage(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		offset := r.URL.Query().Get("offset")
		w.Header().Set("Content-Type", "application/json")
		if offset == "0" {
			w.Write([]byte(`[{"id":"m1"},{"id":"m2"}]`))
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	cfg := testConfig(server.URL, "")
	cfg.PageLimit = 2
	c := New(cfg, ratelimit.New(100, 100), nil, nil)

	markets, err := c.ListMarkets(context.Background(), nil, true, 0)
	require.NoError(t, err)
	assert.Len(t, markets, 2)
	assert.Equal(t, int32(2), calls.Load())
}

func TestListMarkets_DedupesAcrossTags(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":"m1"}]`))
	}))
	defer server.Close()

	cfg := testConfig(server.URL, "")
	cfg.PageLimit = 10
	c := New(cfg, ratelimit.New(100, 100), nil, nil)

	markets, err := c.ListMarkets(context.Background(), []string{"crypto", "sports"}, true, 0)
	require.NoError(t, err)
	assert.Len(t, markets, 1, "the same market ID seen under two tags must dedupe")
}

func TestListMarkets_RespectsOverallLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":"m1"},{"id":"m2"},{"id":"m3"}]`))
	}))
	defer server.Close()

	cfg := testConfig(server.URL, "")
	cfg.PageLimit = 10
	c := New(cfg, ratelimit.New(100, 100), nil, nil)

	markets, err := c.ListMarkets(context.Background(), nil, true, 2)
	require.NoError(t, err)
	assert.Len(t, markets, 2)
}

func TestListMarkets_MalformedPageFailsFastWithoutRetry(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`not json`))
	}))
	defer server.Close()

	cfg := testConfig(server.URL, "")
	c := New(cfg, ratelimit.New(100, 100), nil, nil)

	_, err := c.ListMarkets(context.Background(), nil, true, 0)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load(), "SOURCE_FORMAT must not be retried")
}

func TestListMarkets_RetriesTransientFailureThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		if n == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":"m1"}]`))
	}))
	defer server.Close()

	cfg := testConfig(server.URL, "")
	c := New(cfg, ratelimit.New(100, 100), nil, nil)

	markets, err := c.ListMarkets(context.Background(), nil, true, 0)
	require.NoError(t, err)
	assert.Len(t, markets, 1)
	assert.GreaterOrEqual(t, calls.Load(), int32(2))
}

func TestFetchOrderBook_ReturnsSortedBook(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"bids":[{"price":"0.40","size":"10"},{"price":"0.41","size":"5"}],"asks":[{"price":"0.52","size":"8"},{"price":"0.50","size":"4"}]}`))
	}))
	defer server.Close()

	cfg := testConfig("", server.URL)
	c := New(cfg, ratelimit.New(100, 100), nil, nil)

	book, err := c.FetchOrderBook(context.Background(), "tok1")
	require.NoError(t, err)
	require.Len(t, book.Bids, 2)
	require.Len(t, book.Asks, 2)
	assert.Equal(t, 0.41, book.Bids[0].Price, "bids sorted descending")
	assert.Equal(t, 0.50, book.Asks[0].Price, "asks sorted ascending")
}

func TestFetchOrderBook_ReturnsEmptyBookAfterRetryExhaustion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	cfg := testConfig("", server.URL)
	cfg.MaxRetries = 1
	c := New(cfg, ratelimit.New(100, 100), nil, nil)

	book, err := c.FetchOrderBook(context.Background(), "tok1")
	require.NoError(t, err, "exhaustion is non-fatal for order-book reads")
	assert.Empty(t, book.Bids)
	assert.Empty(t, book.Asks)
}

func TestFetchTags_DeduplicatesAcrossEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"tags":[{"id":"1","label":"Crypto","slug":"crypto"}]},{"tags":[{"id":"1","label":"Crypto","slug":"crypto"},{"id":"2","label":"Sports","slug":"sports"}]}]`))
	}))
	defer server.Close()

	cfg := testConfig(server.URL, "")
	c := New(cfg, ratelimit.New(100, 100), nil, nil)

	tags, err := c.FetchTags(context.Background())
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "1", tags[0].ID)
	assert.Equal(t, "2", tags[1].ID)
}

func TestListMarkets_CanceledContextReturnsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	cfg := testConfig(server.URL, "")
	c := New(cfg, ratelimit.New(100, 100), nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.ListMarkets(ctx, nil, true, 0)
	assert.Error(t, err)
}
