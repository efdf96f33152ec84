package libris

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Qluxzz/swedish-books/internal/cachestore"
	"github.com/Qluxzz/swedish-books/internal/fetch"
	"github.com/Qluxzz/swedish-books/internal/retry"
)

const resultFormat = "application/sparql-results+json"

//go:embed query.rq
var rawQuery string

// Client loads one year's flat result set from the SPARQL endpoint, caching
// the raw response body per year so repeated runs are idempotent and work
// offline.
type Client struct {
	endpoint  string
	query     string
	fetcher   fetch.Fetcher
	cache     *cachestore.Store
	attempts  int
	baseDelay time.Duration
	logger    *zap.Logger
}

// NewClient builds a Client around the given fetcher and cache store.
func NewClient(endpoint string, fetcher fetch.Fetcher, cache *cachestore.Store, attempts int, baseDelay time.Duration, logger *zap.Logger) *Client {
	return &Client{
		endpoint:  endpoint,
		query:     stripComments(rawQuery),
		fetcher:   fetcher,
		cache:     cache,
		attempts:  attempts,
		baseDelay: baseDelay,
		logger:    logger,
	}
}

// Rows returns the flat result rows for one publication year.
func (c *Client) Rows(ctx context.Context, year int) ([]Binding, error) {
	key := strconv.Itoa(year) + ".json"
	body, err := c.cache.GetOrFill(key, func() ([]byte, error) {
		return retry.Do(ctx, c.attempts, c.baseDelay, func(ctx context.Context) ([]byte, error) {
			return c.fetcher.Fetch(ctx, c.queryURL(year))
		})
	})
	if err != nil {
		return nil, fmt.Errorf("load sparql results for %d: %w", year, err)
	}

	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode sparql results for %d: %w", year, err)
	}
	return resp.Results.Bindings, nil
}

func (c *Client) queryURL(year int) string {
	query := strings.ReplaceAll(c.query, "|YEAR|", strconv.Itoa(year))
	return c.endpoint +
		"?format=" + url.QueryEscape(resultFormat) +
		"&should-sponge=soft" +
		"&query=" + url.QueryEscape(query)
}

// stripComments drops comment lines from the query template; the endpoint
// rejects overly long query strings and comments only add bytes.
func stripComments(query string) string {
	lines := strings.Split(query, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
