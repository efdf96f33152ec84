package goodreads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/Qluxzz/swedish-books/internal/cachestore"
	"github.com/Qluxzz/swedish-books/internal/fetch"
	"github.com/Qluxzz/swedish-books/internal/retry"
	"github.com/Qluxzz/swedish-books/internal/textutil"
)

// ErrRateLimited is returned when the service kept pushing back for the
// whole retry budget. Distinct from "no matching record", which is a nil
// result, and from unexpected errors.
var ErrRateLimited = errors.New("goodreads: rate limited")

// slugKeyLimit bounds fuzzy-search cache keys; they double as file names.
const slugKeyLimit = 150

// Client resolves rating data for a work with a two-tier strategy: exact
// ISBN lookups first, then a fuzzy title+author search. Every query is
// routed through the cache store, keyed by ISBN or truncated title-author
// slug, so repeated runs replay offline.
type Client struct {
	endpoint  string
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
		fetcher:   fetcher,
		cache:     cache,
		attempts:  attempts,
		baseDelay: baseDelay,
		logger:    logger,
	}
}

// Enrich finds the rating record for a work. ISBNs are tried in instance
// order, short-circuiting on the first hit; only when no ISBN yields a
// result does the fuzzy title+author search run. A nil result with nil
// error means no match was found.
func (c *Client) Enrich(ctx context.Context, title, author string, isbns []string) (*Result, error) {
	for _, isbn := range isbns {
		result, err := c.byISBN(ctx, isbn)
		if err != nil {
			return nil, err
		}
		if result != nil {
			return result, nil
		}
	}
	return c.byTitleAndAuthor(ctx, title, author)
}

func (c *Client) byISBN(ctx context.Context, isbn string) (*Result, error) {
	candidates, err := c.query(ctx, isbn+".json", isbn)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	return &candidates[0], nil
}

func (c *Client) byTitleAndAuthor(ctx context.Context, title, author string) (*Result, error) {
	titleSlug := textutil.Slug(title)
	authorSlug := textutil.Slug(author)

	key := textutil.TruncateSlug(titleSlug+"-"+authorSlug, slugKeyLimit) + ".json"
	candidates, err := c.query(ctx, key, title+" "+author)
	if err != nil {
		return nil, err
	}

	// Accept the first candidate that matches on slugified title or author.
	// Same slug routine as the cache key, so cache and comparison can never
	// disagree on normalization.
	for i := range candidates {
		candidate := &candidates[i]
		if textutil.Slug(candidate.BookTitleBare) == titleSlug ||
			textutil.Slug(candidate.Title) == titleSlug ||
			textutil.Slug(candidate.Author.Name) == authorSlug {
			return candidate, nil
		}
	}
	return nil, nil
}

// query runs one auto_complete request through the cache, retrying
// transient failures with linear backoff. Exhausted rate-limit retries
// surface as ErrRateLimited.
func (c *Client) query(ctx context.Context, key, search string) ([]Result, error) {
	body, err := c.cache.GetOrFill(key, func() ([]byte, error) {
		return retry.Do(ctx, c.attempts, c.baseDelay, func(ctx context.Context) ([]byte, error) {
			return c.fetcher.Fetch(ctx, c.searchURL(search))
		})
	})
	if err != nil {
		var statusErr *fetch.StatusError
		if errors.As(err, &statusErr) && statusErr.Transient() {
			return nil, fmt.Errorf("%w: %v", ErrRateLimited, err)
		}
		return nil, err
	}

	var candidates []Result
	if err := json.Unmarshal(body, &candidates); err != nil {
		return nil, fmt.Errorf("decode auto_complete response for %q: %w", search, err)
	}
	return candidates, nil
}

func (c *Client) searchURL(search string) string {
	return c.endpoint + "/book/auto_complete?format=json&q=" + url.QueryEscape(search)
}
