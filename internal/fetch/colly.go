package fetch

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

// Config controls the shared HTTP client behavior.
type Config struct {
	UserAgent   string
	Timeout     time.Duration
	Parallelism int
}

// CollyFetcher implements Fetcher using the Colly collector.
type CollyFetcher struct {
	baseCollector *colly.Collector
	logger        *zap.Logger
}

// NewCollyFetcher constructs a configured Colly-based Fetcher.
func NewCollyFetcher(cfg Config, logger *zap.Logger) (*CollyFetcher, error) {
	base := colly.NewCollector(
		colly.Async(true),
		colly.UserAgent(cfg.UserAgent),
	)
	base.AllowURLRevisit = true
	base.WithTransport(&http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          128,
		MaxIdleConnsPerHost:   32,
		MaxConnsPerHost:       cfg.Parallelism * 2,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.Timeout,
		ForceAttemptHTTP2:     true,
	})
	base.SetRequestTimeout(cfg.Timeout)

	if err := base.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: max(1, cfg.Parallelism),
	}); err != nil {
		return nil, err
	}

	return &CollyFetcher{
		baseCollector: base,
		logger:        logger,
	}, nil
}

type fetchResult struct {
	body []byte
	err  error
}

// Fetch retrieves a URL via a clone of the base collector. Non-2xx statuses
// come back as *StatusError.
func (f *CollyFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	collector := f.baseCollector.Clone()
	resultCh := make(chan fetchResult, 1)
	var once sync.Once
	send := func(res fetchResult) {
		once.Do(func() {
			resultCh <- res
		})
	}

	collector.OnResponse(func(r *colly.Response) {
		send(fetchResult{body: append([]byte{}, r.Body...)})
	})

	collector.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			send(fetchResult{err: &StatusError{URL: rawURL, StatusCode: r.StatusCode}})
			return
		}
		if err == nil {
			err = errors.New("unknown colly error")
		}
		send(fetchResult{err: err})
	})

	if err := collector.Visit(rawURL); err != nil {
		return nil, err
	}
	collector.Wait()

	select {
	case res := <-resultCh:
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if res.err != nil {
			f.logger.Debug("fetch failed", zap.String("url", rawURL), zap.Error(res.err))
			return nil, res.err
		}
		return res.body, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
