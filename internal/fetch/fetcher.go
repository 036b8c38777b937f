// Package fetch provides the two page-retrieval paths: a cheap Colly-based
// HTTP fetcher and a chromedp-based headless renderer, plus the detector that
// decides when a page must be promoted from the first to the second.
package fetch

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"jobsift/internal/crawler"
)

// Config controls both retrieval paths.
type Config struct {
	UserAgent          string
	RequestTimeout     time.Duration
	Concurrency        int
	DelayPerHost       time.Duration
	RenderTimeout      time.Duration
	RenderConcurrency  int
	RenderHostQPS      float64
	DetectMinHTMLBytes int
	DetectKeywords     []string
	DetectSelectors    []string
}

// CollyFetcher implements crawler.Fetcher over a shared Colly collector.
type CollyFetcher struct {
	base   *colly.Collector
	logger *zap.Logger
}

// NewCollyFetcher constructs a fetcher with a tuned transport and per-host
// politeness delay.
func NewCollyFetcher(cfg Config, logger *zap.Logger) (*CollyFetcher, error) {
	if cfg.UserAgent == "" {
		return nil, errors.New("fetch.user_agent is required")
	}
	if cfg.RequestTimeout <= 0 {
		return nil, errors.New("fetch.request_timeout must be > 0")
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	base := colly.NewCollector(
		colly.Async(true),
		colly.UserAgent(cfg.UserAgent),
	)
	base.AllowURLRevisit = false
	base.WithTransport(&http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          64,
		MaxIdleConnsPerHost:   16,
		MaxConnsPerHost:       cfg.Concurrency * 2,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.RequestTimeout,
		ForceAttemptHTTP2:     true,
	})
	base.SetRequestTimeout(cfg.RequestTimeout)

	if err := base.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: cfg.Concurrency,
		Delay:       cfg.DelayPerHost,
		RandomDelay: cfg.DelayPerHost / 2,
	}); err != nil {
		return nil, err
	}

	return &CollyFetcher{base: base, logger: logger}, nil
}

type fetchResult struct {
	page crawler.Page
	err  error
}

// Fetch retrieves rawURL on a clone of the base collector. Redirects are
// followed; the final URL lands in Page.FinalURL.
func (f *CollyFetcher) Fetch(ctx context.Context, rawURL string) (crawler.Page, error) {
	collector := f.base.Clone()
	resultCh := make(chan fetchResult, 1)
	var once sync.Once
	send := func(res fetchResult) {
		once.Do(func() { resultCh <- res })
	}

	started := time.Now()
	collector.OnResponse(func(r *colly.Response) {
		headers := http.Header{}
		if r.Headers != nil {
			for k, v := range *r.Headers {
				headers[k] = append([]string(nil), v...)
			}
		}
		send(fetchResult{page: crawler.Page{
			URL:        rawURL,
			FinalURL:   r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Headers:    headers,
			Body:       append([]byte(nil), r.Body...),
			Duration:   time.Since(started),
		}})
	})
	collector.OnError(func(r *colly.Response, err error) {
		if err == nil {
			err = errors.New("unknown colly error")
		}
		if r != nil && r.StatusCode != 0 {
			send(fetchResult{page: crawler.Page{
				URL:        rawURL,
				FinalURL:   r.Request.URL.String(),
				StatusCode: r.StatusCode,
				Duration:   time.Since(started),
			}})
			return
		}
		send(fetchResult{err: err})
	})

	if err := collector.Visit(rawURL); err != nil {
		return crawler.Page{}, err
	}
	collector.Wait()

	select {
	case res := <-resultCh:
		if err := ctx.Err(); err != nil {
			return crawler.Page{}, err
		}
		return res.page, res.err
	default:
		return crawler.Page{}, errors.New("fetch produced no result")
	}
}
