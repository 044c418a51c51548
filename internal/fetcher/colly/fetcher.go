// Package colly implements the HTTP content fetcher on top of the Colly
// collector. It performs exactly one GET per call and carries no retry logic;
// retries belong to the engine.
package colly

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/fasrc/a2rchi-sitemap-ripper/internal/ripper"
)

// Config controls transport behavior for the fetcher.
type Config struct {
	UserAgent       string
	RequestTimeout  time.Duration
	MaxConnsPerHost int
}

// Fetcher implements ripper.Fetcher using a shared base collector that is
// cloned per request.
type Fetcher struct {
	baseCollector *colly.Collector
	logger        *zap.Logger
}

var _ ripper.Fetcher = (*Fetcher)(nil)

// New constructs a configured Colly-based Fetcher.
func New(cfg Config, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Second
	}
	if cfg.MaxConnsPerHost <= 0 {
		cfg.MaxConnsPerHost = 16
	}

	base := colly.NewCollector(colly.UserAgent(cfg.UserAgent))
	base.AllowURLRevisit = true
	base.WithTransport(&http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          64,
		MaxIdleConnsPerHost:   cfg.MaxConnsPerHost,
		MaxConnsPerHost:       cfg.MaxConnsPerHost,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.RequestTimeout,
		ForceAttemptHTTP2:     true,
	})
	base.SetRequestTimeout(cfg.RequestTimeout)

	return &Fetcher{
		baseCollector: base,
		logger:        logger,
	}
}

// Fetch retrieves the URL and returns the response body. Non-2xx statuses and
// transport failures are reported as *ripper.FetchError.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
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
		if err == nil {
			err = errors.New("unknown colly error")
		}
		status := 0
		if r != nil {
			status = r.StatusCode
		}
		send(fetchResult{err: &ripper.FetchError{URL: rawURL, StatusCode: status, Err: err}})
	})

	visitErr := collector.Visit(rawURL)
	collector.Wait()

	// Visit also returns an error for non-2xx responses, after OnError has
	// run; prefer the queued result because it carries the status code.
	select {
	case res := <-resultCh:
		if err := ctx.Err(); err != nil {
			return nil, &ripper.FetchError{URL: rawURL, Err: err}
		}
		return res.body, res.err
	default:
		if visitErr == nil {
			visitErr = errors.New("fetch produced no result")
		}
		return nil, &ripper.FetchError{URL: rawURL, Err: visitErr}
	}
}

type fetchResult struct {
	body []byte
	err  error
}
