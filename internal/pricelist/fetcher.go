package pricelist

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var (
	ErrInvalidURL       = errors.New("price list url must be an absolute http(s) url")
	ErrDocumentTooLarge = errors.New("price list document exceeds the size limit")
	ErrFetchFailed      = errors.New("failed to download price list")
)

// FetcherConfig tunes outbound downloads
type FetcherConfig struct {
	Timeout          time.Duration
	MaxDocumentBytes int64
	RatePerMinute    int
}

// Fetcher downloads price lists published by shops
type Fetcher struct {
	client   *resty.Client
	limiter  *rate.Limiter
	maxBytes int64
	logger   *zap.Logger
}

// NewFetcher creates a Fetcher. Requests beyond RatePerMinute wait for a token.
func NewFetcher(cfg FetcherConfig, logger *zap.Logger) *Fetcher {
	perMinute := cfg.RatePerMinute
	if perMinute <= 0 {
		perMinute = 30
	}

	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", "supplier-catalog/1.0").
		SetHeader("Accept", "application/x-yaml, application/yaml, application/json, text/plain, */*").
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(5))

	// Stop reading the body once it passes the limit
	if cfg.MaxDocumentBytes > 0 {
		client.SetResponseBodyLimit(int(cfg.MaxDocumentBytes))
	}

	return &Fetcher{
		client:   client,
		limiter:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute),
		maxBytes: cfg.MaxDocumentBytes,
		logger:   logger,
	}
}

// ValidateURL accepts absolute http and https urls only
func ValidateURL(raw string) error {
	u, err := url.ParseRequestURI(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return ErrInvalidURL
	}
	return nil
}

// Fetch downloads the raw document at rawURL
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if err := ValidateURL(rawURL); err != nil {
		return nil, err
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	start := time.Now()
	resp, err := f.client.R().
		SetContext(ctx).
		Get(rawURL)
	if errors.Is(err, resty.ErrResponseBodyTooLarge) {
		f.logger.Warn("Price list download exceeds the size limit",
			zap.String("url", rawURL),
			zap.Int64("limit", f.maxBytes),
		)
		return nil, ErrDocumentTooLarge
	}
	if err != nil {
		f.logger.Warn("Price list download failed", zap.String("url", rawURL), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	if resp.StatusCode() != http.StatusOK {
		f.logger.Warn("Price list download returned unexpected status",
			zap.String("url", rawURL),
			zap.Int("status", resp.StatusCode()),
		)
		return nil, fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode())
	}

	body := resp.Body()
	if f.maxBytes > 0 && int64(len(body)) > f.maxBytes {
		return nil, ErrDocumentTooLarge
	}

	f.logger.Debug("Price list downloaded",
		zap.String("url", rawURL),
		zap.Int("bytes", len(body)),
		zap.Duration("duration", time.Since(start)),
	)

	return body, nil
}
