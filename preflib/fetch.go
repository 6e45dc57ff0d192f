package preflib

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/poiesic/maniplib/core"
	"github.com/poiesic/maniplib/storage"
	"golang.org/x/time/rate"
)

const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = 500 * time.Millisecond
	defaultRate        = 2.0
	defaultBurst       = 4
	maxBodySize        = 64 << 20
)

// Fetcher downloads election files. Requests are rate limited and retried
// with exponential backoff; downloaded files are stored in an optional cache
// and served from it afterwards.
type Fetcher struct {
	client      *http.Client
	limiter     *rate.Limiter
	cache       storage.DatasetRepository
	maxAttempts int
	baseDelay   time.Duration
	maxBody     int64
	logger      *slog.Logger
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher) error

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *Fetcher) error {
		if client == nil {
			return errors.New("http client cannot be nil")
		}
		f.client = client
		return nil
	}
}

// WithRateLimit limits requests to perSecond with the given burst.
func WithRateLimit(perSecond float64, burst int) FetcherOption {
	return func(f *Fetcher) error {
		if perSecond <= 0 || burst < 1 {
			return fmt.Errorf("invalid rate limit %v/%d", perSecond, burst)
		}
		f.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		return nil
	}
}

// WithRetry sets the number of attempts and the delay before the first retry.
func WithRetry(maxAttempts int, baseDelay time.Duration) FetcherOption {
	return func(f *Fetcher) error {
		if maxAttempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		f.maxAttempts = maxAttempts
		f.baseDelay = baseDelay
		return nil
	}
}

// WithMaxBodySize rejects response bodies larger than n bytes.
func WithMaxBodySize(n int64) FetcherOption {
	return func(f *Fetcher) error {
		if n <= 0 {
			return fmt.Errorf("invalid max body size %d", n)
		}
		f.maxBody = n
		return nil
	}
}

// WithCache stores fetched files in repo and reads them back on later fetches.
func WithCache(repo storage.DatasetRepository) FetcherOption {
	return func(f *Fetcher) error {
		f.cache = repo
		return nil
	}
}

// WithLogger sets the fetcher's logger.
func WithLogger(logger *slog.Logger) FetcherOption {
	return func(f *Fetcher) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		f.logger = logger
		return nil
	}
}

// NewFetcher creates a fetcher with the given options.
func NewFetcher(opts ...FetcherOption) (*Fetcher, error) {
	f := &Fetcher{
		client:      &http.Client{Timeout: time.Minute},
		limiter:     rate.NewLimiter(rate.Limit(defaultRate), defaultBurst),
		maxAttempts: defaultMaxAttempts,
		baseDelay:   defaultBaseDelay,
		maxBody:     maxBodySize,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(f); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Fetch downloads and parses the election at url.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*core.Profile, error) {
	data, err := f.FetchRaw(ctx, url)
	if err != nil {
		return nil, err
	}
	profile, err := Read(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", url, err)
	}
	return profile, nil
}

// FetchRaw returns the unparsed election file at url.
func (f *Fetcher) FetchRaw(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, ErrEmptyURL
	}

	if f.cache != nil {
		dataset, err := f.cache.GetDataset(ctx, url)
		switch {
		case err == nil:
			f.logger.Debug("dataset cache hit", "url", url)
			return dataset.Data, nil
		case !errors.Is(err, storage.ErrNotFound):
			return nil, err
		}
	}

	var data []byte
	err := retryWithBackoff(ctx, f.logger, func() error {
		var err error
		data, err = f.get(ctx, url)
		return err
	}, f.maxAttempts, f.baseDelay)
	if err != nil {
		return nil, err
	}
	f.logger.Info("fetched dataset", "url", url, "bytes", len(data))

	if f.cache != nil {
		if _, err := f.cache.PutDataset(ctx, &core.Dataset{URL: url, Data: data}); err != nil {
			f.logger.Warn("failed to cache dataset", "url", url, "error", err)
		}
	}
	return data, nil
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{URL: url, Code: resp.StatusCode}
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > f.maxBody {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrBodyTooLarge, url, f.maxBody)
	}
	return data, nil
}
