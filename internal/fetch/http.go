package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// DefaultHTTPTimeout bounds a single remote fetch, including reading the body.
const DefaultHTTPTimeout = 2 * time.Minute

// HTTPFetcher retrieves resources with an HTTP GET.
// Every request is bounded by a timeout; the returned body aborts the transfer
// when closed or when the caller's context is cancelled.
type HTTPFetcher struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
	logger    *slog.Logger
}

// HTTPOption configures an HTTPFetcher.
type HTTPOption func(*HTTPFetcher)

// WithClient sets the HTTP client used for requests.
func WithClient(client *http.Client) HTTPOption {
	return func(f *HTTPFetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithTimeout bounds each request. Non-positive values keep the default.
func WithTimeout(timeout time.Duration) HTTPOption {
	return func(f *HTTPFetcher) {
		if timeout > 0 {
			f.timeout = timeout
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) HTTPOption {
	return func(f *HTTPFetcher) {
		f.userAgent = ua
	}
}

// WithHTTPLogger sets the logger for transfer diagnostics.
func WithHTTPLogger(logger *slog.Logger) HTTPOption {
	return func(f *HTTPFetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewHTTPFetcher creates an HTTPFetcher.
func NewHTTPFetcher(opts ...HTTPOption) *HTTPFetcher {
	f := &HTTPFetcher{
		client:    &http.Client{},
		timeout:   DefaultHTTPTimeout,
		userAgent: "lspinstall",
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch performs the GET. Transport failures, non-2xx responses and timeouts
// yield no result; cancellation of ctx is returned as an error.
func (f *HTTPFetcher) Fetch(ctx context.Context, uri string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reqCtx, cancel := context.WithTimeout(ctx, f.timeout)
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, uri, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("invalid request for %q: %w", uri, err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		cancel()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		f.logger.Debug("request failed", "uri", uri, "error", err)
		return nil, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
		cancel()
		f.logger.Debug("unexpected status", "uri", uri, "status", resp.StatusCode)
		return nil, nil
	}

	return &Result{
		URI:  uri,
		Body: &cancelOnClose{ReadCloser: resp.Body, cancel: cancel},
	}, nil
}

// cancelOnClose releases the request context when the body is closed.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}
