package fetch

import (
	"bytes"
	"context"
	"io"
	"log/slog"

	"github.com/jmgilman/go/fs/core"
)

// Conditional accepts an inner result only if a Predicate approves its bytes.
//
// When fs is set and the inner result is materialised on it, the file is
// validated in place, reopened on success and removed on rejection.
// Otherwise the content is buffered in memory.
type Conditional struct {
	inner     Fetcher
	fs        core.FS
	predicate Predicate
	logger    *slog.Logger
}

// NewConditional wraps inner with predicate. fs may be nil.
func NewConditional(inner Fetcher, fs core.FS, predicate Predicate, logger *slog.Logger) *Conditional {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Conditional{inner: inner, fs: fs, predicate: predicate, logger: logger}
}

// Fetch runs the inner fetcher and validates the result.
func (c *Conditional) Fetch(ctx context.Context, uri string) (*Result, error) {
	res, err := c.inner.Fetch(ctx, uri)
	if err != nil || res == nil {
		return nil, err
	}

	if c.fs != nil && res.Path != "" {
		return c.fetchFile(ctx, res)
	}
	return c.fetchBuffered(ctx, res)
}

func (c *Conditional) fetchFile(ctx context.Context, res *Result) (*Result, error) {
	ok, err := c.check(ctx, res.Body)
	_ = res.Close()
	if err != nil {
		return nil, err
	}
	if !ok {
		c.logger.Warn("rejected resource", "uri", res.URI, "path", res.Path)
		if rmErr := c.fs.Remove(res.Path); rmErr != nil {
			c.logger.Debug("failed to remove rejected resource", "path", res.Path, "error", rmErr)
		}
		return nil, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := c.fs.Open(res.Path)
	if err != nil {
		c.logger.Warn("failed to reopen validated resource", "path", res.Path, "error", err)
		return nil, nil
	}
	return &Result{URI: res.URI, Path: res.Path, Body: f}, nil
}

func (c *Conditional) fetchBuffered(ctx context.Context, res *Result) (*Result, error) {
	data, readErr := io.ReadAll(&contextReader{ctx: ctx, r: res.Body})
	_ = res.Close()
	if readErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logger.Debug("failed to read resource", "uri", res.URI, "error", readErr)
		return nil, nil
	}

	ok, err := c.check(ctx, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if !ok {
		c.logger.Warn("rejected resource", "uri", res.URI)
		return nil, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Result{URI: res.URI, Body: io.NopCloser(bytes.NewReader(data))}, nil
}

// check runs the predicate. Only cancellation escapes as an error; any other
// predicate failure counts as a rejection.
func (c *Conditional) check(ctx context.Context, r io.Reader) (bool, error) {
	ok, err := c.predicate(ctx, r)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, ctxErr
		}
		c.logger.Debug("predicate failed", "error", err)
		return false, nil
	}
	return ok, nil
}
