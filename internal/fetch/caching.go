package fetch

import (
	"context"
	"log/slog"
)

// Caching persists a successful inner fetch to a destination and returns a
// stream read back from that destination.
type Caching struct {
	inner  Fetcher
	stager *Stager
	dest   DestinationFunc
	logger *slog.Logger
}

// NewCaching wraps inner so that results are written to dest(uri) via stager.
func NewCaching(inner Fetcher, stager *Stager, dest DestinationFunc, logger *slog.Logger) *Caching {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Caching{inner: inner, stager: stager, dest: dest, logger: logger}
}

// Fetch runs the inner fetcher and persists its stream. A failed write yields
// no result and leaves the destination untouched.
func (c *Caching) Fetch(ctx context.Context, uri string) (*Result, error) {
	res, err := c.inner.Fetch(ctx, uri)
	if err != nil || res == nil {
		return nil, err
	}
	defer func() { _ = res.Close() }()

	dest := c.dest(uri)
	n, err := c.stager.Write(ctx, dest, res.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logger.Warn("failed to persist resource", "uri", uri, "path", dest, "error", err)
		return nil, nil
	}
	c.logger.Debug("persisted resource", "uri", uri, "path", dest, "size", n)

	f, err := c.stager.FS().Open(dest)
	if err != nil {
		c.logger.Warn("failed to reopen persisted resource", "path", dest, "error", err)
		return nil, nil
	}
	return &Result{URI: uri, Path: dest, Body: f}, nil
}
