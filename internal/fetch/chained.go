package fetch

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Chained routes each request to the source registered for the URI scheme.
// Bare paths and Windows drive paths route to the "file" source.
type Chained struct {
	sources map[string]Fetcher
}

// NewChained creates an empty Chained fetcher.
func NewChained() *Chained {
	return &Chained{sources: make(map[string]Fetcher)}
}

// Register associates scheme with f, replacing any previous source.
func (c *Chained) Register(scheme string, f Fetcher) *Chained {
	c.sources[strings.ToLower(scheme)] = f
	return c
}

// Fetch dispatches to the source for uri's scheme. An unregistered scheme is
// a configuration error.
func (c *Chained) Fetch(ctx context.Context, uri string) (*Result, error) {
	scheme := Scheme(uri)
	source, ok := c.sources[scheme]
	if !ok {
		return nil, fmt.Errorf("unsupported URI scheme %q in %q", scheme, uri)
	}
	return source.Fetch(ctx, uri)
}

// Scheme returns the lowercased scheme of uri, or "file" for paths.
func Scheme(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || len(u.Scheme) <= 1 {
		return "file"
	}
	return strings.ToLower(u.Scheme)
}
