package fetch

import (
	"context"
	"io"
)

//go:generate go run github.com/matryer/moq@v0.5.3 -pkg mocks -out mocks/fetcher.go . Fetcher

// Fetcher retrieves the resource identified by uri.
//
// A nil Result with a nil error means "no result": the resource could not be
// obtained for an expected reason. A non-nil error is returned only for
// cancellation and for configuration errors. When a Result is returned the
// caller must Close it.
type Fetcher interface {
	Fetch(ctx context.Context, uri string) (*Result, error)
}

// FetcherFunc adapts an ordinary function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, uri string) (*Result, error)

// Fetch calls f(ctx, uri).
func (f FetcherFunc) Fetch(ctx context.Context, uri string) (*Result, error) {
	return f(ctx, uri)
}

// Result is a successfully fetched resource.
type Result struct {
	// URI is the resource that was requested.
	URI string

	// Path is where the bytes are materialised on the filesystem.
	// Empty when the body streams from a non-filesystem source.
	Path string

	// Body streams the resource content.
	Body io.ReadCloser
}

// Close releases the body.
func (r *Result) Close() error {
	if r == nil || r.Body == nil {
		return nil
	}
	return r.Body.Close()
}

// Predicate decides whether fetched content is acceptable.
// Returning false rejects the content; an error aborts the fetch.
type Predicate func(ctx context.Context, r io.Reader) (bool, error)

// DestinationFunc maps a requested URI to a filesystem path.
type DestinationFunc func(uri string) string

// StaticDestination returns a DestinationFunc that always yields path.
func StaticDestination(path string) DestinationFunc {
	return func(string) string { return path }
}
