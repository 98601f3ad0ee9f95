package fetch

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/jmgilman/go/fs/core"
)

// FileFetcher reads resources from a filesystem.
// It accepts file: URIs and bare paths.
type FileFetcher struct {
	fs core.FS
}

// NewFileFetcher creates a FileFetcher backed by fs.
func NewFileFetcher(fs core.FS) *FileFetcher {
	return &FileFetcher{fs: fs}
}

// Fetch opens the file named by uri. Missing files, directories and
// unreadable files yield no result.
func (f *FileFetcher) Fetch(ctx context.Context, uri string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := LocalPath(uri)
	if err != nil {
		return nil, err
	}

	info, err := f.fs.Stat(path)
	if err != nil || info.IsDir() {
		return nil, nil
	}

	file, err := f.fs.Open(path)
	if err != nil {
		return nil, nil
	}

	return &Result{URI: uri, Path: path, Body: file}, nil
}

// LocalPath converts a file: URI or bare path into a filesystem path.
func LocalPath(uri string) (string, error) {
	if !strings.HasPrefix(strings.ToLower(uri), "file:") {
		if uri == "" {
			return "", fmt.Errorf("path cannot be empty")
		}
		return uri, nil
	}

	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("invalid file URI %q: %w", uri, err)
	}
	if u.Host != "" && u.Host != "localhost" {
		return "", fmt.Errorf("file URI %q must not name a remote host", uri)
	}

	path := u.Path
	if path == "" {
		path = u.Opaque
	}
	if path == "" {
		return "", fmt.Errorf("file URI %q has no path", uri)
	}

	// file:///C:/dir/file
	if len(path) > 2 && path[0] == '/' && path[2] == ':' {
		path = path[1:]
	}
	return path, nil
}
