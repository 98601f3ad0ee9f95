package fetch

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/jmgilman/go/fs/core"
)

// Stager writes files atomically by staging them in a private directory and
// renaming them into their final location.
//
// The staging directory must live on the same filesystem as every destination
// so the rename is atomic. Concurrent writers to the same destination never
// interleave: each stages its own copy and the last rename wins with a
// complete file.
type Stager struct {
	fs  core.FS
	dir string
}

// NewStager creates a Stager that stages under dir.
func NewStager(fs core.FS, dir string) (*Stager, error) {
	if fs == nil {
		return nil, fmt.Errorf("filesystem cannot be nil")
	}
	if dir == "" {
		return nil, fmt.Errorf("staging directory cannot be empty")
	}
	return &Stager{fs: fs, dir: dir}, nil
}

// Dir returns the staging directory.
func (s *Stager) Dir() string {
	return s.dir
}

// FS returns the filesystem the stager writes to.
func (s *Stager) FS() core.FS {
	return s.fs
}

// Write copies r into dest. Either the complete content appears at dest or
// dest is left untouched.
func (s *Stager) Write(ctx context.Context, dest string, r io.Reader) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	tempDir := filepath.Join(s.dir, uuid.NewString())
	if err := s.fs.MkdirAll(tempDir, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer func() { _ = s.fs.RemoveAll(tempDir) }()

	tempFile := filepath.Join(tempDir, filepath.Base(dest))
	n, err := s.writeFile(ctx, tempFile, r)
	if err != nil {
		return 0, err
	}

	// Do not publish content for a request that was cancelled mid-copy.
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	if err := s.fs.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, fmt.Errorf("failed to create directory %q: %w", filepath.Dir(dest), err)
	}
	if err := s.fs.Rename(tempFile, dest); err != nil {
		return 0, fmt.Errorf("failed to rename staged file to %q: %w", dest, err)
	}

	return n, nil
}

func (s *Stager) writeFile(ctx context.Context, path string, r io.Reader) (int64, error) {
	f, err := s.fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o755)
	if err != nil {
		return 0, fmt.Errorf("failed to create staged file %q: %w", path, err)
	}

	n, copyErr := io.Copy(f, &contextReader{ctx: ctx, r: r})
	if copyErr == nil {
		if syncer, ok := f.(core.Syncer); ok {
			copyErr = syncer.Sync()
		}
	}
	closeErr := f.Close()

	if copyErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, ctxErr
		}
		return 0, fmt.Errorf("failed to write staged file: %w", copyErr)
	}
	if closeErr != nil {
		return 0, fmt.Errorf("failed to close staged file: %w", closeErr)
	}
	return n, nil
}

// contextReader stops a copy once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
