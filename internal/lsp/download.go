package lsp

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	platformerrors "github.com/jmgilman/go/errors"

	"github.com/jmgilman/go/lspinstall/internal/fetch"
	"github.com/jmgilman/go/lspinstall/internal/manifest"
	"github.com/jmgilman/go/lspinstall/version"
)

// Download resolves the build for schema and makes it available on disk.
//
// A build already at its canonical path is returned without any network
// access. Otherwise it is downloaded and verified. If that fails for any
// reason other than cancellation, the newest cached build in range that is
// not newer than the resolved version is returned instead.
func (m *Manager) Download(ctx context.Context, schema *manifest.Schema) (Installation, error) {
	if err := ctx.Err(); err != nil {
		return Installation{}, err
	}

	sel, err := m.Resolve(schema)
	if err != nil {
		return Installation{}, err
	}

	canonical := m.Path(sel.Version)
	exists, err := m.fs.Exists(canonical)
	if err != nil {
		m.logger.Debug("failed to check cached build", "path", canonical, "error", err)
	}
	if exists {
		m.logger.Debug("using cached build", "version", sel.Version.String(), "path", canonical)
		return Installation{Path: canonical, Version: sel.Version, Provenance: ProvenanceCache}, nil
	}

	ok, err := m.acquire(ctx, sel)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Installation{}, ctxErr
		}
		m.logger.Warn("download failed", "version", sel.Version.String(), "error", err)
	}
	if ok {
		m.status(fmt.Sprintf("Installed %s %s", m.name, sel.Version))
		return Installation{Path: canonical, Version: sel.Version, Provenance: ProvenanceRemote}, nil
	}

	m.logger.Warn("unable to acquire resolved version, looking for a cached fallback", "version", sel.Version.String())
	ceiling := sel.Version
	return m.Fallback(ctx, &ceiling)
}

// errFlightCancelled reports that the caller running a shared download was
// cancelled before it finished.
var errFlightCancelled = errors.New("shared download cancelled")

// acquire runs the verified download pipeline for sel. Concurrent calls for
// the same canonical path share one download. A caller whose own context is
// live starts a new download when the shared one was cancelled by another
// caller.
func (m *Manager) acquire(ctx context.Context, sel Selection) (bool, error) {
	canonical := m.Path(sel.Version)
	for {
		ch := m.group.DoChan(canonical, func() (interface{}, error) {
			ok, err := m.download(ctx, sel)
			if ctx.Err() != nil {
				return false, errFlightCancelled
			}
			return ok, err
		})

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case r := <-ch:
			if errors.Is(r.Err, errFlightCancelled) {
				if err := ctx.Err(); err != nil {
					return false, err
				}
				m.logger.Debug("shared download was cancelled, retrying", "version", sel.Version.String())
				continue
			}
			if r.Err != nil {
				return false, r.Err
			}
			return r.Val.(bool), nil
		}
	}
}

// download fetches sel into a private staging file, verifies its SHA-384
// digest, and moves it to the canonical path. A false result without error
// means the build could not be obtained.
func (m *Manager) download(ctx context.Context, sel Selection) (bool, error) {
	canonical := m.Path(sel.Version)
	private := filepath.Join(m.stager.Dir(), "download-"+uuid.NewString())
	defer func() {
		if err := m.fs.RemoveAll(private); err != nil {
			m.logger.Debug("failed to remove staging directory", "path", private, "error", err)
		}
	}()

	logger := m.logger.With("version", sel.Version.String())
	m.status(fmt.Sprintf("Downloading %s %s", m.name, sel.Version))

	pipeline := fetch.NewCaching(
		fetch.NewConditional(
			fetch.NewCaching(m.fetcher, m.stager, fetch.StaticDestination(filepath.Join(private, m.filename)), logger),
			m.fs,
			fetch.SHA384Predicate(sel.Content.Hashes),
			logger,
		),
		m.stager, fetch.StaticDestination(canonical), logger,
	)

	res, err := pipeline.Fetch(ctx, sel.Content.URL)
	if err != nil {
		return false, err
	}
	if res == nil {
		return false, nil
	}
	if err := res.Close(); err != nil {
		logger.Debug("failed to close downloaded build", "error", err)
	}

	if err := ctx.Err(); err != nil {
		return false, err
	}
	logger.Info("downloaded build", "path", canonical)
	return true, nil
}

// Fallback returns the newest cached build whose version is in range and not
// newer than ceiling. A nil ceiling accepts any version in range.
// ErrNoFallbackAvailable is returned when none exists.
func (m *Manager) Fallback(ctx context.Context, ceiling *version.Version) (Installation, error) {
	if err := ctx.Err(); err != nil {
		return Installation{}, err
	}

	candidates := m.cachedVersions()
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[j].Less(candidates[i])
	})

	for _, v := range candidates {
		if !m.rng.Contains(v) {
			continue
		}
		if ceiling != nil && ceiling.Less(v) {
			continue
		}

		path := m.Path(v)
		info, err := m.fs.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}

		m.logger.Warn("using fallback version", "version", v.String(), "path", path)
		m.status(fmt.Sprintf("Using cached %s %s", m.name, v))
		return Installation{Path: path, Version: v, Provenance: ProvenanceFallback}, nil
	}

	fields := map[string]interface{}{
		"server":   m.name,
		"range":    m.rng.String(),
		"root":     m.root,
		"filename": m.filename,
	}
	if ceiling != nil {
		fields["ceiling"] = ceiling.String()
	}
	return Installation{}, platformerrors.WrapWithContext(ErrNoFallbackAvailable, platformerrors.CodeUnavailable,
		"no cached build can be used", fields)
}

// cachedVersions lists the version directories under the download root.
// Entries that are not directories or do not parse as versions are ignored.
func (m *Manager) cachedVersions() []version.Version {
	entries, err := m.fs.ReadDir(m.root)
	if err != nil {
		if !isNotExist(err) {
			m.logger.Warn("failed to list download root", "path", m.root, "error", err)
		}
		return nil
	}

	var out []version.Version
	for _, e := range entries {
		if !e.IsDir() || e.Name() == StagingDir {
			continue
		}
		v, err := version.Parse(e.Name())
		if err != nil {
			continue
		}
		// Only directories named in canonical form map back to Path.
		if v.String() != e.Name() {
			continue
		}
		out = append(out, v)
	}
	return out
}

func isNotExist(err error) bool {
	return platformerrors.Is(err, fs.ErrNotExist)
}
