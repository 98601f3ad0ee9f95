package lsp

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jmgilman/go/lspinstall/internal/manifest"
	"github.com/jmgilman/go/lspinstall/version"
)

const (
	// RetainedVersions is the number of in-range cached versions kept.
	RetainedVersions = 2

	// StaleStagingAge is how old a staging entry must be before Cleanup
	// removes it. Younger entries may belong to a download in progress.
	StaleStagingAge = time.Hour
)

// Cleanup applies the retention policy to the download root:
//
//   - in-range versions that schema no longer lists are removed
//   - of the remaining in-range versions only the newest RetainedVersions are kept
//   - abandoned staging entries are removed
//
// Versions outside the range are never touched, nor is the directory holding
// keep. Failures are logged and otherwise ignored.
func (m *Manager) Cleanup(ctx context.Context, schema *manifest.Schema, keep string) {
	logger := m.logger.With("operation", "cleanup")

	listed := make(map[string]bool)
	if schema != nil {
		for _, v := range schema.Listed(m.rng) {
			listed[v.String()] = true
		}
	}
	protected := m.protectedVersion(keep)

	// Delisted upstream
	var retained []version.Version
	for _, v := range m.cachedVersions() {
		if !m.rng.Contains(v) {
			continue
		}
		if schema != nil && !listed[v.String()] && v.String() != protected {
			if ctx.Err() != nil {
				logger.Debug("cleanup cancelled")
				return
			}
			m.removeVersion(v, "delisted")
			continue
		}
		retained = append(retained, v)
	}

	// Retention window; the protected version occupies one slot.
	sort.Slice(retained, func(i, j int) bool {
		return retained[j].Less(retained[i])
	})
	slots := RetainedVersions
	for _, v := range retained {
		if v.String() == protected {
			slots--
		}
	}
	for _, v := range retained {
		if v.String() == protected {
			continue
		}
		if slots > 0 {
			slots--
			continue
		}
		if ctx.Err() != nil {
			logger.Debug("cleanup cancelled")
			return
		}
		m.removeVersion(v, "outside retention window")
	}

	m.cleanStaging(ctx)
}

// protectedVersion returns the version directory name holding keep, or ""
// when keep is not a canonical path under the download root.
func (m *Manager) protectedVersion(keep string) string {
	if keep == "" {
		return ""
	}
	rel, err := filepath.Rel(m.root, filepath.Clean(keep))
	if err != nil || strings.HasPrefix(rel, "..") {
		return ""
	}
	dir := strings.Split(filepath.ToSlash(rel), "/")[0]
	v, err := version.Parse(dir)
	if err != nil || v.String() != dir {
		return ""
	}
	return dir
}

func (m *Manager) removeVersion(v version.Version, reason string) {
	dir := filepath.Join(m.root, v.String())
	if err := m.fs.RemoveAll(dir); err != nil {
		m.logger.Warn("failed to remove cached version", "version", v.String(), "path", dir, "reason", reason, "error", err)
		return
	}
	m.logger.Info("removed cached version", "version", v.String(), "reason", reason)
}

// cleanStaging removes staging entries older than StaleStagingAge.
func (m *Manager) cleanStaging(ctx context.Context) {
	dir := m.stager.Dir()
	entries, err := m.fs.ReadDir(dir)
	if err != nil {
		if !isNotExist(err) {
			m.logger.Warn("failed to list staging directory", "path", dir, "error", err)
		}
		return
	}

	cutoff := time.Now().Add(-StaleStagingAge)
	for _, e := range entries {
		if ctx.Err() != nil {
			return
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if err := m.fs.RemoveAll(path); err != nil {
			m.logger.Warn("failed to remove stale staging entry", "path", path, "error", err)
			continue
		}
		m.logger.Debug("removed stale staging entry", "path", path)
	}
}
