package lsp

import (
	platformerrors "github.com/jmgilman/go/errors"

	"github.com/jmgilman/go/lspinstall/internal/manifest"
	"github.com/jmgilman/go/lspinstall/version"
)

// Selection is the build chosen from a manifest.
type Selection struct {
	Version version.Version
	Target  manifest.Target
	Content manifest.Content
}

// Resolve selects the highest listed version in range that has a build for
// the host containing the configured filename. ErrNoCompatibleVersion is
// returned when nothing qualifies.
func (m *Manager) Resolve(schema *manifest.Schema) (Selection, error) {
	if schema == nil {
		return Selection{}, platformerrors.New(platformerrors.CodeInvalidInput, "manifest cannot be nil")
	}

	var best Selection
	found := false
	for _, v := range schema.Versions {
		if v.IsDelisted || !m.rng.Contains(v.Version) {
			continue
		}
		target, content, ok := v.Target(m.host.Platform, m.host.Arch, m.filename)
		if !ok {
			continue
		}
		if !found || best.Version.Less(v.Version) {
			best = Selection{Version: v.Version, Target: target, Content: content}
			found = true
		}
	}

	if !found {
		return Selection{}, platformerrors.WrapWithContext(ErrNoCompatibleVersion, platformerrors.CodeNotFound,
			"no manifest entry matches the host", map[string]interface{}{
				"server":   m.name,
				"range":    m.rng.String(),
				"platform": string(m.host.Platform),
				"arch":     m.host.Arch,
				"filename": m.filename,
			})
	}

	m.logger.Debug("resolved version", "version", best.Version.String(), "url", best.Content.URL)
	return best, nil
}
