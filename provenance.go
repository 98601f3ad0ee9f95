package lspinstall

import "github.com/jmgilman/go/lspinstall/internal/lsp"

// Provenance records how an installation was obtained.
type Provenance = lsp.Provenance

const (
	// ProvenanceLocalOverride is a path pinned in Settings.
	ProvenanceLocalOverride = lsp.ProvenanceLocalOverride
	// ProvenanceCache is the resolved build, already cached.
	ProvenanceCache = lsp.ProvenanceCache
	// ProvenanceRemote is the resolved build, downloaded by this call.
	ProvenanceRemote = lsp.ProvenanceRemote
	// ProvenanceFallback is an older cached build used because the resolved
	// build could not be obtained.
	ProvenanceFallback = lsp.ProvenanceFallback
)

// Installation is a usable build on disk.
type Installation struct {
	Path       string
	Version    string
	Provenance Provenance
}
