package lspinstall

import (
	"fmt"

	"github.com/jmgilman/go/lspinstall/internal/lsp"
	"github.com/jmgilman/go/lspinstall/internal/manifest"
	"github.com/jmgilman/go/lspinstall/version"
)

var (
	// ErrManifestUnavailable means neither the remote manifest nor a cached
	// copy could be read. Returned only when no fallback build exists either.
	ErrManifestUnavailable = manifest.ErrManifestUnavailable

	// ErrNoCompatibleVersion means the manifest has no build for this host in
	// the supported range.
	ErrNoCompatibleVersion = lsp.ErrNoCompatibleVersion

	// ErrNoFallbackAvailable means acquisition failed and nothing usable is
	// cached.
	ErrNoFallbackAvailable = lsp.ErrNoFallbackAvailable
)

// InstallError is returned by Install and Acquire for every failure except
// cancellation.
type InstallError struct {
	Server   string
	Range    version.Range
	Filename string
	Err      error
}

func (e *InstallError) Error() string {
	return fmt.Sprintf("failed to install %s (versions %s, file %s): %v", e.Server, e.Range, e.Filename, e.Err)
}

func (e *InstallError) Unwrap() error {
	return e.Err
}
