// Package lspinstall acquires and version-manages an external language server
// binary.
//
// An Installer resolves the newest build that is compatible with the host and
// a supported version range, and makes it available on disk. Sources are
// consulted in priority order:
//
//  1. a local override path from Settings
//  2. the build already cached at its canonical path
//  3. a download verified against the manifest's SHA-384 digest
//  4. the newest compatible build already cached (fallback)
//
// Basic usage:
//
//	installer, err := lspinstall.New(
//	    lspinstall.WithLogger(logger),
//	    lspinstall.WithSettings(settings),
//	)
//	if err != nil {
//	    return err
//	}
//	defer installer.Close()
//
//	rng, _ := version.ParseRange("1.0.0", "2.0.0")
//	path, err := installer.Install(ctx, lspinstall.InstallOptions{
//	    Name:              "codewhisperer",
//	    ManifestURL:       "https://example.com/lsp/manifest.json",
//	    SupportedVersions: rng,
//	    Filename:          "aws-lsp-codewhisperer",
//	    DownloadRoot:      "/home/user/.cache/lsp/codewhisperer",
//	})
//
// After a successful install the cache is pruned in the background once the
// cleanup delay has elapsed. Close cancels pending cleanups.
//
// Errors other than cancellation are returned as *InstallError. Use
// errors.Is with ErrManifestUnavailable, ErrNoCompatibleVersion and
// ErrNoFallbackAvailable to classify them.
package lspinstall
