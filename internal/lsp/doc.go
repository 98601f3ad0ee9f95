// Package lsp resolves, acquires and maintains cached builds of a language
// server described by a manifest.
//
// Builds are stored under a per-server download root:
//
//	<root>/<version>/<filename>
//	<root>/.staging/         (in-flight downloads)
//
// A Manager resolves the newest compatible build for the host, returns it
// directly when it is already cached, and otherwise downloads it through a
// pipeline that verifies the manifest's SHA-384 digest before the file is
// moved into place. When acquisition fails for any reason other than
// cancellation, the newest compatible build already on disk is used instead.
//
// Cleanup implements the retention policy: versions delisted upstream are
// removed and at most two in-range versions are kept.
package lsp
