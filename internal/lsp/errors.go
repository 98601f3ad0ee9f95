package lsp

import "errors"

var (
	// ErrNoCompatibleVersion is returned when no listed version in range has a
	// build for the host. No fallback is attempted.
	ErrNoCompatibleVersion = errors.New("no compatible version")

	// ErrNoFallbackAvailable is returned when acquisition failed and no
	// suitable cached version exists on disk.
	ErrNoFallbackAvailable = errors.New("no fallback version available")
)
