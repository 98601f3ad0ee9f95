package lsp

import (
	"fmt"
	"runtime"

	"github.com/jmgilman/go/lspinstall/internal/manifest"
)

// Host identifies the platform and architecture a build must target.
type Host struct {
	Platform manifest.Platform
	Arch     string
}

func (h Host) String() string {
	return fmt.Sprintf("%s/%s", h.Platform, h.Arch)
}

// HostFromRuntime returns the Host for the running process, using manifest
// naming.
func HostFromRuntime() Host {
	return NewHost(runtime.GOOS, runtime.GOARCH)
}

// NewHost maps Go's GOOS and GOARCH values to manifest naming. Unknown values
// pass through unchanged.
func NewHost(goos, goarch string) Host {
	platform := manifest.Platform(goos)
	if goos == "darwin" {
		platform = manifest.PlatformMac
	}

	arch := goarch
	switch goarch {
	case "amd64":
		arch = "x64"
	case "386":
		arch = "x86"
	}

	return Host{Platform: platform, Arch: arch}
}
