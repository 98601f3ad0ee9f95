package lspinstall

import "github.com/jmgilman/go/lspinstall/internal/lsp"

// Host names a platform and architecture using manifest naming, e.g.
// {"mac", "arm64"} or {"windows", "x64"}.
type Host struct {
	Platform string
	Arch     string
}

// DetectHost returns the Host of the running process.
func DetectHost() Host {
	h := lsp.HostFromRuntime()
	return Host{Platform: string(h.Platform), Arch: h.Arch}
}
