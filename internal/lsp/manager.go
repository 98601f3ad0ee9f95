package lsp

import (
	"log/slog"
	"path/filepath"

	platformerrors "github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/fs/core"
	"golang.org/x/sync/singleflight"

	"github.com/jmgilman/go/lspinstall/internal/fetch"
	"github.com/jmgilman/go/lspinstall/version"
)

// StagingDir is the directory under the download root that holds in-flight
// downloads. It is never treated as a version directory.
const StagingDir = ".staging"

// Provenance records how an installation was obtained.
type Provenance int

const (
	// ProvenanceLocalOverride is a path pinned by the user's settings.
	ProvenanceLocalOverride Provenance = iota + 1
	// ProvenanceCache is a build that was already present at its canonical path.
	ProvenanceCache
	// ProvenanceRemote is a build downloaded and verified during this call.
	ProvenanceRemote
	// ProvenanceFallback is an older cached build used because acquisition failed.
	ProvenanceFallback
)

func (p Provenance) String() string {
	switch p {
	case ProvenanceLocalOverride:
		return "local-override"
	case ProvenanceCache:
		return "cache"
	case ProvenanceRemote:
		return "remote"
	case ProvenanceFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// Installation is a usable build on disk.
type Installation struct {
	Path       string
	Version    version.Version
	Provenance Provenance
}

// Config configures a Manager.
type Config struct {
	// Name is the logical server name, used for logging and status messages.
	Name string

	// Range is the supported version interval.
	Range version.Range

	// Filename is the content entry to install from the matching target.
	Filename string

	// DownloadRoot holds one directory per cached version.
	DownloadRoot string

	// Host selects the target. Defaults to HostFromRuntime.
	Host Host

	// FS is the filesystem holding DownloadRoot.
	FS core.FS

	// Fetcher retrieves content URLs.
	Fetcher fetch.Fetcher

	// Logger receives diagnostics. Defaults to discarding.
	Logger *slog.Logger

	// Status receives human-readable progress messages. Optional.
	Status func(message string)
}

// Manager resolves and acquires builds of one language server.
type Manager struct {
	name     string
	rng      version.Range
	filename string
	root     string
	host     Host
	fs       core.FS
	fetcher  fetch.Fetcher
	stager   *fetch.Stager
	logger   *slog.Logger
	status   func(string)

	group singleflight.Group
}

// NewManager creates a Manager from cfg.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Name == "" {
		return nil, platformerrors.New(platformerrors.CodeInvalidConfig, "server name cannot be empty")
	}
	if cfg.Filename == "" {
		return nil, platformerrors.New(platformerrors.CodeInvalidConfig, "filename cannot be empty")
	}
	if filepath.Base(cfg.Filename) != cfg.Filename {
		return nil, platformerrors.Newf(platformerrors.CodeInvalidConfig, "filename %q must not contain a path", cfg.Filename)
	}
	if cfg.DownloadRoot == "" {
		return nil, platformerrors.New(platformerrors.CodeInvalidConfig, "download root cannot be empty")
	}
	if cfg.Range.Start.IsZero() || cfg.Range.End.IsZero() {
		return nil, platformerrors.New(platformerrors.CodeInvalidConfig, "version range must have both bounds")
	}
	if cfg.FS == nil {
		return nil, platformerrors.New(platformerrors.CodeInvalidConfig, "filesystem cannot be nil")
	}
	if cfg.Fetcher == nil {
		return nil, platformerrors.New(platformerrors.CodeInvalidConfig, "fetcher cannot be nil")
	}

	host := cfg.Host
	if host.Platform == "" || host.Arch == "" {
		host = HostFromRuntime()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	status := cfg.Status
	if status == nil {
		status = func(string) {}
	}

	root := filepath.Clean(cfg.DownloadRoot)
	stager, err := fetch.NewStager(cfg.FS, filepath.Join(root, StagingDir))
	if err != nil {
		return nil, platformerrors.Wrap(err, platformerrors.CodeInvalidConfig, "failed to create stager")
	}

	return &Manager{
		name:     cfg.Name,
		rng:      cfg.Range,
		filename: cfg.Filename,
		root:     root,
		host:     host,
		fs:       cfg.FS,
		fetcher:  cfg.Fetcher,
		stager:   stager,
		logger:   logger.With("server", cfg.Name),
		status:   status,
	}, nil
}

// Range returns the supported version interval.
func (m *Manager) Range() version.Range {
	return m.rng
}

// Root returns the download root.
func (m *Manager) Root() string {
	return m.root
}

// Path returns the canonical path of v's build.
func (m *Manager) Path(v version.Version) string {
	return filepath.Join(m.root, v.String(), m.filename)
}
