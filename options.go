package lspinstall

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/jmgilman/go/fs/core"
	"github.com/minio/minio-go/v7"

	"github.com/jmgilman/go/lspinstall/internal/fetch"
	"github.com/jmgilman/go/lspinstall/internal/lsp"
	"github.com/jmgilman/go/lspinstall/internal/manifest"
)

// DefaultCleanupDelay is how long after a successful install the cache is
// pruned.
const DefaultCleanupDelay = 30 * time.Second

// options contains configuration for an Installer.
type options struct {
	// FS holds download roots and manifest caches.
	// If nil, the local OS filesystem is used.
	fs core.FS

	// httpClient performs http and https fetches.
	httpClient *http.Client

	// fetchTimeout bounds each remote fetch.
	fetchTimeout time.Duration

	// s3Client enables s3:// URLs when set.
	s3Client *minio.Client

	logger    *slog.Logger
	settings  Settings
	status    StatusSink
	telemetry TelemetrySink

	// host overrides runtime platform detection.
	host lsp.Host

	cleanupDelay time.Duration
	schemaMajor  int
}

func defaultOptions() options {
	return options{
		fetchTimeout: fetch.DefaultHTTPTimeout,
		logger:       slog.New(slog.DiscardHandler),
		host:         lsp.HostFromRuntime(),
		cleanupDelay: DefaultCleanupDelay,
		schemaMajor:  manifest.DefaultSchemaMajor,
	}
}

// Option is a functional option for configuring an Installer.
type Option func(*options)

// WithFS sets the filesystem used for downloads and caches.
// Defaults to the local OS filesystem.
func WithFS(fs core.FS) Option {
	return func(o *options) {
		o.fs = fs
	}
}

// WithHTTPClient sets the client used for http and https URLs.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithFetchTimeout bounds every remote fetch, including reading the response
// body. Defaults to two minutes.
func WithFetchTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.fetchTimeout = timeout
	}
}

// WithS3Client enables s3://bucket/key URLs for manifests and builds.
func WithS3Client(client *minio.Client) Option {
	return func(o *options) {
		o.s3Client = client
	}
}

// WithLogger sets the logger. Defaults to discarding all output.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithSettings sets the source of local override paths.
func WithSettings(settings Settings) Option {
	return func(o *options) {
		o.settings = settings
	}
}

// WithStatus sets the sink for progress messages.
func WithStatus(status StatusSink) Option {
	return func(o *options) {
		o.status = status
	}
}

// WithTelemetry sets the sink for install events.
func WithTelemetry(telemetry TelemetrySink) Option {
	return func(o *options) {
		o.telemetry = telemetry
	}
}

// WithHost overrides the detected platform and architecture, using manifest
// naming (e.g. "linux", "x64").
func WithHost(platform, arch string) Option {
	return func(o *options) {
		o.host = lsp.Host{Platform: manifest.Platform(platform), Arch: arch}
	}
}

// WithCleanupDelay sets how long after a successful install the cache is
// pruned. Zero prunes immediately, still in the background.
func WithCleanupDelay(delay time.Duration) Option {
	return func(o *options) {
		o.cleanupDelay = delay
	}
}

// WithManifestSchemaMajor sets the accepted manifest schema major version.
func WithManifestSchemaMajor(major int) Option {
	return func(o *options) {
		o.schemaMajor = major
	}
}
