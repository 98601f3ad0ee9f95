package lspinstall

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	platformerrors "github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/fs/billy"

	"github.com/jmgilman/go/lspinstall/internal/fetch"
	"github.com/jmgilman/go/lspinstall/internal/lsp"
	"github.com/jmgilman/go/lspinstall/internal/manifest"
	"github.com/jmgilman/go/lspinstall/version"
)

// InstallOptions describes the server to install.
type InstallOptions struct {
	// Name is the logical server name. It keys the local override lookup.
	Name string

	// ManifestURL locates the version manifest (file, http, https or s3).
	ManifestURL string

	// SupportedVersions is the range of versions this client can run.
	SupportedVersions version.Range

	// Filename is the content entry to install from the host's target.
	Filename string

	// DownloadRoot holds one directory per cached version.
	DownloadRoot string

	// ManifestCachePath is where the last known good manifest is kept.
	// Defaults to <DownloadRoot>/manifest.json.
	ManifestCachePath string
}

func (o InstallOptions) validate() error {
	switch {
	case o.Name == "":
		return platformerrors.New(platformerrors.CodeInvalidConfig, "server name cannot be empty")
	case o.ManifestURL == "":
		return platformerrors.New(platformerrors.CodeInvalidConfig, "manifest URL cannot be empty")
	case o.Filename == "":
		return platformerrors.New(platformerrors.CodeInvalidConfig, "filename cannot be empty")
	case o.DownloadRoot == "":
		return platformerrors.New(platformerrors.CodeInvalidConfig, "download root cannot be empty")
	case o.SupportedVersions.Start.IsZero() || o.SupportedVersions.End.IsZero():
		return platformerrors.New(platformerrors.CodeInvalidConfig, "supported version range must have both bounds")
	}
	return nil
}

func (o InstallOptions) manifestCachePath() string {
	if o.ManifestCachePath != "" {
		return o.ManifestCachePath
	}
	return filepath.Join(o.DownloadRoot, "manifest.json")
}

// Installer acquires language server builds. It is safe for concurrent use.
//
// One lsp.Manager is kept per distinct server name, download root, filename
// and version range for the life of the Installer, so hosts should reuse a
// small set of InstallOptions. Close releases them.
type Installer struct {
	opts    options
	fetcher fetch.Fetcher
	logger  *slog.Logger

	mu       sync.Mutex
	managers map[string]*lsp.Manager

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New creates an Installer.
func New(opts ...Option) (*Installer, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if o.fetchTimeout <= 0 {
		return nil, platformerrors.New(platformerrors.CodeInvalidConfig, "fetch timeout must be positive")
	}
	if o.cleanupDelay < 0 {
		return nil, platformerrors.New(platformerrors.CodeInvalidConfig, "cleanup delay cannot be negative")
	}
	if o.schemaMajor < 0 {
		return nil, platformerrors.New(platformerrors.CodeInvalidConfig, "manifest schema major version cannot be negative")
	}
	if o.host.Platform == "" || o.host.Arch == "" {
		return nil, platformerrors.New(platformerrors.CodeInvalidConfig, "host platform and architecture are required")
	}
	if o.fs == nil {
		o.fs = billy.NewLocal()
	}

	httpFetcher := fetch.NewHTTPFetcher(
		fetch.WithClient(o.httpClient),
		fetch.WithTimeout(o.fetchTimeout),
		fetch.WithHTTPLogger(o.logger),
	)
	chained := fetch.NewChained().
		Register("file", fetch.NewFileFetcher(o.fs)).
		Register("http", httpFetcher).
		Register("https", httpFetcher)
	if o.s3Client != nil {
		chained.Register("s3", fetch.NewS3Fetcher(o.s3Client, o.logger))
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Installer{
		opts:     o,
		fetcher:  chained,
		logger:   o.logger,
		managers: make(map[string]*lsp.Manager),
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Install returns the path of a usable build. See Acquire.
func (i *Installer) Install(ctx context.Context, opts InstallOptions) (string, error) {
	inst, err := i.Acquire(ctx, opts)
	if err != nil {
		return "", err
	}
	return inst.Path, nil
}

// Acquire returns a usable build and how it was obtained.
//
// If ctx is cancelled, ctx.Err() is returned unchanged and no files are left
// behind. Every other failure is an *InstallError.
func (i *Installer) Acquire(ctx context.Context, opts InstallOptions) (*Installation, error) {
	start := time.Now()
	inst, schema, err := i.acquire(ctx, opts)

	event := Event{Server: opts.Name, Duration: time.Since(start), Outcome: OutcomeSucceeded}
	if schema != nil {
		event.SchemaVersion = schema.SchemaVersion.String()
	}
	if inst != nil {
		event.Version = inst.Version
		event.Provenance = inst.Provenance
	}

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			event.Outcome = OutcomeCancelled
			i.record(ctx, event)
			return nil, ctxErr
		}
		event.Outcome = OutcomeFailed
		i.record(ctx, event)
		i.logger.Error("install failed", "server", opts.Name, "error", err)
		return nil, i.wrap(ctx, opts, err)
	}

	i.record(ctx, event)
	return inst, nil
}

func (i *Installer) acquire(ctx context.Context, opts InstallOptions) (*Installation, *manifest.Schema, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if err := opts.validate(); err != nil {
		return nil, nil, err
	}
	logger := i.logger.With("server", opts.Name)

	if path := i.localOverride(logger, opts.Name); path != "" {
		i.status(fmt.Sprintf("Using local override for %s: %s", opts.Name, path))
		return &Installation{Path: path, Provenance: ProvenanceLocalOverride}, nil, nil
	}

	lm, err := i.manager(opts)
	if err != nil {
		return nil, nil, err
	}
	schema, err := i.downloadManifest(ctx, opts, logger)
	if err != nil {
		if ctx.Err() != nil || !errors.Is(err, manifest.ErrManifestUnavailable) {
			return nil, nil, err
		}
		logger.Warn("manifest unavailable, looking for a cached build", "error", err)
		i.status(fmt.Sprintf("Unable to retrieve the %s manifest, using a cached version", opts.Name))
		inst, fbErr := lm.Fallback(ctx, nil)
		if fbErr != nil {
			return nil, nil, errors.Join(err, fbErr)
		}
		return installation(inst), nil, nil
	}

	inst, err := lm.Download(ctx, schema)
	if err != nil {
		return nil, schema, err
	}
	i.scheduleCleanup(lm, schema, inst.Path)
	return installation(inst), schema, nil
}

func (i *Installer) downloadManifest(ctx context.Context, opts InstallOptions, logger *slog.Logger) (*manifest.Schema, error) {
	mm, err := manifest.NewManager(manifest.Config{
		URL:           opts.ManifestURL,
		CachePath:     opts.manifestCachePath(),
		ExpectedMajor: i.opts.schemaMajor,
		Source:        i.fetcher,
		FS:            i.opts.fs,
		Logger:        logger,
	})
	if err != nil {
		return nil, err
	}
	return mm.Download(ctx)
}

// localOverride returns the configured override path for server when it
// names an existing file.
func (i *Installer) localOverride(logger *slog.Logger, server string) string {
	if i.opts.settings == nil {
		return ""
	}
	path, err := i.opts.settings.LocalOverridePath(server)
	if err != nil {
		logger.Warn("failed to read local override setting", "error", err)
		return ""
	}
	if path == "" {
		return ""
	}

	info, err := i.opts.fs.Stat(path)
	if err != nil || info.IsDir() {
		logger.Warn("local override does not exist, ignoring", "path", path)
		return ""
	}
	logger.Info("using local override", "path", path)
	return path
}

// manager returns the lsp.Manager for opts, creating it on first use so that
// concurrent installs of the same build share one download.
func (i *Installer) manager(opts InstallOptions) (*lsp.Manager, error) {
	key := fmt.Sprintf("%s|%s|%s|%s", opts.Name, filepath.Clean(opts.DownloadRoot), opts.Filename, opts.SupportedVersions)

	i.mu.Lock()
	defer i.mu.Unlock()

	if m, ok := i.managers[key]; ok {
		return m, nil
	}
	m, err := lsp.NewManager(lsp.Config{
		Name:         opts.Name,
		Range:        opts.SupportedVersions,
		Filename:     opts.Filename,
		DownloadRoot: opts.DownloadRoot,
		Host:         i.opts.host,
		FS:           i.opts.fs,
		Fetcher:      i.fetcher,
		Logger:       i.logger,
		Status:       i.status,
	})
	if err != nil {
		return nil, err
	}
	i.managers[key] = m
	return m, nil
}

// scheduleCleanup prunes the cache in the background after the cleanup delay.
func (i *Installer) scheduleCleanup(m *lsp.Manager, schema *manifest.Schema, keep string) {
	if i.ctx.Err() != nil {
		return
	}

	i.wg.Add(1)
	go func() {
		defer i.wg.Done()

		timer := time.NewTimer(i.opts.cleanupDelay)
		defer timer.Stop()

		select {
		case <-i.ctx.Done():
			return
		case <-timer.C:
			m.Cleanup(i.ctx, schema, keep)
		}
	}()
}

// Wait blocks until scheduled cleanups have finished.
func (i *Installer) Wait() {
	i.wg.Wait()
}

// Close cancels pending cleanups and waits for running ones to stop.
// It is safe to call multiple times.
func (i *Installer) Close() error {
	i.closeOnce.Do(func() {
		i.cancel()
		i.wg.Wait()

		i.mu.Lock()
		clear(i.managers)
		i.mu.Unlock()
	})
	return nil
}

func (i *Installer) status(message string) {
	if i.opts.status != nil {
		i.opts.status.Status(message)
	}
}

func (i *Installer) record(ctx context.Context, event Event) {
	if i.opts.telemetry != nil {
		// Cancelled installs are still recorded.
		i.opts.telemetry.Record(context.WithoutCancel(ctx), event)
	}
}

func installation(inst lsp.Installation) *Installation {
	return &Installation{
		Path:       inst.Path,
		Version:    inst.Version.String(),
		Provenance: inst.Provenance,
	}
}
