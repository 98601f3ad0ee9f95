package manifest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	platformerrors "github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/fs/core"

	"github.com/jmgilman/go/lspinstall/internal/fetch"
)

// DefaultSchemaMajor is the manifest schema major version this client reads.
const DefaultSchemaMajor = 1

// Config configures a Manager.
type Config struct {
	// URL locates the remote manifest. Any scheme the Source understands.
	URL string

	// CachePath is where the last known good manifest is kept.
	CachePath string

	// ExpectedMajor is the accepted schema major version. Zero is a valid
	// major version; callers normally pass DefaultSchemaMajor.
	ExpectedMajor int

	// Source retrieves URL.
	Source fetch.Fetcher

	// FS holds the last known good copy.
	FS core.FS

	// Logger receives diagnostics. Defaults to discarding.
	Logger *slog.Logger
}

// Manager downloads and validates the manifest and maintains a last known
// good copy. Construct one per manifest URL.
type Manager struct {
	url           string
	cachePath     string
	expectedMajor int
	fs            core.FS
	remote        fetch.Fetcher
	cached        fetch.Fetcher
	logger        *slog.Logger
}

// NewManager creates a Manager from cfg.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.URL == "" {
		return nil, platformerrors.New(platformerrors.CodeInvalidConfig, "manifest URL cannot be empty")
	}
	if cfg.CachePath == "" {
		return nil, platformerrors.New(platformerrors.CodeInvalidConfig, "manifest cache path cannot be empty")
	}
	if cfg.Source == nil {
		return nil, platformerrors.New(platformerrors.CodeInvalidConfig, "manifest source cannot be nil")
	}
	if cfg.FS == nil {
		return nil, platformerrors.New(platformerrors.CodeInvalidConfig, "filesystem cannot be nil")
	}
	if cfg.ExpectedMajor < 0 {
		return nil, platformerrors.New(platformerrors.CodeInvalidConfig, "expected schema major version cannot be negative")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger = logger.With("manifest", cfg.URL)

	stager, err := fetch.NewStager(cfg.FS, filepath.Join(filepath.Dir(cfg.CachePath), ".staging"))
	if err != nil {
		return nil, platformerrors.Wrap(err, platformerrors.CodeInvalidConfig, "failed to create manifest stager")
	}

	m := &Manager{
		url:           cfg.URL,
		cachePath:     cfg.CachePath,
		expectedMajor: cfg.ExpectedMajor,
		fs:            cfg.FS,
		logger:        logger,
	}

	// Validation runs before the last known good write so that a bad
	// download never replaces a good cached copy.
	m.remote = fetch.NewCaching(
		fetch.NewConditional(cfg.Source, nil, m.accept, logger),
		stager, fetch.StaticDestination(cfg.CachePath), logger,
	)
	m.cached = fetch.NewConditional(fetch.NewFileFetcher(cfg.FS), nil, m.accept, logger)

	return m, nil
}

// URL returns the manifest location.
func (m *Manager) URL() string {
	return m.url
}

// Download returns the remote manifest, or the last known good copy when the
// remote is unavailable or invalid. ErrManifestUnavailable is returned when
// neither yields a valid document.
func (m *Manager) Download(ctx context.Context) (*Schema, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	schema, err := m.load(ctx, m.remote, m.url)
	if err != nil {
		return nil, err
	}
	if schema != nil {
		schema.Source = SourceRemote
		m.logger.Debug("downloaded manifest", "schemaVersion", schema.SchemaVersion.String(), "versions", len(schema.Versions))
		return schema, nil
	}

	m.logger.Warn("remote manifest unavailable, trying last known good copy", "path", m.cachePath)
	schema, err = m.load(ctx, m.cached, m.cachePath)
	if err != nil {
		return nil, err
	}
	if schema != nil {
		schema.Source = SourceCache
		m.logger.Info("using cached manifest", "path", m.cachePath, "schemaVersion", schema.SchemaVersion.String())
		return schema, nil
	}

	return nil, platformerrors.WrapWithContext(ErrManifestUnavailable, platformerrors.CodeUnavailable,
		"no valid manifest from remote or cache", map[string]interface{}{
			"url":       m.url,
			"cachePath": m.cachePath,
		})
}

func (m *Manager) load(ctx context.Context, f fetch.Fetcher, uri string) (*Schema, error) {
	res, err := f.Fetch(ctx, uri)
	if err != nil || res == nil {
		return nil, err
	}
	defer func() { _ = res.Close() }()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		m.logger.Warn("failed to read manifest", "uri", uri, "error", err)
		return nil, nil
	}

	schema, err := ParseAndValidate(data, m.expectedMajor)
	if err != nil {
		return nil, fmt.Errorf("validated manifest failed to parse: %w", err)
	}
	return schema, nil
}

func (m *Manager) accept(ctx context.Context, r io.Reader) (bool, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return false, err
	}
	if _, err := ParseAndValidate(data, m.expectedMajor); err != nil {
		m.logger.Warn("rejected manifest", "error", err)
		return false, nil
	}
	return true, nil
}
