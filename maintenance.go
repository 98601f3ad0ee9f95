package lspinstall

import (
	"context"

	"github.com/jmgilman/go/lspinstall/internal/manifest"
)

// Resolution describes the build the manifest selects for this host.
type Resolution struct {
	Version       string
	URL           string
	Hashes        []string
	SchemaVersion string
	// FromCache is true when the manifest came from the last known good copy.
	FromCache bool
	// Cached is true when the build is already at Path.
	Cached bool
	Path   string
}

// Resolve downloads the manifest and reports which build Install would
// select, without downloading it. Local overrides are not consulted.
func (i *Installer) Resolve(ctx context.Context, opts InstallOptions) (*Resolution, error) {
	res, err := i.resolve(ctx, opts)
	if err != nil {
		return nil, i.wrap(ctx, opts, err)
	}
	return res, nil
}

func (i *Installer) resolve(ctx context.Context, opts InstallOptions) (*Resolution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	lm, err := i.manager(opts)
	if err != nil {
		return nil, err
	}
	schema, err := i.downloadManifest(ctx, opts, i.logger.With("server", opts.Name))
	if err != nil {
		return nil, err
	}
	sel, err := lm.Resolve(schema)
	if err != nil {
		return nil, err
	}

	path := lm.Path(sel.Version)
	cached, err := i.opts.fs.Exists(path)
	if err != nil {
		return nil, err
	}
	return &Resolution{
		Version:       sel.Version.String(),
		URL:           sel.Content.URL,
		Hashes:        sel.Content.Hashes,
		SchemaVersion: schema.SchemaVersion.String(),
		FromCache:     schema.Source == manifest.SourceCache,
		Cached:        cached,
		Path:          path,
	}, nil
}

// Cleanup downloads the manifest and applies the retention policy to the
// download root immediately. Removal failures are logged, not returned; an
// error means the manifest could not be obtained.
func (i *Installer) Cleanup(ctx context.Context, opts InstallOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := opts.validate(); err != nil {
		return i.wrap(ctx, opts, err)
	}

	lm, err := i.manager(opts)
	if err != nil {
		return i.wrap(ctx, opts, err)
	}
	schema, err := i.downloadManifest(ctx, opts, i.logger.With("server", opts.Name))
	if err != nil {
		return i.wrap(ctx, opts, err)
	}
	lm.Cleanup(ctx, schema, "")
	return nil
}

// wrap returns ctx.Err() unchanged when ctx is done and an *InstallError
// otherwise.
func (i *Installer) wrap(ctx context.Context, opts InstallOptions, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return &InstallError{
		Server:   opts.Name,
		Range:    opts.SupportedVersions,
		Filename: opts.Filename,
		Err:      err,
	}
}
