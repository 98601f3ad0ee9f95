package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jmgilman/go/fs/billy"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/jmgilman/go/lspinstall"
	"github.com/jmgilman/go/lspinstall/internal/fetch"
	"github.com/jmgilman/go/lspinstall/internal/settings"
	"github.com/jmgilman/go/lspinstall/internal/telemetry"
	"github.com/jmgilman/go/lspinstall/version"
)

// flags holds values shared by every subcommand.
type flags struct {
	name         string
	manifestURL  string
	manifestPath string
	filename     string
	minVersion   string
	maxVersion   string
	root         string
	settingsFile string
	metricsFile  string
	timeout      time.Duration
	cleanupDelay time.Duration
	platform     string
	arch         string
	verbose      bool

	s3Endpoint  string
	s3AccessKey string
	s3SecretKey string
	s3Insecure  bool
}

func newRootCmd() *cobra.Command {
	f := &flags{}

	cmd := &cobra.Command{
		Use:           "lspinstall",
		Short:         "Install and maintain language server builds",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&f.name, "name", "", "logical server name")
	pf.StringVar(&f.manifestURL, "manifest-url", "", "manifest location (file, http, https or s3 URL)")
	pf.StringVar(&f.manifestPath, "manifest-cache", "", "last known good manifest path (default <root>/manifest.json)")
	pf.StringVar(&f.filename, "filename", "", "content filename to install")
	pf.StringVar(&f.minVersion, "min-version", "", "lowest supported version (inclusive)")
	pf.StringVar(&f.maxVersion, "max-version", "", "version upper bound (exclusive)")
	pf.StringVar(&f.root, "root", "", "download root for this server")
	pf.StringVar(&f.settingsFile, "settings", "", "YAML settings file with local overrides")
	pf.StringVar(&f.metricsFile, "metrics-file", "", "write Prometheus metrics to this file on exit")
	pf.DurationVar(&f.timeout, "timeout", fetch.DefaultHTTPTimeout, "timeout for each remote fetch")
	pf.StringVar(&f.platform, "platform", "", "override detected platform (windows, mac, linux)")
	pf.StringVar(&f.arch, "arch", "", "override detected architecture (x64, arm64, x86)")
	pf.BoolVarP(&f.verbose, "verbose", "v", false, "enable debug logging")
	pf.StringVar(&f.s3Endpoint, "s3-endpoint", "", "S3 endpoint for s3:// URLs")
	pf.StringVar(&f.s3AccessKey, "s3-access-key", os.Getenv("AWS_ACCESS_KEY_ID"), "S3 access key")
	pf.StringVar(&f.s3SecretKey, "s3-secret-key", os.Getenv("AWS_SECRET_ACCESS_KEY"), "S3 secret key")
	pf.BoolVar(&f.s3Insecure, "s3-insecure", false, "use plain HTTP for the S3 endpoint")

	for _, name := range []string{"name", "manifest-url", "filename", "min-version", "max-version", "root"} {
		_ = cmd.MarkPersistentFlagRequired(name)
	}

	cmd.AddCommand(
		newInstallCmd(f),
		newResolveCmd(f),
		newCleanupCmd(f),
	)
	return cmd
}

func (f *flags) installOptions() (lspinstall.InstallOptions, error) {
	rng, err := version.ParseRange(f.minVersion, f.maxVersion)
	if err != nil {
		return lspinstall.InstallOptions{}, fmt.Errorf("invalid version range: %w", err)
	}
	return lspinstall.InstallOptions{
		Name:              f.name,
		ManifestURL:       f.manifestURL,
		SupportedVersions: rng,
		Filename:          f.filename,
		DownloadRoot:      f.root,
		ManifestCachePath: f.manifestPath,
	}, nil
}

// session is a configured Installer plus the resources it owns.
type session struct {
	*lspinstall.Installer
	registry    *prometheus.Registry
	metricsFile string
}

func (f *flags) newSession(cmd *cobra.Command) (*session, error) {
	level := slog.LevelInfo
	if f.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	fs := billy.NewLocal()

	opts := []lspinstall.Option{
		lspinstall.WithFS(fs),
		lspinstall.WithLogger(logger),
		lspinstall.WithFetchTimeout(f.timeout),
		lspinstall.WithCleanupDelay(f.cleanupDelay),
		lspinstall.WithStatus(statusWriter{cmd: cmd}),
	}
	if f.platform != "" || f.arch != "" {
		host := lspinstall.DetectHost()
		if f.platform != "" {
			host.Platform = f.platform
		}
		if f.arch != "" {
			host.Arch = f.arch
		}
		opts = append(opts, lspinstall.WithHost(host.Platform, host.Arch))
	}

	if f.settingsFile != "" {
		repo, err := settings.Open(fs, f.settingsFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, lspinstall.WithSettings(repo))
	}

	if f.s3Endpoint != "" {
		client, err := minio.New(f.s3Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(f.s3AccessKey, f.s3SecretKey, ""),
			Secure: !f.s3Insecure,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 client: %w", err)
		}
		opts = append(opts, lspinstall.WithS3Client(client))
	}

	s := &session{metricsFile: f.metricsFile}
	if f.metricsFile != "" {
		s.registry = prometheus.NewRegistry()
		sink, err := telemetry.NewSink(s.registry)
		if err != nil {
			return nil, err
		}
		opts = append(opts, lspinstall.WithTelemetry(sink))
	}

	installer, err := lspinstall.New(opts...)
	if err != nil {
		return nil, err
	}
	s.Installer = installer
	return s, nil
}

// finish waits for background cleanup, then writes metrics.
func (s *session) finish() error {
	s.Wait()
	if err := s.Close(); err != nil {
		return err
	}
	if s.registry != nil {
		if err := prometheus.WriteToTextfile(s.metricsFile, s.registry); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}
	return nil
}

type statusWriter struct {
	cmd *cobra.Command
}

func (w statusWriter) Status(message string) {
	fmt.Fprintln(w.cmd.ErrOrStderr(), message)
}
