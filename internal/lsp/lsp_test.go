package lsp

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	platformerrors "github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/fs/billy"
	"github.com/jmgilman/go/fs/core"
	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmgilman/go/lspinstall/internal/fetch"
	"github.com/jmgilman/go/lspinstall/internal/fetch/mocks"
	"github.com/jmgilman/go/lspinstall/internal/manifest"
	"github.com/jmgilman/go/lspinstall/version"
)

const (
	testRoot     = "/cache/codewhisperer"
	testFilename = "aws-lsp-codewhisperer"
)

var (
	testHost = Host{Platform: manifest.PlatformLinux, Arch: "x64"}
	payload  = []byte("#!/bin/sh\necho language server\n")
)

func sha384(data []byte) string {
	return digest.SHA384.FromBytes(data).String()
}

func target(platform manifest.Platform, arch, filename string, data []byte, url string) manifest.Target {
	return manifest.Target{
		Platform: platform,
		Arch:     arch,
		Contents: []manifest.Content{{Filename: filename, URL: url, Hashes: []string{sha384(data)}}},
	}
}

// fixtureSchema lists 1.0.0 (delisted), 1.2.0 (matching target), 1.5.0 (no
// matching target) and 2.0.0 (out of range).
func fixtureSchema() *manifest.Schema {
	return &manifest.Schema{
		SchemaVersion: version.MustParse("1.0.0"),
		Versions: []manifest.Version{
			{
				Version:    version.MustParse("1.0.0"),
				IsDelisted: true,
				Targets:    []manifest.Target{target(manifest.PlatformLinux, "x64", testFilename, payload, "https://example.com/1.0.0")},
			},
			{
				Version: version.MustParse("1.2.0"),
				Targets: []manifest.Target{
					target(manifest.PlatformWindows, "x64", testFilename, payload, "https://example.com/1.2.0/win"),
					target(manifest.PlatformLinux, "x64", testFilename, payload, "https://example.com/1.2.0/linux"),
				},
			},
			{
				Version: version.MustParse("1.5.0"),
				Targets: []manifest.Target{target(manifest.PlatformLinux, "arm64", testFilename, payload, "https://example.com/1.5.0")},
			},
			{
				Version: version.MustParse("2.0.0"),
				Targets: []manifest.Target{target(manifest.PlatformLinux, "x64", testFilename, payload, "https://example.com/2.0.0")},
			},
		},
	}
}

func testRange(t *testing.T) version.Range {
	t.Helper()
	r, err := version.ParseRange("1.0.0", "2.0.0")
	require.NoError(t, err)
	return r
}

func serving(data []byte) *mocks.FetcherMock {
	return &mocks.FetcherMock{
		FetchFunc: func(_ context.Context, uri string) (*fetch.Result, error) {
			return &fetch.Result{URI: uri, Body: io.NopCloser(bytes.NewReader(data))}, nil
		},
	}
}

func newTestManager(t *testing.T, fs core.FS, f fetch.Fetcher) *Manager {
	t.Helper()
	m, err := NewManager(Config{
		Name:         "codewhisperer",
		Range:        testRange(t),
		Filename:     testFilename,
		DownloadRoot: testRoot,
		Host:         testHost,
		FS:           fs,
		Fetcher:      f,
	})
	require.NoError(t, err)
	return m
}

func seed(t *testing.T, fs core.FS, root, v string) string {
	t.Helper()
	path := filepath.Join(root, v, testFilename)
	require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, fs.WriteFile(path, []byte("cached "+v), 0o755))
	return path
}

func exists(t *testing.T, fs core.FS, path string) bool {
	t.Helper()
	ok, err := fs.Exists(path)
	require.NoError(t, err)
	return ok
}

func TestNewHost(t *testing.T) {
	tests := []struct {
		goos, goarch string
		want         Host
	}{
		{goos: "darwin", goarch: "arm64", want: Host{Platform: manifest.PlatformMac, Arch: "arm64"}},
		{goos: "windows", goarch: "amd64", want: Host{Platform: manifest.PlatformWindows, Arch: "x64"}},
		{goos: "linux", goarch: "386", want: Host{Platform: manifest.PlatformLinux, Arch: "x86"}},
		{goos: "freebsd", goarch: "riscv64", want: Host{Platform: "freebsd", Arch: "riscv64"}},
	}
	for _, tt := range tests {
		t.Run(tt.goos+"/"+tt.goarch, func(t *testing.T) {
			assert.Equal(t, tt.want, NewHost(tt.goos, tt.goarch))
		})
	}
}

func TestNewManager_Validation(t *testing.T) {
	base := Config{
		Name:         "codewhisperer",
		Range:        testRange(t),
		Filename:     testFilename,
		DownloadRoot: testRoot,
		FS:           billy.NewMemory(),
		Fetcher:      serving(payload),
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "no name", mutate: func(c *Config) { c.Name = "" }},
		{name: "no filename", mutate: func(c *Config) { c.Filename = "" }},
		{name: "filename with path", mutate: func(c *Config) { c.Filename = "bin/server" }},
		{name: "no root", mutate: func(c *Config) { c.DownloadRoot = "" }},
		{name: "no range", mutate: func(c *Config) { c.Range = version.Range{} }},
		{name: "no fs", mutate: func(c *Config) { c.FS = nil }},
		{name: "no fetcher", mutate: func(c *Config) { c.Fetcher = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			_, err := NewManager(cfg)
			require.Error(t, err)
			assert.Equal(t, platformerrors.CodeInvalidConfig, platformerrors.GetCode(err))
		})
	}

	t.Run("host defaults to runtime", func(t *testing.T) {
		m, err := NewManager(base)
		require.NoError(t, err)
		assert.Equal(t, HostFromRuntime(), m.host)
	})
}

func TestResolve(t *testing.T) {
	m := newTestManager(t, billy.NewMemory(), serving(payload))

	sel, err := m.Resolve(fixtureSchema())
	require.NoError(t, err)
	assert.Equal(t, "1.2.0", sel.Version.String())
	assert.Equal(t, "https://example.com/1.2.0/linux", sel.Content.URL)
	assert.Equal(t, manifest.PlatformLinux, sel.Target.Platform)
}

func TestResolve_NoCompatibleVersion(t *testing.T) {
	m := newTestManager(t, billy.NewMemory(), serving(payload))
	m.host = Host{Platform: manifest.PlatformMac, Arch: "x64"}

	_, err := m.Resolve(fixtureSchema())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoCompatibleVersion)
	assert.Equal(t, platformerrors.CodeNotFound, platformerrors.GetCode(err))
}

func TestDownload_CachedFastPath(t *testing.T) {
	fs := billy.NewMemory()
	canonical := seed(t, fs, testRoot, "1.2.0")
	fetcher := &mocks.FetcherMock{
		FetchFunc: func(context.Context, string) (*fetch.Result, error) {
			t.Fatal("fetcher must not be called for a cached build")
			return nil, nil
		},
	}

	inst, err := newTestManager(t, fs, fetcher).Download(context.Background(), fixtureSchema())
	require.NoError(t, err)

	assert.Equal(t, canonical, inst.Path)
	assert.Equal(t, ProvenanceCache, inst.Provenance)
	assert.Empty(t, fetcher.FetchCalls())
}

func TestDownload_Remote(t *testing.T) {
	fs := billy.NewMemory()
	fetcher := serving(payload)
	var messages []string
	m := newTestManager(t, fs, fetcher)
	m.status = func(msg string) { messages = append(messages, msg) }

	inst, err := m.Download(context.Background(), fixtureSchema())
	require.NoError(t, err)

	assert.Equal(t, ProvenanceRemote, inst.Provenance)
	assert.Equal(t, "1.2.0", inst.Version.String())
	assert.Equal(t, filepath.Join(testRoot, "1.2.0", testFilename), inst.Path)

	data, err := fs.ReadFile(inst.Path)
	require.NoError(t, err)
	assert.Equal(t, payload, data)

	require.Len(t, fetcher.FetchCalls(), 1)
	assert.Equal(t, "https://example.com/1.2.0/linux", fetcher.FetchCalls()[0].URI)

	entries, err := fs.ReadDir(filepath.Join(testRoot, StagingDir))
	require.NoError(t, err)
	assert.Empty(t, entries, "staging must be empty after a download")

	assert.Equal(t, []string{"Downloading codewhisperer 1.2.0", "Installed codewhisperer 1.2.0"}, messages)
}

func TestDownload_DigestMismatch(t *testing.T) {
	t.Run("falls back to cached version", func(t *testing.T) {
		fs := billy.NewMemory()
		fallback := seed(t, fs, testRoot, "1.1.0")
		seed(t, fs, testRoot, "1.3.0")

		inst, err := newTestManager(t, fs, serving([]byte("tampered"))).Download(context.Background(), fixtureSchema())
		require.NoError(t, err)

		assert.Equal(t, ProvenanceFallback, inst.Provenance)
		assert.Equal(t, fallback, inst.Path)
		assert.Equal(t, "1.1.0", inst.Version.String())
		assert.False(t, exists(t, fs, filepath.Join(testRoot, "1.2.0", testFilename)))
	})

	t.Run("no fallback", func(t *testing.T) {
		fs := billy.NewMemory()

		_, err := newTestManager(t, fs, serving([]byte("tampered"))).Download(context.Background(), fixtureSchema())
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNoFallbackAvailable)
		assert.Equal(t, platformerrors.CodeUnavailable, platformerrors.GetCode(err))
		assert.False(t, exists(t, fs, filepath.Join(testRoot, "1.2.0", testFilename)))
	})
}

func TestDownload_MissingSHA384(t *testing.T) {
	fs := billy.NewMemory()
	schema := fixtureSchema()
	schema.Versions[1].Targets[1].Contents[0].Hashes = []string{digest.SHA256.FromBytes(payload).String()}

	_, err := newTestManager(t, fs, serving(payload)).Download(context.Background(), schema)
	assert.ErrorIs(t, err, ErrNoFallbackAvailable)
	assert.False(t, exists(t, fs, filepath.Join(testRoot, "1.2.0", testFilename)))
}

func TestDownload_SourceUnavailable(t *testing.T) {
	fs := billy.NewMemory()
	fallback := seed(t, fs, testRoot, "1.0.0")
	fetcher := &mocks.FetcherMock{
		FetchFunc: func(context.Context, string) (*fetch.Result, error) { return nil, nil },
	}

	inst, err := newTestManager(t, fs, fetcher).Download(context.Background(), fixtureSchema())
	require.NoError(t, err)
	assert.Equal(t, fallback, inst.Path)
	assert.Equal(t, ProvenanceFallback, inst.Provenance)
}

func TestDownload_Cancellation(t *testing.T) {
	t.Run("before any I/O", func(t *testing.T) {
		fs := billy.NewMemory()
		fetcher := serving(payload)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := newTestManager(t, fs, fetcher).Download(ctx, fixtureSchema())
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, fetcher.FetchCalls())
		assert.False(t, exists(t, fs, testRoot))
	})

	t.Run("during fetch is not recast as fallback", func(t *testing.T) {
		fs := billy.NewMemory()
		seed(t, fs, testRoot, "1.1.0")
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		fetcher := &mocks.FetcherMock{
			FetchFunc: func(ctx context.Context, _ string) (*fetch.Result, error) {
				cancel()
				return nil, ctx.Err()
			},
		}

		_, err := newTestManager(t, fs, fetcher).Download(ctx, fixtureSchema())
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, exists(t, fs, filepath.Join(testRoot, "1.2.0", testFilename)))
	})
}

func TestDownload_Concurrent(t *testing.T) {
	fs := billy.NewLocal()
	root := t.TempDir()
	m, err := NewManager(Config{
		Name:         "codewhisperer",
		Range:        testRange(t),
		Filename:     testFilename,
		DownloadRoot: root,
		Host:         testHost,
		FS:           fs,
		Fetcher:      serving(payload),
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]Installation, 4)
	errs := make([]error, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = m.Download(context.Background(), fixtureSchema())
		}(i)
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, filepath.Join(root, "1.2.0", testFilename), results[i].Path)
	}
	data, err := fs.ReadFile(results[0].Path)
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

func TestDownload_SharedDownloadCancelledByOtherCaller(t *testing.T) {
	fs := billy.NewLocal()
	root := t.TempDir()
	started := make(chan struct{})
	var calls atomic.Int32
	fetcher := &mocks.FetcherMock{
		FetchFunc: func(ctx context.Context, uri string) (*fetch.Result, error) {
			if calls.Add(1) == 1 {
				close(started)
				<-ctx.Done()
				return nil, ctx.Err()
			}
			return &fetch.Result{URI: uri, Body: io.NopCloser(bytes.NewReader(payload))}, nil
		},
	}
	m, err := NewManager(Config{
		Name:         "codewhisperer",
		Range:        testRange(t),
		Filename:     testFilename,
		DownloadRoot: root,
		Host:         testHost,
		FS:           fs,
		Fetcher:      fetcher,
	})
	require.NoError(t, err)

	ctxA, cancelA := context.WithCancel(context.Background())
	defer cancelA()
	errA := make(chan error, 1)
	go func() {
		_, err := m.Download(ctxA, fixtureSchema())
		errA <- err
	}()
	<-started

	type result struct {
		inst Installation
		err  error
	}
	resB := make(chan result, 1)
	go func() {
		inst, err := m.Download(context.Background(), fixtureSchema())
		resB <- result{inst, err}
	}()
	time.Sleep(50 * time.Millisecond)
	cancelA()

	assert.ErrorIs(t, <-errA, context.Canceled)

	b := <-resB
	require.NoError(t, b.err)
	assert.Equal(t, ProvenanceRemote, b.inst.Provenance)
	assert.Equal(t, "1.2.0", b.inst.Version.String())
	assert.Equal(t, int32(2), calls.Load())

	data, err := fs.ReadFile(b.inst.Path)
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

func TestFallback(t *testing.T) {
	fs := billy.NewMemory()
	seed(t, fs, testRoot, "1.1.0")
	seed(t, fs, testRoot, "1.4.0")
	seed(t, fs, testRoot, "2.1.0")
	require.NoError(t, fs.MkdirAll(filepath.Join(testRoot, "1.9.0"), 0o755))
	require.NoError(t, fs.MkdirAll(filepath.Join(testRoot, "nightly"), 0o755))
	m := newTestManager(t, fs, serving(payload))

	t.Run("no ceiling", func(t *testing.T) {
		inst, err := m.Fallback(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, "1.4.0", inst.Version.String())
	})

	t.Run("ceiling", func(t *testing.T) {
		ceiling := version.MustParse("1.2.0")
		inst, err := m.Fallback(context.Background(), &ceiling)
		require.NoError(t, err)
		assert.Equal(t, "1.1.0", inst.Version.String())
	})

	t.Run("nothing below ceiling", func(t *testing.T) {
		ceiling := version.MustParse("1.0.5")
		_, err := m.Fallback(context.Background(), &ceiling)
		assert.ErrorIs(t, err, ErrNoFallbackAvailable)
	})

	t.Run("missing root", func(t *testing.T) {
		_, err := newTestManager(t, billy.NewMemory(), serving(payload)).Fallback(context.Background(), nil)
		assert.ErrorIs(t, err, ErrNoFallbackAvailable)
	})
}

func cleanupSchema() *manifest.Schema {
	listed := func(v string) manifest.Version {
		return manifest.Version{Version: version.MustParse(v)}
	}
	return &manifest.Schema{
		SchemaVersion: version.MustParse("1.0.0"),
		Versions: []manifest.Version{
			{Version: version.MustParse("1.0.0"), IsDelisted: true},
			listed("1.1.0"),
			listed("1.2.0"),
			listed("1.3.0"),
			listed("1.4.0"),
			listed("2.0.0"),
		},
	}
}

func TestCleanup(t *testing.T) {
	seedAll := func(t *testing.T, fs core.FS) {
		for _, v := range []string{"0.9.0", "1.0.0", "1.1.0", "1.2.0", "1.3.0", "1.4.0", "1.6.0", "2.5.0"} {
			seed(t, fs, testRoot, v)
		}
		require.NoError(t, fs.MkdirAll(filepath.Join(testRoot, "nightly"), 0o755))
	}
	dir := func(v string) string { return filepath.Join(testRoot, v) }

	t.Run("retention", func(t *testing.T) {
		fs := billy.NewMemory()
		seedAll(t, fs)
		m := newTestManager(t, fs, serving(payload))

		m.Cleanup(context.Background(), cleanupSchema(), "")
		m.Cleanup(context.Background(), cleanupSchema(), "")

		for _, v := range []string{"1.4.0", "1.3.0", "0.9.0", "2.5.0", "nightly"} {
			assert.True(t, exists(t, fs, dir(v)), "%s should be kept", v)
		}
		for _, v := range []string{"1.0.0", "1.1.0", "1.2.0", "1.6.0"} {
			assert.False(t, exists(t, fs, dir(v)), "%s should be removed", v)
		}
	})

	t.Run("keeps the path just installed", func(t *testing.T) {
		fs := billy.NewMemory()
		seedAll(t, fs)
		m := newTestManager(t, fs, serving(payload))

		m.Cleanup(context.Background(), cleanupSchema(), filepath.Join(testRoot, "1.1.0", testFilename))

		assert.True(t, exists(t, fs, dir("1.1.0")))
		assert.True(t, exists(t, fs, dir("1.4.0")))
		assert.False(t, exists(t, fs, dir("1.3.0")))
		assert.False(t, exists(t, fs, dir("1.2.0")))
	})

	t.Run("empty root", func(t *testing.T) {
		m := newTestManager(t, billy.NewMemory(), serving(payload))
		assert.NotPanics(t, func() {
			m.Cleanup(context.Background(), cleanupSchema(), "")
		})
	})

	t.Run("cancelled", func(t *testing.T) {
		fs := billy.NewMemory()
		seedAll(t, fs)
		m := newTestManager(t, fs, serving(payload))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		m.Cleanup(ctx, cleanupSchema(), "")
		assert.True(t, exists(t, fs, dir("1.0.0")))
	})
}

// removeFailingFS fails RemoveAll for a single path.
type removeFailingFS struct {
	core.FS
	fail string
}

func (f *removeFailingFS) RemoveAll(path string) error {
	if filepath.Clean(path) == f.fail {
		return errors.New("permission denied")
	}
	return f.FS.RemoveAll(path)
}

func TestCleanup_RemoveFailureIsIgnored(t *testing.T) {
	mem := billy.NewMemory()
	for _, v := range []string{"1.0.0", "1.1.0", "1.2.0", "1.3.0", "1.4.0", "1.6.0"} {
		seed(t, mem, testRoot, v)
	}
	dir := func(v string) string { return filepath.Join(testRoot, v) }
	fs := &removeFailingFS{FS: mem, fail: dir("1.0.0")}
	m := newTestManager(t, fs, serving(payload))

	assert.NotPanics(t, func() {
		m.Cleanup(context.Background(), cleanupSchema(), "")
	})

	assert.True(t, exists(t, mem, dir("1.0.0")), "failed removal leaves the directory")
	for _, v := range []string{"1.1.0", "1.2.0", "1.6.0"} {
		assert.False(t, exists(t, mem, dir(v)), "%s should be removed", v)
	}
	for _, v := range []string{"1.3.0", "1.4.0"} {
		assert.True(t, exists(t, mem, dir(v)), "%s should be kept", v)
	}
}

func TestCleanup_StaleStaging(t *testing.T) {
	fs := billy.NewLocal()
	root := t.TempDir()

	m, err := NewManager(Config{
		Name:         "codewhisperer",
		Range:        testRange(t),
		Filename:     testFilename,
		DownloadRoot: root,
		Host:         testHost,
		FS:           fs,
		Fetcher:      serving(payload),
	})
	require.NoError(t, err)

	stale := filepath.Join(root, StagingDir, "stale")
	fresh := filepath.Join(root, StagingDir, "fresh")
	require.NoError(t, os.MkdirAll(stale, 0o755))
	require.NoError(t, os.MkdirAll(fresh, 0o755))
	old := time.Now().Add(-2 * StaleStagingAge)
	require.NoError(t, os.Chtimes(stale, old, old))

	m.Cleanup(context.Background(), cleanupSchema(), "")

	assert.NoDirExists(t, stale)
	assert.DirExists(t, fresh)
}
