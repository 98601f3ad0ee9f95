// Package settings implements lspinstall.Settings on top of a YAML file.
//
// The file maps server names to their settings:
//
//	servers:
//	  codewhisperer:
//	    localOverridePath: /opt/dev/lsp/aws-lsp-codewhisperer
//
// A missing file is treated as empty.
package settings

import (
	"bytes"
	"path/filepath"
	"sync"

	platformerrors "github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/fs/core"
	"gopkg.in/yaml.v3"

	"github.com/jmgilman/go/lspinstall"
)

// Document is the on-disk settings format.
type Document struct {
	Servers map[string]Server `yaml:"servers"`
}

// Server holds the settings for one language server.
type Server struct {
	LocalOverridePath string `yaml:"localOverridePath,omitempty"`
}

// Repository is a YAML-backed settings store. It is safe for concurrent use.
type Repository struct {
	fs   core.FS
	path string

	mu  sync.RWMutex
	doc Document
}

var _ lspinstall.Settings = (*Repository)(nil)

// Open loads the settings file at path.
func Open(fs core.FS, path string) (*Repository, error) {
	if fs == nil {
		return nil, platformerrors.New(platformerrors.CodeInvalidConfig, "filesystem cannot be nil")
	}
	if path == "" {
		return nil, platformerrors.New(platformerrors.CodeInvalidConfig, "settings path cannot be empty")
	}

	r := &Repository{fs: fs, path: path}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Path returns the settings file location.
func (r *Repository) Path() string {
	return r.path
}

// Reload re-reads the settings file.
func (r *Repository) Reload() error {
	exists, err := r.fs.Exists(r.path)
	if err != nil {
		return platformerrors.Wrapf(err, platformerrors.CodeInternal, "failed to stat settings file %s", r.path)
	}

	var doc Document
	if exists {
		data, err := r.fs.ReadFile(r.path)
		if err != nil {
			return platformerrors.Wrapf(err, platformerrors.CodeInternal, "failed to read settings file %s", r.path)
		}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return platformerrors.Wrapf(err, platformerrors.CodeInvalidConfig, "failed to parse settings file %s", r.path)
		}
	}

	r.mu.Lock()
	r.doc = doc
	r.mu.Unlock()
	return nil
}

// LocalOverridePath implements lspinstall.Settings.
func (r *Repository) LocalOverridePath(server string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.doc.Servers[server].LocalOverridePath, nil
}

// SetLocalOverridePath pins server to path and saves the file. An empty path
// clears the override.
func (r *Repository) SetLocalOverridePath(server, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.doc.Servers == nil {
		r.doc.Servers = make(map[string]Server)
	}
	s := r.doc.Servers[server]
	s.LocalOverridePath = path
	if s == (Server{}) {
		delete(r.doc.Servers, server)
	} else {
		r.doc.Servers[server] = s
	}

	return r.save()
}

func (r *Repository) save() error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(r.doc); err != nil {
		return platformerrors.Wrap(err, platformerrors.CodeInternal, "failed to encode settings")
	}
	if err := enc.Close(); err != nil {
		return platformerrors.Wrap(err, platformerrors.CodeInternal, "failed to encode settings")
	}

	if err := r.fs.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return platformerrors.Wrapf(err, platformerrors.CodeInternal, "failed to create directory for %s", r.path)
	}
	if err := r.fs.WriteFile(r.path, buf.Bytes(), 0o644); err != nil {
		return platformerrors.Wrapf(err, platformerrors.CodeInternal, "failed to write settings file %s", r.path)
	}
	return nil
}
