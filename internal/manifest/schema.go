package manifest

import (
	"strings"

	"github.com/jmgilman/go/lspinstall/version"
)

// Platform identifies an operating system family in the manifest.
type Platform string

const (
	// PlatformWindows is Microsoft Windows.
	PlatformWindows Platform = "windows"
	// PlatformMac is macOS.
	PlatformMac Platform = "mac"
	// PlatformLinux is Linux.
	PlatformLinux Platform = "linux"
)

// Source records where a manifest was obtained from.
type Source int

const (
	// SourceRemote means the manifest was downloaded from its URL.
	SourceRemote Source = iota
	// SourceCache means the last known good copy on disk was used.
	SourceCache
)

func (s Source) String() string {
	if s == SourceCache {
		return "cache"
	}
	return "remote"
}

// Schema is a parsed manifest document.
type Schema struct {
	SchemaVersion version.Version `json:"manifestSchemaVersion"`
	Versions      []Version       `json:"versions"`

	// Source is set by Manager.Download and is not part of the document.
	Source Source `json:"-"`
}

// Version is one published server version.
type Version struct {
	Version    version.Version `json:"version"`
	IsDelisted bool            `json:"isDelisted"`
	Targets    []Target        `json:"targets"`
}

// Target is a build of a version for a specific platform and architecture.
type Target struct {
	Platform Platform  `json:"platform"`
	Arch     string    `json:"arch"`
	Contents []Content `json:"contents"`
}

// Content is a single downloadable file within a target.
type Content struct {
	Filename string   `json:"filename"`
	URL      string   `json:"url"`
	Hashes   []string `json:"hashes"`
}

// Matches reports whether the target was built for platform and arch.
// Comparison is case-insensitive.
func (t Target) Matches(platform Platform, arch string) bool {
	return strings.EqualFold(string(t.Platform), string(platform)) && strings.EqualFold(t.Arch, arch)
}

// Content returns the entry named filename.
func (t Target) Content(filename string) (Content, bool) {
	for _, c := range t.Contents {
		if c.Filename == filename {
			return c, true
		}
	}
	return Content{}, false
}

// Target returns the first target matching platform and arch that contains
// filename.
func (v Version) Target(platform Platform, arch, filename string) (Target, Content, bool) {
	for _, t := range v.Targets {
		if !t.Matches(platform, arch) {
			continue
		}
		if c, ok := t.Content(filename); ok {
			return t, c, true
		}
	}
	return Target{}, Content{}, false
}

// Listed returns the versions inside r that have not been delisted.
func (s *Schema) Listed(r version.Range) []version.Version {
	var out []version.Version
	for _, v := range s.Versions {
		if !v.IsDelisted && r.Contains(v.Version) {
			out = append(out, v.Version)
		}
	}
	return out
}
