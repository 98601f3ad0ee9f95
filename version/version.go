package version

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

// Version is a parsed semantic version.
// The zero value is not a valid version; use Parse or MustParse.
type Version struct {
	raw       string
	canonical string
}

// Parse parses a semantic version such as "1.2.3", "v1.2.3" or "1.2.3-rc.1".
func Parse(s string) (Version, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return Version{}, fmt.Errorf("version cannot be empty")
	}

	v := raw
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return Version{}, fmt.Errorf("invalid semantic version %q", s)
	}

	return Version{
		raw:       strings.TrimPrefix(raw, "v"),
		canonical: semver.Canonical(v),
	}, nil
}

// MustParse is like Parse but panics if the version cannot be parsed.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String returns the version as written, without a leading "v".
func (v Version) String() string {
	return v.raw
}

// IsZero reports whether v is the zero Version.
func (v Version) IsZero() bool {
	return v.canonical == ""
}

// Major returns the major version number.
func (v Version) Major() int {
	major, err := strconv.Atoi(strings.TrimPrefix(semver.Major(v.canonical), "v"))
	if err != nil {
		return 0
	}
	return major
}

// Compare returns -1, 0 or +1 depending on whether v is less than, equal to,
// or greater than other in semver precedence.
func (v Version) Compare(other Version) int {
	return semver.Compare(v.canonical, other.canonical)
}

// Less reports whether v sorts before other.
func (v Version) Less(other Version) bool {
	return v.Compare(other) < 0
}

// Equal reports whether v and other have equal precedence.
func (v Version) Equal(other Version) bool {
	return v.Compare(other) == 0
}

// MarshalText implements encoding.TextMarshaler.
func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.raw), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Version) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Max returns the greatest version in vs and false when vs is empty.
func Max(vs []Version) (Version, bool) {
	if len(vs) == 0 {
		return Version{}, false
	}
	best := vs[0]
	for _, v := range vs[1:] {
		if best.Less(v) {
			best = v
		}
	}
	return best, true
}
