// Package version provides semantic versions and half-open version ranges.
//
// Versions are parsed with or without a leading "v" and compared using strict
// semver precedence (golang.org/x/mod/semver). A Range describes the
// interval [Start, End): the start is included and the end is excluded.
//
//	r, err := version.NewRange(version.MustParse("1.0.0"), version.MustParse("2.0.0"))
//	if err != nil {
//	    return err
//	}
//	r.Contains(version.MustParse("1.9.9")) // true
//	r.Contains(version.MustParse("2.0.0")) // false
package version
