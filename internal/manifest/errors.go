package manifest

import "errors"

// ErrManifestUnavailable is returned when neither the remote manifest nor a
// valid cached copy could be obtained.
var ErrManifestUnavailable = errors.New("manifest unavailable")

// ErrSchemaMismatch is returned when the manifest's schema major version is
// not the one this client understands.
var ErrSchemaMismatch = errors.New("manifest schema version mismatch")
