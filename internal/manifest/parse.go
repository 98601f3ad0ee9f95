package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"

	platformerrors "github.com/jmgilman/go/errors"
)

// Parse decodes a manifest document. Unknown fields are ignored; malformed
// JSON, invalid versions and a missing schema version are errors.
func Parse(data []byte) (*Schema, error) {
	var s Schema
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&s); err != nil {
		return nil, platformerrors.Wrap(err, platformerrors.CodeInvalidInput, "failed to decode manifest")
	}
	if s.SchemaVersion.IsZero() {
		return nil, platformerrors.New(platformerrors.CodeSchemaFailed, "manifest is missing manifestSchemaVersion")
	}
	for i, v := range s.Versions {
		if v.Version.IsZero() {
			return nil, platformerrors.Newf(platformerrors.CodeSchemaFailed, "manifest entry %d is missing a version", i)
		}
	}
	return &s, nil
}

// Validate checks that the document's schema major version is expectedMajor.
func (s *Schema) Validate(expectedMajor int) error {
	if got := s.SchemaVersion.Major(); got != expectedMajor {
		return platformerrors.Wrap(
			fmt.Errorf("%w: got %s, want major %d", ErrSchemaMismatch, s.SchemaVersion, expectedMajor),
			platformerrors.CodeSchemaFailed,
			"unsupported manifest schema",
		)
	}
	return nil
}

// ParseAndValidate parses data and validates its schema major version.
func ParseAndValidate(data []byte, expectedMajor int) (*Schema, error) {
	s, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if err := s.Validate(expectedMajor); err != nil {
		return nil, err
	}
	return s, nil
}
