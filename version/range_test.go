package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRange_Contains(t *testing.T) {
	r, err := ParseRange("1.0.0", "2.0.0")
	require.NoError(t, err)

	tests := []struct {
		version string
		want    bool
	}{
		{"1.0.0", true},
		{"1.5.3", true},
		{"1.99.99", true},
		{"2.0.0", false},
		{"2.0.1", false},
		{"0.9.9", false},
		{"1.0.0-rc.1", false},
		{"2.0.0-rc.1", true},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Contains(MustParse(tt.version)))
		})
	}

	assert.False(t, r.Contains(Version{}), "zero version is never contained")
}

func TestNewRange(t *testing.T) {
	t.Run("end before start", func(t *testing.T) {
		_, err := ParseRange("2.0.0", "1.0.0")
		assert.Error(t, err)
	})

	t.Run("empty interval", func(t *testing.T) {
		_, err := ParseRange("1.0.0", "1.0.0")
		assert.Error(t, err)
	})

	t.Run("invalid bound", func(t *testing.T) {
		_, err := ParseRange("1.0.0", "two")
		assert.ErrorContains(t, err, "invalid range end")
	})

	t.Run("zero bounds", func(t *testing.T) {
		_, err := NewRange(Version{}, MustParse("1.0.0"))
		assert.Error(t, err)
	})
}

func TestRange_String(t *testing.T) {
	r, err := ParseRange("v1.0.0", "2.0.0")
	require.NoError(t, err)
	assert.Equal(t, "[1.0.0, 2.0.0)", r.String())
}
