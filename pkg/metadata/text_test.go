package metadata

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlainText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"<p>Hi</p>", "Hi"},
		{"Jane", "Jane"},
		{"<div><b>Painting</b> at the <i>easel</i></div>", "Painting at the easel"},
		{"Tom &amp; Jerry", "Tom & Jerry"},
		{"", ""},
	}

	for _, tt := range tests {
		got, err := PlainText(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestParseCreatedAt(t *testing.T) {
	loc := time.FixedZone("school", -5*3600)

	got, err := ParseCreatedAt("2024-01-01T10:00:00Z", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 10, 0, 0, 0, loc), got)

	got, err = ParseCreatedAt("2024-01-01T10:00:00.123Z", loc)
	require.NoError(t, err)
	assert.Equal(t, 123*time.Millisecond, time.Duration(got.Nanosecond()))

	got, err = ParseCreatedAt("2024-01-01T10:00:00+02:00", loc)
	require.NoError(t, err)
	assert.Equal(t, 8, got.UTC().Hour())

	got, err = ParseCreatedAt("2024-01-01T10:00:00Z", nil)
	require.NoError(t, err)
	assert.Equal(t, time.Local, got.Location())

	_, err = ParseCreatedAt("yesterday", loc)
	assert.Error(t, err)
}
