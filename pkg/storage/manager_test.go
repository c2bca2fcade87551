package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "photos")
	m, err := NewManager(dir)
	require.NoError(t, err)
	assert.DirExists(t, dir)

	assert.Equal(t, filepath.Join(dir, "42_max.jpg"), m.PhotoPath(42))
	assert.False(t, m.Exists(42))

	path, err := m.SavePhoto(strings.NewReader("jpegdata"), 42)
	require.NoError(t, err)
	assert.Equal(t, m.PhotoPath(42), path)
	assert.True(t, m.Exists(42))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "jpegdata", string(data))
	assert.NoFileExists(t, path+".tmp")
}

func TestExistsSeesExternalFiles(t *testing.T) {
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(m.PhotoPath(7), []byte("x"), 0644))
	assert.True(t, m.Exists(7))

	require.NoError(t, os.Mkdir(m.PhotoPath(8), 0755))
	assert.False(t, m.Exists(8), "directories are not photos")
}

func TestSetTimes(t *testing.T) {
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)
	_, err = m.SavePhoto(strings.NewReader("x"), 1)
	require.NoError(t, err)

	when := time.Date(2024, 1, 1, 10, 0, 0, 0, time.Local)
	require.NoError(t, m.SetTimes(1, when))

	info, err := os.Stat(m.PhotoPath(1))
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(when))

	assert.Error(t, m.SetTimes(2, when))
}

func TestWriteBytesAtomicReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.json")
	require.NoError(t, WriteBytesAtomic(path, []byte("one"), 0644))
	require.NoError(t, WriteBytesAtomic(path, []byte("two"), 0644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))
}

func TestWriteFileAtomicMissingDir(t *testing.T) {
	err := WriteBytesAtomic(filepath.Join(t.TempDir(), "nope", "f"), []byte("x"), 0644)
	assert.Error(t, err)
}
