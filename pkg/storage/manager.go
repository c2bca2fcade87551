package storage

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Manager owns the photo directory. A photo is identified by its post id and
// lives at {dir}/{id}_max.jpg.
type Manager struct {
	outputDir string
}

// NewManager creates a new storage manager
func NewManager(outputDir string) (*Manager, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &Manager{outputDir: outputDir}, nil
}

// PhotoPath returns the local path of the photo for a post id
func (m *Manager) PhotoPath(id int64) string {
	return filepath.Join(m.outputDir, fmt.Sprintf("%d_max.jpg", id))
}

// Exists reports whether the photo file for id is already on disk. The file
// system is the only source of truth so interrupted runs resume correctly.
func (m *Manager) Exists(id int64) bool {
	info, err := os.Stat(m.PhotoPath(id))
	return err == nil && info.Mode().IsRegular()
}

// SavePhoto writes the photo for id from r, atomically
func (m *Manager) SavePhoto(r io.Reader, id int64) (string, error) {
	path := m.PhotoPath(id)
	if err := WriteFileAtomic(path, r, 0644); err != nil {
		return "", fmt.Errorf("failed to save photo %d: %w", id, err)
	}
	return path, nil
}

// SetTimes sets both access and modification time of the photo for id
func (m *Manager) SetTimes(id int64, t time.Time) error {
	if err := os.Chtimes(m.PhotoPath(id), t, t); err != nil {
		return fmt.Errorf("failed to set file times: %w", err)
	}
	return nil
}

// WriteFileAtomic copies r into a temporary sibling of path and renames it
// into place, so readers never observe a partially written file.
func WriteFileAtomic(path string, r io.Reader, perm os.FileMode) error {
	tempFile := path + ".tmp"
	out, err := os.OpenFile(tempFile, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	_, err = io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to write data: %w", err)
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}

// WriteBytesAtomic is WriteFileAtomic for an in-memory buffer
func WriteBytesAtomic(path string, data []byte, perm os.FileMode) error {
	return WriteFileAtomic(path, bytes.NewReader(data), perm)
}
