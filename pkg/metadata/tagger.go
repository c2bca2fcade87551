package metadata

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// IPTC holds the IPTC fields written by the external tagger
type IPTC struct {
	ObjectName string
	ByLine     string
	Keywords   string
}

// Tagger writes IPTC fields into an image file
type Tagger interface {
	Tag(ctx context.Context, path string, fields IPTC) error
}

// ExifTool runs the exiftool binary
type ExifTool struct {
	Path              string
	OverwriteOriginal bool
}

// NewExifTool creates an ExifTool tagger; an empty path means "exiftool" on PATH
func NewExifTool(path string, overwriteOriginal bool) *ExifTool {
	if path == "" {
		path = "exiftool"
	}
	return &ExifTool{Path: path, OverwriteOriginal: overwriteOriginal}
}

// Args returns the command line passed to exiftool for path
func (e *ExifTool) Args(path string, fields IPTC) []string {
	args := []string{
		"-IPTC:ObjectName=" + fields.ObjectName,
		"-IPTC:By-line=" + fields.ByLine,
		"-IPTC:Keywords=" + fields.Keywords,
	}
	if e.OverwriteOriginal {
		args = append(args, "-overwrite_original")
	}
	return append(args, path)
}

// Tag runs exiftool and fails on a non-zero exit status
func (e *ExifTool) Tag(ctx context.Context, path string, fields IPTC) error {
	cmd := exec.CommandContext(ctx, e.Path, e.Args(path, fields)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return fmt.Errorf("%s failed: %w: %s", e.Path, err, msg)
		}
		return fmt.Errorf("%s failed: %w", e.Path, err)
	}
	return nil
}

// NopTagger skips IPTC tagging
type NopTagger struct{}

func (NopTagger) Tag(context.Context, string, IPTC) error { return nil }
