// Package testutil builds fixtures shared by package tests.
package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"testing"

	exif "github.com/dsoprea/go-exif/v3"
	exifcommon "github.com/dsoprea/go-exif/v3/common"
	jpegstructure "github.com/dsoprea/go-jpeg-image-structure/v2"
)

// PlainJPEG returns a small JPEG without any EXIF segment
func PlainJPEG(t testing.TB) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 30), G: uint8(y * 30), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

// ExifJPEG returns a small JPEG carrying a minimal EXIF container, like the
// originals served by the portal.
func ExifJPEG(t testing.TB) []byte {
	t.Helper()

	jmp := jpegstructure.NewJpegMediaParser()
	intfc, err := jmp.ParseBytes(PlainJPEG(t))
	if err != nil {
		t.Fatalf("parse jpeg: %v", err)
	}
	sl := intfc.(*jpegstructure.SegmentList)

	im, err := exifcommon.NewIfdMappingWithStandard()
	if err != nil {
		t.Fatalf("ifd mapping: %v", err)
	}
	ti := exif.NewTagIndex()
	ib := exif.NewIfdBuilder(im, ti, exifcommon.IfdStandardIfdIdentity, exifcommon.EncodeDefaultByteOrder)
	if err := ib.AddStandardWithName("Software", "tcphotos-test"); err != nil {
		t.Fatalf("add tag: %v", err)
	}
	if err := sl.SetExif(ib); err != nil {
		t.Fatalf("set exif: %v", err)
	}

	var buf bytes.Buffer
	if err := sl.Write(&buf); err != nil {
		t.Fatalf("write jpeg: %v", err)
	}
	return buf.Bytes()
}

// WriteFile writes data to path or fails the test
func WriteFile(t testing.TB, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
