package metadata

import (
	"bytes"
	"fmt"
	"os"
	"time"

	exif "github.com/dsoprea/go-exif/v3"
	jpegstructure "github.com/dsoprea/go-jpeg-image-structure/v2"
	"tcphotos/pkg/storage"
)

// ExifDateLayout is the EXIF DateTimeOriginal format
const ExifDateLayout = "2006:01:02 15:04:05"

const (
	ifdExifPath = "IFD/Exif"
	ifdGPSPath  = "IFD/GPSInfo"
)

// ExifFields are the tags written into a photo's EXIF container
type ExifFields struct {
	Description string
	TakenAt     time.Time
	Location    Coordinate
}

// WriteExif loads the existing EXIF container of the JPEG at path, sets the
// description, original date and GPS position, and writes the image back in
// place. A JPEG without an EXIF container is an error.
func WriteExif(path string, fields ExifFields) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}

	out, err := applyExif(data, fields)
	if err != nil {
		return err
	}

	if err := storage.WriteBytesAtomic(path, out, 0644); err != nil {
		return fmt.Errorf("failed to write image: %w", err)
	}
	return nil
}

func applyExif(data []byte, fields ExifFields) ([]byte, error) {
	sl, err := parseJPEG(data)
	if err != nil {
		return nil, err
	}

	// ConstructExifBuilder quietly starts an empty container when the image
	// has none, so check for one first.
	if _, _, err := sl.Exif(); err != nil {
		return nil, fmt.Errorf("failed to load exif container: %w", err)
	}

	rootIb, err := sl.ConstructExifBuilder()
	if err != nil {
		return nil, fmt.Errorf("failed to load exif container: %w", err)
	}

	if err := rootIb.SetStandardWithName("ImageDescription", fields.Description); err != nil {
		return nil, fmt.Errorf("failed to set ImageDescription: %w", err)
	}

	exifIb, err := exif.GetOrCreateIbFromRootIb(rootIb, ifdExifPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open exif ifd: %w", err)
	}
	if err := exifIb.SetStandardWithName("DateTimeOriginal", fields.TakenAt.Format(ExifDateLayout)); err != nil {
		return nil, fmt.Errorf("failed to set DateTimeOriginal: %w", err)
	}

	gpsIb, err := exif.GetOrCreateIbFromRootIb(rootIb, ifdGPSPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open gps ifd: %w", err)
	}
	if err := setGPS(gpsIb, fields.Location); err != nil {
		return nil, err
	}

	if err := sl.SetExif(rootIb); err != nil {
		return nil, fmt.Errorf("failed to update exif segment: %w", err)
	}

	var buf bytes.Buffer
	if err := sl.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

func setGPS(ib *exif.IfdBuilder, c Coordinate) error {
	axes := []struct {
		refTag, valueTag string
		dms              DMS
	}{
		{"GPSLatitudeRef", "GPSLatitude", c.LatitudeDMS()},
		{"GPSLongitudeRef", "GPSLongitude", c.LongitudeDMS()},
	}

	for _, axis := range axes {
		rationals, err := axis.dms.Rationals()
		if err != nil {
			return fmt.Errorf("failed to convert %s: %w", axis.valueTag, err)
		}
		if err := ib.SetStandardWithName(axis.refTag, axis.dms.Ref); err != nil {
			return fmt.Errorf("failed to set %s: %w", axis.refTag, err)
		}
		if err := ib.SetStandardWithName(axis.valueTag, rationals); err != nil {
			return fmt.Errorf("failed to set %s: %w", axis.valueTag, err)
		}
	}
	return nil
}

func parseJPEG(data []byte) (*jpegstructure.SegmentList, error) {
	jmp := jpegstructure.NewJpegMediaParser()
	intfc, err := jmp.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse jpeg: %w", err)
	}

	sl, ok := intfc.(*jpegstructure.SegmentList)
	if !ok {
		return nil, fmt.Errorf("unexpected jpeg parse result %T", intfc)
	}
	return sl, nil
}

// ReadTag returns the value of the first tag called name in the IFD at
// ifdPath ("IFD", "IFD/Exif" or "IFD/GPSInfo").
func ReadTag(path, ifdPath, name string) (interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sl, err := parseJPEG(data)
	if err != nil {
		return nil, err
	}

	rootIfd, _, err := sl.Exif()
	if err != nil {
		return nil, fmt.Errorf("failed to read exif: %w", err)
	}

	ifd, err := exif.FindIfdFromRootIfd(rootIfd, ifdPath)
	if err != nil {
		return nil, fmt.Errorf("ifd %s not found: %w", ifdPath, err)
	}

	entries, err := ifd.FindTagWithName(name)
	if err != nil {
		return nil, fmt.Errorf("tag %s not found: %w", name, err)
	}
	return entries[0].Value()
}
