// Package metadata stamps downloaded photos with descriptive and location
// metadata.
//
// EXIF tags (ImageDescription, DateTimeOriginal and the GPS position) are
// written in process with go-exif and go-jpeg-image-structure. IPTC fields
// are delegated to an external Tagger, normally exiftool.
package metadata
