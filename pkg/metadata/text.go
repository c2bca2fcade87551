package metadata

import (
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// PlainText strips markup from an HTML fragment and returns its text content
func PlainText(fragment string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", fmt.Errorf("failed to parse html: %w", err)
	}
	return strings.TrimSpace(doc.Text()), nil
}

var createdAtLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseCreatedAt interprets a portal timestamp. A trailing Z is dropped and
// the remaining wall clock is read in loc, matching how photos are expected
// to show up in the family's own time zone. Timestamps with an explicit
// offset keep it.
func ParseCreatedAt(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	naive := strings.TrimSuffix(strings.TrimSpace(value), "Z")

	for _, layout := range createdAtLayouts {
		if t, err := time.ParseInLocation(layout, naive, loc); err == nil {
			return t, nil
		}
	}
	if t, err := time.Parse(time.RFC3339Nano, naive); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", value)
}
