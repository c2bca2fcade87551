package cache

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	errs "tcphotos/pkg/errors"
	"tcphotos/pkg/logger"
	"tcphotos/pkg/storage"
)

// PageCache stores one JSON file per crawled page. The file's modification
// time is the only validity signal.
type PageCache struct {
	dir     string
	timeout time.Duration
	now     func() time.Time
	logger  logger.Logger
}

// New creates a PageCache rooted at dir, creating the directory if needed
func New(dir string, timeout time.Duration, log logger.Logger) (*PageCache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeCache, "create cache directory", err)
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &PageCache{
		dir:     dir,
		timeout: timeout,
		now:     time.Now,
		logger:  log.WithField("component", "cache"),
	}, nil
}

// SetClock replaces the time source used for expiry checks
func (c *PageCache) SetClock(now func() time.Time) {
	c.now = now
}

// Path returns the cache file for page
func (c *PageCache) Path(page int) string {
	return filepath.Join(c.dir, fmt.Sprintf("cache_page_%d.json", page))
}

// Load returns the cached bytes for page if a fresh entry exists. An expired
// entry is deleted and reported as a miss.
func (c *PageCache) Load(page int) ([]byte, bool, error) {
	path := c.Path(page)

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errs.Wrap(errs.ErrorTypeCache, "stat cache entry", err)
	}

	age := c.now().Sub(info.ModTime())
	if age > c.timeout {
		c.logger.DebugWithFields("cache entry expired", map[string]interface{}{
			"page": page,
			"age":  age,
		})
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, false, errs.Wrap(errs.ErrorTypeCache, "remove expired cache entry", err)
		}
		return nil, false, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, errs.Wrap(errs.ErrorTypeCache, "read cache entry", err)
	}
	return data, true, nil
}

// Store writes data as the entry for page
func (c *PageCache) Store(page int, data []byte) error {
	if err := storage.WriteBytesAtomic(c.Path(page), data, 0644); err != nil {
		return errs.Wrap(errs.ErrorTypeCache, "write cache entry", err)
	}
	return nil
}

// Canonicalize re-encodes a JSON document with sorted object keys and
// four-space indentation. Numbers and markup are kept verbatim.
func Canonicalize(raw []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
