package scraper

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Cache is the on-disk byte cache for downloaded feed ZIPs, keyed by a
// file name derived from the feed link.
type Cache struct {
	dir string
}

func NewCache(dir string) *Cache {
	return &Cache{dir: dir}
}

// PathFor maps a feed link to its cache file path.
func (c *Cache) PathFor(link string) string {
	name := strings.ReplaceAll(link, "://", "__")
	name = strings.ReplaceAll(name, "/", "_")
	return filepath.Join(c.dir, name)
}

// AgeDays returns the age of the cached file in days, or ok=false when the
// link is not cached.
func (c *Cache) AgeDays(link string) (float64, bool) {
	info, err := os.Stat(c.PathFor(link))
	if err != nil {
		return 0, false
	}
	return time.Since(info.ModTime()).Hours() / 24, true
}

// Read returns the cached bytes for a link.
func (c *Cache) Read(link string) ([]byte, error) {
	data, err := os.ReadFile(c.PathFor(link))
	if err != nil {
		return nil, fmt.Errorf("reading feed cache: %w", err)
	}
	return data, nil
}

// Write stores downloaded bytes for a link.
func (c *Cache) Write(link string, data []byte) error {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	if err := os.WriteFile(c.PathFor(link), data, 0644); err != nil {
		return fmt.Errorf("writing feed cache: %w", err)
	}
	return nil
}
