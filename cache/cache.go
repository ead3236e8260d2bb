// Package cache keeps rendered post pages as files on disk so repeat
// visits skip the database and the markdown renderer entirely.
package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
)

const cacheDir = "cache"

// Path returns the cache file path for a post slug.
func Path(slug string) string {
	hash := generateHash(slug)
	return filepath.Join(cacheDir, fmt.Sprintf("%s_%s.html", slug, hash[:16]))
}

// generateHash generates an xxHash hash for the given string
func generateHash(s string) string {
	hash := xxhash.Sum64String(s)
	return fmt.Sprintf("%016x", hash)
}

// Write stores rendered HTML for a slug.
func Write(slug, html string) error {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return err
	}
	return os.WriteFile(Path(slug), []byte(html), 0644)
}

// Read returns the cached HTML for a slug if it exists and is not expired.
func Read(slug string, maxAge time.Duration) (string, bool) {
	path := Path(slug)

	info, err := os.Stat(path)
	if err != nil {
		return "", false
	}

	if time.Since(info.ModTime()) > maxAge {
		return "", false
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}

	return string(content), true
}

// Clear removes the cache entry for a slug. Files left over from an older
// slug spelling are matched by prefix and removed too.
func Clear(slug string) error {
	if slug == "" {
		return nil
	}

	err := os.Remove(Path(slug))
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	matches, err := filepath.Glob(filepath.Join(cacheDir, slug+"_*.html"))
	if err != nil {
		return nil
	}
	for _, match := range matches {
		os.Remove(match)
	}

	return nil
}

// ClearAll removes every cached page.
func ClearAll() error {
	return os.RemoveAll(cacheDir)
}

// ClearOld removes cache files older than the specified duration.
func ClearOld(maxAge time.Duration) error {
	return filepath.Walk(cacheDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}

		if info.IsDir() || !strings.HasSuffix(path, ".html") {
			return nil
		}

		if time.Since(info.ModTime()) > maxAge {
			os.Remove(path)
		}

		return nil
	})
}
