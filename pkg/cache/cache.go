// Package cache persists analysis records on disk, one JSON document per
// repository. Entries are permanent until purged; there is no TTL and no
// eviction. Reads fail open: a missing or unreadable entry is a miss.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pkgz/lgr"

	"github.com/umputun/starscope/pkg/domain"
)

// Status describes the outcome of a cache lookup
type Status int

// lookup outcomes. Corrupt behaves as Miss for the pipeline but remains
// distinguishable so tests and logs can tell the difference.
const (
	Miss Status = iota
	Hit
	Corrupt
)

// ResultCache stores one analysis record per repository full name under
// a directory of sanitized-key JSON files.
type ResultCache struct {
	dir string
}

// New creates a result cache rooted at dir. The directory is created
// lazily on the first write.
func New(dir string) *ResultCache {
	return &ResultCache{dir: dir}
}

// Get returns the stored record for the repo, if any. Deserialization
// failures are treated as absent, not fatal. Returned records always
// carry FromCache=true regardless of what was stored.
func (c *ResultCache) Get(fullName string) (*domain.AnalysisRecord, Status) {
	data, err := os.ReadFile(c.path(fullName))
	if err != nil {
		return nil, Miss
	}

	var rec domain.AnalysisRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		lgr.Printf("[WARN] corrupt cache entry for %s, treating as miss: %v", fullName, err)
		return nil, Corrupt
	}

	rec.FromCache = true
	return &rec, Hit
}

// Put persists the record keyed by its repo full name, overwriting any
// prior entry. Creates the cache directory if needed.
func (c *ResultCache) Put(rec *domain.AnalysisRecord) error {
	if err := os.MkdirAll(c.dir, 0o750); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal record for %s: %w", rec.Repo.FullName, err)
	}

	if err := os.WriteFile(c.path(rec.Repo.FullName), data, 0o600); err != nil {
		return fmt.Errorf("write cache entry for %s: %w", rec.Repo.FullName, err)
	}
	return nil
}

// Has reports whether an entry exists without deserializing it
func (c *ResultCache) Has(fullName string) bool {
	_, err := os.Stat(c.path(fullName))
	return err == nil
}

// Purge removes all cached entries and the cache directory itself
func (c *ResultCache) Purge() error {
	if err := os.RemoveAll(c.dir); err != nil {
		return fmt.Errorf("purge cache dir: %w", err)
	}
	return nil
}

// Size returns the number of stored entries
func (c *ResultCache) Size() int {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return 0
	}
	count := 0
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			count++
		}
	}
	return count
}

func (c *ResultCache) path(fullName string) string {
	return filepath.Join(c.dir, SanitizeKey(fullName)+".json")
}

// SanitizeKey turns a repo full name into a filesystem-safe, stable,
// case-preserving token. Path separators become hyphens, anything outside
// the alphanumeric/dot/underscore/hyphen set is dropped.
func SanitizeKey(fullName string) string {
	replaced := strings.NewReplacer("/", "-", "\\", "-").Replace(fullName)
	var sb strings.Builder
	for _, r := range replaced {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == '-' || r == '.' || r == '_':
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
