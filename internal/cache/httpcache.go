package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// HTTPEntry captures the validators needed for conditional revalidation.
type HTTPEntry struct {
	URL          string    `json:"url"`
	ContentType  string    `json:"content_type"`
	ETag         string    `json:"etag"`
	LastModified string    `json:"last_modified"`
	SavedAt      time.Time `json:"saved_at"`
}

// HTTPCache stores page bodies on disk as <key>.meta.json and <key>.body
// where key is sha256(url). No eviction policy is included; see
// PurgeHTTPCacheByAge.
type HTTPCache struct {
	Dir         string
	StrictPerms bool
}

func (c *HTTPCache) store() store { return store{dir: c.Dir, strict: c.StrictPerms} }

func (c *HTTPCache) metaPath(key string) string { return filepath.Join(c.Dir, key+".meta.json") }
func (c *HTTPCache) bodyPath(key string) string { return filepath.Join(c.Dir, key+".body") }

// LoadMeta returns entry metadata if present.
func (c *HTTPCache) LoadMeta(_ context.Context, url string) (*HTTPEntry, error) {
	if err := c.store().ensure(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(c.metaPath(digest(url)))
	if err != nil {
		return nil, err
	}
	var e HTTPEntry
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, fmt.Errorf("decode meta: %w", err)
	}
	return &e, nil
}

// LoadBody returns the cached body if present.
func (c *HTTPCache) LoadBody(_ context.Context, url string) ([]byte, error) {
	if err := c.store().ensure(); err != nil {
		return nil, err
	}
	return os.ReadFile(c.bodyPath(digest(url)))
}

// Save stores a new entry. The body is written before the metadata so a
// present meta file always has a matching body.
func (c *HTTPCache) Save(_ context.Context, url string, contentType string, etag string, lastModified string, body []byte) error {
	s := c.store()
	if err := s.ensure(); err != nil {
		return err
	}
	key := digest(url)
	if err := s.writeAtomic(c.bodyPath(key), body); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	meta, err := json.Marshal(HTTPEntry{
		URL:          url,
		ContentType:  contentType,
		ETag:         etag,
		LastModified: lastModified,
		SavedAt:      time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode meta: %w", err)
	}
	if err := s.writeAtomic(c.metaPath(key), meta); err != nil {
		return fmt.Errorf("write meta: %w", err)
	}
	return nil
}
