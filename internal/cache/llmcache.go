package cache

import (
	"context"
	"os"
	"path/filepath"
	"time"
)

// LLMCache stores model responses keyed by KeyFrom(model, prompt).
type LLMCache struct {
	Dir string
	// StrictPerms, when true, enforces 0700 on the directory and 0600 on files.
	StrictPerms bool
}

func (c *LLMCache) store() store { return store{dir: c.Dir, strict: c.StrictPerms} }

func (c *LLMCache) pathFor(key string) string {
	return filepath.Join(c.Dir, key+".json")
}

// Get returns cached bytes if present. A miss is not an error.
func (c *LLMCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	if err := c.store().ensure(); err != nil {
		return nil, false, err
	}
	p := c.pathFor(key)
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, false, nil
	}
	// Touch mtime on access so age-based purges keep hot entries.
	now := time.Now()
	_ = os.Chtimes(p, now, now)
	return b, true, nil
}

// Save writes bytes to cache.
func (c *LLMCache) Save(_ context.Context, key string, data []byte) error {
	s := c.store()
	if err := s.ensure(); err != nil {
		return err
	}
	return s.writeAtomic(c.pathFor(key), data)
}
