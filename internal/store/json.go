package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/hyperifyio/sitesum/internal/crawl"
)

// DefaultJSONPath is where results land when no output path is configured.
const DefaultJSONPath = "page_summaries.json"

// JSONFile persists the latest crawl's results, replacing the previous file
// on every write. Writes are serialized so concurrent crawls cannot
// interleave.
type JSONFile struct {
	Path string
	mu   sync.Mutex
}

func (f *JSONFile) path() string {
	if f.Path == "" {
		return DefaultJSONPath
	}
	return f.Path
}

// Write encodes results as a two-space indented UTF-8 object keyed by URL.
// Non-ASCII and HTML characters are written as-is.
func (f *JSONFile) Write(results *crawl.Results) error {
	if results == nil {
		results = crawl.NewResults()
	}
	data, err := EncodeJSON(results)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.path()
	if dir := filepath.Dir(p); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	if err := os.Rename(tmp, p); err != nil {
		return fmt.Errorf("replace results: %w", err)
	}
	return nil
}

// Read loads a previously written results file.
func (f *JSONFile) Read() (*crawl.Results, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, err := os.ReadFile(f.path())
	if err != nil {
		return nil, err
	}
	r := crawl.NewResults()
	if err := json.Unmarshal(b, r); err != nil {
		return nil, fmt.Errorf("decode results: %w", err)
	}
	return r, nil
}

// EncodeJSON renders results in the persisted file format.
func EncodeJSON(results *crawl.Results) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return nil, fmt.Errorf("encode results: %w", err)
	}
	return buf.Bytes(), nil
}
