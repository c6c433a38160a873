package crawl

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// PageResult is the stored outcome for one summarized page.
type PageResult struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

// Entry pairs a normalized URL with its result.
type Entry struct {
	URL  string
	Page PageResult
}

// Results maps normalized URLs to page results and remembers insertion
// order. Its JSON form is an object whose keys appear in that order.
type Results struct {
	order []string
	pages map[string]PageResult
}

// NewResults returns an empty Results.
func NewResults() *Results {
	return &Results{pages: make(map[string]PageResult)}
}

// Set records p for url. Re-setting an existing URL keeps its position.
func (r *Results) Set(url string, p PageResult) {
	if r.pages == nil {
		r.pages = make(map[string]PageResult)
	}
	if _, ok := r.pages[url]; !ok {
		r.order = append(r.order, url)
	}
	r.pages[url] = p
}

// Get returns the result for url.
func (r *Results) Get(url string) (PageResult, bool) {
	if r == nil {
		return PageResult{}, false
	}
	p, ok := r.pages[url]
	return p, ok
}

// Len reports the number of recorded pages.
func (r *Results) Len() int {
	if r == nil {
		return 0
	}
	return len(r.order)
}

// URLs returns the recorded URLs in insertion order.
func (r *Results) URLs() []string {
	if r == nil {
		return nil
	}
	return append([]string(nil), r.order...)
}

// Entries returns all results in insertion order.
func (r *Results) Entries() []Entry {
	if r == nil {
		return nil
	}
	out := make([]Entry, 0, len(r.order))
	for _, u := range r.order {
		out = append(out, Entry{URL: u, Page: r.pages[u]})
	}
	return out
}

// MarshalJSON writes an object keyed by URL in insertion order. HTML
// characters are left unescaped so the file stays readable.
func (r *Results) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range r.Entries() {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encodeRaw(&buf, e.URL); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := encodeRaw(&buf, e.Page); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object keyed by URL, keeping the key order.
func (r *Results) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("results: expected object, got %v", tok)
	}
	out := NewResults()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("results: expected string key, got %v", tok)
		}
		var p PageResult
		if err := dec.Decode(&p); err != nil {
			return fmt.Errorf("results: %s: %w", key, err)
		}
		out.Set(key, p)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*r = *out
	return nil
}

func encodeRaw(buf *bytes.Buffer, v any) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	// Encode terminates each value with a newline.
	buf.Truncate(buf.Len() - 1)
	return nil
}
