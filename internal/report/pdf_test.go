package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/hyperifyio/sitesum/internal/crawl"
)

func TestPDFBytes_RendersResults(t *testing.T) {
	r := crawl.NewResults()
	r.Set("https://example.com", crawl.PageResult{Title: "Home", Summary: "A café for developers."})
	r.Set("https://example.com/about", crawl.PageResult{Title: "About", Summary: "Who we are."})

	b, err := PDFBytes(Meta{StartURL: "https://example.com", GeneratedAt: time.Now()}, r)
	if err != nil {
		t.Fatalf("pdf: %v", err)
	}
	if !bytes.HasPrefix(b, []byte("%PDF-")) {
		t.Fatalf("expected PDF header, got %q", b[:8])
	}
}

func TestPDFBytes_EmptyResults(t *testing.T) {
	b, err := PDFBytes(Meta{}, crawl.NewResults())
	if err != nil {
		t.Fatalf("pdf: %v", err)
	}
	if len(b) == 0 {
		t.Fatalf("expected non-empty document")
	}
}

func TestCP1252(t *testing.T) {
	if got := cp1252("cafe\u0301"); got != "caf\xe9" {
		t.Fatalf("decomposed accent not composed: %q", got)
	}
	if got := cp1252("€ ok"); got != "\x80 ok" {
		t.Fatalf("euro sign: %q", got)
	}
	if got := cp1252("日本"); got == "日本" || len(got) != 2 {
		t.Fatalf("unsupported runes should be replaced one byte each: %q", got)
	}
}
