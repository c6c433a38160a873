package report

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"

	"github.com/hyperifyio/sitesum/internal/crawl"
)

// Meta is printed in the PDF header.
type Meta struct {
	StartURL    string
	GeneratedAt time.Time
}

// cp1252 converts UTF-8 text to the code page of the core PDF fonts. Text is
// composed to NFC first so decomposed accents still map; anything outside
// the code page becomes the encoding's replacement byte.
func cp1252(s string) string {
	enc := encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder())
	out, err := enc.String(norm.NFC.String(s))
	if err != nil {
		return s
	}
	return out
}

// WritePDF renders one section per page: title, clickable URL, summary.
func WritePDF(w io.Writer, meta Meta, results *crawl.Results) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := cp1252
	pdf.SetTitle("Site summaries", true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr("Site summaries"), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	if meta.StartURL != "" {
		pdf.CellFormat(0, 6, tr("Start: "+meta.StartURL), "", 1, "L", false, 0, "")
	}
	if !meta.GeneratedAt.IsZero() {
		pdf.CellFormat(0, 6, meta.GeneratedAt.UTC().Format(time.RFC3339), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	entries := results.Entries()
	if len(entries) == 0 {
		pdf.SetFont("Helvetica", "I", 11)
		pdf.MultiCell(0, 5, "No pages were summarized.", "", "L", false)
	}
	for i, e := range entries {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.MultiCell(0, 6, tr(fmt.Sprintf("%d. %s", i+1, e.Page.Title)), "", "L", false)
		pdf.SetFont("Helvetica", "U", 9)
		pdf.SetTextColor(0, 0, 180)
		pdf.WriteLinkString(5, tr(e.URL), e.URL)
		pdf.SetTextColor(0, 0, 0)
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 5, tr(e.Page.Summary), "", "L", false)
		pdf.Ln(4)
	}
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return pdf.Output(w)
}

// PDFBytes is WritePDF into memory.
func PDFBytes(meta Meta, results *crawl.Results) ([]byte, error) {
	var buf bytes.Buffer
	if err := WritePDF(&buf, meta, results); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
