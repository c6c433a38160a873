package extract

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// UntitledTitle is used when a page has no usable <title>.
const UntitledTitle = "Untitled"

// Document is what a single parse of a page yields.
type Document struct {
	Title string
	// Text is every visible text node, trimmed and joined by single spaces.
	Text string
	// Links holds raw href values of <a> elements in document order.
	// They are not resolved; duplicates are kept.
	Links []string
}

// Parse extracts title, visible text and outbound links from HTML.
// Contents of <script> and <style> never reach Text. Scripting is disabled
// while parsing, so <noscript> children are parsed as elements and only
// their text is kept.
func Parse(input []byte) (Document, error) {
	root, err := html.ParseWithOptions(bytes.NewReader(input), html.ParseOptionEnableScripting(false))
	if err != nil {
		return Document{}, fmt.Errorf("parse html: %w", err)
	}
	w := walker{}
	w.walk(root)
	title := strings.TrimSpace(w.title)
	if !w.hasTitle || title == "" {
		title = UntitledTitle
	}
	return Document{
		Title: title,
		Text:  strings.Join(w.texts, " "),
		Links: w.links,
	}, nil
}

type walker struct {
	texts    []string
	links    []string
	title    string
	hasTitle bool
}

func (w *walker) walk(n *html.Node) {
	switch n.Type {
	case html.ElementNode:
		switch n.DataAtom {
		case atom.Script, atom.Style:
			return
		case atom.Title:
			if !w.hasTitle {
				w.hasTitle = true
				w.title = textOf(n)
			}
		case atom.A:
			if href, ok := attr(n, "href"); ok && href != "" {
				w.links = append(w.links, href)
			}
		}
	case html.TextNode:
		if s := strings.TrimSpace(n.Data); s != "" {
			w.texts = append(w.texts, s)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c)
	}
}

func textOf(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}
