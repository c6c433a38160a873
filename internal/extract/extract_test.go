package extract

import (
	"reflect"
	"strings"
	"testing"
)

func TestParse_TitleTextAndLinks(t *testing.T) {
	doc, err := Parse([]byte(`<title>Hi</title><body><a href="/x">x</a>hello</body>`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if doc.Title != "Hi" {
		t.Fatalf("Title=%q, want Hi", doc.Title)
	}
	if doc.Text != "Hi x hello" {
		t.Fatalf("Text=%q, want %q", doc.Text, "Hi x hello")
	}
	if !reflect.DeepEqual(doc.Links, []string{"/x"}) {
		t.Fatalf("Links=%v", doc.Links)
	}
}

func TestParse_SkipsScriptAndStyle(t *testing.T) {
	input := `<!doctype html>
	<html>
	  <head>
	    <title> Script Page </title>
	    <style>body { color: red; }</style>
	    <script>var secret = "do-not-leak";</script>
	  </head>
	  <body>
	    <p>Visible   paragraph</p>
	    <script type="text/javascript">alert("nope")</script>
	    <div><style>.x{}</style><span>tail</span></div>
	    <noscript><iframe src="https://gtm.test/ns.html" style="display:none"></iframe></noscript>
	    <noscript><p>Enable JavaScript</p></noscript>
	  </body>
	</html>`
	doc, err := Parse([]byte(input))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	for _, bad := range []string{"do-not-leak", "alert", "color: red", ".x{}", "<iframe", "gtm.test", "<p>"} {
		if strings.Contains(doc.Text, bad) {
			t.Fatalf("text contains %q: %q", bad, doc.Text)
		}
	}
	if doc.Title != "Script Page" {
		t.Fatalf("Title=%q", doc.Title)
	}
	if doc.Text != "Script Page Visible   paragraph tail Enable JavaScript" {
		t.Fatalf("Text=%q", doc.Text)
	}
}

func TestParse_UntitledFallback(t *testing.T) {
	cases := map[string]string{
		"missing": `<body><p>no title</p></body>`,
		"blank":   `<title>   </title><body>x</body>`,
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			doc, err := Parse([]byte(input))
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if doc.Title != UntitledTitle {
				t.Fatalf("Title=%q, want %q", doc.Title, UntitledTitle)
			}
		})
	}
}

func TestParse_FirstTitleWins(t *testing.T) {
	doc, err := Parse([]byte(`<title>First</title><body><svg><title>Icon</title></svg></body>`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if doc.Title != "First" {
		t.Fatalf("Title=%q, want First", doc.Title)
	}
}

func TestParse_LinksKeepOrderAndDuplicates(t *testing.T) {
	input := `<body>
	  <a href="/a">A</a>
	  <a>no href</a>
	  <a href="">empty</a>
	  <a href="https://other.org/b#frag">B</a>
	  <a href="/a">A again</a>
	  <link href="/style.css">
	</body>`
	doc, err := Parse([]byte(input))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := []string{"/a", "https://other.org/b#frag", "/a"}
	if !reflect.DeepEqual(doc.Links, want) {
		t.Fatalf("Links=%v, want %v", doc.Links, want)
	}
}

func TestParse_EmptyInput(t *testing.T) {
	doc, err := Parse(nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if doc.Text != "" || len(doc.Links) != 0 || doc.Title != UntitledTitle {
		t.Fatalf("unexpected doc: %+v", doc)
	}
}

func TestHTMLExtractor_MatchesParse(t *testing.T) {
	input := []byte(`<title>T</title><p>body</p>`)
	got, err := HTMLExtractor{}.Extract(input)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if got.Title != "T" || got.Text != "T body" {
		t.Fatalf("unexpected doc: %+v", got)
	}
}
