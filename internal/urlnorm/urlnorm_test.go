package urlnorm

import "testing"

func TestNormalize_Table(t *testing.T) {
	cases := []struct {
		name string
		base string
		href string
		want string
	}{
		{"absolute no base", "", "https://example.com/a", "https://example.com/a"},
		{"trailing slash", "", "https://example.com/a/", "https://example.com/a"},
		{"fragment", "", "https://example.com/a#top", "https://example.com/a"},
		{"fragment and slash", "", "https://example.com/a/#top", "https://example.com/a"},
		{"root slash", "", "https://example.com/", "https://example.com"},
		{"relative path", "https://example.com/docs", "/x", "https://example.com/x"},
		{"relative sibling", "https://example.com/docs/intro", "guide", "https://example.com/docs/guide"},
		{"parent dir", "https://example.com/a/b/c", "../d", "https://example.com/a/d"},
		{"fragment only", "https://example.com/page", "#section", "https://example.com/page"},
		{"absolute href ignores base", "https://example.com/a", "https://other.org/b/", "https://other.org/b"},
		{"query kept", "https://example.com", "/search?q=go", "https://example.com/search?q=go"},
		{"double slash trims once", "", "https://example.com/a//", "https://example.com/a/"},
		{"case kept", "", "https://Example.com/A", "https://Example.com/A"},
		{"default port kept", "", "https://example.com:443/a", "https://example.com:443/a"},
		{"leading space", "https://site.test", " /about", "https://site.test/about"},
		{"leading newline", "https://site.test", "\n/about", "https://site.test/about"},
		{"multi-line href", "https://site.test", "\n  /about\n", "https://site.test/about"},
		{"tab inside href", "https://site.test", "/ab\tout/", "https://site.test/about"},
		{"padded absolute", "", "  https://example.com/a/  ", "https://example.com/a"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Normalize(tc.base, tc.href); got != tc.want {
				t.Fatalf("Normalize(%q, %q) = %q, want %q", tc.base, tc.href, got, tc.want)
			}
		})
	}
}

func TestNormalize_SlashAndFragmentVariantsCollapse(t *testing.T) {
	variants := []string{
		"https://example.com/about",
		"https://example.com/about/",
		"https://example.com/about#team",
		"https://example.com/about/#team",
	}
	want := Normalize("", variants[0])
	for _, v := range variants[1:] {
		if got := Normalize("", v); got != want {
			t.Fatalf("Normalize(%q) = %q, want %q", v, got, want)
		}
	}
}

func TestNormalize_QueryVariantsStayDistinct(t *testing.T) {
	a := Normalize("", "https://example.com/p?a=1")
	b := Normalize("", "https://example.com/p?a=2")
	if a == b {
		t.Fatalf("expected distinct keys for different queries, both %q", a)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []struct{ base, href string }{
		{"", "https://example.com/a/b/"},
		{"https://example.com/x", "../y#z"},
		{"https://example.com", "/search?q=1#frag"},
		{"", "https://example.com"},
	}
	for _, in := range inputs {
		once := Normalize(in.base, in.href)
		if twice := Normalize("", once); twice != once {
			t.Fatalf("not idempotent: %q -> %q", once, twice)
		}
		if again := Normalize(once, once); again != once {
			t.Fatalf("not idempotent against itself: %q -> %q", once, again)
		}
	}
}

func TestNormalize_MalformedDegrades(t *testing.T) {
	// An unparsable base leaves the href as the key.
	if got := Normalize("http://[::1", "/a/#x"); got != "/a" {
		t.Fatalf("got %q", got)
	}
	if got := Normalize("https://example.com", "http://[bad/"); got != "http://[bad" {
		t.Fatalf("got %q", got)
	}
}
