package source

import (
	"slices"
	"strings"
	"testing"
)

func TestBuildQueryURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		template string
		query    string
		want     string
	}{
		{
			name:     "appended",
			template: "https://ahmia.fi/search/?q=",
			query:    "breach Acme",
			want:     "https://ahmia.fi/search/?q=breach+Acme",
		},
		{
			name:     "placeholder",
			template: "http://search.example/find?query={query}&page=1",
			query:    "password dump Acme & Co",
			want:     "http://search.example/find?query=password+dump+Acme+%26+Co&page=1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := BuildQueryURL(tt.template, tt.query); got != tt.want {
				t.Errorf("BuildQueryURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractLinks(t *testing.T) {
	t.Parallel()

	html := `<html><body>
		<a href="http://leaks.example.onion/acme">result</a>
		<a href="https://paste.example/raw/1#top">paste</a>
		<a href="https://paste.example/raw/1">paste again</a>
		<a href="/relative/path">relative</a>
		<a href="mailto:someone@example.com">mail</a>
		<a href="javascript:void(0)">js</a>
		<a href="https://www.google.com/search?q=acme">google</a>
		<a href="https://twitter.com/acme">twitter</a>
		<a href="ftp://files.example/dump.sql">ftp</a>
		<a>no href</a>
	</body></html>`

	got, err := ExtractLinks(strings.NewReader(html), []string{"google", "facebook", "Twitter"})
	if err != nil {
		t.Fatalf("ExtractLinks() error = %v", err)
	}

	want := []string{
		"http://leaks.example.onion/acme",
		"https://paste.example/raw/1",
	}
	if !slices.Equal(got, want) {
		t.Errorf("ExtractLinks() = %v, want %v", got, want)
	}
}

func TestExtractLinksEmptyDocument(t *testing.T) {
	t.Parallel()

	got, err := ExtractLinks(strings.NewReader(""), nil)
	if err != nil {
		t.Fatalf("ExtractLinks() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no links, got %v", got)
	}
}
