package source

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// queryPlaceholder is substituted by the escaped query inside a backend template.
const queryPlaceholder = "{query}"

// BuildQueryURL renders a backend template for query. Templates containing
// "{query}" get it replaced; others get the escaped query appended, which
// matches templates ending in "?q=".
func BuildQueryURL(template, query string) string {
	escaped := url.QueryEscape(query)
	if strings.Contains(template, queryPlaceholder) {
		return strings.ReplaceAll(template, queryPlaceholder, escaped)
	}
	return template + escaped
}

// ExtractLinks returns the absolute http(s) anchors of an HTML document in
// document order, without duplicates. Links whose host contains any of the
// excluded tokens are dropped.
func ExtractLinks(r io.Reader, excluded []string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse search results: %w", err)
	}

	seen := make(map[string]struct{})
	links := make([]string, 0)
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		link, ok := acceptLink(href, excluded)
		if !ok {
			return
		}
		if _, dup := seen[link]; dup {
			return
		}
		seen[link] = struct{}{}
		links = append(links, link)
	})
	return links, nil
}

func acceptLink(href string, excluded []string) (string, bool) {
	href = strings.TrimSpace(href)
	u, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", false
	}
	for _, token := range excluded {
		token = strings.ToLower(strings.TrimSpace(token))
		if token != "" && strings.Contains(host, token) {
			return "", false
		}
	}
	u.Fragment = ""
	return u.String(), true
}
