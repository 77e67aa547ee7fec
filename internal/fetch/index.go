package fetch

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/tsubute/arcache/internal/model"
)

// archiveExtensions are the link suffixes Discover treats as archives.
var archiveExtensions = []string{".zip"}

// Discover fetches an HTML index page and returns a descriptor for every
// archive it links to. Relative links are resolved against the page URL.
//
// This exists for upstreams that publish a directory listing of archives
// rather than a manifest: point arcache at the listing and ingest
// everything it links.
func (f *Fetcher) Discover(ctx context.Context, pageURL string) ([]model.Descriptor, error) {
	body, err := f.Fetch(ctx, model.Descriptor{URL: pageURL})
	if err != nil {
		return nil, err
	}

	descs, err := ParseIndex(pageURL, body)
	if err != nil {
		return nil, fmt.Errorf("parse index %s: %w", pageURL, err)
	}
	return descs, nil
}

// ParseIndex extracts archive links from HTML content.
//
// Design decision: We use golang.org/x/net/html rather than regex because
// it correctly handles the malformed HTML that directory listings and
// hand-written index pages tend to be, and it's maintained as part of the
// extended standard library.
func ParseIndex(baseURL string, content []byte) ([]model.Descriptor, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}

	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}

	var descs []model.Descriptor
	seen := make(map[string]bool)

	for n := range doc.Descendants() {
		if n.Type != html.ElementNode || n.Data != "a" {
			continue
		}
		href := attrValue(n, "href")
		if href == "" || !isArchiveLink(href) {
			continue
		}

		ref, err := url.Parse(href)
		if err != nil {
			continue // a broken href is the page author's problem, not ours
		}
		resolved := base.ResolveReference(ref)
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			continue
		}

		u := resolved.String()
		if seen[u] {
			continue
		}
		seen[u] = true
		descs = append(descs, model.Descriptor{URL: u})
	}

	return descs, nil
}

// attrValue returns the value of the named attribute, or "".
func attrValue(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

// isArchiveLink reports whether the href points at an archive file,
// ignoring any query string or fragment.
func isArchiveLink(href string) bool {
	path := href
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = strings.ToLower(path)
	for _, ext := range archiveExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}
