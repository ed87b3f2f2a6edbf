// Package goquery provides HTML parsing for the remote source: deriving
// the chapter identity list from the table-of-contents page and
// converting chapter pages into plain paragraph-delimited text.
package goquery

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/innsearch"
)

// defaultExcludedPaths lists non-chapter links appearing inside the
// table-of-contents content region.
var defaultExcludedPaths = []string{"/vol-1-archive", "/contacts/"}

// Ensure TOCService implements innsearch.TOCService at compile time.
var _ innsearch.TOCService = (*TOCService)(nil)

// TOCService derives chapter identities by parsing anchor elements inside
// the table-of-contents page's content region.
type TOCService struct {
	fetcher  innsearch.Fetcher
	tocURL   string
	excluded []string
}

// TOCOption configures a TOCService.
type TOCOption func(*TOCService)

// WithExcludedPaths overrides the default list of non-chapter link paths.
func WithExcludedPaths(paths []string) TOCOption {
	return func(s *TOCService) {
		s.excluded = paths
	}
}

// NewTOCService creates a TOCService that fetches tocURL with fetcher.
func NewTOCService(fetcher innsearch.Fetcher, tocURL string, opts ...TOCOption) *TOCService {
	s := &TOCService{
		fetcher:  fetcher,
		tocURL:   tocURL,
		excluded: defaultExcludedPaths,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DiscoverChapters fetches the table-of-contents page and returns the
// ordered chapter identity list. A fetch or parse failure is fatal to the
// whole crawl and surfaces as EUNAVAILABLE.
func (s *TOCService) DiscoverChapters(ctx context.Context) ([]innsearch.ChapterIdentity, error) {
	html, err := s.fetcher.Fetch(ctx, s.tocURL)
	if err != nil {
		return nil, innsearch.Errorf(innsearch.EUNAVAILABLE, "fetch table of contents: %v", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, innsearch.Errorf(innsearch.EUNAVAILABLE, "parse table of contents: %v", err)
	}

	base, err := url.Parse(s.tocURL)
	if err != nil {
		return nil, innsearch.Errorf(innsearch.EINVALID, "invalid table of contents URL: %v", err)
	}

	var identities []innsearch.ChapterIdentity
	doc.Find(".entry-content a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if href == "" || s.isExcluded(href) {
			return
		}
		name := strings.TrimSpace(sel.Text())
		if name == "" {
			return
		}
		resolved := resolveURL(base, href)
		if resolved == "" {
			return
		}
		identities = append(identities, innsearch.ChapterIdentity{
			Name: name,
			URL:  resolved,
		})
	})

	if len(identities) == 0 {
		return nil, innsearch.Errorf(innsearch.EUNAVAILABLE, "no chapter links found in table of contents")
	}
	return identities, nil
}

func (s *TOCService) isExcluded(href string) bool {
	for _, path := range s.excluded {
		if strings.TrimSuffix(href, "/") == strings.TrimSuffix(path, "/") {
			return true
		}
	}
	return false
}

// resolveURL resolves a possibly relative href against the base URL.
// Returns empty string if the href cannot be parsed.
func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(ref)
	resolved.Fragment = ""
	return resolved.String()
}
