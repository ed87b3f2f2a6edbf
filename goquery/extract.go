package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/innsearch"
)

// navButtonTexts identifies the chapter navigation links embedded in the
// content region of chapter pages.
var navButtonTexts = map[string]struct{}{
	"previous chapter": {},
	"next chapter":     {},
}

// punctuationNormalizer maps unicode punctuation produced by the source's
// editor to ASCII equivalents.
var punctuationNormalizer = strings.NewReplacer(
	"‘", "'", // left single quote
	"’", "'", // right single quote
	"“", `"`, // left double quote
	"”", `"`, // right double quote
	"–", "-", // en dash
	"—", "-", // em dash
	"…", "...", // ellipsis
	" ", " ", // non-breaking space
)

// Ensure Extractor implements innsearch.TextExtractor at compile time.
var _ innsearch.TextExtractor = (*Extractor)(nil)

// Extractor converts a chapter page's raw HTML into a single plain-text
// string with paragraphs joined by the corpus delimiter.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractText locates the chapter's content region, removes navigation
// buttons and images, unwraps link text, and joins the paragraph texts
// with the paragraph delimiter. Unicode punctuation is normalized to
// ASCII. Returns EINVALID when the content region is missing, which
// callers treat as a soft per-chapter failure.
func (e *Extractor) ExtractText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", innsearch.Errorf(innsearch.EINVALID, "parse chapter HTML: %v", err)
	}

	content := doc.Find("div.entry-content").First()
	if content.Length() == 0 {
		return "", innsearch.Errorf(innsearch.EINVALID, "chapter content region not found")
	}

	// Strip images and navigation buttons. Remaining links are unwrapped
	// implicitly: Text() keeps their text content only.
	content.Find("img").Remove()
	content.Find("a").Each(func(_ int, sel *goquery.Selection) {
		if _, ok := navButtonTexts[strings.ToLower(strings.TrimSpace(sel.Text()))]; ok {
			sel.Remove()
		}
	})

	var paragraphs []string
	content.Find("p").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if text == "" {
			return
		}
		paragraphs = append(paragraphs, punctuationNormalizer.Replace(text))
	})

	return strings.Join(paragraphs, innsearch.ParagraphDelimiter), nil
}
