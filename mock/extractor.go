package mock

import "github.com/fwojciec/innsearch"

var _ innsearch.TextExtractor = (*TextExtractor)(nil)

// TextExtractor is a mock implementation of innsearch.TextExtractor.
type TextExtractor struct {
	ExtractTextFn func(html string) (string, error)
}

func (e *TextExtractor) ExtractText(html string) (string, error) {
	return e.ExtractTextFn(html)
}
