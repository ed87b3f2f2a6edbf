package innsearch

import "context"

// MaxQueryLength is the maximum accepted raw query length in bytes.
// Longer queries are rejected with ETOOLARGE before any scoring work.
const MaxQueryLength = 200

// ChapterResult is one chapter's relevance result for a query.
// A score of 0 means no terms matched; Excerpts is empty iff Score is 0.
type ChapterResult struct {
	Name     string   `json:"name"`
	URL      string   `json:"url"`
	Score    float64  `json:"score"`
	Excerpts []string `json:"excerpts"`
}

// SearchService scores every chapter of the corpus against a raw query.
// Results are returned in ascending chapter-index order, zero scores
// included; the caller applies the score > 0 filter.
type SearchService interface {
	Search(ctx context.Context, rawQuery string) ([]*ChapterResult, error)
}
