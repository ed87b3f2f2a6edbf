// Package search composes the inventory and the scorer into the query
// entry point: tokenize a raw query, score every chapter in fixed-size
// batches, and return results in corpus order.
package search

import (
	"context"
	"strings"

	"github.com/fwojciec/innsearch"
	"github.com/fwojciec/innsearch/score"
)

// DefaultChapterBatchSize is the number of chapters scored per inventory
// load. Batching bounds peak memory; it never changes results versus a
// single unbatched pass.
const DefaultChapterBatchSize = 150

// Ensure Searcher implements innsearch.SearchService at compile time.
var _ innsearch.SearchService = (*Searcher)(nil)

// Searcher scores the whole corpus against free-text queries.
type Searcher struct {
	Inventory innsearch.InventoryService
	Scorer    *score.Scorer

	// BatchSize is the number of chapters loaded and scored at a time.
	// Defaults to DefaultChapterBatchSize.
	BatchSize int
}

// Search tokenizes rawQuery on commas and scores every chapter, returning
// one result per chapter in ascending chapter-index order. Zero-score
// results are included; the route boundary applies the score > 0 filter.
// Returns ETOOLARGE when the raw query exceeds innsearch.MaxQueryLength.
func (s *Searcher) Search(ctx context.Context, rawQuery string) ([]*innsearch.ChapterResult, error) {
	if len(rawQuery) > innsearch.MaxQueryLength {
		return nil, innsearch.Errorf(innsearch.ETOOLARGE, "query exceeds %d characters", innsearch.MaxQueryLength)
	}
	terms := ParseQuery(rawQuery)
	if len(terms) == 0 {
		return nil, innsearch.Errorf(innsearch.EINVALID, "query contains no search terms")
	}

	total, err := s.Inventory.NumChapters(ctx)
	if err != nil {
		return nil, err
	}

	batchSize := s.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultChapterBatchSize
	}

	results := make([]*innsearch.ChapterResult, 0, total)
	for start := 0; start < total; start += batchSize {
		chapters, err := s.Inventory.LoadChapters(ctx, start, batchSize)
		if err != nil {
			return nil, err
		}
		for _, chapter := range chapters {
			scored := s.Scorer.ScoreText(chapter.Text, terms)
			results = append(results, &innsearch.ChapterResult{
				Name:     chapter.Name,
				URL:      chapter.URL,
				Score:    scored.Score,
				Excerpts: scored.Excerpts,
			})
		}
	}
	return results, nil
}

// ParseQuery splits a raw query on commas into search terms, trimming
// surrounding whitespace and dropping empty tokens.
func ParseQuery(rawQuery string) []string {
	parts := strings.Split(rawQuery, ",")
	terms := make([]string, 0, len(parts))
	for _, part := range parts {
		if term := strings.TrimSpace(part); term != "" {
			terms = append(terms, term)
		}
	}
	return terms
}
