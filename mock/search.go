package mock

import (
	"context"

	"github.com/fwojciec/innsearch"
)

var _ innsearch.SearchService = (*SearchService)(nil)

// SearchService is a mock implementation of innsearch.SearchService.
type SearchService struct {
	SearchFn func(ctx context.Context, rawQuery string) ([]*innsearch.ChapterResult, error)
}

func (s *SearchService) Search(ctx context.Context, rawQuery string) ([]*innsearch.ChapterResult, error) {
	return s.SearchFn(ctx, rawQuery)
}
