package mock

import (
	"context"

	"github.com/fwojciec/innsearch"
)

var _ innsearch.TOCService = (*TOCService)(nil)

// TOCService is a mock implementation of innsearch.TOCService.
type TOCService struct {
	DiscoverChaptersFn func(ctx context.Context) ([]innsearch.ChapterIdentity, error)
}

func (s *TOCService) DiscoverChapters(ctx context.Context) ([]innsearch.ChapterIdentity, error) {
	return s.DiscoverChaptersFn(ctx)
}
