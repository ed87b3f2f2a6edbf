package mock

import (
	"context"

	"github.com/fwojciec/innsearch"
)

var _ innsearch.ChapterStore = (*ChapterStore)(nil)

// ChapterStore is a mock implementation of innsearch.ChapterStore.
type ChapterStore struct {
	WriteChapterFn func(ctx context.Context, chapter *innsearch.Chapter) error
	ReadChapterFn  func(ctx context.Context, index int) (*innsearch.Chapter, error)
	ReadIdentityFn func(ctx context.Context, index int) (innsearch.ChapterIdentity, error)
	CountFn        func(ctx context.Context) (int, error)
	PruneFn        func(ctx context.Context, index int) error
}

func (s *ChapterStore) WriteChapter(ctx context.Context, chapter *innsearch.Chapter) error {
	return s.WriteChapterFn(ctx, chapter)
}

func (s *ChapterStore) ReadChapter(ctx context.Context, index int) (*innsearch.Chapter, error) {
	return s.ReadChapterFn(ctx, index)
}

func (s *ChapterStore) ReadIdentity(ctx context.Context, index int) (innsearch.ChapterIdentity, error) {
	return s.ReadIdentityFn(ctx, index)
}

func (s *ChapterStore) Count(ctx context.Context) (int, error) {
	return s.CountFn(ctx)
}

func (s *ChapterStore) Prune(ctx context.Context, index int) error {
	if s.PruneFn == nil {
		return nil
	}
	return s.PruneFn(ctx, index)
}
