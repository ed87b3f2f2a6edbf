package mock

import (
	"context"

	"github.com/fwojciec/innsearch"
)

var _ innsearch.InventoryService = (*InventoryService)(nil)

// InventoryService is a mock implementation of innsearch.InventoryService.
type InventoryService struct {
	ResetFn        func(ctx context.Context) error
	UpdateFn       func(ctx context.Context) error
	PatchChapterFn func(ctx context.Context, index int) error
	LoadChaptersFn func(ctx context.Context, start, count int) ([]*innsearch.Chapter, error)
	NumChaptersFn  func(ctx context.Context) (int, error)
}

func (s *InventoryService) Reset(ctx context.Context) error {
	return s.ResetFn(ctx)
}

func (s *InventoryService) Update(ctx context.Context) error {
	return s.UpdateFn(ctx)
}

func (s *InventoryService) PatchChapter(ctx context.Context, index int) error {
	return s.PatchChapterFn(ctx, index)
}

func (s *InventoryService) LoadChapters(ctx context.Context, start, count int) ([]*innsearch.Chapter, error) {
	return s.LoadChaptersFn(ctx, start, count)
}

func (s *InventoryService) NumChapters(ctx context.Context) (int, error) {
	return s.NumChaptersFn(ctx)
}
