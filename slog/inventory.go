// Package slog provides logging decorators for the domain services.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/innsearch"
)

// Ensure LoggingInventoryService implements innsearch.InventoryService.
var _ innsearch.InventoryService = (*LoggingInventoryService)(nil)

// LoggingInventoryService wraps an InventoryService with operational logging.
type LoggingInventoryService struct {
	next   innsearch.InventoryService
	logger *slog.Logger
}

// NewLoggingInventoryService creates a new LoggingInventoryService.
func NewLoggingInventoryService(next innsearch.InventoryService, logger *slog.Logger) *LoggingInventoryService {
	return &LoggingInventoryService{next: next, logger: logger}
}

// Reset delegates to the wrapped service and logs the operation.
func (s *LoggingInventoryService) Reset(ctx context.Context) (err error) {
	defer func(begin time.Time) {
		s.logger.Info("inventory reset",
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Reset(ctx)
}

// Update delegates to the wrapped service and logs the operation.
func (s *LoggingInventoryService) Update(ctx context.Context) (err error) {
	defer func(begin time.Time) {
		s.logger.Info("inventory update",
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Update(ctx)
}

// PatchChapter delegates to the wrapped service and logs the operation.
func (s *LoggingInventoryService) PatchChapter(ctx context.Context, index int) (err error) {
	defer func(begin time.Time) {
		s.logger.Info("chapter patch",
			"index", index,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.PatchChapter(ctx, index)
}

// LoadChapters delegates to the wrapped service.
func (s *LoggingInventoryService) LoadChapters(ctx context.Context, start, count int) ([]*innsearch.Chapter, error) {
	return s.next.LoadChapters(ctx, start, count)
}

// NumChapters delegates to the wrapped service.
func (s *LoggingInventoryService) NumChapters(ctx context.Context) (int, error) {
	return s.next.NumChapters(ctx)
}
