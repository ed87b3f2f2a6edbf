package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/innsearch"
)

// Ensure LoggingSearchService implements innsearch.SearchService.
var _ innsearch.SearchService = (*LoggingSearchService)(nil)

// LoggingSearchService wraps a SearchService with query logging.
type LoggingSearchService struct {
	next   innsearch.SearchService
	logger *slog.Logger
}

// NewLoggingSearchService creates a new LoggingSearchService.
func NewLoggingSearchService(next innsearch.SearchService, logger *slog.Logger) *LoggingSearchService {
	return &LoggingSearchService{next: next, logger: logger}
}

// Search delegates to the wrapped service and logs the query outcome.
func (s *LoggingSearchService) Search(ctx context.Context, rawQuery string) (results []*innsearch.ChapterResult, err error) {
	defer func(begin time.Time) {
		matched := 0
		for _, r := range results {
			if r.Score > 0 {
				matched++
			}
		}
		s.logger.Info("search",
			"query_len", len(rawQuery),
			"chapters", len(results),
			"matched", matched,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Search(ctx, rawQuery)
}
