// Package crawl provides the chapter inventory: the source of truth for
// chapter count, identity, and cached text. It coordinates table-of-contents
// discovery, batched chapter fetching, reconciliation against the cache,
// and on-demand chapter loading.
package crawl

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/fwojciec/innsearch"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// DefaultBatchSize is the number of chapters fetched concurrently per
// crawl batch. The remote source rate-limits aggressive crawls with 429
// responses, so batches are kept small and separated by a pause.
const DefaultBatchSize = 8

// state is the inventory lifecycle: idle, or exclusively resetting or
// updating. Modeled as an explicit three-state value rather than a raw
// busy flag so rejected transitions are unambiguous.
type state int

const (
	stateIdle state = iota
	stateResetting
	stateUpdating
)

// Ensure Inventory implements innsearch.InventoryService at compile time.
var _ innsearch.InventoryService = (*Inventory)(nil)

// Inventory owns the crawl-reconcile-cache lifecycle for the corpus.
// At most one Reset or Update runs at a time; reads arriving while one is
// in flight fail fast with EUNAVAILABLE rather than observe a partially
// written cache.
type Inventory struct {
	TOC       innsearch.TOCService
	Fetcher   innsearch.Fetcher
	Extractor innsearch.TextExtractor
	Store     innsearch.ChapterStore

	// BatchSize is the number of chapters fetched per batch.
	// Defaults to DefaultBatchSize.
	BatchSize int

	// BatchPause is the pause inserted between fetch batches to respect
	// the remote source's rate limits. Zero disables the pause; tests
	// must not depend on it.
	BatchPause time.Duration

	// Limiter, if set, throttles individual chapter fetches.
	Limiter *rate.Limiter

	// Logger, if set, receives soft-failure and progress logs.
	Logger *slog.Logger

	mu         sync.Mutex
	state      state
	identities []innsearch.ChapterIdentity
	count      int
	counted    bool
}

// Reset re-derives the full chapter identity list from the table of
// contents, then fetches and rewrites every chapter. Individual chapter
// failures are soft: the chapter is recorded with empty text and the run
// continues. A table-of-contents failure aborts the whole run.
func (inv *Inventory) Reset(ctx context.Context) error {
	if err := inv.begin(stateResetting); err != nil {
		return err
	}
	defer inv.end()

	ids, err := inv.TOC.DiscoverChapters(ctx)
	if err != nil {
		return err
	}

	inv.logger().Info("reset started", "chapters", len(ids))
	if err := inv.crawlRange(ctx, ids, 0); err != nil {
		return err
	}

	// The new corpus may be shorter than a previous one; drop stale files.
	if err := inv.Store.Prune(ctx, len(ids)); err != nil {
		return err
	}

	inv.mu.Lock()
	inv.identities = ids
	inv.count = len(ids)
	inv.counted = true
	inv.mu.Unlock()
	return nil
}

// Update re-derives the identity list and fetches only newly appended
// chapters. If any previously persisted chapter's identity changed, or
// the list shrank, the corpus is presumed out of sync and Update returns
// ECONFLICT naming the expected and observed identity; the caller must
// Reset instead. An unchanged table of contents makes Update a no-op.
func (inv *Inventory) Update(ctx context.Context) error {
	if err := inv.begin(stateUpdating); err != nil {
		return err
	}
	defer inv.end()

	ids, err := inv.TOC.DiscoverChapters(ctx)
	if err != nil {
		return err
	}

	oldCount, err := inv.persistedCount(ctx)
	if err != nil {
		return err
	}
	if len(ids) < oldCount {
		return innsearch.Errorf(innsearch.ECONFLICT, "table of contents shrank from %d to %d chapters", oldCount, len(ids))
	}

	for index := 0; index < oldCount; index++ {
		stored, err := inv.Store.ReadIdentity(ctx, index)
		if innsearch.ErrorCode(err) == innsearch.ENOTFOUND {
			continue // gap in the cache; PatchChapter or a load heals it
		} else if err != nil {
			return err
		}
		if stored != ids[index] {
			return innsearch.Errorf(innsearch.ECONFLICT,
				"chapter %d identity changed: cache has %q (%s), table of contents has %q (%s); full reset required",
				index, stored.Name, stored.URL, ids[index].Name, ids[index].URL)
		}
	}

	if len(ids) > oldCount {
		inv.logger().Info("update started", "known", oldCount, "appended", len(ids)-oldCount)
		if err := inv.crawlRange(ctx, ids, oldCount); err != nil {
			return err
		}
	}

	inv.mu.Lock()
	inv.identities = ids
	inv.count = len(ids)
	inv.counted = true
	inv.mu.Unlock()
	return nil
}

// PatchChapter re-fetches and rewrites a single chapter by index, used to
// fill a gap left by a soft fetch failure. Returns ENOTFOUND if index is
// outside the known identity list. Unlike batch crawling, a fetch failure
// here propagates to the caller.
func (inv *Inventory) PatchChapter(ctx context.Context, index int) error {
	if err := inv.checkIdle(); err != nil {
		return err
	}

	id, err := inv.resolveIdentity(ctx, index)
	if err != nil {
		return err
	}

	text, err := inv.fetchText(ctx, id.URL)
	if err != nil {
		return innsearch.Errorf(innsearch.EUNAVAILABLE, "fetch chapter %d (%s): %v", index, id.URL, err)
	}

	return inv.Store.WriteChapter(ctx, &innsearch.Chapter{
		Index: index,
		Name:  id.Name,
		URL:   id.URL,
		Text:  text,
	})
}

// LoadChapters returns chapter records for indices
// [start, min(start+count, NumChapters)). A missing cache file is
// transparently fetched and written first. A read or fetch failure for
// one chapter yields an empty-text record rather than failing the call.
func (inv *Inventory) LoadChapters(ctx context.Context, start, count int) ([]*innsearch.Chapter, error) {
	if err := inv.checkIdle(); err != nil {
		return nil, err
	}

	total, err := inv.NumChapters(ctx)
	if err != nil {
		return nil, err
	}
	if start < 0 || start >= total {
		return nil, nil
	}
	end := start + count
	if end > total {
		end = total
	}

	chapters := make([]*innsearch.Chapter, 0, end-start)
	for index := start; index < end; index++ {
		chapters = append(chapters, inv.loadChapter(ctx, index))
	}
	return chapters, nil
}

// NumChapters returns the current known chapter count, derived lazily
// from the store on first use and kept current by crawl batches.
func (inv *Inventory) NumChapters(ctx context.Context) (int, error) {
	return inv.persistedCount(ctx)
}

// loadChapter reads one chapter from the cache, self-healing a missing
// file with a fetch-and-write. Failures degrade to an empty-text record.
func (inv *Inventory) loadChapter(ctx context.Context, index int) *innsearch.Chapter {
	chapter, err := inv.Store.ReadChapter(ctx, index)
	if err == nil {
		return chapter
	}

	id, idErr := inv.resolveIdentity(ctx, index)
	if idErr != nil {
		inv.logger().Warn("chapter unreadable", "index", index, "err", err)
		return &innsearch.Chapter{Index: index}
	}

	if innsearch.ErrorCode(err) == innsearch.ENOTFOUND {
		if text, fetchErr := inv.fetchText(ctx, id.URL); fetchErr == nil {
			healed := &innsearch.Chapter{Index: index, Name: id.Name, URL: id.URL, Text: text}
			if writeErr := inv.Store.WriteChapter(ctx, healed); writeErr != nil {
				inv.logger().Warn("chapter heal write failed", "index", index, "err", writeErr)
			}
			return healed
		}
	}

	inv.logger().Warn("chapter load failed", "index", index, "err", err)
	return &innsearch.Chapter{Index: index, Name: id.Name, URL: id.URL}
}

// crawlRange fetches and writes chapters ids[start:] in fixed-size
// batches. Fetches within a batch run concurrently; writes happen in
// index order after the batch completes, and the known chapter count is
// advanced after each fully written batch. A pause separates batches as
// a throughput throttle for the remote source.
func (inv *Inventory) crawlRange(ctx context.Context, ids []innsearch.ChapterIdentity, start int) error {
	batchSize := inv.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	for batchStart := start; batchStart < len(ids); batchStart += batchSize {
		batchEnd := batchStart + batchSize
		if batchEnd > len(ids) {
			batchEnd = len(ids)
		}

		texts, err := inv.fetchBatch(ctx, ids, batchStart, batchEnd)
		if err != nil {
			return err
		}

		for i, text := range texts {
			index := batchStart + i
			chapter := &innsearch.Chapter{
				Index: index,
				Name:  ids[index].Name,
				URL:   ids[index].URL,
				Text:  text,
			}
			if err := inv.Store.WriteChapter(ctx, chapter); err != nil {
				return err
			}
		}

		inv.mu.Lock()
		inv.count = batchEnd
		inv.counted = true
		inv.identities = ids
		inv.mu.Unlock()
		inv.logger().Info("batch written", "through", batchEnd, "total", len(ids))

		if batchEnd < len(ids) && inv.BatchPause > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(inv.BatchPause):
			}
		}
	}
	return nil
}

// fetchBatch fetches the texts for ids[start:end] concurrently. A fetch
// or extraction failure for one chapter is soft: its text comes back
// empty and is logged. Only context cancellation fails the batch.
func (inv *Inventory) fetchBatch(ctx context.Context, ids []innsearch.ChapterIdentity, start, end int) ([]string, error) {
	texts := make([]string, end-start)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(end - start)
	for i := start; i < end; i++ {
		i := i
		g.Go(func() error {
			text, err := inv.fetchText(gctx, ids[i].URL)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				inv.logger().Warn("chapter fetch failed", "index", i, "url", ids[i].URL, "err", err)
				return nil
			}
			texts[i-start] = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return texts, nil
}

// fetchText fetches one chapter page and extracts its plain text,
// honoring the rate limiter when configured.
func (inv *Inventory) fetchText(ctx context.Context, url string) (string, error) {
	if inv.Limiter != nil {
		if err := inv.Limiter.Wait(ctx); err != nil {
			return "", err
		}
	}
	html, err := inv.Fetcher.Fetch(ctx, url)
	if err != nil {
		return "", err
	}
	return inv.Extractor.ExtractText(html)
}

// resolveIdentity returns the identity assigned to index, preferring the
// in-memory list resolved by the last reset/update, then the cache file,
// and finally a fresh table-of-contents discovery. Returns ENOTFOUND if
// index is outside the known identity list.
func (inv *Inventory) resolveIdentity(ctx context.Context, index int) (innsearch.ChapterIdentity, error) {
	inv.mu.Lock()
	ids := inv.identities
	inv.mu.Unlock()

	if ids == nil {
		if id, err := inv.Store.ReadIdentity(ctx, index); err == nil {
			return id, nil
		}
		discovered, err := inv.TOC.DiscoverChapters(ctx)
		if err != nil {
			return innsearch.ChapterIdentity{}, err
		}
		inv.mu.Lock()
		inv.identities = discovered
		inv.mu.Unlock()
		ids = discovered
	}

	if index < 0 || index >= len(ids) {
		return innsearch.ChapterIdentity{}, innsearch.Errorf(innsearch.ENOTFOUND, "chapter index %d outside known range 0-%d", index, len(ids)-1)
	}
	return ids[index], nil
}

// persistedCount returns the chapter count, initialized lazily from the
// store's file count.
func (inv *Inventory) persistedCount(ctx context.Context) (int, error) {
	inv.mu.Lock()
	if inv.counted {
		defer inv.mu.Unlock()
		return inv.count, nil
	}
	inv.mu.Unlock()

	count, err := inv.Store.Count(ctx)
	if err != nil {
		return 0, err
	}

	inv.mu.Lock()
	if !inv.counted {
		inv.count = count
		inv.counted = true
	}
	count = inv.count
	inv.mu.Unlock()
	return count, nil
}

// begin transitions the inventory from idle into a crawl state, failing
// fast when another reset/update is already in flight.
func (inv *Inventory) begin(next state) error {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if inv.state != stateIdle {
		return innsearch.Errorf(innsearch.EUNAVAILABLE, "a reset or update is already in progress")
	}
	inv.state = next
	return nil
}

// end returns the inventory to idle. Called on both success and failure.
func (inv *Inventory) end() {
	inv.mu.Lock()
	inv.state = stateIdle
	inv.mu.Unlock()
}

// checkIdle rejects reads that arrive while a reset/update is rewriting
// the cache.
func (inv *Inventory) checkIdle() error {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if inv.state != stateIdle {
		return innsearch.Errorf(innsearch.EUNAVAILABLE, "corpus is being rewritten; try again shortly")
	}
	return nil
}

func (inv *Inventory) logger() *slog.Logger {
	if inv.Logger != nil {
		return inv.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
