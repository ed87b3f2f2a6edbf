package crawl_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fwojciec/innsearch"
	"github.com/fwojciec/innsearch/crawl"
	"github.com/fwojciec/innsearch/fs"
	"github.com/fwojciec/innsearch/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// identityList builds n chapter identities named 1.00, 1.01, ...
func identityList(n int) []innsearch.ChapterIdentity {
	ids := make([]innsearch.ChapterIdentity, n)
	for i := range ids {
		ids[i] = innsearch.ChapterIdentity{
			Name: fmt.Sprintf("1.%02d", i),
			URL:  fmt.Sprintf("https://example.test/1-%02d/", i),
		}
	}
	return ids
}

// recordingFetcher returns "html for <url>" and records every fetched URL.
type recordingFetcher struct {
	mu   sync.Mutex
	urls []string
	fail map[string]bool
}

func (f *recordingFetcher) Fetch(_ context.Context, url string) (string, error) {
	f.mu.Lock()
	f.urls = append(f.urls, url)
	fail := f.fail[url]
	f.mu.Unlock()
	if fail {
		return "", errors.New("fetch failed")
	}
	return "html for " + url, nil
}

func (f *recordingFetcher) Close() error { return nil }

func (f *recordingFetcher) fetched() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.urls...)
}

// passthroughExtractor turns "html for <url>" into "text for <url>".
var passthroughExtractor = &mock.TextExtractor{
	ExtractTextFn: func(html string) (string, error) {
		return strings.Replace(html, "html", "text", 1), nil
	},
}

func newTestInventory(dir string, ids []innsearch.ChapterIdentity, fetcher *recordingFetcher) *crawl.Inventory {
	return &crawl.Inventory{
		TOC: &mock.TOCService{
			DiscoverChaptersFn: func(_ context.Context) ([]innsearch.ChapterIdentity, error) {
				return ids, nil
			},
		},
		Fetcher:   fetcher,
		Extractor: passthroughExtractor,
		Store:     fs.NewChapterStore(dir),
		BatchSize: 2,
	}
}

func TestInventory_Reset(t *testing.T) {
	t.Parallel()

	t.Run("fetches and writes every chapter", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		ids := identityList(5)
		fetcher := &recordingFetcher{}
		inv := newTestInventory(dir, ids, fetcher)

		require.NoError(t, inv.Reset(context.Background()))

		n, err := inv.NumChapters(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 5, n)

		store := fs.NewChapterStore(dir)
		for i, id := range ids {
			chapter, err := store.ReadChapter(context.Background(), i)
			require.NoError(t, err)
			assert.Equal(t, id.Name, chapter.Name)
			assert.Equal(t, id.URL, chapter.URL)
			assert.Equal(t, "text for "+id.URL, chapter.Text)
		}
	})

	t.Run("per-chapter fetch failure is soft", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		ids := identityList(3)
		fetcher := &recordingFetcher{fail: map[string]bool{ids[1].URL: true}}
		inv := newTestInventory(dir, ids, fetcher)

		require.NoError(t, inv.Reset(context.Background()))

		store := fs.NewChapterStore(dir)
		chapter, err := store.ReadChapter(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, ids[1].Name, chapter.Name)
		assert.Empty(t, chapter.Text)

		healthy, err := store.ReadChapter(context.Background(), 2)
		require.NoError(t, err)
		assert.NotEmpty(t, healthy.Text)
	})

	t.Run("table of contents failure aborts the run", func(t *testing.T) {
		t.Parallel()

		inv := newTestInventory(t.TempDir(), nil, &recordingFetcher{})
		inv.TOC = &mock.TOCService{
			DiscoverChaptersFn: func(_ context.Context) ([]innsearch.ChapterIdentity, error) {
				return nil, innsearch.Errorf(innsearch.EUNAVAILABLE, "fetch table of contents: 429")
			},
		}

		err := inv.Reset(context.Background())
		assert.Equal(t, innsearch.EUNAVAILABLE, innsearch.ErrorCode(err))
	})

	t.Run("prunes stale files from a longer prior corpus", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		store := fs.NewChapterStore(dir)
		for i, id := range identityList(5) {
			require.NoError(t, store.WriteChapter(context.Background(), &innsearch.Chapter{
				Index: i, Name: id.Name, URL: id.URL, Text: "old",
			}))
		}

		inv := newTestInventory(dir, identityList(2), &recordingFetcher{})
		require.NoError(t, inv.Reset(context.Background()))

		count, err := store.Count(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})
}

func TestInventory_Update(t *testing.T) {
	t.Parallel()

	seed := func(t *testing.T, dir string, ids []innsearch.ChapterIdentity) {
		t.Helper()
		store := fs.NewChapterStore(dir)
		for i, id := range ids {
			require.NoError(t, store.WriteChapter(context.Background(), &innsearch.Chapter{
				Index: i, Name: id.Name, URL: id.URL, Text: "cached text " + id.Name,
			}))
		}
	}

	t.Run("unchanged table of contents is a no-op", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		ids := identityList(3)
		seed(t, dir, ids)

		// Age a file so an unexpected rewrite would be visible.
		path := filepath.Join(dir, "0.txt")
		past := time.Now().Add(-time.Hour)
		require.NoError(t, os.Chtimes(path, past, past))

		fetcher := &recordingFetcher{}
		inv := newTestInventory(dir, ids, fetcher)

		require.NoError(t, inv.Update(context.Background()))

		n, err := inv.NumChapters(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 3, n)
		assert.Empty(t, fetcher.fetched(), "no chapter should be fetched")

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.WithinDuration(t, past, info.ModTime(), time.Second)
	})

	t.Run("fetches only appended chapters", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		ids := identityList(4)
		seed(t, dir, ids[:2])

		fetcher := &recordingFetcher{}
		inv := newTestInventory(dir, ids, fetcher)

		require.NoError(t, inv.Update(context.Background()))

		assert.ElementsMatch(t, []string{ids[2].URL, ids[3].URL}, fetcher.fetched())

		n, err := inv.NumChapters(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 4, n)

		store := fs.NewChapterStore(dir)
		chapter, err := store.ReadChapter(context.Background(), 3)
		require.NoError(t, err)
		assert.Equal(t, "text for "+ids[3].URL, chapter.Text)
	})

	t.Run("renamed chapter is a conflict naming both identities", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		ids := identityList(5)
		seed(t, dir, ids)

		renamed := append([]innsearch.ChapterIdentity(nil), ids...)
		renamed[3] = innsearch.ChapterIdentity{Name: "1.03 Revised", URL: ids[3].URL}

		fetcher := &recordingFetcher{}
		inv := newTestInventory(dir, renamed, fetcher)

		err := inv.Update(context.Background())
		require.Equal(t, innsearch.ECONFLICT, innsearch.ErrorCode(err))
		msg := innsearch.ErrorMessage(err)
		assert.Contains(t, msg, "chapter 3")
		assert.Contains(t, msg, "1.03")
		assert.Contains(t, msg, "1.03 Revised")
		assert.Empty(t, fetcher.fetched(), "conflicting update must not crawl")

		// A reset immediately afterward succeeds and overwrites everything.
		require.NoError(t, inv.Reset(context.Background()))
		chapter, err := fs.NewChapterStore(dir).ReadChapter(context.Background(), 3)
		require.NoError(t, err)
		assert.Equal(t, "1.03 Revised", chapter.Name)
		assert.Equal(t, "text for "+ids[3].URL, chapter.Text)
	})

	t.Run("shrunken table of contents is a conflict", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		seed(t, dir, identityList(4))

		inv := newTestInventory(dir, identityList(2), &recordingFetcher{})
		err := inv.Update(context.Background())
		assert.Equal(t, innsearch.ECONFLICT, innsearch.ErrorCode(err))
	})
}

func TestInventory_Busy(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	release := make(chan struct{})

	dir := t.TempDir()
	ids := identityList(2)
	inv := newTestInventory(dir, ids, &recordingFetcher{})
	inv.TOC = &mock.TOCService{
		DiscoverChaptersFn: func(_ context.Context) ([]innsearch.ChapterIdentity, error) {
			close(started)
			<-release
			return ids, nil
		},
	}

	done := make(chan error, 1)
	go func() {
		done <- inv.Reset(context.Background())
	}()

	<-started

	// A second transition and any read must fail fast while the reset runs.
	assert.Equal(t, innsearch.EUNAVAILABLE, innsearch.ErrorCode(inv.Update(context.Background())))
	_, err := inv.LoadChapters(context.Background(), 0, 10)
	assert.Equal(t, innsearch.EUNAVAILABLE, innsearch.ErrorCode(err))

	close(release)
	require.NoError(t, <-done)

	// Idle again: reads succeed.
	chapters, err := inv.LoadChapters(context.Background(), 0, 10)
	require.NoError(t, err)
	assert.Len(t, chapters, 2)
}

func TestInventory_PatchChapter(t *testing.T) {
	t.Parallel()

	t.Run("rewrites a single failed chapter", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		ids := identityList(3)
		fetcher := &recordingFetcher{fail: map[string]bool{ids[1].URL: true}}
		inv := newTestInventory(dir, ids, fetcher)
		require.NoError(t, inv.Reset(context.Background()))

		store := fs.NewChapterStore(dir)
		gap, err := store.ReadChapter(context.Background(), 1)
		require.NoError(t, err)
		require.Empty(t, gap.Text)

		fetcher.mu.Lock()
		fetcher.fail = nil
		fetcher.mu.Unlock()

		require.NoError(t, inv.PatchChapter(context.Background(), 1))

		patched, err := store.ReadChapter(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, "text for "+ids[1].URL, patched.Text)
	})

	t.Run("index outside the known list is not found", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		ids := identityList(2)
		inv := newTestInventory(dir, ids, &recordingFetcher{})
		require.NoError(t, inv.Reset(context.Background()))

		err := inv.PatchChapter(context.Background(), 99)
		assert.Equal(t, innsearch.ENOTFOUND, innsearch.ErrorCode(err))
	})

	t.Run("fetch failure propagates", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		ids := identityList(2)
		inv := newTestInventory(dir, ids, &recordingFetcher{})
		require.NoError(t, inv.Reset(context.Background()))

		failing := &recordingFetcher{fail: map[string]bool{ids[0].URL: true}}
		inv.Fetcher = failing

		err := inv.PatchChapter(context.Background(), 0)
		assert.Equal(t, innsearch.EUNAVAILABLE, innsearch.ErrorCode(err))
	})
}

func TestInventory_LoadChapters(t *testing.T) {
	t.Parallel()

	t.Run("clamps the range to the chapter count", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		inv := newTestInventory(dir, identityList(3), &recordingFetcher{})
		require.NoError(t, inv.Reset(context.Background()))

		chapters, err := inv.LoadChapters(context.Background(), 1, 10)
		require.NoError(t, err)
		require.Len(t, chapters, 2)
		assert.Equal(t, 1, chapters[0].Index)
		assert.Equal(t, 2, chapters[1].Index)

		empty, err := inv.LoadChapters(context.Background(), 50, 10)
		require.NoError(t, err)
		assert.Empty(t, empty)
	})

	t.Run("self-heals a missing cache file", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		ids := identityList(3)
		fetcher := &recordingFetcher{}
		inv := newTestInventory(dir, ids, fetcher)
		require.NoError(t, inv.Reset(context.Background()))

		require.NoError(t, os.Remove(filepath.Join(dir, "1.txt")))

		chapters, err := inv.LoadChapters(context.Background(), 0, 3)
		require.NoError(t, err)
		require.Len(t, chapters, 3)
		assert.Equal(t, "text for "+ids[1].URL, chapters[1].Text)

		// The heal persisted the chapter.
		_, err = fs.NewChapterStore(dir).ReadChapter(context.Background(), 1)
		assert.NoError(t, err)
	})

	t.Run("fetch failure during heal degrades to an empty record", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		ids := identityList(2)
		fetcher := &recordingFetcher{}
		inv := newTestInventory(dir, ids, fetcher)
		require.NoError(t, inv.Reset(context.Background()))

		require.NoError(t, os.Remove(filepath.Join(dir, "0.txt")))
		fetcher.mu.Lock()
		fetcher.fail = map[string]bool{ids[0].URL: true}
		fetcher.mu.Unlock()

		chapters, err := inv.LoadChapters(context.Background(), 0, 2)
		require.NoError(t, err)
		require.Len(t, chapters, 2)
		assert.Equal(t, ids[0].Name, chapters[0].Name)
		assert.Empty(t, chapters[0].Text)
		assert.NotEmpty(t, chapters[1].Text)
	})
}
