package innsearch

import "context"

// ParagraphDelimiter separates paragraphs within a chapter's plain text.
const ParagraphDelimiter = "\n\n"

// Chapter represents one unit of the corpus: a stable zero-based index,
// the display name and canonical URL from the remote table of contents,
// and the cached plain text. An empty Text means the chapter has not been
// fetched yet or its fetch failed.
type Chapter struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	URL   string `json:"url"`
	Text  string `json:"text"`
}

// Validate returns an error if the chapter contains invalid fields.
func (c *Chapter) Validate() error {
	if c.Index < 0 {
		return Errorf(EINVALID, "chapter index must be non-negative")
	}
	if c.Name == "" {
		return Errorf(EINVALID, "chapter name required")
	}
	if c.URL == "" {
		return Errorf(EINVALID, "chapter URL required")
	}
	return nil
}

// Identity returns the chapter's table-of-contents identity.
func (c *Chapter) Identity() ChapterIdentity {
	return ChapterIdentity{Name: c.Name, URL: c.URL}
}

// ChapterIdentity identifies a chapter in the remote table of contents.
// Once an identity is assigned to an index it is immutable; reconciliation
// treats any change as a hard inconsistency rather than an update.
type ChapterIdentity struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// TOCService derives the ordered chapter identity list from the remote
// table of contents.
type TOCService interface {
	// DiscoverChapters fetches and parses the table-of-contents page.
	// Returns EUNAVAILABLE if the page cannot be fetched or parsed.
	DiscoverChapters(ctx context.Context) ([]ChapterIdentity, error)
}

// Fetcher retrieves raw HTML from URLs.
type Fetcher interface {
	// Fetch retrieves the HTML content of the given URL.
	// The context controls timeout and cancellation.
	Fetch(ctx context.Context, url string) (html string, err error)

	// Close releases any resources held by the fetcher.
	Close() error
}

// TextExtractor converts a chapter page's raw HTML into plain text with
// paragraphs joined by ParagraphDelimiter.
type TextExtractor interface {
	// ExtractText locates the chapter content region, strips navigation
	// buttons, images, and link wrappers, and normalizes unicode
	// punctuation. Returns EINVALID if the content region is absent.
	ExtractText(html string) (string, error)
}

// ChapterStore persists chapters as one file per index.
type ChapterStore interface {
	// WriteChapter writes a chapter to its index's slot. The write is
	// atomic and skipped entirely when the content is unchanged.
	WriteChapter(ctx context.Context, chapter *Chapter) error

	// ReadChapter reads the chapter cached at index.
	// Returns ENOTFOUND if no file exists for the index.
	ReadChapter(ctx context.Context, index int) (*Chapter, error)

	// ReadIdentity reads only the name and URL cached at index.
	// Returns ENOTFOUND if no file exists for the index.
	ReadIdentity(ctx context.Context, index int) (ChapterIdentity, error)

	// Count returns the number of persisted chapter files.
	Count(ctx context.Context) (int, error)

	// Prune removes every persisted chapter at or beyond index, so a
	// full rewrite leaves no stale files from a longer prior corpus.
	Prune(ctx context.Context, index int) error
}

// InventoryService is the source of truth for chapter count, identity, and
// text. It owns the crawl-reconcile-cache lifecycle: at most one
// reset/update may be in flight at a time, and reads arriving during one
// fail fast with EUNAVAILABLE.
type InventoryService interface {
	// Reset re-derives the full identity list and re-crawls every chapter.
	// Individual chapter failures are recorded as empty text; only a
	// table-of-contents failure aborts the run.
	Reset(ctx context.Context) error

	// Update re-derives the identity list and fetches only newly appended
	// chapters. Returns ECONFLICT if any previously known identity
	// changed; the caller must Reset instead.
	Update(ctx context.Context) error

	// PatchChapter re-fetches and rewrites a single chapter, typically to
	// fill a gap left by a soft fetch failure. Returns ENOTFOUND if index
	// is outside the known identity list.
	PatchChapter(ctx context.Context, index int) error

	// LoadChapters returns records for [start, min(start+count, NumChapters)).
	// Missing cache files are transparently fetched and written first;
	// a failure for one chapter yields an empty-text record.
	LoadChapters(ctx context.Context, start, count int) ([]*Chapter, error)

	// NumChapters returns the current known chapter count.
	NumChapters(ctx context.Context) (int, error)
}
