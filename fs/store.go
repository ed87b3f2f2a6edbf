// Package fs provides file-based chapter storage. Each chapter lives in
// one file named by its zero-based index, holding the chapter name on the
// first line, the canonical URL on the second, and the plain text after
// that. Only the first two newlines are structural; the text itself keeps
// its paragraph-delimiting newlines verbatim.
package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/innsearch"
)

// chapterExt is the extension of chapter cache files.
const chapterExt = ".txt"

// Ensure ChapterStore implements innsearch.ChapterStore at compile time.
var _ innsearch.ChapterStore = (*ChapterStore)(nil)

// ChapterStore persists chapters as <index>.txt files under a directory.
// Writes are atomic (temp file + rename) and skipped when the content is
// unchanged, so a no-op update leaves every file untouched.
type ChapterStore struct {
	dir string
}

// NewChapterStore creates a store rooted at dir. The directory is created
// on the first write if it does not exist.
func NewChapterStore(dir string) *ChapterStore {
	return &ChapterStore{dir: dir}
}

func (s *ChapterStore) path(index int) string {
	return filepath.Join(s.dir, fmt.Sprintf("%d%s", index, chapterExt))
}

// WriteChapter writes a chapter to its index's file. The content is first
// written to a temp file in the same directory and renamed into place, so
// a crashed write never leaves a half-written chapter. If the existing
// file already holds identical content the write is skipped.
func (s *ChapterStore) WriteChapter(ctx context.Context, chapter *innsearch.Chapter) error {
	if err := chapter.Validate(); err != nil {
		return err
	}

	content := FormatChapter(chapter)
	path := s.path(chapter.Index)

	if existing, err := os.ReadFile(path); err == nil {
		if xxhash.Sum64(existing) == xxhash.Sum64String(content) {
			return nil
		}
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, fmt.Sprintf("%d-*.tmp", chapter.Index))
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// FormatChapter formats a chapter's file content: name, URL, then text,
// joined by newlines.
func FormatChapter(chapter *innsearch.Chapter) string {
	var b strings.Builder
	b.WriteString(chapter.Name)
	b.WriteString("\n")
	b.WriteString(chapter.URL)
	b.WriteString("\n")
	b.WriteString(chapter.Text)
	return b.String()
}

// ReadChapter reads the chapter cached at index.
// Returns ENOTFOUND if no file exists for the index.
func (s *ChapterStore) ReadChapter(ctx context.Context, index int) (*innsearch.Chapter, error) {
	data, err := os.ReadFile(s.path(index))
	if os.IsNotExist(err) {
		return nil, innsearch.Errorf(innsearch.ENOTFOUND, "chapter %d not cached", index)
	} else if err != nil {
		return nil, err
	}

	name, rest, _ := strings.Cut(string(data), "\n")
	url, text, _ := strings.Cut(rest, "\n")
	return &innsearch.Chapter{
		Index: index,
		Name:  name,
		URL:   url,
		Text:  text,
	}, nil
}

// ReadIdentity reads only the name and URL cached at index, without
// loading the chapter text.
func (s *ChapterStore) ReadIdentity(ctx context.Context, index int) (innsearch.ChapterIdentity, error) {
	chapter, err := s.ReadChapter(ctx, index)
	if err != nil {
		return innsearch.ChapterIdentity{}, err
	}
	return chapter.Identity(), nil
}

// Count returns the number of chapter files in the store's directory.
func (s *ChapterStore) Count(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return 0, nil
	} else if err != nil {
		return 0, err
	}

	count := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), chapterExt) {
			continue
		}
		if isDigits(strings.TrimSuffix(entry.Name(), chapterExt)) {
			count++
		}
	}
	return count, nil
}

// Prune removes every chapter file at or beyond index.
func (s *ChapterStore) Prune(ctx context.Context, index int) error {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), chapterExt) {
			continue
		}
		base := strings.TrimSuffix(entry.Name(), chapterExt)
		if !isDigits(base) {
			continue
		}
		var i int
		if _, err := fmt.Sscanf(base, "%d", &i); err != nil {
			continue
		}
		if i >= index {
			if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil {
				return err
			}
		}
	}
	return nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
