package score

import (
	"sort"
	"strings"
)

// maxOccurrences caps both the number of hit offsets considered and the
// number of excerpts produced per chapter, to bound worst-case work on
// pathological high-frequency queries.
const maxOccurrences = 250

// ExcerptExtractor turns a sparse set of character offsets (keyword hit
// positions within a text) into a bounded number of contiguous,
// paragraph-aligned excerpt strings suitable for display.
type ExcerptExtractor struct {
	text     string
	offsets  []int
	distance int
	delim    string

	curr     int
	excerpts []string
	done     bool
}

// NewExcerptExtractor creates an extractor for the given text and hit
// offsets. Offsets need not arrive sorted; each must be a valid byte
// offset into text. distance controls clustering: consecutive offsets
// within distance of each other share an excerpt. delim is the string
// separating two paragraphs of the text.
func NewExcerptExtractor(text string, offsets []int, distance int, delim string) *ExcerptExtractor {
	sorted := make([]int, len(offsets))
	copy(sorted, offsets)
	sort.Ints(sorted)
	return &ExcerptExtractor{
		text:     text,
		offsets:  sorted,
		distance: distance,
		delim:    delim,
	}
}

// Excerpts computes the excerpt list. An excerpt is the concatenation of
// adjacent paragraphs, each wrapped in <p> tags, spanning one cluster of
// offsets. Clusters are formed greedily left to right: starting from the
// first unconsumed offset, absorb each next offset within distance of the
// current one. The result is cached; repeated calls return the same list.
func (e *ExcerptExtractor) Excerpts() []string {
	if !e.done {
		for e.curr < len(e.offsets) && e.curr < maxOccurrences {
			e.consumeExcerpt()
		}
		e.done = true
	}
	out := make([]string, len(e.excerpts))
	copy(out, e.excerpts)
	return out
}

// consumeExcerpt builds one excerpt starting at the offset at e.curr and
// advances e.curr past every offset the excerpt accounts for.
func (e *ExcerptExtractor) consumeExcerpt() {
	if e.curr >= len(e.offsets) {
		return
	}
	first := e.offsets[e.curr]
	progress := e.curr
	for progress+1 < len(e.offsets) &&
		e.offsets[progress+1] <= e.offsets[progress]+e.distance &&
		progress <= maxOccurrences {
		progress++
	}
	last := e.offsets[progress]

	paragraphs, rightMost := e.paragraphs(first, last)
	e.excerpts = append(e.excerpts, strings.Join(paragraphs, ""))

	// Offsets beyond the cluster may still fall inside the last expanded
	// paragraph; they are already visually included, so consume them too
	// to avoid overlapping excerpts.
	e.curr = progress + 1
	for e.curr < len(e.offsets) && e.offsets[e.curr] <= rightMost {
		e.curr++
	}
}

// paragraphs returns the smallest list of consecutive paragraphs of the
// text covering byte offsets start through end, each wrapped in <p> tags,
// along with the largest text offset the paragraphs account for.
func (e *ExcerptExtractor) paragraphs(start, end int) ([]string, int) {
	left := start
	for left > 0 && !e.delimEndsAt(left) {
		left--
	}
	right := end + 1
	for right < len(e.text) && !e.delimStartsAt(right) {
		right++
	}

	pieces := strings.Split(e.text[left:right], e.delim)
	wrapped := make([]string, len(pieces))
	for i, p := range pieces {
		wrapped[i] = "<p>" + p + "</p>"
	}
	return wrapped, right - 1
}

// delimEndsAt reports whether a paragraph delimiter ends exactly at i.
func (e *ExcerptExtractor) delimEndsAt(i int) bool {
	return i >= len(e.delim) && e.text[i-len(e.delim):i] == e.delim
}

// delimStartsAt reports whether a paragraph delimiter starts exactly at i.
func (e *ExcerptExtractor) delimStartsAt(i int) bool {
	return i+len(e.delim) <= len(e.text) && e.text[i:i+len(e.delim)] == e.delim
}
