// Package score computes chapter relevance scores and display excerpts
// for a set of query terms. The ranking formula is heuristic and fixed:
// match count times per-term frequency multipliers times a pairwise
// proximity multiplier.
package score

import (
	"math"
	"regexp"
	"strings"

	"github.com/fwojciec/innsearch"
)

// clusterDistance is the maximum gap in bytes between two hit offsets
// sharing one excerpt.
const clusterDistance = 200

// Result holds a single chapter's relevance score and excerpts.
type Result struct {
	Score    float64
	Excerpts []string
}

// Scorer scores chapter texts against query terms. It holds no state
// between calls and is safe for concurrent use.
type Scorer struct{}

// NewScorer returns a new Scorer.
func NewScorer() *Scorer {
	return &Scorer{}
}

// termHits records one term's occurrences within a text.
type termHits struct {
	term    string
	count   int
	offsets []int
}

// ScoreText scores a chapter's text against the query terms and extracts
// excerpts around the term occurrences. Terms match as case-insensitive
// literal substrings. The score is 0 whenever no term matches, and
// Excerpts is empty exactly in that case.
func (s *Scorer) ScoreText(text string, terms []string) Result {
	filtered := filterStopWords(terms)

	hits := make([]termHits, 0, len(filtered))
	numMatches := 0
	for _, term := range filtered {
		h := findOccurrences(text, term)
		if h.count > 0 {
			numMatches++
		}
		hits = append(hits, h)
	}
	if numMatches == 0 {
		return Result{Score: 0, Excerpts: []string{}}
	}

	score := float64(numMatches)
	for _, h := range hits {
		score *= 1 + freqScore(len(h.term), len(text), h.count)
	}
	score *= proximityMultiplier(hits)

	var all []int
	for _, h := range hits {
		all = append(all, h.offsets...)
	}
	excerpts := NewExcerptExtractor(text, all, clusterDistance, innsearch.ParagraphDelimiter).Excerpts()

	return Result{Score: score, Excerpts: excerpts}
}

// filterStopWords drops filler words, but only once the query is long
// enough to trigger filtering.
func filterStopWords(terms []string) []string {
	if len(terms) < stopWordThreshold {
		return terms
	}
	filtered := make([]string, 0, len(terms))
	for _, term := range terms {
		if _, ok := stopWords[strings.ToLower(term)]; ok {
			continue
		}
		filtered = append(filtered, term)
	}
	return filtered
}

// findOccurrences locates every case-insensitive occurrence of term in
// text as a literal substring. The term is quoted so regex
// metacharacters in user input match literally. Offsets are ascending
// byte positions, capped at maxOccurrences; count reflects every
// occurrence regardless of the cap.
func findOccurrences(text, term string) termHits {
	h := termHits{term: term}
	if term == "" {
		return h
	}
	re, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(term))
	if err != nil {
		return h
	}
	matches := re.FindAllStringIndex(text, -1)
	h.count = len(matches)
	n := len(matches)
	if n > maxOccurrences {
		n = maxOccurrences
	}
	h.offsets = make([]int, 0, n)
	for _, m := range matches[:n] {
		h.offsets = append(h.offsets, m[0])
	}
	return h
}

// freqScore computes the per-term frequency bonus as a function of term
// length, text length, and occurrence count. Between 0 and 1, tends
// small; exactly 0 when the term never occurs or the text is empty.
func freqScore(termLen, textLen, count int) float64 {
	if count == 0 || textLen == 0 {
		return 0
	}
	return math.Sqrt(float64(count*termLen) / float64(textLen))
}

// proximityMultiplier computes the product of 1 + 1/minDiff over all
// unordered pairs of terms' offset lists, rewarding chapters where
// multiple query terms co-occur close together. Pairs where either list
// is empty, or where the minimum difference is zero, contribute nothing.
func proximityMultiplier(hits []termHits) float64 {
	multiplier := 1.0
	for i := 0; i < len(hits); i++ {
		for j := i + 1; j < len(hits); j++ {
			diff := minDifference(hits[i].offsets, hits[j].offsets)
			if diff > 0 && diff != math.MaxInt {
				multiplier *= 1 + 1/float64(diff)
			}
		}
	}
	return multiplier
}

// minDifference computes the minimum absolute difference between any
// element of a and any element of b, both sorted ascending, via a linear
// two-pointer merge. Returns math.MaxInt if either list is empty.
func minDifference(a, b []int) int {
	i, j := 0, 0
	curr := math.MaxInt
	for i < len(a) && j < len(b) {
		diff := a[i] - b[j]
		if diff < 0 {
			diff = -diff
		}
		if diff < curr {
			curr = diff
		}
		if a[i] > b[j] {
			j++
		} else {
			i++
		}
	}
	return curr
}
