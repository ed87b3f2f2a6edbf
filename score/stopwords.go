package score

// stopWordThreshold is the minimum number of query terms at which filler
// words are dropped. Shorter queries are assumed intentional, e.g. a
// search for a single common word.
const stopWordThreshold = 3

// stopWords holds common filler words excluded from longer queries.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "at": {}, "be": {}, "by": {},
	"did": {}, "do": {}, "does": {}, "for": {}, "go": {}, "goes": {},
	"if": {}, "in": {}, "is": {}, "it": {}, "the": {}, "to": {},
	"that": {}, "was": {}, "what": {}, "then": {}, "than": {},
	"not": {}, "ok": {}, "from": {}, "isn't": {}, "has": {},
	"have": {}, "get": {},
}
