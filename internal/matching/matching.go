// Package matching provides question-text normalization and the token-overlap
// similarity used to match new questions against previously learned ones.
package matching

import (
	"regexp"
	"strings"
)

// SimilarityThreshold is the minimum token-overlap score for a fuzzy match.
const SimilarityThreshold = 0.75

var whitespaceRe = regexp.MustCompile(`\s+`)

// stopWords are ignored when tokenizing question text.
var stopWords = map[string]struct{}{
	"what": {}, "is": {}, "your": {}, "the": {}, "a": {},
	"an": {}, "are": {}, "you": {}, "my": {}, "enter": {},
}

// keyIndicators are words that disambiguate otherwise similar questions.
// When either side of a comparison contains any of them, both sides must
// contain exactly the same ones or the match is rejected outright.
var keyIndicators = map[string]struct{}{
	"mother": {}, "father": {}, "parent": {}, "emergency": {},
	"current": {}, "previous": {}, "dream": {}, "favorite": {},
	"home": {}, "work": {}, "school": {}, "primary": {}, "alternate": {},
}

// CleanQuestionText normalizes a question label into the canonical key used
// for matching and storage: required-field asterisks removed, internal
// whitespace and newlines collapsed, trailing '?' and ':' trimmed.
// The function is idempotent.
func CleanQuestionText(question string) string {
	question = strings.ReplaceAll(question, "*", "")
	question = whitespaceRe.ReplaceAllString(question, " ")
	question = strings.TrimSpace(question)
	question = strings.TrimRight(question, "?")
	question = strings.TrimRight(question, ":")
	return strings.TrimSpace(question)
}

// tokens returns the lowercase words of s minus stop words.
func tokens(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(s)) {
		if _, stop := stopWords[w]; !stop {
			out[w] = struct{}{}
		}
	}
	return out
}

// Similarity computes |tokens(a) ∩ tokens(b)| / max(|tokens(a)|, |tokens(b)|).
// Either side tokenizing to nothing yields 0.
func Similarity(a, b string) float64 {
	ta, tb := tokens(a), tokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	common := 0
	for w := range ta {
		if _, ok := tb[w]; ok {
			common++
		}
	}
	denom := len(ta)
	if len(tb) > denom {
		denom = len(tb)
	}
	return float64(common) / float64(denom)
}

// IsSimilar reports whether two questions are close enough to share an
// answer. The similarity score must reach SimilarityThreshold and any key
// indicator words present on either side must match exactly, so that
// "mother's name" never matches "father's name" on lexical overlap alone.
func IsSimilar(a, b string) bool {
	if Similarity(a, b) < SimilarityThreshold {
		return false
	}
	ka := indicatorSet(a)
	kb := indicatorSet(b)
	if len(ka) == 0 && len(kb) == 0 {
		return true
	}
	if len(ka) != len(kb) {
		return false
	}
	for w := range ka {
		if _, ok := kb[w]; !ok {
			return false
		}
	}
	return true
}

func indicatorSet(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for w := range tokens(s) {
		if _, ok := keyIndicators[w]; ok {
			out[w] = struct{}{}
		}
	}
	return out
}
