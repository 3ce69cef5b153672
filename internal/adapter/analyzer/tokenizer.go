package analyzer

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Tokenizer splits report text into lowercase terms with optional stemming
// and stopword removal.
type Tokenizer struct {
	stemmer   *PorterStemmer
	stopwords map[string]struct{}
	useStem   bool
}

// NewTokenizer creates a new Tokenizer.
func NewTokenizer(useStemming bool) *Tokenizer {
	var stemmer *PorterStemmer
	if useStemming {
		stemmer = NewPorterStemmer()
	}
	return &Tokenizer{
		stemmer:   stemmer,
		stopwords: defaultStopwords(),
		useStem:   useStemming,
	}
}

// Tokenize splits text into terms.
func (t *Tokenizer) Tokenize(text string) []string {
	spans := WordSpans(text)
	tokens := make([]string, 0, len(spans))

	for _, sp := range spans {
		word := strings.ToLower(text[sp.Start:sp.End])
		if utf8.RuneCountInString(word) < 2 {
			continue
		}
		if _, isStop := t.stopwords[word]; isStop {
			continue
		}
		if t.useStem && t.stemmer != nil {
			word = t.stemmer.Stem(word)
		}
		tokens = append(tokens, word)
	}

	return tokens
}

// CountTokens returns an approximate model token count for prompt budgeting.
// An average word is about 1.3 subword tokens.
func (t *Tokenizer) CountTokens(text string) int {
	n := len(WordSpans(text))
	if n == 0 {
		return 0
	}
	return int(float64(n) * 1.3)
}

// Span is the byte range of one word in a string.
type Span struct {
	Start int
	End   int
}

// WordSpans returns the byte ranges of the words in text. A word is a run of
// letters, digits and underscores.
func WordSpans(text string) []Span {
	var spans []Span
	start := -1

	for i, r := range text {
		if isWordRune(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			spans = append(spans, Span{Start: start, End: i})
			start = -1
		}
	}
	if start >= 0 {
		spans = append(spans, Span{Start: start, End: len(text)})
	}

	return spans
}

// TruncateWords cuts text right after its max-th word. Text with max words
// or fewer is returned unchanged.
func TruncateWords(text string, max int) string {
	if max <= 0 {
		return text
	}
	spans := WordSpans(text)
	if len(spans) <= max {
		return text
	}
	return text[:spans[max-1].End]
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func splitWords(text string) []string {
	spans := WordSpans(text)
	words := make([]string, len(spans))
	for i, sp := range spans {
		words[i] = text[sp.Start:sp.End]
	}
	return words
}

// defaultStopwords returns a set of common English stopwords.
func defaultStopwords() map[string]struct{} {
	stops := []string{
		"a", "an", "and", "are", "as", "at", "be", "by", "for",
		"from", "has", "he", "in", "is", "it", "its", "of", "on",
		"that", "the", "to", "was", "were", "will", "with", "this",
		"have", "had", "but", "not", "you", "your", "we", "our",
		"they", "their", "she", "her", "his", "if", "or", "so",
		"no", "can", "do", "does", "did", "been", "being", "would",
		"could", "should", "may", "might", "must", "shall", "which",
		"who", "whom", "what", "when", "where", "why", "how", "all",
		"each", "every", "both", "few", "more", "most", "other",
		"some", "such", "than", "too", "very", "just", "also",
	}
	m := make(map[string]struct{}, len(stops))
	for _, s := range stops {
		m[s] = struct{}{}
	}
	return m
}
