package analyzer

import (
	"testing"
)

func TestTokenizer_Tokenize_WithStemming(t *testing.T) {
	tok := NewTokenizer(true)

	tokens := tok.Tokenize("reducing emissions are ongoing")
	if len(tokens) != 3 {
		t.Errorf("expected 3 tokens, got %d: %v", len(tokens), tokens)
	}

	hasReduc := false
	for _, token := range tokens {
		if token == "reduc" {
			hasReduc = true
		}
	}
	if !hasReduc {
		t.Errorf("expected 'reducing' to be stemmed to 'reduc', got %v", tokens)
	}
}

func TestTokenizer_Tokenize_WithoutStemming(t *testing.T) {
	tok := NewTokenizer(false)

	tokens := tok.Tokenize("reducing emissions are ongoing")
	if len(tokens) != 3 {
		t.Errorf("expected 3 tokens, got %d: %v", len(tokens), tokens)
	}
	if tokens[0] != "reducing" {
		t.Errorf("expected 'reducing' to remain unstemmed, got %v", tokens)
	}
}

func TestTokenizer_StopwordRemoval(t *testing.T) {
	tok := NewTokenizer(false)

	tokens := tok.Tokenize("the board of directors")
	for _, token := range tokens {
		if token == "the" || token == "of" {
			t.Errorf("stopwords should be removed, got %v", tokens)
		}
	}
}

func TestTokenizer_ShortWordRemoval(t *testing.T) {
	tok := NewTokenizer(false)

	tokens := tok.Tokenize("a I go to")
	for _, token := range tokens {
		if len(token) < 2 {
			t.Errorf("short word should be removed: %s", token)
		}
	}
}

func TestTokenizer_CountTokens(t *testing.T) {
	tok := NewTokenizer(false)

	count := tok.CountTokens("hello world this is a test")
	if count < 6 {
		t.Errorf("expected count >= 6 words, got %d", count)
	}
}

func TestTokenizer_EmptyInput(t *testing.T) {
	tok := NewTokenizer(true)

	if tokens := tok.Tokenize(""); len(tokens) != 0 {
		t.Errorf("expected 0 tokens for empty input, got %d", len(tokens))
	}
	if count := tok.CountTokens(""); count != 0 {
		t.Errorf("expected 0 count for empty input, got %d", count)
	}
}

func TestSplitWords(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{"hello world", 2},
		{"scope_3", 1},
		{"net-zero", 2},
		{"CO2 (tonnes, 2024)", 3},
		{"   ", 0},
		{"émissions réduites", 2},
	}

	for _, tt := range tests {
		words := splitWords(tt.input)
		if len(words) != tt.expected {
			t.Errorf("splitWords(%q) = %d words, want %d: %v", tt.input, len(words), tt.expected, words)
		}
	}
}

func TestTruncateWords(t *testing.T) {
	tests := []struct {
		input    string
		max      int
		expected string
	}{
		{"one two three four", 2, "one two"},
		{"one two", 2, "one two"},
		{"one, two; three.", 2, "one, two"},
		{"", 3, ""},
		{"anything goes", 0, "anything goes"},
	}

	for _, tt := range tests {
		if got := TruncateWords(tt.input, tt.max); got != tt.expected {
			t.Errorf("TruncateWords(%q, %d) = %q, want %q", tt.input, tt.max, got, tt.expected)
		}
	}
}

func TestPorterStemmer(t *testing.T) {
	s := NewPorterStemmer()
	tests := map[string]string{
		"caresses":    "caress",
		"ponies":      "poni",
		"relational":  "relat",
		"conditional": "condit",
		"hopping":     "hop",
		"emissions":   "emiss",
		"governance":  "govern",
		"at":          "at",
	}

	for in, want := range tests {
		if got := s.Stem(in); got != want {
			t.Errorf("Stem(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeText(t *testing.T) {
	if got := NormalizeText("eﬃcient\r\nuse"); got != "efficient\nuse" {
		t.Errorf("unexpected normalization: %q", got)
	}
	if got := NormalizeText("ＣＯ２"); got != "CO2" {
		t.Errorf("expected full-width folding, got %q", got)
	}
}
