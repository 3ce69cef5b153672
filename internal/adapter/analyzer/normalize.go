package analyzer

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

var lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// NormalizeText applies NFKC and converts line endings to "\n". Ligatures and
// full-width forms produced by PDF extraction become plain characters, which
// keeps keyword matching stable.
func NormalizeText(text string) string {
	return lineEndings.Replace(norm.NFKC.String(text))
}
