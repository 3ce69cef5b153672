// Package extract turns uploaded report files into normalized plain text.
package extract

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"esgrag/internal/adapter/analyzer"
)

var (
	// ErrNoText indicates a file yielded no text, e.g. a scanned PDF.
	ErrNoText = errors.New("no extractable text")

	ErrUnsupported = errors.New("unsupported file format")
)

// Func extracts raw text from a file.
type Func func(path string) (string, error)

// Registry dispatches extraction on the lower-cased file extension.
type Registry struct {
	byExt map[string]Func
}

// NewRegistry returns a registry with the PDF, DOCX, XLSX and plain text
// extractors installed.
func NewRegistry() *Registry {
	r := &Registry{byExt: make(map[string]Func)}
	r.Register(".pdf", extractPDF)
	r.Register(".docx", extractDOCX)
	r.Register(".xlsx", extractXLSX)
	r.Register(".txt", extractPlain)
	r.Register(".md", extractPlain)
	return r
}

func (r *Registry) Register(ext string, fn Func) {
	r.byExt[strings.ToLower(ext)] = fn
}

// Extensions lists the registered extensions in sorted order.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Extract returns the normalized text of the file at path.
func (r *Registry) Extract(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	fn, ok := r.byExt[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q (supported: %s)", ErrUnsupported, ext, strings.Join(r.Extensions(), ", "))
	}

	raw, err := fn(path)
	if err != nil {
		return "", fmt.Errorf("failed to extract %s: %w", filepath.Base(path), err)
	}

	text := analyzer.NormalizeText(raw)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%s: %w", filepath.Base(path), ErrNoText)
	}
	return text, nil
}
