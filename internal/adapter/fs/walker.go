package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"esgrag/internal/port"
)

var _ port.FileWalker = (*Walker)(nil)

// DefaultIncludes selects the report formats the extractors understand.
var DefaultIncludes = []string{"**/*.pdf", "**/*.docx", "**/*.xlsx", "**/*.txt", "**/*.md"}

// Walker selects report files under a directory using doublestar patterns
// matched against slash-separated relative paths.
type Walker struct {
	includes []string
	excludes []string
}

func NewWalker(includes, excludes []string) *Walker {
	if len(includes) == 0 {
		includes = DefaultIncludes
	}
	return &Walker{
		includes: includes,
		excludes: excludes,
	}
}

// Walk returns the matching files under root sorted by path.
func (w *Walker) Walk(root string) ([]port.FileInfo, error) {
	var files []port.FileInfo

	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if info.IsDir() {
			if relPath != "." && (strings.HasPrefix(info.Name(), ".") || w.shouldExclude(relPath+"/")) {
				return filepath.SkipDir
			}
			return nil
		}

		if w.shouldInclude(relPath) && !w.shouldExclude(relPath) {
			files = append(files, port.FileInfo{
				Path:    path,
				ModTime: info.ModTime().Unix(),
				Size:    info.Size(),
			})
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// Resolve maps a CLI argument to a single report file. A directory must
// contain exactly one matching report.
func (w *Walker) Resolve(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return path, nil
	}

	files, err := w.Walk(path)
	if err != nil {
		return "", fmt.Errorf("failed to scan %s: %w", path, err)
	}

	switch len(files) {
	case 0:
		return "", fmt.Errorf("no report found in %s (patterns: %s)", path, strings.Join(w.includes, ", "))
	case 1:
		return files[0].Path, nil
	default:
		names := make([]string, len(files))
		for i, f := range files {
			names[i] = filepath.Base(f.Path)
		}
		return "", fmt.Errorf("%s contains %d reports (%s); pass a single file", path, len(files), strings.Join(names, ", "))
	}
}

func (w *Walker) shouldInclude(path string) bool {
	for _, pattern := range w.includes {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}

func (w *Walker) shouldExclude(path string) bool {
	for _, pattern := range w.excludes {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}
