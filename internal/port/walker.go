package port

type FileWalker interface {
	Walk(root string) ([]FileInfo, error)
}

type FileInfo struct {
	Path    string
	ModTime int64
	Size    int64
}

// TextExtractor turns an uploaded report file into plain text.
type TextExtractor interface {
	Extract(path string) (string, error)
}
