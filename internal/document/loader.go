package document

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

var (
	ErrUnsupported   = errors.New("unsupported document format")
	ErrEmptyDocument = errors.New("document has no text")
)

// Source is a document's extracted text.
type Source struct {
	Path     string
	Filename string
	Content  string
}

var textExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".json":     true,
	".html":     true,
	".log":      true,
}

// Supported reports whether Load can read files with the extension of path.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".pdf" || textExtensions[ext]
}

// Load extracts the text of a PDF or plain text file.
func Load(path string) (Source, error) {
	ext := strings.ToLower(filepath.Ext(path))

	var (
		text string
		err  error
	)
	switch {
	case ext == ".pdf":
		text, err = loadPDF(path)
	case textExtensions[ext]:
		text, err = loadText(path)
	default:
		return Source{}, fmt.Errorf("%w: %s", ErrUnsupported, path)
	}
	if err != nil {
		return Source{}, err
	}

	if strings.TrimSpace(text) == "" {
		return Source{}, fmt.Errorf("%w: %s", ErrEmptyDocument, path)
	}

	return Source{
		Path:     path,
		Filename: filepath.Base(path),
		Content:  text,
	}, nil
}

func loadText(path string) (string, error) {
	b, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	if !utf8.Valid(b) {
		return "", fmt.Errorf("%w: %s is not valid UTF-8", ErrUnsupported, path)
	}
	return string(b), nil
}

func loadPDF(path string) (string, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return "", fmt.Errorf("stat pdf %s: %w", path, err)
	}

	reader, err := pdf.NewReader(file, info.Size())
	if err != nil {
		return "", fmt.Errorf("read pdf %s: %w", path, err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			slog.Warn("Failed to extract text from page", "file", path, "page", i, "error", err)
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}
