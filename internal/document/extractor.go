package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Extractor pulls text out of uploaded document files, one string per
// page, so chunk metadata can record which page a chunk came from.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

func SupportedTypes() []string {
	return []string{".pdf", ".txt"}
}

// ExtractPages returns the document's text segments in page order. Pages
// that yield no text still occupy their slot, keeping indices aligned
// with physical page numbers.
func (e *Extractor) ExtractPages(path string) ([]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return extractPDF(path)
	case ".txt":
		return extractTXT(path)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", filepath.Ext(path))
	}
}

func extractPDF(path string) ([]string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}
	defer f.Close()

	numPages := reader.NumPage()
	pages := make([]string, 0, numPages)

	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, text)
	}

	return pages, nil
}

func extractTXT(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read TXT: %w", err)
	}
	return []string{strings.TrimSpace(string(data))}, nil
}
