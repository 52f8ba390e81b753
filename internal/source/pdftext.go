package source

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFText extracts the text layer of a PDF page by page. Each page is
// introduced by a "--- Page N ---" marker line so that the extraction
// service can tell pages apart (it strips the markers before prompting).
func PDFText(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("pdf: open: %w", err)
	}

	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("pdf: page %d: %w", i, err)
		}
		fmt.Fprintf(&b, "\n--- Page %d ---\n", i)
		b.WriteString(strings.Join(strings.Fields(text), " "))
	}
	return b.String(), nil
}

// PDFReader exposes PDFText as a method value for callers that take an
// interface.
type PDFReader struct{}

func (PDFReader) Text(data []byte) (string, error) { return PDFText(data) }
