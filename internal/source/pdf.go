package source

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// Pages extracts the plain text of each page of a PDF. Pages whose content
// cannot be decoded are skipped rather than failing the whole document.
func Pages(data []byte) ([]string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	var pages []string
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if text != "" {
			pages = append(pages, text)
		}
	}
	return pages, nil
}
