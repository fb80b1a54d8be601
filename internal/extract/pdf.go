// Package extract pulls plain text out of uploaded documents, tagging each
// page with an inline [Page N] marker for downstream chunking.
package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dslipak/pdf"

	"github.com/ragbot/ragbot/internal/domain"
)

// PDF extracts the text of every page of a PDF document. Each page's text is
// preceded by a "[Page N]" marker, pages numbered from 1. A document with no
// extractable text yields ErrEmptyDocument.
func PDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read pdf: %w", err)
	}

	var b strings.Builder
	for num := 1; num <= reader.NumPage(); num++ {
		page := reader.Page(num)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to extract text from page %d: %w", num, err)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		fmt.Fprintf(&b, "\n[Page %d]\n%s", num, text)
	}

	if b.Len() == 0 {
		return "", domain.ErrEmptyDocument
	}
	return b.String(), nil
}
