package ingestion_engine

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/jstepanek/textlens/internal/core"
)

var _ core.DocumentExtractor = (*PDFReaderExtractor)(nil)

func NewPDFReaderExtractor() *PDFReaderExtractor {
	return &PDFReaderExtractor{}
}

// ExtractText reads the document page by page. Pages whose content stream
// cannot be decoded are skipped; an error is returned only when the document
// itself cannot be opened.
func (e *PDFReaderExtractor) ExtractText(ctx context.Context, raw []byte, _ string) (text string, err error) {
	// the reader panics on some malformed object graphs
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("pdf reader: %w", err)
	}

	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := pageText(page)
		if err != nil {
			continue
		}
		if b.Len() > 0 && content != "" {
			b.WriteString("\n")
		}
		b.WriteString(content)
	}
	return b.String(), nil
}

func pageText(page pdf.Page) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("page: %v", r)
		}
	}()
	return page.GetPlainText(nil)
}
