package ingestion_engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jstepanek/textlens/internal/core"
	"github.com/jstepanek/textlens/internal/models"
)

const pdfContentType = "application/pdf"

// NewDocumentIngestor wires the PDF extractors. fallback may be nil, in which
// case a primary failure is reported directly.
func NewDocumentIngestor(primary, fallback core.DocumentExtractor, cfg *IngestConfig, log *zap.Logger) *DocumentIngestor {
	if cfg == nil {
		cfg = &IngestConfig{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &DocumentIngestor{primary: primary, fallback: fallback, cfg: cfg, log: log}
}

// Extract classifies the upload and returns its text. Every failure is an
// *IngestionError.
func (i *DocumentIngestor) Extract(ctx context.Context, doc models.UploadedDocument) (models.ExtractedText, error) {
	kind := classify(doc)
	if kind == kindUnsupported {
		return models.ExtractedText{}, newError(KindUnsupportedType, fmt.Errorf("%q has media type %q", doc.Name, doc.MimeHint))
	}
	if len(doc.Raw) == 0 {
		return models.ExtractedText{}, newError(KindEmptyContent, nil)
	}

	if kind == kindText {
		return decodeText(doc.Raw)
	}
	return i.extractPDF(ctx, doc)
}

// decodeText reads raw bytes as UTF-8. A leading byte-order mark is dropped and
// invalid sequences become U+FFFD.
func decodeText(raw []byte) (models.ExtractedText, error) {
	text := strings.TrimPrefix(string(raw), "\ufeff")
	text = strings.ToValidUTF8(text, "\uFFFD")

	out := models.ExtractedText{Content: text}
	if out.IsBlank() {
		return models.ExtractedText{}, newError(KindEmptyContent, nil)
	}
	return out, nil
}

// extractPDF runs the primary extractor and, unless it succeeded or failed on
// a password or encryption problem, exactly one fallback attempt.
func (i *DocumentIngestor) extractPDF(ctx context.Context, doc models.UploadedDocument) (models.ExtractedText, error) {
	primaryText, primaryErr := i.attempt(ctx, i.primary, doc.Raw)
	if primaryErr == nil && strings.TrimSpace(primaryText) != "" {
		return models.ExtractedText{Content: primaryText}, nil
	}
	if err := ctx.Err(); err != nil {
		return models.ExtractedText{}, err
	}
	if primaryErr != nil {
		if k := classifyPDFError(primaryErr); isTerminal(k) {
			return models.ExtractedText{}, newError(k, primaryErr)
		}
	}

	if i.fallback == nil {
		return models.ExtractedText{}, failure(primaryErr, nil, primaryErr == nil)
	}

	i.log.Warn("primary PDF extraction yielded no text, trying fallback",
		zap.String("document", doc.Name),
		zap.Error(primaryErr),
	)

	fallbackText, fallbackErr := i.attempt(ctx, i.fallback, doc.Raw)
	if fallbackErr == nil && strings.TrimSpace(fallbackText) != "" {
		return models.ExtractedText{Content: fallbackText}, nil
	}
	if err := ctx.Err(); err != nil {
		return models.ExtractedText{}, err
	}

	emptyRead := primaryErr == nil || fallbackErr == nil
	return models.ExtractedText{}, failure(primaryErr, fallbackErr, emptyRead)
}

// failure picks the most specific kind across both attempts. When nothing
// more specific is known and at least one extractor read the file cleanly,
// the document simply has no text layer.
func failure(primaryErr, fallbackErr error, emptyRead bool) *IngestionError {
	best := Kind("")
	for _, err := range []error{fallbackErr, primaryErr} {
		if k := classifyPDFError(err); k != "" && rank(k) > rank(best) {
			best = k
		}
	}

	if best == "" || (best == KindExtractionFailed && emptyRead) {
		return newError(KindNoExtractableText, nil)
	}

	var diags []error
	if primaryErr != nil {
		diags = append(diags, fmt.Errorf("primary: %w", primaryErr))
	}
	if fallbackErr != nil {
		diags = append(diags, fmt.Errorf("fallback: %w", fallbackErr))
	}
	return newError(best, errors.Join(diags...))
}

func rank(k Kind) int {
	switch k {
	case KindPasswordProtected:
		return 4
	case KindEncrypted:
		return 3
	case KindCorruptStructure:
		return 2
	case KindExtractionFailed:
		return 1
	default:
		return 0
	}
}

// attempt runs one extractor off the calling goroutine so a wedged parser
// cannot outlive ctx.
func (i *DocumentIngestor) attempt(ctx context.Context, ex core.DocumentExtractor, raw []byte) (string, error) {
	if i.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.cfg.Timeout)
		defer cancel()
	}

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		text, err := ex.ExtractText(ctx, raw, pdfContentType)
		done <- result{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		return r.text, r.err
	}
}
