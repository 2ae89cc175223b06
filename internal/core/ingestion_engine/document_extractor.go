package ingestion_engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"

	"code.sajari.com/docconv"

	"github.com/jstepanek/textlens/internal/core"
)

var _ core.DocumentExtractor = (*DocconvExtractor)(nil)

func NewDocconvExtractor(useReadability bool) *DocconvExtractor {
	return &DocconvExtractor{useReadability: useReadability}
}

// ExtractText uses docconv (pdftotext) to extract text from the given bytes.
func (e *DocconvExtractor) ExtractText(ctx context.Context, raw []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	res, err := docconv.Convert(bytes.NewReader(raw), contentType, e.useReadability)
	if err != nil {
		return "", fmt.Errorf("docconv: %w", describeExit(err))
	}
	return res.Body, nil
}

// describeExit turns pdftotext exit codes into diagnostics the classifier
// understands. Exit code 3 is pdftotext's permission error.
func describeExit(err error) error {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return err
	}
	switch exitErr.ExitCode() {
	case 3:
		return fmt.Errorf("pdftotext permission error, document is encrypted: %w", err)
	case 1:
		return fmt.Errorf("pdftotext could not open the document: %w", err)
	default:
		return err
	}
}
