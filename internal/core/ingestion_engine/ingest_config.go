package ingestion_engine

import (
	"time"

	"go.uber.org/zap"

	"github.com/jstepanek/textlens/internal/core"
)

// IngestConfig tunes extraction.
//
// Timeout: upper bound for a single extraction attempt (0 disables it).
type IngestConfig struct {
	Timeout time.Duration
}

// DocumentIngestor turns uploaded bytes into plain text.
//
// primary:  first PDF extractor (docconv / pdftotext).
// fallback: second PDF extractor, tried once when the primary yields nothing.
// cfg:      runtime tuning knobs.
type DocumentIngestor struct {
	primary  core.DocumentExtractor
	fallback core.DocumentExtractor
	cfg      *IngestConfig
	log      *zap.Logger
}

// DocconvExtractor implements core.DocumentExtractor using sajari/docconv.
type DocconvExtractor struct {
	useReadability bool
}

// PDFReaderExtractor implements core.DocumentExtractor with the pure-Go
// ledongthuc/pdf reader.
type PDFReaderExtractor struct{}
