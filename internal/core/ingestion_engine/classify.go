package ingestion_engine

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/jstepanek/textlens/internal/models"
)

type documentKind int

const (
	kindUnsupported documentKind = iota
	kindPDF
	kindText
)

var textSuffixes = map[string]bool{".txt": true, ".text": true, ".md": true}

// classify decides how a document is read from its declared media type and
// file name. Untyped uploads with an unknown suffix are sniffed.
func classify(doc models.UploadedDocument) documentKind {
	mt := strings.ToLower(strings.TrimSpace(doc.MimeHint))
	ext := strings.ToLower(filepath.Ext(doc.Name))

	if strings.Contains(mt, "pdf") || ext == ".pdf" {
		return kindPDF
	}
	if strings.Contains(mt, "text") || strings.Contains(mt, "plain") || textSuffixes[ext] {
		return kindText
	}
	if mt != "" && mt != "application/octet-stream" {
		return kindUnsupported
	}
	if len(doc.Raw) == 0 {
		return kindUnsupported
	}

	sniffed := mimetype.Detect(doc.Raw)
	switch {
	case sniffed.Is("application/pdf"):
		return kindPDF
	case sniffed.Is("text/plain"):
		return kindText
	default:
		return kindUnsupported
	}
}
