package ingestion_engine

import (
	"errors"
	"strings"
)

// Kind identifies why a document could not be turned into text.
type Kind string

const (
	KindUnsupportedType   Kind = "unsupported_type"
	KindEmptyContent      Kind = "empty_content"
	KindPasswordProtected Kind = "password_protected"
	KindEncrypted         Kind = "encrypted"
	KindCorruptStructure  Kind = "corrupt_structure"
	KindNoExtractableText Kind = "no_extractable_text"
	KindExtractionFailed  Kind = "extraction_failed"
)

// IngestionError is returned for every failed extraction. Message carries a
// remediation hint suitable for showing to the uploader.
type IngestionError struct {
	Kind Kind
	Err  error
}

func (e *IngestionError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return string(e.Kind) + ": " + e.Err.Error()
}

func (e *IngestionError) Unwrap() error { return e.Err }

func (e *IngestionError) Message() string {
	switch e.Kind {
	case KindUnsupportedType:
		return "Unsupported file type. Please upload a PDF or text file."
	case KindEmptyContent:
		return "No content found in file"
	case KindPasswordProtected:
		return "This PDF is password-protected. Remove the password (for example by printing it to a new PDF) and upload it again."
	case KindEncrypted:
		return "This PDF is encrypted and its text cannot be read. Save an unencrypted copy and upload it again."
	case KindCorruptStructure:
		return "This PDF appears to be damaged: its cross-reference table could not be read. Re-save or repair the file and upload it again."
	case KindNoExtractableText:
		return "No extractable text was found in this PDF. It may contain only scanned images; run it through OCR and upload the result."
	default:
		if e.Err != nil {
			return "Failed to extract text from the document: " + e.Err.Error()
		}
		return "Failed to extract text from the document."
	}
}

func newError(kind Kind, err error) *IngestionError {
	return &IngestionError{Kind: kind, Err: err}
}

// classifyPDFError maps an extractor diagnostic onto an ingestion kind.
// Unrecognised diagnostics map to KindExtractionFailed.
func classifyPDFError(err error) Kind {
	if err == nil {
		return ""
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "password"):
		return KindPasswordProtected
	case strings.Contains(msg, "encrypt"):
		return KindEncrypted
	case containsAny(msg, "xref", "cross-reference", "startxref", "trailer", "malformed", "corrupt", "damaged", "not a pdf"):
		return KindCorruptStructure
	default:
		return KindExtractionFailed
	}
}

func isTerminal(kind Kind) bool {
	return kind == KindPasswordProtected || kind == KindEncrypted
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// AsIngestionError unwraps err into an *IngestionError when it is one.
func AsIngestionError(err error) (*IngestionError, bool) {
	var ie *IngestionError
	if errors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}
