package core

import "context"

// DocumentExtractor turns raw document bytes into plain text.
// The contentType hint helps the extractor choose the right parsing strategy.
type DocumentExtractor interface {
	ExtractText(ctx context.Context, raw []byte, contentType string) (string, error)
}
