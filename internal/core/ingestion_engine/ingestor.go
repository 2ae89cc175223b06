package ingestion_engine

import (
	"context"

	"github.com/jstepanek/textlens/internal/models"
)

type Ingestor interface {
	Extract(ctx context.Context, doc models.UploadedDocument) (models.ExtractedText, error)
}

var _ Ingestor = (*DocumentIngestor)(nil)
